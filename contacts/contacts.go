// Package contacts lists who a farmer can call for help.
package contacts

import (
	"net/http"
	"strings"

	"github.com/jane4246/coffee-advisory/db"
	"github.com/jane4246/coffee-advisory/globals"
	"github.com/jane4246/coffee-advisory/models"
	"github.com/jane4246/coffee-advisory/mq"
	"github.com/jane4246/coffee-advisory/utils"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// GetEmergencyContacts returns active contacts only.
func GetEmergencyContacts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := db.Store.GetEmergencyContacts(r.Context())
	if err != nil {
		globals.Logger.Error("fetch emergency contacts", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch emergency contacts")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func CreateEmergencyContact(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in models.EmergencyContactInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid contact data")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Organization = strings.TrimSpace(in.Organization)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := utils.Validate(in); err != nil {
		utils.RespondWithValidationError(w, "Invalid contact data", err)
		return
	}

	c, err := db.Store.CreateEmergencyContact(r.Context(), models.EmergencyContact{
		Name:         in.Name,
		Organization: in.Organization,
		PhoneNumber:  in.PhoneNumber,
		ContactType:  in.ContactType,
		IsActive:     in.IsActive,
	})
	if err != nil {
		globals.Logger.Error("create emergency contact", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create emergency contact")
		return
	}
	_ = mq.Emit("contact.created", mq.Index{EntityType: "emergency_contact", Method: "POST", EntityId: c.ID})

	utils.RespondWithJSON(w, http.StatusCreated, c)
}
