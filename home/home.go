// Package home backs the landing page widgets under /api/home/:section.
package home

import (
	"net/http"
	"strings"

	"github.com/jane4246/coffee-advisory/db"
	"github.com/jane4246/coffee-advisory/globals"
	"github.com/jane4246/coffee-advisory/utils"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	recentLimit   = 3
	defaultSeason = "flowering"
)

// GetHomeContent handles all of the dashboard endpoints under /api/home/:section
func GetHomeContent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	section := strings.ToLower(ps.ByName("section"))

	var (
		data interface{}
		err  error
	)

	switch section {
	case "recent-diagnoses":
		data, err = getRecentDiagnoses(r)
	case "seasonal-tips":
		data, err = getSeasonalTips(r)
	case "emergency-contacts":
		data, err = db.Store.GetEmergencyContacts(r.Context())
	default:
		utils.RespondWithError(w, http.StatusNotFound, "Unknown home section")
		return
	}

	if err != nil {
		globals.Logger.Error("home section", zap.String("section", section), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch "+section)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, data)
}

// getRecentDiagnoses returns the newest few diagnoses, scoped to the caller
// when a token was supplied.
func getRecentDiagnoses(r *http.Request) (interface{}, error) {
	list, err := db.Store.GetDiagnoses(r.Context(), utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		return nil, err
	}
	if len(list) > recentLimit {
		list = list[:recentLimit]
	}
	return list, nil
}

func getSeasonalTips(r *http.Request) (interface{}, error) {
	season := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("season")))
	if season == "" {
		season = defaultSeason
	}
	list, err := db.Store.GetFarmingTips(r.Context(), season)
	if err != nil {
		return nil, err
	}
	return utils.M{"season": season, "tips": list}, nil
}
