// Package diagnoses serves the diagnosis history and runs new reports
// through the classifier.
package diagnoses

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jane4246/coffee-advisory/classifier"
	"github.com/jane4246/coffee-advisory/db"
	"github.com/jane4246/coffee-advisory/globals"
	"github.com/jane4246/coffee-advisory/models"
	"github.com/jane4246/coffee-advisory/mq"
	"github.com/jane4246/coffee-advisory/objects"
	"github.com/jane4246/coffee-advisory/utils"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const EventCreated = "diagnosis.created"

var analyzer = &classifier.Analyzer{}

// Configure installs the analyzer used by CreateDiagnosis. A nil
// predictor keeps classification local.
func Configure(p classifier.Predictor) {
	if p == nil {
		analyzer = &classifier.Analyzer{}
		return
	}
	analyzer = classifier.NewAnalyzer(p, openStored)
}

func openStored(ctx context.Context, imageURL string) (io.ReadCloser, error) {
	rc, err := objects.OpenByPath(ctx, imageURL)
	if errors.Is(err, objects.ErrNotFound) || errors.Is(err, objects.ErrInvalidKey) {
		return nil, classifier.ErrNoImage
	}
	return rc, err
}

func GetDiagnoses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	list, err := db.Store.GetDiagnoses(r.Context(), userID)
	if err != nil {
		globals.Logger.Error("fetch diagnoses", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch diagnoses")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func GetDiagnosis(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	d, err := db.Store.GetDiagnosis(r.Context(), ps.ByName("id"))
	if errors.Is(err, db.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Diagnosis not found")
		return
	}
	if err != nil {
		globals.Logger.Error("fetch diagnosis", zap.String("id", ps.ByName("id")), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch diagnosis")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, d)
}

func CreateDiagnosis(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in models.DiagnosisInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid diagnosis data")
		return
	}
	normalize(&in)
	if err := validateInput(in); err != nil {
		utils.RespondWithValidationError(w, "Invalid diagnosis data", err)
		return
	}

	res, err := analyzer.Diagnose(objects.RequestContext(r), classifier.Input{
		Symptoms: in.Symptoms,
		ImageURL: deref(in.ImageURL),
		Method:   in.DiagnosisMethod,
	})
	if err != nil {
		globals.Logger.Error("classify diagnosis", zap.String("method", in.DiagnosisMethod), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create diagnosis")
		return
	}

	d := models.Diagnosis{
		Symptoms:          in.Symptoms,
		DiagnosisMethod:   in.DiagnosisMethod,
		ImageURL:          in.ImageURL,
		VoiceRecordingURL: in.VoiceRecordingURL,
		DiseaseName:       res.DiseaseName,
		Description:       res.Description,
		Severity:          res.Severity,
		Treatment:         res.Treatment,
		Prevention:        res.Prevention,
		Confidence:        optional(res.Confidence),
		AnalysisNotes:     optional(res.AnalysisNotes),
	}
	if uid := utils.GetUserIDFromContext(r.Context()); uid != "" {
		d.UserID = &uid
	}

	saved, err := db.Store.CreateDiagnosis(r.Context(), d)
	if err != nil {
		globals.Logger.Error("save diagnosis", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create diagnosis")
		return
	}

	globals.Logger.Info("diagnosis created",
		zap.String("id", saved.ID),
		zap.String("method", saved.DiagnosisMethod),
		zap.String("disease", saved.DiseaseName),
	)
	_ = mq.Emit(EventCreated, mq.Index{
		EntityType: "diagnosis",
		Method:     "POST",
		EntityId:   saved.ID,
		Data:       saved,
	})

	utils.RespondWithJSON(w, http.StatusOK, saved)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
