package diagnoses

import (
	"errors"
	"strings"

	"github.com/jane4246/coffee-advisory/models"
	"github.com/jane4246/coffee-advisory/utils"
)

func normalize(in *models.DiagnosisInput) {
	in.Symptoms = strings.TrimSpace(in.Symptoms)
	in.DiagnosisMethod = strings.ToLower(strings.TrimSpace(in.DiagnosisMethod))
	in.ImageURL = blankToNil(in.ImageURL)
	in.VoiceRecordingURL = blankToNil(in.VoiceRecordingURL)
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// validateInput applies the struct tags, then the rules that depend on the
// diagnosis method.
func validateInput(in models.DiagnosisInput) error {
	fe := utils.FieldErrors{}
	if err := utils.Validate(in); err != nil {
		if !errors.As(err, &fe) {
			return err
		}
	}

	switch in.DiagnosisMethod {
	case models.MethodText, models.MethodVoice:
		if in.Symptoms == "" {
			fe["symptoms"] = "is required"
		}
	case models.MethodImage:
		if in.Symptoms == "" && in.ImageURL == nil {
			fe["imageUrl"] = "is required when no symptoms are given"
		}
	}
	if in.ImageURL != nil && in.DiagnosisMethod != models.MethodImage {
		fe["imageUrl"] = "is only allowed for image diagnoses"
	}
	if in.VoiceRecordingURL != nil && in.DiagnosisMethod != models.MethodVoice {
		fe["voiceRecordingUrl"] = "is only allowed for voice diagnoses"
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}
