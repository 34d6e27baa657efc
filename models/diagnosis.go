package models

import "time"

const (
	MethodImage = "image"
	MethodVoice = "voice"
	MethodText  = "text"
)

const (
	SeverityLow    = "Low Risk"
	SeverityMedium = "Medium Risk"
	SeverityHigh   = "High Risk"
)

type Diagnosis struct {
	ID                string    `bson:"_id"                         json:"id"                gorm:"primaryKey;type:varchar(36)"`
	UserID            *string   `bson:"userId,omitempty"            json:"userId"            gorm:"index"`
	Symptoms          string    `bson:"symptoms"                    json:"symptoms"          gorm:"not null"`
	DiagnosisMethod   string    `bson:"diagnosisMethod"             json:"diagnosisMethod"   gorm:"not null"`
	ImageURL          *string   `bson:"imageUrl,omitempty"          json:"imageUrl"`
	VoiceRecordingURL *string   `bson:"voiceRecordingUrl,omitempty" json:"voiceRecordingUrl"`
	DiseaseName       string    `bson:"diseaseName"                 json:"diseaseName"       gorm:"not null"`
	Description       string    `bson:"description"                 json:"description"       gorm:"not null"`
	Severity          string    `bson:"severity"                    json:"severity"          gorm:"not null"`
	Treatment         string    `bson:"treatment"                   json:"treatment"         gorm:"not null"`
	Prevention        string    `bson:"prevention"                  json:"prevention"        gorm:"not null"`
	Confidence        *string   `bson:"confidence,omitempty"        json:"confidence"`
	AnalysisNotes     *string   `bson:"analysisNotes,omitempty"     json:"analysisNotes"`
	CreatedAt         time.Time `bson:"createdAt"                   json:"createdAt"         gorm:"not null;index"`
	Seq               int64     `bson:"seq"                         json:"-"                 gorm:"index"`
}

// DiagnosisInput is the client payload for POST /api/diagnoses.
type DiagnosisInput struct {
	Symptoms          string  `json:"symptoms"          validate:"max=2000"`
	DiagnosisMethod   string  `json:"diagnosisMethod"   validate:"required,oneof=image voice text"`
	ImageURL          *string `json:"imageUrl"          validate:"omitempty,max=1024"`
	VoiceRecordingURL *string `json:"voiceRecordingUrl" validate:"omitempty,max=1024"`
}
