package models

import "time"

type FarmingTip struct {
	ID          string    `bson:"_id"         json:"id"          gorm:"primaryKey;type:varchar(36)"`
	Season      string    `bson:"season"      json:"season"      gorm:"not null;index"`
	Title       string    `bson:"title"       json:"title"       gorm:"not null"`
	Description string    `bson:"description" json:"description" gorm:"not null"`
	Priority    string    `bson:"priority"    json:"priority"    gorm:"not null"`
	Category    string    `bson:"category"    json:"category"    gorm:"not null"`
	CreatedAt   time.Time `bson:"createdAt"   json:"createdAt"   gorm:"not null"`
	// Seq keeps insertion order stable where timestamps collide.
	Seq int64 `bson:"seq" json:"-" gorm:"index"`
}

type FarmingTipInput struct {
	Season      string `json:"season"      validate:"required,max=64"`
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Priority    string `json:"priority"    validate:"required,oneof=high medium low"`
	Category    string `json:"category"    validate:"required,oneof=watering fertilizing pruning pest_control"`
}
