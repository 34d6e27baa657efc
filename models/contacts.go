package models

type EmergencyContact struct {
	ID           string `bson:"_id"          json:"id"           gorm:"primaryKey;type:varchar(36)"`
	Name         string `bson:"name"         json:"name"         gorm:"not null"`
	Organization string `bson:"organization" json:"organization" gorm:"not null"`
	PhoneNumber  string `bson:"phoneNumber"  json:"phoneNumber"  gorm:"not null"`
	ContactType  string `bson:"contactType"  json:"contactType"  gorm:"not null"`
	IsActive     string `bson:"isActive"     json:"isActive"     gorm:"not null;default:true"`
	Seq          int64  `bson:"seq"          json:"-"            gorm:"index"`
}

type EmergencyContactInput struct {
	Name         string `json:"name"         validate:"required,max=200"`
	Organization string `json:"organization" validate:"required,max=200"`
	PhoneNumber  string `json:"phoneNumber"  validate:"required,max=32"`
	ContactType  string `json:"contactType"  validate:"required,oneof=extension cooperative veterinary"`
	IsActive     string `json:"isActive"     validate:"omitempty,oneof=true false"`
}
