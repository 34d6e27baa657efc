package models

type User struct {
	ID       string `bson:"_id"      json:"id"       gorm:"primaryKey;type:varchar(36)"`
	Username string `bson:"username" json:"username" gorm:"uniqueIndex;not null"`
	// Password holds the bcrypt hash.
	Password string `bson:"password" json:"-"        gorm:"not null"`
}

type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}
