package models

type User struct {
	BaseModel
	Username         string            `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	PasswordHash     string            `json:"-" gorm:"type:text;not null"`
	GroupMemberships []GroupMembership `json:"-" gorm:"foreignKey:UserID"`
	Requests         []Request         `json:"-" gorm:"foreignKey:OwnerID"`
}
