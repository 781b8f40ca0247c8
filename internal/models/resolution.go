package models

import "github.com/google/uuid"

type Resolution struct {
	BaseModel
	RequestID uuid.UUID `json:"requestID" gorm:"type:uuid;not null;uniqueIndex"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Request   *Request  `json:"request,omitempty" gorm:"foreignKey:RequestID;references:ID"`
}

func (Resolution) TableName() string {
	return "resolutions"
}
