package models

import "github.com/google/uuid"

// ShareLink grants a group visibility into a request. Links are only
// written together with the request they belong to.
type ShareLink struct {
	BaseModel
	RequestID uuid.UUID `json:"requestID" gorm:"type:uuid;not null;index;uniqueIndex:idx_request_group"`
	GroupID   uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_request_group"`
	Group     *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;references:ID"`
}

func (ShareLink) TableName() string {
	return "share_links"
}
