package models

import "github.com/google/uuid"

// Request is a user-submitted item awaiting resolution. Resolved is true
// exactly when a Resolution row references it.
type Request struct {
	BaseModel
	OwnerID    uuid.UUID   `json:"ownerID" gorm:"type:uuid;not null;index"`
	Content    string      `json:"content" gorm:"type:text;not null"`
	Resolved   bool        `json:"resolved" gorm:"not null;default:false;index"`
	Owner      User        `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	ShareLinks []ShareLink `json:"shareLinks,omitempty" gorm:"foreignKey:RequestID"`
	Resolution *Resolution `json:"resolution,omitempty" gorm:"foreignKey:RequestID"`
}

func (Request) TableName() string {
	return "requests"
}

// GroupIDs returns the groups the request was shared with, in link order.
func (r *Request) GroupIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.ShareLinks))
	for _, link := range r.ShareLinks {
		ids = append(ids, link.GroupID)
	}
	return ids
}
