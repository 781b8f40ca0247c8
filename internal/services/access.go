package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prayershare/backend/internal/models"
	"gorm.io/gorm"
)

// AccessService answers the membership and ownership questions every other
// service asks before it reads or writes anything.
type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

func (a *AccessService) IsMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	return isMember(a.DB.WithContext(ctx), userID, groupID)
}

// RequireMember returns ErrForbidden unless userID belongs to groupID.
func (a *AccessService) RequireMember(ctx context.Context, userID, groupID uuid.UUID) error {
	return requireMember(a.DB.WithContext(ctx), userID, groupID)
}

// MemberGroupIDs returns which of groupIDs the user belongs to.
func (a *AccessService) MemberGroupIDs(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return memberGroupIDs(a.DB.WithContext(ctx), userID, groupIDs)
}

// CanView reports whether viewerID may read the request: owners always can,
// and so can members of any group the request was shared with.
func (a *AccessService) CanView(ctx context.Context, viewerID uuid.UUID, request *models.Request) (bool, error) {
	if request.OwnerID == viewerID {
		return true, nil
	}

	var count int64
	err := a.DB.WithContext(ctx).
		Model(&models.ShareLink{}).
		Joins("JOIN group_memberships ON group_memberships.group_id = share_links.group_id AND group_memberships.user_id = ?", viewerID).
		Where("share_links.request_id = ?", request.ID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking shared access: %w", err)
	}
	return count > 0, nil
}

// loadOwnedRequest fetches a request and checks that actorID owns it.
func loadOwnedRequest(tx *gorm.DB, actorID, requestID uuid.UUID) (*models.Request, error) {
	var request models.Request
	if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading request: %w", err)
	}
	if request.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return &request, nil
}

func isMember(tx *gorm.DB, userID, groupID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return count > 0, nil
}

func requireMember(tx *gorm.DB, userID, groupID uuid.UUID) error {
	ok, err := isMember(tx, userID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func memberGroupIDs(tx *gorm.DB, userID uuid.UUID, groupIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(groupIDs))
	if len(groupIDs) == 0 {
		return result, nil
	}

	var memberships []models.GroupMembership
	if err := tx.Select("group_id").
		Where("user_id = ? AND group_id IN ?", userID, groupIDs).
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("loading memberships: %w", err)
	}
	for _, m := range memberships {
		result[m.GroupID] = true
	}
	return result, nil
}
