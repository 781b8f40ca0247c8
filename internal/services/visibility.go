package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prayershare/backend/internal/models"
	"gorm.io/gorm"
)

// Window limits a listing to one page. The zero value returns every row.
type Window struct {
	Limit  int
	Offset int
}

func (w Window) apply(db *gorm.DB) *gorm.DB {
	if w.Limit <= 0 {
		return db
	}
	return db.Offset(w.Offset).Limit(w.Limit)
}

// VisibilityService computes what a viewer may see. Every query is scoped
// by the viewer before any row is read; nothing is filtered afterwards.
type VisibilityService struct {
	DB     *gorm.DB
	Access *AccessService
}

func NewVisibilityService(db *gorm.DB, access *AccessService) *VisibilityService {
	return &VisibilityService{DB: db, Access: access}
}

// ListPersonal returns the viewer's open requests in creation order.
// Resolved requests live in ListResolved instead.
func (v *VisibilityService) ListPersonal(ctx context.Context, viewerID uuid.UUID, w Window) ([]models.Request, int64, error) {
	scope := func() *gorm.DB {
		return v.DB.WithContext(ctx).
			Model(&models.Request{}).
			Where("owner_id = ? AND resolved = ?", viewerID, false)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting personal requests: %w", err)
	}

	requests := []models.Request{}
	if err := w.apply(scope().Preload("ShareLinks").Order("id ASC")).Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("listing personal requests: %w", err)
	}
	return requests, total, nil
}

// ListGroupsOf returns every group the viewer belongs to, in creation order.
func (v *VisibilityService) ListGroupsOf(ctx context.Context, viewerID uuid.UUID, w Window) ([]models.Group, int64, error) {
	scope := func() *gorm.DB {
		return v.DB.WithContext(ctx).
			Model(&models.Group{}).
			Joins("JOIN group_memberships ON group_memberships.group_id = groups.id").
			Where("group_memberships.user_id = ?", viewerID)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting groups: %w", err)
	}

	groups := []models.Group{}
	if err := w.apply(scope().Select("groups.*").Order("groups.id ASC")).Find(&groups).Error; err != nil {
		return nil, 0, fmt.Errorf("listing groups: %w", err)
	}
	return groups, total, nil
}

// ListGroupFeed returns the requests shared with groupID in the order they
// were shared. Non-members get ErrForbidden before any request is loaded.
func (v *VisibilityService) ListGroupFeed(ctx context.Context, viewerID, groupID uuid.UUID, w Window) ([]models.Request, int64, error) {
	if err := v.Access.RequireMember(ctx, viewerID, groupID); err != nil {
		return nil, 0, err
	}

	scope := func() *gorm.DB {
		return v.DB.WithContext(ctx).
			Model(&models.Request{}).
			Joins("JOIN share_links ON share_links.request_id = requests.id").
			Where("share_links.group_id = ?", groupID)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting group feed: %w", err)
	}

	requests := []models.Request{}
	query := scope().
		Select("requests.*").
		Preload("Owner").
		Order("share_links.id ASC")
	if err := w.apply(query).Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("listing group feed: %w", err)
	}
	return requests, total, nil
}

// ListResolved returns one Resolution per resolved request owned by the
// viewer, in the order the requests were created.
func (v *VisibilityService) ListResolved(ctx context.Context, viewerID uuid.UUID, w Window) ([]models.Resolution, int64, error) {
	scope := func() *gorm.DB {
		return v.DB.WithContext(ctx).
			Model(&models.Resolution{}).
			Joins("JOIN requests ON requests.id = resolutions.request_id").
			Where("requests.owner_id = ?", viewerID)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting resolutions: %w", err)
	}

	resolutions := []models.Resolution{}
	query := scope().
		Select("resolutions.*").
		Preload("Request").
		Order("requests.id ASC")
	if err := w.apply(query).Find(&resolutions).Error; err != nil {
		return nil, 0, fmt.Errorf("listing resolutions: %w", err)
	}
	return resolutions, total, nil
}
