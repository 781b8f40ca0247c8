package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prayershare/backend/internal/models"
	"gorm.io/gorm"
)

type RequestService struct {
	DB     *gorm.DB
	Access *AccessService
}

func NewRequestService(db *gorm.DB, access *AccessService) *RequestService {
	return &RequestService{DB: db, Access: access}
}

type CreateRequestInput struct {
	OwnerID  uuid.UUID   `validate:"required"`
	Content  string      `validate:"required,max=5000"`
	GroupIDs []uuid.UUID `validate:"max=50"`
}

// CreateRequest stores a request together with one share link per distinct
// group id. Every group must be one the owner belongs to; otherwise nothing
// is written and ErrForbidden is returned.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.Request, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	groupIDs := distinctIDs(in.GroupIDs)
	request := models.Request{
		OwnerID: in.OwnerID,
		Content: in.Content,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		memberOf, err := memberGroupIDs(tx, in.OwnerID, groupIDs)
		if err != nil {
			return err
		}
		for _, groupID := range groupIDs {
			if !memberOf[groupID] {
				return fmt.Errorf("%w: not a member of group %s", ErrForbidden, groupID)
			}
		}

		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if len(groupIDs) == 0 {
			return nil
		}
		links := make([]models.ShareLink, 0, len(groupIDs))
		for _, groupID := range groupIDs {
			links = append(links, models.ShareLink{RequestID: request.ID, GroupID: groupID})
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("creating share links: %w", err)
		}
		request.ShareLinks = links
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// GetRequest loads a request for its owner or for a member of a group it
// was shared with.
func (s *RequestService) GetRequest(ctx context.Context, viewerID, requestID uuid.UUID) (*models.Request, error) {
	db := s.DB.WithContext(ctx)

	var head models.Request
	if err := db.Select("id", "owner_id").First(&head, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading request: %w", err)
	}

	allowed, err := s.Access.CanView(ctx, viewerID, &head)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	var request models.Request
	if err := db.
		Preload("Owner").
		Preload("ShareLinks", func(tx *gorm.DB) *gorm.DB { return tx.Order("share_links.id ASC") }).
		Preload("ShareLinks.Group").
		Preload("Resolution").
		First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading request: %w", err)
	}
	return &request, nil
}

type ResolveInput struct {
	ActorID   uuid.UUID `validate:"required"`
	RequestID uuid.UUID `validate:"required"`
	Content   string    `validate:"required,max=5000"`
}

// Resolve flips the request to resolved and records its Resolution in the
// same transaction. Only the owner may resolve, and only once.
func (s *RequestService) Resolve(ctx context.Context, in ResolveInput) (*models.Resolution, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var resolution models.Resolution
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := loadOwnedRequest(tx, in.ActorID, in.RequestID)
		if err != nil {
			return err
		}
		if request.Resolved {
			return ErrAlreadyResolved
		}

		// The resolved = false guard makes a concurrent second resolve
		// match zero rows once the first one commits.
		result := tx.Model(&models.Request{}).
			Where("id = ? AND resolved = ?", request.ID, false).
			Update("resolved", true)
		if result.Error != nil {
			return fmt.Errorf("marking request resolved: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyResolved
		}

		resolution = models.Resolution{
			RequestID: request.ID,
			Content:   in.Content,
		}
		if err := tx.Create(&resolution).Error; err != nil {
			return fmt.Errorf("creating resolution: %w", err)
		}

		request.Resolved = true
		resolution.Request = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &resolution, nil
}

// DeleteRequest removes an owned request along with its share links and
// resolution.
func (s *RequestService) DeleteRequest(ctx context.Context, actorID, requestID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := loadOwnedRequest(tx, actorID, requestID)
		if err != nil {
			return err
		}

		if err := tx.Where("request_id = ?", request.ID).Delete(&models.ShareLink{}).Error; err != nil {
			return fmt.Errorf("deleting share links: %w", err)
		}
		if err := tx.Where("request_id = ?", request.ID).Delete(&models.Resolution{}).Error; err != nil {
			return fmt.Errorf("deleting resolution: %w", err)
		}
		if err := tx.Delete(&models.Request{}, "id = ?", request.ID).Error; err != nil {
			return fmt.Errorf("deleting request: %w", err)
		}
		return nil
	})
}

func distinctIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
