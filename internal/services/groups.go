package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prayershare/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupService struct {
	DB *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{DB: db}
}

type CreateGroupInput struct {
	CreatorID uuid.UUID `validate:"required"`
	Name      string    `validate:"required,max=150"`
}

// CreateGroup creates a uniquely named group with its creator as owner.
func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	group := models.Group{
		Name:        in.Name,
		CreatedByID: in.CreatorID,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Group{}).Where("name = ?", in.Name).Count(&existing).Error; err != nil {
			return fmt.Errorf("checking group name: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: group name %q is taken", ErrConflict, in.Name)
		}

		if err := tx.Create(&group).Error; err != nil {
			return fmt.Errorf("creating group: %w", err)
		}

		membership := models.GroupMembership{
			UserID:  in.CreatorID,
			GroupID: group.ID,
			Role:    models.GroupRoleOwner,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("creating owner membership: %w", err)
		}
		group.Memberships = []models.GroupMembership{membership}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

// GetGroup returns a group with its members, for members only.
func (s *GroupService) GetGroup(ctx context.Context, viewerID, groupID uuid.UUID) (*models.Group, error) {
	db := s.DB.WithContext(ctx)
	if err := requireMember(db, viewerID, groupID); err != nil {
		return nil, err
	}

	var group models.Group
	if err := db.
		Preload("Memberships", func(tx *gorm.DB) *gorm.DB { return tx.Order("group_memberships.id ASC") }).
		Preload("Memberships.User").
		First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading group: %w", err)
	}
	return &group, nil
}

type AddMemberInput struct {
	ActorID  uuid.UUID `validate:"required"`
	GroupID  uuid.UUID `validate:"required"`
	Username string    `validate:"required,max=150"`
}

// AddMember adds the named user to the group. The actor must already be a
// member. Adding someone who is already a member changes nothing; created
// reports whether a new membership row was written.
func (s *GroupService) AddMember(ctx context.Context, in AddMemberInput) (member *models.User, created bool, err error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, false, err
	}

	var user models.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireMember(tx, in.ActorID, in.GroupID); err != nil {
			return err
		}

		if err := tx.First(&user, "username = ?", in.Username).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("loading user: %w", err)
		}

		membership := models.GroupMembership{
			UserID:  user.ID,
			GroupID: in.GroupID,
			Role:    models.GroupRoleMember,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership)
		if result.Error != nil {
			return fmt.Errorf("adding member: %w", result.Error)
		}
		created = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &user, created, nil
}
