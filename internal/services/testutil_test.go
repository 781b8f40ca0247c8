package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prayershare/backend/internal/models"
	"gorm.io/gorm"
)

func setupServicesTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Request{},
		&models.ShareLink{},
		&models.Resolution{},
		&models.AuditLog{},
		&models.Activity{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return db
}

type testServices struct {
	db         *gorm.DB
	access     *AccessService
	visibility *VisibilityService
	requests   *RequestService
	groups     *GroupService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	db := setupServicesTestDB(t)
	access := NewAccessService(db)
	return &testServices{
		db:         db,
		access:     access,
		visibility: NewVisibilityService(db, access),
		requests:   NewRequestService(db, access),
		groups:     NewGroupService(db),
	}
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hash"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user %s: %v", username, err)
	}
	return user
}

func createTestGroup(t *testing.T, s *testServices, creator *models.User, name string) *models.Group {
	t.Helper()
	group, err := s.groups.CreateGroup(context.Background(), CreateGroupInput{CreatorID: creator.ID, Name: name})
	if err != nil {
		t.Fatalf("failed creating group %s: %v", name, err)
	}
	return group
}

func addTestMember(t *testing.T, s *testServices, actor *models.User, group *models.Group, username string) {
	t.Helper()
	if _, _, err := s.groups.AddMember(context.Background(), AddMemberInput{ActorID: actor.ID, GroupID: group.ID, Username: username}); err != nil {
		t.Fatalf("failed adding %s to %s: %v", username, group.Name, err)
	}
}

func createTestRequest(t *testing.T, s *testServices, owner *models.User, content string, groupIDs ...uuid.UUID) *models.Request {
	t.Helper()
	request, err := s.requests.CreateRequest(context.Background(), CreateRequestInput{
		OwnerID:  owner.ID,
		Content:  content,
		GroupIDs: groupIDs,
	})
	if err != nil {
		t.Fatalf("failed creating request %q: %v", content, err)
	}
	return request
}

// assertResolvedMatchesResolutions checks that every request is flagged
// resolved exactly when a resolution row exists for it.
func assertResolvedMatchesResolutions(t *testing.T, db *gorm.DB) {
	t.Helper()

	var requests []models.Request
	if err := db.Find(&requests).Error; err != nil {
		t.Fatalf("failed loading requests: %v", err)
	}
	for _, request := range requests {
		var count int64
		if err := db.Model(&models.Resolution{}).Where("request_id = ?", request.ID).Count(&count).Error; err != nil {
			t.Fatalf("failed counting resolutions: %v", err)
		}
		if count > 1 {
			t.Fatalf("request %s has %d resolutions", request.ID, count)
		}
		if request.Resolved != (count == 1) {
			t.Fatalf("request %s resolved=%v but has %d resolutions", request.ID, request.Resolved, count)
		}
	}

	var orphans int64
	if err := db.Model(&models.Resolution{}).
		Where("request_id NOT IN (?)", db.Model(&models.Request{}).Select("id")).
		Count(&orphans).Error; err != nil {
		t.Fatalf("failed counting orphan resolutions: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected no orphan resolutions, found %d", orphans)
	}
}

func requestIDs(requests []models.Request) []uuid.UUID {
	ids := make([]uuid.UUID, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	return ids
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
