package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prayershare/backend/internal/models"
	"github.com/prayershare/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	AuditGroupCreate    = "group.create"
	AuditGroupMemberAdd = "group.member_add"
	AuditRequestCreate  = "request.create"
	AuditRequestResolve = "request.resolve"
	AuditRequestDelete  = "request.delete"
)

type AuditEntry struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
	IPAddress    string
	RequestID    string
}

// AuditService writes audit rows off the request path and derives
// per-user activities from them.
type AuditService struct {
	DB    *gorm.DB
	queue chan models.AuditLog
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAuditService(db *gorm.DB, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1000
	}
	s := &AuditService{
		DB:    db,
		queue: make(chan models.AuditLog, queueSize),
		done:  make(chan struct{}),
	}
	go s.processQueue()
	return s
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	row := models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

// Close stops accepting entries and waits until queued ones are written.
func (s *AuditService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
			continue
		}
		s.generateActivities(row)
	}
}

func (s *AuditService) generateActivities(log models.AuditLog) {
	if log.UserID == nil {
		return
	}

	var activities []models.Activity
	switch log.Action {
	case AuditRequestCreate:
		activities = s.activitiesForRequestCreate(log)
	case AuditGroupMemberAdd:
		activities = s.activitiesForGroupMemberAdd(log)
	}

	for i := range activities {
		if activities[i].UserID == *log.UserID {
			continue
		}
		if err := s.DB.Create(&activities[i]).Error; err != nil {
			logger.Error("activity_insert_failed", err, map[string]interface{}{
				"action":  log.Action,
				"user_id": activities[i].UserID.String(),
			})
		}
	}
}

// activitiesForRequestCreate notifies every member of each group the
// request was shared with. Group ids arrive as strings in the details.
func (s *AuditService) activitiesForRequestCreate(log models.AuditLog) []models.Activity {
	groupIDs := detailUUIDs(log.Details, "group_ids")
	if len(groupIDs) == 0 {
		return nil
	}

	actorName := s.getActorName(*log.UserID)
	notified := map[uuid.UUID]bool{}
	var result []models.Activity

	for _, groupID := range groupIDs {
		var group models.Group
		if err := s.DB.Select("id", "name").First(&group, "id = ?", groupID).Error; err != nil {
			continue
		}
		for _, memberID := range s.getGroupMemberIDs(groupID) {
			if notified[memberID] {
				continue
			}
			notified[memberID] = true
			result = append(result, models.Activity{
				UserID:       memberID,
				ActorID:      *log.UserID,
				Action:       log.Action,
				ResourceType: "request",
				ResourceID:   log.ResourceID,
				ResourceName: group.Name,
				Message:      fmt.Sprintf("%s shared a request with \"%s\"", actorName, group.Name),
			})
		}
	}
	return result
}

func (s *AuditService) activitiesForGroupMemberAdd(log models.AuditLog) []models.Activity {
	targetIDStr := detailString(log.Details, "target_user_id")
	if targetIDStr == "" {
		return nil
	}
	targetID, err := uuid.Parse(targetIDStr)
	if err != nil {
		return nil
	}

	groupName := detailString(log.Details, "group_name")
	if groupName == "" && log.ResourceID != nil {
		var group models.Group
		if err := s.DB.Select("name").First(&group, "id = ?", *log.ResourceID).Error; err == nil {
			groupName = group.Name
		}
	}
	actorName := s.getActorName(*log.UserID)

	return []models.Activity{{
		UserID:       targetID,
		ActorID:      *log.UserID,
		Action:       log.Action,
		ResourceType: "group",
		ResourceID:   log.ResourceID,
		ResourceName: groupName,
		Message:      fmt.Sprintf("%s added you to \"%s\"", actorName, groupName),
	}}
}

func (s *AuditService) getActorName(userID uuid.UUID) string {
	var user models.User
	if err := s.DB.Select("username").First(&user, "id = ?", userID).Error; err != nil {
		return "Someone"
	}
	return user.Username
}

func (s *AuditService) getGroupMemberIDs(groupID uuid.UUID) []uuid.UUID {
	var memberships []models.GroupMembership
	s.DB.Select("user_id").Where("group_id = ?", groupID).Order("id ASC").Find(&memberships)

	ids := make([]uuid.UUID, len(memberships))
	for i, m := range memberships {
		ids[i] = m.UserID
	}
	return ids
}

func detailString(details map[string]interface{}, key string) string {
	if details == nil {
		return ""
	}
	value, ok := details[key].(string)
	if !ok {
		return ""
	}
	return value
}

func detailUUIDs(details map[string]interface{}, key string) []uuid.UUID {
	if details == nil {
		return nil
	}

	var raw []string
	switch values := details[key].(type) {
	case []string:
		raw = values
	case []interface{}:
		for _, v := range values {
			if str, ok := v.(string); ok {
				raw = append(raw, str)
			}
		}
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
