package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prayershare/backend/internal/middleware"
	"github.com/prayershare/backend/internal/services"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/prayershare/backend/pkg/utils"
)

type GroupsHandler struct {
	Groups     *services.GroupService
	Visibility *services.VisibilityService
	Audit      *services.AuditService
}

func NewGroupsHandler(groups *services.GroupService, visibility *services.VisibilityService, audit *services.AuditService) *GroupsHandler {
	return &GroupsHandler{Groups: groups, Visibility: visibility, Audit: audit}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Groups.CreateGroup(c.UserContext(), services.CreateGroupInput{
		CreatorID: currentUser.ID,
		Name:      req.Name,
	})
	if err != nil {
		return respondServiceError(c, err, "group", "failed creating group")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"group_name": group.Name,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       services.AuditGroupCreate,
		ResourceType: "group",
		ResourceID:   &group.ID,
		Details: map[string]interface{}{
			"group_name": group.Name,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, group)
}

func (h *GroupsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)
	groups, total, err := h.Visibility.ListGroupsOf(c.UserContext(), currentUser.ID, windowFrom(p))
	if err != nil {
		return respondServiceError(c, err, "group", "failed listing groups")
	}

	return utils.Paginated(c, groups, p.Page, p.Limit, total)
}

func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	group, err := h.Groups.GetGroup(c.UserContext(), currentUser.ID, groupID)
	if err != nil {
		return respondServiceError(c, err, "group", "failed loading group")
	}

	return utils.Success(c, fiber.StatusOK, group)
}

type addMemberRequest struct {
	Username string `json:"username"`
}

func (h *GroupsHandler) AddMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, created, err := h.Groups.AddMember(c.UserContext(), services.AddMemberInput{
		ActorID:  currentUser.ID,
		GroupID:  groupID,
		Username: req.Username,
	})
	if err != nil {
		return respondServiceError(c, err, "group", "failed adding member")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated

		logger.InfoWithUser(currentUser.ID.String(), "group_member_added", map[string]interface{}{
			"group_id":       groupID.String(),
			"target_user_id": member.ID.String(),
		})

		h.Audit.LogAsync(services.AuditEntry{
			UserID:       &currentUser.ID,
			Action:       services.AuditGroupMemberAdd,
			ResourceType: "group",
			ResourceID:   &groupID,
			Details: map[string]interface{}{
				"target_user_id": member.ID.String(),
				"username":       member.Username,
			},
			IPAddress: c.IP(),
			RequestID: getRequestID(c),
		})
	}

	return utils.Success(c, status, fiber.Map{"member": member, "created": created})
}

func (h *GroupsHandler) Feed(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	p := utils.ParsePagination(c)
	requests, total, err := h.Visibility.ListGroupFeed(c.UserContext(), currentUser.ID, groupID, windowFrom(p))
	if err != nil {
		return respondServiceError(c, err, "group", "failed listing group requests")
	}

	return utils.Paginated(c, requests, p.Page, p.Limit, total)
}
