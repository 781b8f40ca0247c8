package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prayershare/backend/internal/middleware"
	"github.com/prayershare/backend/internal/services"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/prayershare/backend/pkg/utils"
)

type RequestsHandler struct {
	Requests   *services.RequestService
	Visibility *services.VisibilityService
	Audit      *services.AuditService
}

func NewRequestsHandler(requests *services.RequestService, visibility *services.VisibilityService, audit *services.AuditService) *RequestsHandler {
	return &RequestsHandler{Requests: requests, Visibility: visibility, Audit: audit}
}

type createRequestRequest struct {
	Content  string   `json:"content"`
	GroupIDs []string `json:"groupIDs"`
}

func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	groupIDs := make([]uuid.UUID, 0, len(req.GroupIDs))
	for _, raw := range req.GroupIDs {
		id, err := parseUUID(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
		}
		groupIDs = append(groupIDs, id)
	}

	request, err := h.Requests.CreateRequest(c.UserContext(), services.CreateRequestInput{
		OwnerID:  currentUser.ID,
		Content:  req.Content,
		GroupIDs: groupIDs,
	})
	if err != nil {
		return respondServiceError(c, err, "group", "failed creating request")
	}

	sharedWith := make([]string, 0, len(request.ShareLinks))
	for _, id := range request.GroupIDs() {
		sharedWith = append(sharedWith, id.String())
	}

	logger.InfoWithUser(currentUser.ID.String(), "request_created", map[string]interface{}{
		"request_id":  request.ID.String(),
		"group_count": len(sharedWith),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       services.AuditRequestCreate,
		ResourceType: "request",
		ResourceID:   &request.ID,
		Details: map[string]interface{}{
			"group_ids": sharedWith,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, request)
}

func (h *RequestsHandler) ListPersonal(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)
	requests, total, err := h.Visibility.ListPersonal(c.UserContext(), currentUser.ID, windowFrom(p))
	if err != nil {
		return respondServiceError(c, err, "request", "failed listing requests")
	}

	return utils.Paginated(c, requests, p.Page, p.Limit, total)
}

func (h *RequestsHandler) ListResolved(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)
	resolutions, total, err := h.Visibility.ListResolved(c.UserContext(), currentUser.ID, windowFrom(p))
	if err != nil {
		return respondServiceError(c, err, "request", "failed listing resolved requests")
	}

	return utils.Paginated(c, resolutions, p.Page, p.Limit, total)
}

func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requestID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request id")
	}

	request, err := h.Requests.GetRequest(c.UserContext(), currentUser.ID, requestID)
	if err != nil {
		return respondServiceError(c, err, "request", "failed loading request")
	}

	return utils.Success(c, fiber.StatusOK, request)
}

type resolveRequest struct {
	Content string `json:"content"`
}

func (h *RequestsHandler) Resolve(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requestID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request id")
	}

	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	resolution, err := h.Requests.Resolve(c.UserContext(), services.ResolveInput{
		ActorID:   currentUser.ID,
		RequestID: requestID,
		Content:   req.Content,
	})
	if err != nil {
		return respondServiceError(c, err, "request", "failed resolving request")
	}

	logger.InfoWithUser(currentUser.ID.String(), "request_resolved", map[string]interface{}{
		"request_id":    requestID.String(),
		"resolution_id": resolution.ID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       services.AuditRequestResolve,
		ResourceType: "request",
		ResourceID:   &requestID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, resolution)
}

func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requestID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request id")
	}

	if err := h.Requests.DeleteRequest(c.UserContext(), currentUser.ID, requestID); err != nil {
		return respondServiceError(c, err, "request", "failed deleting request")
	}

	logger.InfoWithUser(currentUser.ID.String(), "request_deleted", map[string]interface{}{
		"request_id": requestID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       services.AuditRequestDelete,
		ResourceType: "request",
		ResourceID:   &requestID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "request deleted"})
}
