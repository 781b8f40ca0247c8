package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prayershare/backend/pkg/logger"
)

// RequestIDLocal holds the per-request id generated by RequestLogger.
const RequestIDLocal = "requestID"

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, echoes it in X-Request-ID and
// writes one http_request entry once the handler chain returns.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Locals(RequestIDLocal, requestID)
		c.Set(requestIDHeader, requestID)

		err := c.Next()

		statusCode := c.Response().StatusCode()
		details := map[string]interface{}{
			"method":        c.Method(),
			"path":          c.Path(),
			"status_code":   statusCode,
			"latency_ms":    time.Since(start).Milliseconds(),
			"user_agent":    c.Get("User-Agent"),
			"ip":            c.IP(),
			"request_body":  logger.GetRequestBodySummary(c),
			"response_body": logger.GetResponseSizeSummary(c),
			"request_id":    requestID,
		}

		userID := logger.GetUserIDFromContext(c)
		switch {
		case userID != nil && statusCode >= 400:
			logger.ErrorWithUser(*userID, "http_request", err, details)
		case userID != nil:
			logger.InfoWithUser(*userID, "http_request", details)
		case statusCode >= 400:
			logger.Error("http_request", err, details)
		default:
			logger.Info("http_request", details)
		}

		return err
	}
}

var securityReasons = map[int]string{
	fiber.StatusForbidden: "access_denied",
	fiber.StatusNotFound:  "not_found",
}

// SecurityLogger adds a warning for every denied or missing resource so
// membership probing shows up in the logs.
func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		reason, ok := securityReasons[c.Response().StatusCode()]
		if !ok {
			return err
		}

		userID := logger.GetUserIDFromContext(c)
		details := map[string]interface{}{
			"method":  c.Method(),
			"path":    c.Path(),
			"ip":      c.IP(),
			"reason":  reason,
			"user_id": userID,
		}
		if requestID, ok := c.Locals(RequestIDLocal).(string); ok {
			details["request_id"] = requestID
		}

		if userID != nil {
			logger.WarnWithUser(*userID, reason, details)
		} else {
			logger.Warn(reason+"_unauthenticated", details)
		}

		return err
	}
}
