// internal/api/controller.go
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"fiscal-assistant/internal/assistant/agent"
	"fiscal-assistant/internal/assistant/cache"
	"fiscal-assistant/internal/assistant/session"
	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/validation"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type FiscalController struct {
	sessions  *session.Manager
	cache     cache.Cache
	validator *validation.Validator
	apiKey    string
	logger    logger.Logger
}

func NewFiscalController(sessions *session.Manager, c cache.Cache, apiKey string, log logger.Logger) *FiscalController {
	return &FiscalController{
		sessions:  sessions,
		cache:     c,
		validator: validation.New(),
		apiKey:    apiKey,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (fc *FiscalController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/fiscalite", APIKeyMiddleware(fc.apiKey))
	h.Get("", fc.Ask)
	h.Delete("cache", fc.ClearCache)
	h.Delete("sessions/:id", fc.DropSession)
}

// Ask answers one question within the caller's session. Without a session
// header the question is answered in a throwaway session.
func (fc *FiscalController) Ask(c *fiber.Ctx) error {
	var req QuestionRequest
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if res := fc.validator.Struct(req); !res.Valid {
		fc.logger.Debug("question rejected", map[string]interface{}{
			"errorCode": string(apperrors.ErrCodeInvalidQuestion),
			"details":   res.Error(),
		})
		return c.JSON(MessageResponse{Message: ShortQuestionMessage})
	}

	sessionID := c.Get(HeaderSessionID)
	var orchestrator *agent.Orchestrator
	if sessionID == "" {
		o, release := fc.sessions.OneShot()
		defer release()
		orchestrator = o
	} else {
		orchestrator, _ = fc.sessions.GetOrCreate(sessionID)
		c.Set(HeaderSessionID, sessionID)
	}

	reply, err := orchestrator.Turn(c.UserContext(), req.Question)
	if err != nil {
		code := apperrors.CodeOf(err)
		return c.Status(apperrors.HTTPStatus(code)).JSON(MessageResponse{
			Message:   reply,
			SessionID: sessionID,
			Code:      string(code),
		})
	}

	return c.JSON(MessageResponse{Message: reply, SessionID: sessionID})
}

// ClearCache clears the caller's session cache, or every entry without a session header.
func (fc *FiscalController) ClearCache(c *fiber.Ctx) error {
	if fc.cache != nil {
		if id := c.Get(HeaderSessionID); id != "" {
			fc.cache.Clear(c.UserContext(), id)
		} else {
			fc.cache.ClearAll(c.UserContext())
		}
	}
	fc.logger.Info("cache cleared", map[string]interface{}{"sessionId": c.Get(HeaderSessionID)})
	return c.JSON(MessageResponse{Message: agent.CacheClearedMessage, SessionID: c.Get(HeaderSessionID)})
}

func (fc *FiscalController) DropSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if !fc.sessions.Drop(id) {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HealthController serves liveness and readiness probes.
type HealthController struct {
	search Pinger
}

func NewHealthController(search Pinger) *HealthController {
	return &HealthController{search: search}
}

func (hc *HealthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", hc.Health)
	r.Get("/ready", hc.Ready)
}

func (hc *HealthController) Health(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{Status: "healthy", Time: time.Now().Format(time.RFC3339)})
}

func (hc *HealthController) Ready(c *fiber.Ctx) error {
	if hc.search != nil {
		if err := hc.search.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(StatusResponse{
				Status: "unavailable",
				Time:   time.Now().Format(time.RFC3339),
				Error:  err.Error(),
			})
		}
	}
	return c.JSON(StatusResponse{Status: "ready", Time: time.Now().Format(time.RFC3339)})
}
