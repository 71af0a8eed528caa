package config

import (
	"counterparty_analyzer/pkg/core/agent"
	"counterparty_analyzer/pkg/core/llm"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	ActiveProvider string   `json:"active_provider"`
	Available      []string `json:"available"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string     `json:"status"`
	Provider  string     `json:"provider"`
	Inference llm.Health `json:"inference"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr *agent.Manager
}

// NewHandler creates a new config handler
func NewHandler(agentMgr *agent.Manager) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
	}
}

func (h *Handler) HandleConfig(c *fiber.Ctx) error {
	return c.JSON(Response{
		ActiveProvider: h.AgentMgr.ActiveProvider(),
		Available:      h.AgentMgr.Providers(),
	})
}

func (h *Handler) HandleSwitch(c *fiber.Ctx) error {
	var req SwitchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "Invalid request body"})
	}

	if err := h.AgentMgr.SetGlobalProvider(req.Provider); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(Response{
		ActiveProvider: h.AgentMgr.ActiveProvider(),
		Available:      h.AgentMgr.Providers(),
	})
}

// HandleHealth reports service status and the state of the inference backend.
// The service itself is always up; an unusable backend degrades it.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	health := h.AgentMgr.Health(c.UserContext())
	status := "ok"
	if !health.Reachable || !health.ModelAvailable {
		status = "degraded"
	}
	return c.JSON(HealthResponse{
		Status:    status,
		Provider:  h.AgentMgr.ActiveProvider(),
		Inference: health,
	})
}
