package analysis

import (
	"errors"

	"counterparty_analyzer/pkg/core/pipeline"
	"counterparty_analyzer/pkg/core/validate"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed analysis call.
type ErrorResponse struct {
	Status  string   `json:"status"`
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Retry   string   `json:"retry"`
	Stage   string   `json:"stage,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// StatusFor maps a pipeline error to its HTTP status.
func StatusFor(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindExtractionFormat, pipeline.KindExtractionIncomplete, pipeline.KindExtractionIO:
		return fiber.StatusUnprocessableEntity
	case pipeline.KindInvalidInput:
		if errors.Is(err, pipeline.ErrTooLarge) {
			return fiber.StatusRequestEntityTooLarge
		}
		return fiber.StatusBadRequest
	case pipeline.KindInferenceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	resp := ErrorResponse{
		Status:  "error",
		Kind:    string(pipeline.KindOf(err)),
		Message: err.Error(),
		Retry:   pipeline.RetryLater,
	}
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		resp.Retry = pe.Retry()
		resp.Stage = pe.Stage
	}
	var ie *validate.IncompleteError
	if errors.As(err, &ie) {
		resp.Missing = ie.Missing
	}
	return c.Status(StatusFor(err)).JSON(resp)
}

func invalidInput(c *fiber.Ctx, err error) error {
	return writeError(c, &pipeline.Error{Kind: pipeline.KindInvalidInput, Stage: "request", Err: err})
}
