package analysis

import (
	"errors"
	"fmt"
	"io"
	"strings"

	coreAnalysis "counterparty_analyzer/pkg/core/analysis"
	"counterparty_analyzer/pkg/core/pipeline"
	"counterparty_analyzer/pkg/core/validate"
	"counterparty_analyzer/pkg/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AnalyzeResponse is the body of a successful analysis.
type AnalyzeResponse struct {
	Status                string                     `json:"status"`
	RequestID             string                     `json:"request_id"`
	CorrelationID         string                     `json:"correlation_id,omitempty"`
	ReportHTML            string                     `json:"report_html"`
	Analysis              *coreAnalysis.Report       `json:"analysis"`
	ExtractedData         *models.FinancialStatement `json:"extracted_data"`
	Warnings              []string                   `json:"warnings"`
	Repairs               []string                   `json:"repairs,omitempty"`
	FilesProcessed        []string                   `json:"files_processed"`
	FailedFiles           []pipeline.FailedFile      `json:"failed_files"`
	TokensEstimated       int                        `json:"tokens_estimated"`
	Truncated             bool                       `json:"truncated"`
	ProcessingTimeSeconds float64                    `json:"processing_time_seconds"`
	PipelineSteps         []pipeline.Step            `json:"pipeline_steps"`
}

// ValidateResponse is the body of a successful validation.
type ValidateResponse struct {
	Status   string                     `json:"status"`
	Record   *models.FinancialStatement `json:"record"`
	Warnings []validate.Warning         `json:"warnings"`
	Repairs  []string                   `json:"repairs,omitempty"`
}

// Handler serves the analysis endpoints.
type Handler struct {
	Pipeline *pipeline.Orchestrator
}

// NewHandler creates a new analysis handler
func NewHandler(p *pipeline.Orchestrator) *Handler {
	return &Handler{Pipeline: p}
}

// HandleAnalyze runs the full pipeline on multipart "files" with optional
// "user_instructions".
func (h *Handler) HandleAnalyze(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return invalidInput(c, fmt.Errorf("expected multipart form: %w", err))
	}

	headers := form.File["files"]
	docs := make([]pipeline.Document, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return invalidInput(c, fmt.Errorf("cannot read %s: %w", fh.Filename, err))
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return invalidInput(c, fmt.Errorf("cannot read %s: %w", fh.Filename, err))
		}
		docs = append(docs, pipeline.Document{Name: fh.Filename, Data: data})
	}

	var instructions string
	if v := form.Value["user_instructions"]; len(v) > 0 {
		instructions = strings.TrimSpace(v[0])
	}

	// The server owns the request id; a client X-Request-ID is only carried
	// along for correlation.
	res, err := h.Pipeline.Run(c.UserContext(), pipeline.Request{
		RequestID:     uuid.NewString(),
		CorrelationID: strings.TrimSpace(c.Get("X-Request-ID")),
		Documents:     docs,
		Instructions:  instructions,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(AnalyzeResponse{
		Status:                "success",
		RequestID:             res.RequestID,
		CorrelationID:         res.CorrelationID,
		ReportHTML:            res.ReportHTML,
		Analysis:              res.Report,
		ExtractedData:         res.Report.Record,
		Warnings:              warningStrings(res.Warnings),
		Repairs:               res.Repairs,
		FilesProcessed:        res.FilesProcessed,
		FailedFiles:           res.FailedFiles,
		TokensEstimated:       res.TokensEstimated,
		Truncated:             res.Truncated,
		ProcessingTimeSeconds: res.Report.Timing.Total,
		PipelineSteps:         res.Steps,
	})
}

// HandleCalculate validates a statement JSON body and returns the report
// without calling a model.
func (h *Handler) HandleCalculate(c *fiber.Ctx) error {
	body := strings.TrimSpace(string(c.Body()))
	if body == "" {
		return invalidInput(c, errors.New("empty body"))
	}

	res, err := h.Pipeline.Calculate(body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":   "success",
		"analysis": res.Report,
		"warnings": warningStrings(res.Warnings),
	})
}

// HandleValidate returns the record recovered from a raw text body.
func (h *Handler) HandleValidate(c *fiber.Ctx) error {
	body := string(c.Body())
	if strings.TrimSpace(body) == "" {
		return invalidInput(c, errors.New("empty body"))
	}

	vres, err := h.Pipeline.Validate(body)
	if err != nil {
		return writeError(c, err)
	}
	warnings := vres.Warnings
	if warnings == nil {
		warnings = []validate.Warning{}
	}
	return c.JSON(ValidateResponse{
		Status:   "success",
		Record:   vres.Record,
		Warnings: warnings,
		Repairs:  vres.Repairs,
	})
}

func warningStrings(ws []validate.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}
