// Package pipeline runs one analysis request end to end: document text
// extraction, statement reading by the model, validation, indicator
// calculation and the written report. Stages run strictly in order for a
// request; requests share nothing but read-only collaborators.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"counterparty_analyzer/pkg/core/analysis"
	"counterparty_analyzer/pkg/core/extract"
	"counterparty_analyzer/pkg/core/report"
	"counterparty_analyzer/pkg/core/store"
	"counterparty_analyzer/pkg/core/validate"
	"counterparty_analyzer/pkg/models"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

// TextExtractor turns one uploaded file into text.
type TextExtractor interface {
	IsAllowed(filename string) bool
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// StatementSource produces raw statement output from combined document text.
type StatementSource interface {
	ReadStatement(ctx context.Context, documents string) (string, error)
}

// ReportWriter produces report markup from formatted calculations.
type ReportWriter interface {
	WriteReport(ctx context.Context, calculations, instructions string) (string, error)
}

// Validator recovers a statement record from raw output.
type Validator interface {
	Validate(raw string) (*validate.Result, error)
}

// Calculator evaluates the indicator catalogue.
type Calculator interface {
	Calculate(rec *models.FinancialStatement) *analysis.Report
}

// Inference chooses the statement source and report writer for one run, so
// both model calls of a request go to the same backend. A nil writer skips
// the report stage.
type Inference interface {
	ForRun() (StatementSource, ReportWriter)
}

// AuditRepository stores finished analyses.
type AuditRepository interface {
	Save(ctx context.Context, rec *store.AuditRecord) error
}

// Limits bound a single request. Zero values disable a limit.
type Limits struct {
	MaxFiles       int
	MaxTotalBytes  int64
	MaxTotalTokens int
}

// Document is one uploaded file.
type Document struct {
	Name string
	Data []byte
}

// Request is one analysis request. RequestID is generated when empty and
// keys the audit log; CorrelationID is the caller's own reference.
type Request struct {
	RequestID     string
	CorrelationID string
	Documents     []Document
	Instructions  string
}

// FailedFile is a document whose text could not be extracted.
type FailedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Step records one stage of a run.
type Step struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
	Status  string  `json:"status"`
}

// Result is everything a successful run produced.
type Result struct {
	RequestID       string             `json:"request_id"`
	CorrelationID   string             `json:"correlation_id,omitempty"`
	Report          *analysis.Report   `json:"analysis"`
	ReportMarkup    string             `json:"report_markup,omitempty"`
	ReportHTML      string             `json:"report_html"`
	Warnings        []validate.Warning `json:"warnings"`
	Repairs         []string           `json:"repairs,omitempty"`
	FilesProcessed  []string           `json:"files_processed"`
	FailedFiles     []FailedFile       `json:"failed_files"`
	TokensEstimated int                `json:"tokens_estimated"`
	Truncated       bool               `json:"truncated"`
	RawOutput       string             `json:"-"`
	Steps           []Step             `json:"pipeline_steps"`
}

// Orchestrator wires the collaborators of a run.
type Orchestrator struct {
	extractor  TextExtractor
	source     StatementSource
	writer     ReportWriter
	inference  Inference
	validator  Validator
	calculator Calculator
	repo       AuditRepository
	limits     Limits
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReportWriter enables the report stage.
func WithReportWriter(w ReportWriter) Option {
	return func(o *Orchestrator) { o.writer = w }
}

// WithInference selects the source and writer per run, overriding the fixed
// ones.
func WithInference(i Inference) Option {
	return func(o *Orchestrator) { o.inference = i }
}

// WithRepository enables the audit log.
func WithRepository(repo AuditRepository) Option {
	return func(o *Orchestrator) { o.repo = repo }
}

// WithLimits sets request limits.
func WithLimits(l Limits) Option {
	return func(o *Orchestrator) { o.limits = l }
}

// NewOrchestrator creates an orchestrator. Without a report writer the
// report stage is skipped. source may be nil when WithInference is given.
func NewOrchestrator(extractor TextExtractor, source StatementSource, validator Validator, calculator Calculator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor:  extractor,
		source:     source,
		validator:  validator,
		calculator: calculator,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run tracks stage timings of one request.
type run struct {
	id     string
	start  time.Time
	steps  []Step
	timing analysis.Timing
}

func (r *run) stage(name string, started time.Time, status string) float64 {
	secs := time.Since(started).Seconds()
	r.steps = append(r.steps, Step{Name: name, Seconds: secs, Status: status})
	log.Info().Str("request_id", r.id).Str("stage", name).Str("status", status).Float64("seconds", secs).Msg("pipeline stage finished")
	return secs
}

func (r *run) fail(stage string, started time.Time, kind Kind, err error) error {
	r.stage(stage, started, "failed")
	pe := newError(kind, stage, err)
	log.Error().Str("request_id", r.id).Str("stage", stage).Str("kind", string(kind)).Err(err).Msg("pipeline failed")
	return pe
}

// Run executes every stage for req. Any returned error is an *Error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	r := &run{id: req.RequestID, start: time.Now()}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	log.Info().Str("request_id", r.id).Str("correlation_id", req.CorrelationID).Int("files", len(req.Documents)).Msg("pipeline started")

	source, writer := o.source, o.writer
	if o.inference != nil {
		source, writer = o.inference.ForRun()
	}

	res := &Result{RequestID: r.id, CorrelationID: req.CorrelationID, FilesProcessed: []string{}, FailedFiles: []FailedFile{}}

	started := time.Now()
	if err := o.checkLimits(req.Documents); err != nil {
		return nil, r.fail("limits", started, KindInvalidInput, err)
	}

	// Extraction: per-file failures are collected, only a total failure is fatal.
	texts := make([]extract.FileText, 0, len(req.Documents))
	for _, doc := range req.Documents {
		text, err := o.extractor.Extract(ctx, doc.Name, doc.Data)
		if err != nil {
			log.Warn().Str("request_id", r.id).Str("file", doc.Name).Err(err).Msg("file extraction failed")
			res.FailedFiles = append(res.FailedFiles, FailedFile{Name: doc.Name, Error: err.Error()})
			continue
		}
		texts = append(texts, extract.FileText{Name: doc.Name, Text: text})
		res.FilesProcessed = append(res.FilesProcessed, doc.Name)
	}
	if len(texts) == 0 {
		return nil, r.fail("extraction", started, KindExtractionIO, fmt.Errorf("no text could be extracted from %d file(s)", len(req.Documents)))
	}

	combined := extract.Combine(texts)
	if o.limits.MaxTotalTokens > 0 {
		combined, res.Truncated = extract.Truncate(combined, o.limits.MaxTotalTokens)
	}
	res.TokensEstimated = extract.EstimateTokens(combined)
	r.timing.Extraction = r.stage("extraction", started, "ok")

	started = time.Now()
	raw, err := source.ReadStatement(ctx, combined)
	if err != nil {
		return nil, r.fail("parse", started, KindInferenceUnavailable, err)
	}
	res.RawOutput = raw
	r.timing.Parse = r.stage("parse", started, "ok")

	started = time.Now()
	vres, err := o.validator.Validate(raw)
	if err != nil {
		return nil, r.fail("validation", started, validationKind(err), err)
	}
	res.Warnings = vres.Warnings
	res.Repairs = vres.Repairs
	r.timing.Validation = r.stage("validation", started, "ok")

	started = time.Now()
	rep := o.calculator.Calculate(vres.Record)
	r.timing.Calculation = r.stage("calculation", started, "ok")
	res.Report = rep

	if writer != nil {
		started = time.Now()
		markup, err := writer.WriteReport(ctx, report.FormatForModel(rep), req.Instructions)
		if err != nil {
			return nil, r.fail("report", started, KindInferenceUnavailable, err)
		}
		html, err := report.RenderHTML(markup)
		if err != nil {
			return nil, r.fail("report", started, KindInternal, err)
		}
		res.ReportMarkup = markup
		res.ReportHTML = html
		r.timing.Report = r.stage("report", started, "ok")
	} else {
		r.steps = append(r.steps, Step{Name: "report", Status: "skipped"})
	}

	r.timing.Total = time.Since(r.start).Seconds()
	rep.Timing = r.timing
	res.Steps = r.steps

	o.audit(ctx, r.id, req.CorrelationID, rep)

	log.Info().Str("request_id", r.id).Str("company", rep.CompanyName).Str("summary", report.Summary(rep)).Float64("seconds", r.timing.Total).Msg("pipeline complete")
	return res, nil
}

// Calculate runs validation and calculation only, for statement text that
// needs no model.
func (o *Orchestrator) Calculate(raw string) (*Result, error) {
	r := &run{id: uuid.NewString(), start: time.Now()}
	res := &Result{RequestID: r.id, RawOutput: raw, FilesProcessed: []string{}, FailedFiles: []FailedFile{}}

	started := time.Now()
	vres, err := o.validator.Validate(raw)
	if err != nil {
		return nil, r.fail("validation", started, validationKind(err), err)
	}
	res.Warnings = vres.Warnings
	res.Repairs = vres.Repairs
	r.timing.Validation = r.stage("validation", started, "ok")

	started = time.Now()
	rep := o.calculator.Calculate(vres.Record)
	r.timing.Calculation = r.stage("calculation", started, "ok")

	r.timing.Total = time.Since(r.start).Seconds()
	rep.Timing = r.timing
	res.Report = rep
	res.Steps = r.steps
	return res, nil
}

// Validate runs the validator alone and classifies its error.
func (o *Orchestrator) Validate(raw string) (*validate.Result, error) {
	vres, err := o.validator.Validate(raw)
	if err != nil {
		return nil, newError(validationKind(err), "validation", err)
	}
	return vres, nil
}

func (o *Orchestrator) checkLimits(docs []Document) error {
	if len(docs) == 0 {
		return errors.New("no files uploaded")
	}
	if o.limits.MaxFiles > 0 && len(docs) > o.limits.MaxFiles {
		return fmt.Errorf("too many files: %d (max %d)", len(docs), o.limits.MaxFiles)
	}
	var total int64
	for _, doc := range docs {
		if !o.extractor.IsAllowed(doc.Name) {
			return fmt.Errorf("%w: %s", extract.ErrUnsupported, doc.Name)
		}
		total += int64(len(doc.Data))
	}
	if o.limits.MaxTotalBytes > 0 && total > o.limits.MaxTotalBytes {
		return fmt.Errorf("%w: total upload size %d bytes exceeds %d", ErrTooLarge, total, o.limits.MaxTotalBytes)
	}
	return nil
}

func (o *Orchestrator) audit(ctx context.Context, requestID, correlationID string, rep *analysis.Report) {
	if o.repo == nil {
		return
	}
	rec := store.NewAuditRecord(requestID, rep)
	rec.CorrelationID = correlationID
	if err := o.repo.Save(ctx, rec); err != nil {
		log.Warn().Str("request_id", requestID).Err(err).Msg("audit save failed")
	}
}

func validationKind(err error) Kind {
	switch {
	case validate.IsFormatError(err):
		return KindExtractionFormat
	case validate.IsIncompleteError(err):
		return KindExtractionIncomplete
	default:
		return KindInternal
	}
}
