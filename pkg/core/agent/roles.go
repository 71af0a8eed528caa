package agent

import (
	"context"
	"fmt"

	"counterparty_analyzer/pkg/core/llm"
	"counterparty_analyzer/pkg/core/prompt"
)

// StatementReader asks the model for the statement JSON of a document set.
// Without a pinned provider it follows the manager's active one.
type StatementReader struct {
	manager  *Manager
	prompts  *prompt.Registry
	provider string
}

func NewStatementReader(manager *Manager, prompts *prompt.Registry) *StatementReader {
	return &StatementReader{manager: manager, prompts: prompts}
}

// Using returns a copy of the reader pinned to the named provider.
func (r *StatementReader) Using(provider string) *StatementReader {
	pinned := *r
	pinned.provider = provider
	return &pinned
}

// ReadStatement returns the raw model answer for the combined document text.
func (r *StatementReader) ReadStatement(ctx context.Context, documents string) (string, error) {
	tmpl, err := r.prompts.GetPrompt(prompt.PromptIDs.ExtractionStatement)
	if err != nil {
		return "", fmt.Errorf("extraction prompt: %w", err)
	}
	system, user := tmpl.Build(documents)
	return r.manager.ExecuteWith(ctx, pick(r.provider, r.manager), user, system, llm.ExtractionOptions())
}

// ReportWriter asks the model for the analytical report. Without a pinned
// provider it follows the manager's active one.
type ReportWriter struct {
	manager  *Manager
	prompts  *prompt.Registry
	provider string
}

func NewReportWriter(manager *Manager, prompts *prompt.Registry) *ReportWriter {
	return &ReportWriter{manager: manager, prompts: prompts}
}

// Using returns a copy of the writer pinned to the named provider.
func (w *ReportWriter) Using(provider string) *ReportWriter {
	pinned := *w
	pinned.provider = provider
	return &pinned
}

// WriteReport returns report markup for the formatted calculations. User
// instructions, when present, are appended after the data.
func (w *ReportWriter) WriteReport(ctx context.Context, calculations, instructions string) (string, error) {
	tmpl, err := w.prompts.GetPrompt(prompt.PromptIDs.ReportAnalysis)
	if err != nil {
		return "", fmt.Errorf("report prompt: %w", err)
	}
	system, user := tmpl.Build(calculations)
	user = prompt.WithInstructions(user, instructions)
	return w.manager.ExecuteWith(ctx, pick(w.provider, w.manager), user, system, llm.ReportOptions())
}

func pick(pinned string, m *Manager) string {
	if pinned != "" {
		return pinned
	}
	return m.ActiveProvider()
}

// ManualSource treats the uploaded text itself as the model output, for
// statements prepared by hand or by another tool.
type ManualSource struct{}

func (ManualSource) ReadStatement(_ context.Context, documents string) (string, error) {
	return documents, nil
}
