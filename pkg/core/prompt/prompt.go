// Package prompt provides the prompt library for the two model calls of the
// analysis pipeline. Prompts are defined in JSON (or plain text) files and
// loaded at runtime, with built-in defaults when no file overrides them.
package prompt

import "strings"

// Markers separating the instruction part of a prompt from its payload.
const (
	MarkerDocuments    = "--- ДОКУМЕНТИ ---"
	MarkerCalculations = "--- РОЗРАХУНКИ ---"
	MarkerInstructions = "--- ДОДАТКОВІ ІНСТРУКЦІЇ ---"
)

// PromptIDs names the prompts the pipeline uses.
var PromptIDs = struct {
	ExtractionStatement string
	ReportAnalysis      string
}{
	ExtractionStatement: "extraction.statement",
	ReportAnalysis:      "report.analysis",
}

// PromptTemplate represents a reusable prompt with metadata
type PromptTemplate struct {
	ID          string `json:"id"`          // Unique identifier (e.g., "extraction.statement")
	Name        string `json:"name"`        // Human-readable name
	Category    string `json:"category"`    // extraction or report
	Description string `json:"description"` // Description of prompt purpose
	Text        string `json:"text"`        // Full prompt text
	Marker      string `json:"marker"`      // Section marker after which the payload goes
	Placeholder string `json:"placeholder"` // Used when Text has no marker (e.g. "{documents}")
	Version     string `json:"version"`
}

// Build turns the template and a payload into a system prompt and a user
// message. When the text contains the marker, everything before it is the
// system prompt and the user message is the marker followed by the payload.
// Otherwise the placeholder is substituted (or the payload appended) and
// the system prompt stays empty.
func (pt *PromptTemplate) Build(payload string) (system, user string) {
	if pt.Marker != "" && strings.Contains(pt.Text, pt.Marker) {
		head, _, _ := strings.Cut(pt.Text, pt.Marker)
		return strings.TrimSpace(head), pt.Marker + "\n" + payload
	}
	if pt.Placeholder != "" && strings.Contains(pt.Text, pt.Placeholder) {
		return "", strings.ReplaceAll(pt.Text, pt.Placeholder, payload)
	}
	return "", strings.TrimSpace(pt.Text) + "\n\n" + payload
}

// WithInstructions appends free-form user instructions to a user message
// under their own marker. Blank instructions leave the message unchanged.
func WithInstructions(user, instructions string) string {
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return user
	}
	return user + "\n\n" + MarkerInstructions + "\n" + instructions
}
