package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"counterparty_analyzer/pkg/config"
	"counterparty_analyzer/pkg/core/agent"
	"counterparty_analyzer/pkg/core/extract"
	"counterparty_analyzer/pkg/core/llm"
	"counterparty_analyzer/pkg/core/prompt"
	"counterparty_analyzer/pkg/core/rating"
	"counterparty_analyzer/pkg/core/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildManualMode(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Inference.Provider = "manual"
	cfg.Processing.PromptsDir = ""

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, c.Agents.IsManual())
	assert.Equal(t, 29, c.Catalog.Len())
	assert.False(t, c.Extractor.IsAllowed("scan.png"))

	res, err := c.Orchestrator.Run(context.Background(), Request{
		Documents: []Document{{Name: "statement.json", Data: []byte(statementJSON)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ТОВ Контрагент", res.Report.CompanyName)
	assert.Empty(t, res.ReportHTML)
}

func TestBuildOCREnablesImages(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.OCR.Enabled = true
	cfg.Processing.PromptsDir = ""

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, c.Extractor.IsAllowed("scan.png"))
	assert.Equal(t, "ollama", c.Agents.ActiveProvider())
}

func TestBuildRejectsUnknownThreshold(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Processing.PromptsDir = ""
	cfg.Analysis.Thresholds = map[string]rating.Rule{
		"no_such_indicator": {Bands: []rating.Band{{Rating: rating.Green}}},
	}

	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_indicator")
}

func TestBuildSwitchToManualAtRuntime(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Processing.PromptsDir = ""

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, c.Agents.SetGlobalProvider(agent.ManualProvider))

	res, err := c.Orchestrator.Run(context.Background(), Request{
		Documents: []Document{{Name: "statement.json", Data: []byte(statementJSON)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ТОВ Контрагент", res.Report.CompanyName)
	assert.Empty(t, res.ReportHTML)
	assert.Equal(t, Step{Name: "report", Status: "skipped"}, res.Steps[len(res.Steps)-1])
}

// scriptedProvider answers the extraction call with a statement and the
// report call with markdown. onExtract runs during the extraction call.
type scriptedProvider struct {
	mu        sync.Mutex
	calls     []string
	onExtract func()
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) GenerateResponse(_ context.Context, _, _ string, options map[string]interface{}) (string, error) {
	step, _ := options[llm.OptStep].(string)
	p.mu.Lock()
	p.calls = append(p.calls, step)
	p.mu.Unlock()
	if step == "extraction" {
		if p.onExtract != nil {
			p.onExtract()
		}
		return statementJSON, nil
	}
	return "## Висновок\n\nКонтрагент **надійний**.", nil
}

func newInferenceOrchestrator(t *testing.T, m *agent.Manager) *Orchestrator {
	t.Helper()
	return NewOrchestrator(extract.New(), nil, validate.New(), newEngine(t),
		WithInference(NewAgentInference(m, prompt.NewRegistry())))
}

func TestAgentInferenceFollowsRuntimeSwitch(t *testing.T) {
	provider := &scriptedProvider{}
	m := agent.NewManagerWithProvider(provider, time.Second, 0)
	o := newInferenceOrchestrator(t, m)
	req := Request{Documents: []Document{{Name: "statement.json", Data: []byte(statementJSON)}}}

	res, err := o.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.ReportHTML, "<strong>надійний</strong>")

	require.NoError(t, m.SetGlobalProvider(agent.ManualProvider))
	res, err = o.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.ReportHTML)
	assert.Len(t, provider.calls, 2)

	require.NoError(t, m.SetGlobalProvider("scripted"))
	res, err = o.Run(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ReportHTML)
	assert.Equal(t, []string{"extraction", "report", "extraction", "report"}, provider.calls)
}

func TestAgentInferencePinsProviderForWholeRun(t *testing.T) {
	provider := &scriptedProvider{}
	m := agent.NewManagerWithProvider(provider, time.Second, 0)
	provider.onExtract = func() { _ = m.SetGlobalProvider(agent.ManualProvider) }
	o := newInferenceOrchestrator(t, m)

	res, err := o.Run(context.Background(), Request{
		Documents: []Document{{Name: "notes.txt", Data: []byte("Баланс на 31.12.2024")}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"extraction", "report"}, provider.calls)
	assert.Contains(t, res.ReportHTML, "Висновок")
	assert.True(t, m.IsManual())
}
