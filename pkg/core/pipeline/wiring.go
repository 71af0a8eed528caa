package pipeline

import (
	"context"

	"counterparty_analyzer/pkg/config"
	"counterparty_analyzer/pkg/core/agent"
	"counterparty_analyzer/pkg/core/analysis"
	"counterparty_analyzer/pkg/core/extract"
	"counterparty_analyzer/pkg/core/prompt"
	"counterparty_analyzer/pkg/core/store"
	"counterparty_analyzer/pkg/core/validate"

	"github.com/phuslu/log"
)

// Components is a fully wired service.
type Components struct {
	Orchestrator *Orchestrator
	Agents       *agent.Manager
	Extractor    *extract.Extractor
	Catalog      *analysis.Catalog
	Prompts      *prompt.Registry
}

// Build wires every collaborator from cfg. Only an invalid threshold table
// is fatal; a missing prompts directory or an unreachable database are
// logged and the service runs with built-in prompts and no audit log.
func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	prompts := prompt.Get()
	if cfg.Processing.PromptsDir != "" {
		if err := prompts.LoadDirectory(cfg.Processing.PromptsDir); err != nil {
			log.Warn().Err(err).Msg("prompt library not loaded, using built-in prompts")
		}
	}

	catalog, err := analysis.NewCatalog(analysis.DefaultDefinitions(), cfg.Analysis.Thresholds)
	if err != nil {
		return nil, err
	}
	engine := analysis.NewEngine(catalog, analysis.WithAverageFallback(cfg.Analysis.AverageFallback))

	validator := validate.New(
		validate.WithMaxUnclosed(cfg.Validator.MaxUnclosed),
		validate.WithLenientRepair(cfg.Validator.LenientRepair),
	)

	extractOpts := []extract.Option{extract.WithMinPageText(cfg.OCR.MinPageText)}
	if cfg.OCR.Enabled {
		extractOpts = append(extractOpts, extract.WithOCR(extract.NewGeminiOCR(cfg.Inference.GeminiAPIKey, cfg.OCR.Model)))
	}
	extractor := extract.New(extractOpts...)

	agents := agent.NewManager(cfg.Inference)

	opts := []Option{
		WithLimits(Limits{
			MaxFiles:       cfg.Processing.MaxFiles,
			MaxTotalBytes:  cfg.Processing.MaxUploadBytes(),
			MaxTotalTokens: cfg.Processing.MaxTotalTokens,
		}),
		WithInference(NewAgentInference(agents, prompts)),
	}
	if agents.IsManual() {
		log.Info().Msg("manual mode: uploaded text is used as model output, report stage disabled")
	}

	if cfg.Storage.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.Storage.DatabaseURL); err != nil {
			log.Warn().Err(err).Msg("audit database unavailable, audit log disabled")
		} else {
			repo := store.NewAuditRepo(nil)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("audit schema not created")
			}
			opts = append(opts, WithRepository(repo))
		}
	}

	return &Components{
		Orchestrator: NewOrchestrator(extractor, nil, validator, engine, opts...),
		Agents:       agents,
		Extractor:    extractor,
		Catalog:      catalog,
		Prompts:      prompts,
	}, nil
}

// AgentInference follows the manager's active provider, read once per run.
// In manual mode the uploaded text is the model output and no report is
// written.
type AgentInference struct {
	agents *agent.Manager
	reader *agent.StatementReader
	writer *agent.ReportWriter
}

func NewAgentInference(agents *agent.Manager, prompts *prompt.Registry) *AgentInference {
	return &AgentInference{
		agents: agents,
		reader: agent.NewStatementReader(agents, prompts),
		writer: agent.NewReportWriter(agents, prompts),
	}
}

func (a *AgentInference) ForRun() (StatementSource, ReportWriter) {
	name := a.agents.ActiveProvider()
	if name == agent.ManualProvider {
		return agent.ManualSource{}, nil
	}
	return a.reader.Using(name), a.writer.Using(name)
}
