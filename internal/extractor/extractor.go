// Package extractor turns learner evidence (resumes, repository stats,
// self-assessment notes) into mastery observations.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/mentor/internal/capability"
	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/skillgraph"
	"github.com/abhisek/mentor/internal/validate"
)

// SourceConfidence is the base confidence assigned to each evidence source.
// A resume claim is weaker evidence than repository activity, which is
// weaker than a manual attestation; interview confidence comes from the
// judge per answer and is not configured here.
type SourceConfidence struct {
	Resume     float64 `mapstructure:"resume" validate:"min=0,max=1"`
	Repository float64 `mapstructure:"repository" validate:"min=0,max=1"`
	Manual     float64 `mapstructure:"manual" validate:"min=0,max=1"`
}

// Config controls extraction behavior.
type Config struct {
	SourceConfidence SourceConfidence `mapstructure:"source-confidence"`
}

// DefaultConfig returns the standard per-source confidences.
func DefaultConfig() Config {
	return Config{
		SourceConfidence: SourceConfidence{
			Resume:     0.3,
			Repository: 0.5,
			Manual:     0.8,
		},
	}
}

// Validate checks the configured confidence ranges.
func (c Config) Validate() error {
	return validate.Struct("extractor config", c)
}

// Extractor maps evidence onto the skill graph.
type Extractor struct {
	graph    *skillgraph.Graph
	analyzer capability.TextAnalyzer
	cfg      Config
	logger   *zap.Logger
}

// New creates an extractor over the given graph and analyzer.
func New(graph *skillgraph.Graph, analyzer capability.TextAnalyzer, cfg Config, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{graph: graph, analyzer: analyzer, cfg: cfg, logger: log}
}

// Extract turns one piece of evidence text into observations. HTML input is
// normalized to plain text first. Evidence that mentions no graph skill
// yields an empty slice and a nil error; having nothing on file is not a
// failure.
func (e *Extractor) Extract(ctx context.Context, evidenceText string, source mastery.Source) ([]mastery.Observation, error) {
	confidence, err := e.confidenceFor(source)
	if err != nil {
		return nil, err
	}

	if looksLikeHTML(evidenceText) {
		normalized, err := normalizeHTML(evidenceText)
		if err != nil {
			return nil, fmt.Errorf("normalizing html evidence: %w", err)
		}
		evidenceText = normalized
	}

	mentions, err := e.analyzer.Analyze(ctx, evidenceText, e.graph.Skills())
	if err != nil {
		return nil, err
	}

	observations := make([]mastery.Observation, 0, len(mentions))
	for _, m := range mentions {
		if !e.graph.Has(m.SkillID) {
			e.logger.Debug("dropping mention outside the graph", zap.String(logger.FieldSkill, m.SkillID))
			continue
		}
		obs, err := mastery.NewObservation(m.SkillID, m.Salience, confidence, source)
		if err != nil {
			return nil, fmt.Errorf("mention for %s: %w", m.SkillID, err)
		}
		observations = append(observations, obs)
	}

	e.logger.Debug("extracted observations",
		zap.String("source", string(source)),
		zap.Int("mentions", len(mentions)),
		zap.Int("observations", len(observations)),
	)
	return observations, nil
}

// confidenceFor resolves the configured base confidence for a source.
// Interview evidence carries judge-derived confidence and never flows
// through text extraction.
func (e *Extractor) confidenceFor(source mastery.Source) (float64, error) {
	switch source {
	case mastery.SourceResume:
		return e.cfg.SourceConfidence.Resume, nil
	case mastery.SourceRepository:
		return e.cfg.SourceConfidence.Repository, nil
	case mastery.SourceManual:
		return e.cfg.SourceConfidence.Manual, nil
	default:
		return 0, &validate.ValidationError{
			Subject: "evidence",
			Fields:  []validate.FieldError{{Field: "Source", Rule: "extractable_source", Value: string(source)}},
		}
	}
}

// Inputs bundles all evidence sources for a single ingestion run.
type Inputs struct {
	ResumeText   string
	Notes        []string
	Repositories []RepositoryEvidence
}

// ExtractAll fans out over the evidence sources concurrently. Sources fail
// independently: a capability timeout on the resume does not discard
// repository observations. The returned error joins the per-source
// failures; observations from the sources that succeeded are returned
// alongside it, so callers can merge partial evidence and surface the
// failures.
func (e *Extractor) ExtractAll(ctx context.Context, in Inputs) ([]mastery.Observation, error) {
	g, ctx := errgroup.WithContext(ctx)

	var (
		mu   sync.Mutex
		all  []mastery.Observation
		errs []error
	)
	collect := func(obs []mastery.Observation, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		all = append(all, obs...)
	}

	if in.ResumeText != "" {
		g.Go(func() error {
			obs, err := e.Extract(ctx, in.ResumeText, mastery.SourceResume)
			if err != nil {
				err = fmt.Errorf("resume: %w", err)
			}
			collect(obs, err)
			return nil
		})
	}

	for i, note := range in.Notes {
		g.Go(func() error {
			obs, err := e.Extract(ctx, note, mastery.SourceManual)
			if err != nil {
				err = fmt.Errorf("note %d: %w", i+1, err)
			}
			collect(obs, err)
			return nil
		})
	}

	if len(in.Repositories) > 0 {
		g.Go(func() error {
			obs, err := e.ExtractRepositories(in.Repositories)
			if err != nil {
				err = fmt.Errorf("repositories: %w", err)
			}
			collect(obs, err)
			return nil
		})
	}

	// Branches record failures in errs and always return nil, so a slow
	// source cannot cancel its siblings.
	_ = g.Wait()

	return all, errors.Join(errs...)
}
