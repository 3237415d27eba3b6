package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/store"
)

// CallLog receives one record per LLM API call.
type CallLog interface {
	AppendLLMCall(ctx context.Context, rec store.LLMCallRecord) error
}

// LoggingProvider is a decorator that records every LLM call as an event
// and logs it.
type LoggingProvider struct {
	inner  Provider
	events CallLog
	logger *zap.Logger
}

// WithLogging wraps a Provider with call recording. events and log may each
// be nil to disable that half.
func WithLogging(p Provider, events CallLog, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, events: events, logger: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	rec := store.LLMCallRecord{
		Provider:  l.inner.ModelID(),
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: latencyMs,
		Success:   err == nil,
	}
	if resp != nil {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		rec.Model = resp.Model
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}

	if err != nil {
		l.logger.Warn("llm call failed",
			zap.String(logger.FieldProvider, rec.Provider),
			zap.String("purpose", purpose),
			zap.Int64("latency_ms", latencyMs),
			zap.Error(err),
		)
	} else {
		l.logger.Debug("llm call",
			zap.String(logger.FieldProvider, rec.Provider),
			zap.String(logger.FieldModel, rec.Model),
			zap.String("purpose", purpose),
			zap.Int64("latency_ms", latencyMs),
			zap.Int("input_tokens", rec.InputTokens),
			zap.Int("output_tokens", rec.OutputTokens),
			zap.String("content", logger.TruncateForLog(string(resp.Content), 200)),
		)
	}

	// Record the event but don't fail the request if recording fails.
	if l.events != nil {
		if logErr := l.events.AppendLLMCall(ctx, rec); logErr != nil {
			l.logger.Warn("failed to record llm call event", zap.Error(logErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
