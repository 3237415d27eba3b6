package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log field keys shared across components, so that learner- and
// skill-scoped entries stay greppable regardless of which package emitted them.
const (
	FieldLearner  = "learner"
	FieldRole     = "role"
	FieldSkill    = "skill"
	FieldSession  = "session"
	FieldProvider = "llm_provider"
	FieldModel    = "llm_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, trimming whitespace
// and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger, defaulting to
// a no-op logger when nil so call sites never have to guard.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithLearner attaches the learner field to the logger.
func WithLearner(logger *zap.Logger, learnerID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldLearner, Value: learnerID})...)
}

// WithProvider attaches provider and model fields to the logger.
func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}
