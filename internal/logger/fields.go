package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/utils"
)

const (
	// FieldJobURL is the structured log field key for the job application URL.
	FieldJobURL = "job_url"
	// FieldStep is the structured log field key for the wizard page being processed.
	// The message key already uses "step", hence the prefix.
	FieldStep = "wizard_step"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"

	maxValueLength = 200
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace, shortening long values and omitting entries with empty keys or values.
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

		result = append(result, zap.String(key, utils.TruncateForLog(value, maxValueLength)))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the fields identifying the application being processed.
// Empty values are ignored to keep log entries compact.
func CommonFields(url, step string) []zap.Field {
	return StringFields(
		StringField{Key: FieldJobURL, Value: url},
		StringField{Key: FieldStep, Value: step},
	)
}

// WithCommonFields attaches the application fields to the provided logger.
func WithCommonFields(logger *zap.Logger, url, step string) *zap.Logger {
	return WithFields(logger, CommonFields(url, step)...)
}

// AIFields returns fields describing the AI provider and model.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}
