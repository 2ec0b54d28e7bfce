package logger

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Fields map[string]any

var root zerolog.Logger

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"passwordhash":  {},
	"password_hash": {},
	"pin":           {},
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	root = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func Info(message string, fields Fields) {
	root.Info().Fields(sanitizedMap(fields)).Msg(message)
}

func Error(message string, err error, fields Fields) {
	event := root.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Fields(sanitizedMap(fields)).Msg(message)
}

// SanitizePayload round-trips the payload through JSON and masks sensitive
// keys at every nesting level, so request bodies can be logged verbatim.
func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func sanitizedMap(fields Fields) map[string]any {
	if fields == nil {
		return map[string]any{}
	}

	sanitized, ok := SanitizePayload(fields).(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return sanitized
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", ""))
	_, ok := sensitiveKeys[normalized]
	return ok
}
