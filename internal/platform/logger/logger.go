package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Output is line-delimited
// JSON so log shippers can index the attribute keys used across handlers and
// services (request_id, user_id, event, error).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
