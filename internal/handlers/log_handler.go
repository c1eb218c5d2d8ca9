package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"invoice-backend/internal/middleware"
	"invoice-backend/pkg/utils"
)

// FrontendLog is one entry posted by the web client.
type FrontendLog struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	URL     string         `json:"url,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// LogHandler writes browser-side log entries into the server log.
type LogHandler struct {
	log *zap.Logger
}

func NewLogHandler(log *zap.Logger) *LogHandler {
	return &LogHandler{log: log.Named("frontend")}
}

const maxFrontendMessage = 2000

func (h *LogHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var entry FrontendLog
	if err := decodeJSON(r, &entry); err != nil || strings.TrimSpace(entry.Message) == "" {
		utils.Error(w, http.StatusBadRequest, "Invalid log entry")
		return
	}
	if len(entry.Message) > maxFrontendMessage {
		entry.Message = entry.Message[:maxFrontendMessage]
	}

	fields := []zap.Field{
		zap.String("ip", middleware.ClientIP(r)),
		zap.String("user_agent", r.UserAgent()),
	}
	if entry.URL != "" {
		fields = append(fields, zap.String("url", entry.URL))
	}
	if len(entry.Context) > 0 {
		fields = append(fields, zap.Any("context", entry.Context))
	}

	switch strings.ToLower(entry.Level) {
	case "error":
		h.log.Error(entry.Message, fields...)
	case "warn", "warning":
		h.log.Warn(entry.Message, fields...)
	case "debug":
		h.log.Debug(entry.Message, fields...)
	default:
		h.log.Info(entry.Message, fields...)
	}
	w.WriteHeader(http.StatusNoContent)
}
