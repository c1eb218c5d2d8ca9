package logging

import (
	"go.uber.org/zap"
)

// Events is the sink for domain events. Core packages depend on this
// interface only.
type Events interface {
	// Auth records an authentication event. A failed event is logged at warn level.
	Auth(eventType, email string, success bool, details string)
	// Database records a store mutation on a collection.
	Database(operation, collection string, recordID, userID int)
	// Business records a business event with free-form fields.
	Business(eventType, description string, userID int, fields ...zap.Field)
	// Error records an unexpected error with the context it happened in.
	Error(err error, context string, userID int)
}

type zapEvents struct {
	auth     *zap.Logger
	database *zap.Logger
	business *zap.Logger
	errors   *zap.Logger
}

// NewEvents writes events to component loggers named auth, database, business and errors.
func NewEvents(log *zap.Logger) Events {
	return &zapEvents{
		auth:     log.Named("auth"),
		database: log.Named("database"),
		business: log.Named("business"),
		errors:   log.Named("errors"),
	}
}

func (e *zapEvents) Auth(eventType, email string, success bool, details string) {
	fields := []zap.Field{
		zap.String("event_type", eventType),
		zap.Bool("success", success),
	}
	if email != "" {
		fields = append(fields, zap.String("user_email", email))
	}
	if details != "" {
		fields = append(fields, zap.String("details", details))
	}
	if success {
		e.auth.Info("auth event", fields...)
		return
	}
	e.auth.Warn("auth event", fields...)
}

func (e *zapEvents) Database(operation, collection string, recordID, userID int) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("table", collection),
	}
	if recordID != 0 {
		fields = append(fields, zap.Int("record_id", recordID))
	}
	if userID != 0 {
		fields = append(fields, zap.Int("user_id", userID))
	}
	e.database.Info("database operation", fields...)
}

func (e *zapEvents) Business(eventType, description string, userID int, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("event_type", eventType),
		zap.String("description", description),
	}, fields...)
	if userID != 0 {
		all = append(all, zap.Int("user_id", userID))
	}
	e.business.Info("business event", all...)
}

func (e *zapEvents) Error(err error, context string, userID int) {
	fields := []zap.Field{zap.Error(err)}
	if context != "" {
		fields = append(fields, zap.String("context", context))
	}
	if userID != 0 {
		fields = append(fields, zap.Int("user_id", userID))
	}
	e.errors.Error("error", fields...)
}

// NopEvents discards every event.
func NopEvents() Events {
	return NewEvents(zap.NewNop())
}
