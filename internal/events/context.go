package events

import (
	"context"
	"os"
	"sync"
)

type contextKey int

const (
	loggerKey contextKey = iota
	vehicleIDKey
	tripIDKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithVehicleID adds the vehicle ID to context and its logger.
func WithVehicleID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("vehicle_id", id)
	ctx = context.WithValue(ctx, vehicleIDKey, id)
	return WithLogger(ctx, logger)
}

// WithTripID adds the trip ID to context and its logger.
func WithTripID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("trip_id", id)
	ctx = context.WithValue(ctx, tripIDKey, id)
	return WithLogger(ctx, logger)
}

// GetVehicleID retrieves the vehicle ID from context.
func GetVehicleID(ctx context.Context) string {
	if id, ok := ctx.Value(vehicleIDKey).(string); ok {
		return id
	}
	return ""
}

// GetTripID retrieves the trip ID from context.
func GetTripID(ctx context.Context) string {
	if id, ok := ctx.Value(tripIDKey).(string); ok {
		return id
	}
	return ""
}

var defaultLogger = &Logger{
	mu:     &sync.Mutex{},
	level:  InfoLevel,
	format: "text",
	output: os.Stderr,
	fields: make(map[string]interface{}),
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
