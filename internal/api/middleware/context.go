package middleware

import (
	"context"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

type contextKey string

const (
	callerKey    contextKey = "caller"
	requestIDKey contextKey = "request_id"
)

// WithCaller кладет проверенную identity в контекст
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller извлекает identity, установленную Auth
func GetCaller(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(domain.Caller)
	return caller, ok
}

// GetUserID извлекает ID пользователя, установленный Auth
func GetUserID(ctx context.Context) (int64, bool) {
	caller, ok := GetCaller(ctx)
	if !ok {
		return 0, false
	}
	return caller.UserID, true
}

// GetRequestID извлекает ID запроса, установленный RequestID
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
