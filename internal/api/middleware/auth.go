package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/MedAppointmentService/internal/api/handlers"
	"github.com/m04kA/MedAppointmentService/internal/domain"
)

const (
	// HeaderUserID ID пользователя, проставляемый gateway
	HeaderUserID = "X-User-ID"
	// HeaderUserRole роль пользователя, проставляемая gateway
	HeaderUserRole = "X-User-Role"

	msgMissingIdentity = "отсутствует или некорректна identity пользователя"
)

var errMissingIdentity = errors.New("missing identity")

// TokenVerifier проверяет bearer токен и возвращает identity
type TokenVerifier interface {
	Verify(token string) (domain.Caller, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Auth middleware идентификации вызывающего.
// С verifier ожидает "Authorization: Bearer <jwt>", без него доверяет
// заголовкам X-User-ID и X-User-Role от gateway. Роль по умолчанию patient.
func Auth(verifier TokenVerifier, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				caller domain.Caller
				err    error
			)
			if verifier != nil {
				caller, err = callerFromBearer(r, verifier)
			} else {
				caller, err = callerFromHeaders(r)
			}
			if err != nil {
				logger.Warn("%s %s - authentication failed: %v", r.Method, r.URL.Path, err)
				handlers.RespondUnauthorized(w, msgMissingIdentity)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func callerFromBearer(r *http.Request, verifier TokenVerifier) (domain.Caller, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return domain.Caller{}, errMissingIdentity
	}
	return verifier.Verify(strings.TrimSpace(token))
}

func callerFromHeaders(r *http.Request) (domain.Caller, error) {
	raw := r.Header.Get(HeaderUserID)
	if raw == "" {
		return domain.Caller{}, errMissingIdentity
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Caller{}, errMissingIdentity
	}

	role := domain.RolePatient
	if rawRole := r.Header.Get(HeaderUserRole); rawRole != "" {
		role, err = domain.ParseRole(rawRole)
		if err != nil {
			return domain.Caller{}, err
		}
	}

	return domain.Caller{UserID: userID, Role: role}, nil
}
