package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

var (
	// ErrTokenExpired возвращается для просроченного токена
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid возвращается для любого непроверяемого токена
	ErrTokenInvalid = errors.New("token is invalid")
)

type callerClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTVerifier проверяет HS256 токены, выпущенные сервисом авторизации.
// Subject содержит ID пользователя, claim role его роль.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier создает verifier; пустой issuer не проверяется
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify проверяет подпись, срок действия и issuer
func (v *JWTVerifier) Verify(tokenString string) (domain.Caller, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &callerClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Caller{}, ErrTokenExpired
		}
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*callerClaims)
	if !ok || !token.Valid {
		return domain.Caller{}, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Caller{}, fmt.Errorf("%w: subject %q", ErrTokenInvalid, claims.Subject)
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return domain.Caller{UserID: userID, Role: role}, nil
}

// Issue подписывает токен для caller; используется в тестах и локальной отладке
func (v *JWTVerifier) Issue(caller domain.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := callerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   strconv.FormatInt(caller.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(caller.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
