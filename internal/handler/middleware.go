package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/port"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	sessionKey  contextKey = "session"
	tokenKey    contextKey = "token"
	snapshotKey contextKey = "snapshot"
)

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// verifySession turns a raw token into a session, preferring local HS256
// validation when the GoTrue JWT secret is configured and falling back to
// a round trip to the auth server otherwise.
func verifySession(ctx context.Context, token, jwtSecret string, verifier port.SessionVerifier) (*domain.Session, error) {
	if jwtSecret != "" {
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return nil, &domain.ErrUnauthorized{Message: "token without subject"}
		}
		email, _ := claims["email"].(string)
		return &domain.Session{UserID: sub, Email: email}, nil
	}
	return verifier.Verify(ctx, token)
}

// AuthMiddleware validates Bearer tokens and injects the session and the
// raw token into the request context.
func AuthMiddleware(jwtSecret string, verifier port.SessionVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				logger.Warn("auth: missing or malformed token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Token de autenticação não fornecido")
				return
			}

			session, err := verifySession(r.Context(), token, jwtSecret, verifier)
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "Token inválido ou expirado")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WorkspaceMiddleware resolves the caller's bootstrap snapshot and rejects
// requests whose profile never resolved: a valid session without a usable
// workspace gets 403, not a half-broken view.
func WorkspaceMiddleware(bootstrap *service.BootstrapService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			snap, err := bootstrap.Resolve(r.Context(), session, TokenFromContext(r.Context()))
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			if snap.State != domain.StateResolved {
				logger.Warn("workspace: unresolved profile",
					zap.String("user_id", session.UserID),
					zap.String("state", string(snap.State)),
				)
				writeError(w, http.StatusForbidden, "Perfil sem workspace ativo")
				return
			}

			ctx := context.WithValue(r.Context(), snapshotKey, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the authenticated session from context.
func SessionFromContext(ctx context.Context) *domain.Session {
	v, _ := ctx.Value(sessionKey).(*domain.Session)
	return v
}

// TokenFromContext extracts the caller's raw access token from context.
func TokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

// SnapshotFromContext extracts the resolved workspace snapshot from context.
func SnapshotFromContext(ctx context.Context) *domain.Snapshot {
	v, _ := ctx.Value(snapshotKey).(*domain.Snapshot)
	return v
}
