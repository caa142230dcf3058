// Package middleware содержит HTTP middleware административной панели.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

type contextKey string

const actorKey contextKey = "actor"

// SessionCookieName задаёт имя cookie с подписанной сессией администратора.
const SessionCookieName = "admin_session"

// AuthMiddleware проверяет подписанную cookie сессии, выданную провайдером аутентификации.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// При пустом секрете используется случайный ключ, и ни одна внешняя сессия не пройдёт проверку.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// Middleware проверяет cookie сессии и добавляет идентификатор администратора в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		actor, ok := a.parseSession(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignSession возвращает значение cookie вида "<actor>.<hmac>".
func (a *AuthMiddleware) SignSession(actor string) string {
	return actor + "." + a.signature(actor)
}

func (a *AuthMiddleware) signature(actor string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(actor))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseSession(value string) (string, bool) {
	idx := strings.LastIndex(value, ".")
	if idx <= 0 || idx == len(value)-1 {
		return "", false
	}

	actor, signature := value[:idx], value[idx+1:]
	if !hmac.Equal([]byte(signature), []byte(a.signature(actor))) {
		return "", false
	}

	return actor, true
}

// GetActorFromContext извлекает идентификатор администратора из контекста запроса.
func GetActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey).(string)
	return actor, ok
}
