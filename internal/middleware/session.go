package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

const (
	sessionCookie = "session"
	actorKey      = "actor"
)

// Roles carried by the session cookie.
const (
	RoleUser     = "user"
	RolePromoter = "promoter"
	RoleAdmin    = "admin"
)

// Actor is the authenticated caller. Sessions are issued elsewhere; this
// service only verifies them.
type Actor struct {
	UserID int64
	Role   string
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

type SessionData struct {
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionMiddleware resolves the session cookie into an Actor. Missing,
// forged or expired cookies leave the request anonymous.
func SessionMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session := getSessionFromCookie(c, secret); session != nil {
			c.Set(actorKey, &Actor{UserID: session.UserID, Role: session.Role})
		}
		c.Next()
	}
}

func getSessionFromCookie(c *gin.Context, secret string) *SessionData {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	return DecodeSession(cookie, secret, time.Now())
}

// EncodeSession signs session as "signature.data".
func EncodeSession(session SessionData, secret string) (string, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return "", err
	}

	encodedData := base64.URLEncoding.EncodeToString(data)
	return createSignature(secret, encodedData) + "." + encodedData, nil
}

// DecodeSession returns nil unless value is correctly signed and not
// expired at now.
func DecodeSession(value, secret string, now time.Time) *SessionData {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return nil
	}

	signature, data := parts[0], parts[1]
	if !verifySignature(secret, data, signature) {
		return nil
	}

	decodedData, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return nil
	}

	var session SessionData
	if err := json.Unmarshal(decodedData, &session); err != nil {
		return nil
	}

	if session.UserID <= 0 || now.After(session.ExpiresAt) {
		return nil
	}
	return &session
}

func createSignature(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

func verifySignature(secret, data, signature string) bool {
	expectedSignature := createSignature(secret, data)
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

// GetActor returns the authenticated caller, or nil.
func GetActor(c *gin.Context) *Actor {
	value, exists := c.Get(actorKey)
	if !exists {
		return nil
	}

	if actor, ok := value.(*Actor); ok {
		return actor
	}
	return nil
}
