package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the verified caller. Handlers read it instead of touching gin
// context keys directly.
type Identity interface {
	UserID() uuid.UUID
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	authenticated bool
}

func (i *identity) UserID() uuid.UUID     { return i.userID }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity returns the caller set by AuthRequired, or an unauthenticated
// identity.
func GetIdentity(c *gin.Context) Identity {
	uid, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	userID, ok := uid.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return &identity{}
	}
	return &identity{userID: userID, authenticated: true}
}

// MustGetIdentity aborts with 401 and returns nil when the caller is not
// authenticated.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		Error(c, http.StatusUnauthorized, "unauthorized", nil)
		c.Abort()
		return nil
	}
	return id
}
