package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
)

// actorKey is the key used to store the authenticated caller in the request
// context.
const actorKey = contextKey("actor")

// GetActorFromContext retrieves the authenticated caller from the Gin
// context. It returns the actor and a boolean indicating if it was found.
func GetActorFromContext(c *gin.Context) (domain.Actor, bool) {
	actorVal := c.Request.Context().Value(actorKey)
	if actorVal == nil {
		return domain.Actor{}, false
	}

	actor, ok := actorVal.(domain.Actor)
	if !ok {
		// This should not happen if the auth middleware sets it correctly
		return domain.Actor{}, false
	}

	return actor, true
}
