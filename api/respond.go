package api

import (
	"errors"
	"net/http"

	"arabon-backend/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Anything
// outside the taxonomy (storage, collaborators) is opaque to the caller.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func listPayload(data any, nextCursor string, hasMore bool) gin.H {
	payload := gin.H{"data": data, "has_more": hasMore}
	if hasMore {
		payload["next_cursor"] = nextCursor
	}
	return payload
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func parseCursor(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("cursor")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
		return nil, false
	}
	return &id, true
}
