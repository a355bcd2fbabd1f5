package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const OwnerIDHeader = "X-Owner-ID"

// ownerKey is the context key handlers read the owner id from.
const ownerKey = "owner_id"

// RequireOwner extracts the caller-supplied owner identifier from the
// request header. Every task and session operation is scoped by this value.
// A missing or malformed id is a validation failure and never reaches the
// service layer.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(OwnerIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "missing_owner_id",
				"message": "X-Owner-ID header is required",
			})
			return
		}

		ownerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_owner_id",
				"message": "X-Owner-ID must be an integer",
			})
			return
		}

		c.Set(ownerKey, ownerID)
		c.Next()
	}
}

// OwnerID reads the owner id set by RequireOwner.
func OwnerID(c *gin.Context) int64 {
	value, _ := c.Get(ownerKey)
	ownerID, _ := value.(int64)
	return ownerID
}
