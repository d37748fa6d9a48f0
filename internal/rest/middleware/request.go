package middleware

import (
	"github.com/flexprice/recurring/internal/types"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware propagates or assigns a request ID and carries the
// caller's user ID, when sent, into the request context for audit fields
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}
	ctx = types.SetRequestID(ctx, requestID)

	if userID := c.GetHeader(types.HeaderUserID); userID != "" {
		ctx = types.SetUserID(ctx, userID)
	}

	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}
