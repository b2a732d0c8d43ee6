package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tnahs/hlts/internal/platform/ctxutil"
	"github.com/tnahs/hlts/internal/platform/logger"
	"github.com/tnahs/hlts/internal/services"
)

// EnsureOwnerDefaults provisions per-owner defaults on the first
// authenticated request. Failures are logged; the request continues.
func EnsureOwnerDefaults(log *logger.Logger, owners services.OwnerService) gin.HandlerFunc {
	mwLog := log.With("Middleware", "EnsureOwnerDefaults")
	return func(c *gin.Context) {
		if owners != nil {
			ctx := c.Request.Context()
			if err := owners.EnsureDefaults(ctx, ctxutil.OwnerID(ctx)); err != nil {
				mwLog.Warn("Owner defaults failed", "error", err)
			}
		}
		c.Next()
	}
}
