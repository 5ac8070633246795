package middleware

import (
	"context"
	"net/http"
	"strings"

	"jepet/services/session"
	"jepet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	storeKey    = "store"
	deviceIDKey = "deviceID"
)

// StoreProvider hands out the Store of a device.
type StoreProvider interface {
	Get(ctx context.Context, device string) (*session.Store, error)
	// Touch restarts the device's idle clock once a request, including a
	// long-lived event stream, has finished.
	Touch(device string)
}

// DeviceSessionMiddleware resolves the device token into the device's Store.
func DeviceSessionMiddleware(stores StoreProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header", "")
			c.Abort()
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		deviceID, err := utils.ExtractDeviceID(tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid device token", "")
			c.Abort()
			return
		}

		st, err := stores.Get(c.Request.Context(), deviceID)
		if err != nil {
			utils.GetLogger().Error("DeviceSessionMiddleware: failed to open store", zap.String("device", deviceID), zap.Error(err))
			utils.JSONError(c, http.StatusServiceUnavailable, "Session unavailable", "try again shortly")
			c.Abort()
			return
		}

		c.Set(deviceIDKey, deviceID)
		c.Set(storeKey, st)
		c.Next()
		stores.Touch(deviceID)
	}
}

// StoreFrom returns the Store set by DeviceSessionMiddleware.
func StoreFrom(c *gin.Context) (*session.Store, bool) {
	v, ok := c.Get(storeKey)
	if !ok {
		return nil, false
	}
	st, ok := v.(*session.Store)
	return st, ok
}

// DeviceIDFrom returns the authenticated device id.
func DeviceIDFrom(c *gin.Context) string {
	return c.GetString(deviceIDKey)
}
