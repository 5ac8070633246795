package handlers

import (
	"io"
	"net/http"
	"time"

	"jepet/models"
	"jepet/services/session"
	"jepet/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sseHeartbeat keeps idle event streams open through proxies.
const sseHeartbeat = 25 * time.Second

type SessionHandler struct {
	TokenTTL time.Duration
	Logger   *zap.Logger
}

func NewSessionHandler(tokenTTL time.Duration, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{TokenTTL: tokenTTL, Logger: logger}
}

// CreateSession handles POST /api/session. It mints a device id and its token.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	deviceID := uuid.NewString()
	token, err := utils.GenerateDeviceToken(deviceID, h.TokenTTL)
	if err != nil {
		h.Logger.Error("CreateSession: failed to sign device token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to create session", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"deviceId":  deviceID,
		"token":     token,
		"expiresAt": time.Now().Add(h.TokenTTL).UTC(),
	})
}

// GetState handles GET /api/session/state.
func (h *SessionHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, storeOf(c).Snapshot())
}

// SetView handles PUT /api/session/view.
func (h *SessionHandler) SetView(c *gin.Context) {
	var body struct {
		View models.View `json:"view" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := storeOf(c).SetView(body.View); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": body.View})
}

// Events handles GET /api/session/events as a Server-Sent Events stream.
// The current state is sent first so a client can render without polling.
func (h *SessionHandler) Events(c *gin.Context) {
	st := storeOf(c)
	events, unsubscribe := st.Subscribe(32)
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(string(session.EventState), st.Snapshot())
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.Type == session.EventState {
				c.SSEvent(string(ev.Type), st.Snapshot())
			} else {
				c.SSEvent(string(ev.Type), ev)
			}
			return true
		}
	})
}

// GetTask handles GET /api/tasks/:id.
func (h *SessionHandler) GetTask(c *gin.Context) {
	task, ok := storeOf(c).Task(c.Param("id"))
	if !ok {
		utils.JSONError(c, http.StatusNotFound, "Task not found", "")
		return
	}
	c.JSON(http.StatusOK, task.Info())
}
