package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"jepet/models"
	ai "jepet/services/intelligence"
	"jepet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const allowedAudioExtension = ".wav"

// AIService is what the widget endpoints need from the intelligence package.
type AIService interface {
	Advice(ctx context.Context, req models.AdviceRequest) (models.AdviceResponse, error)
	VoiceAdvice(ctx context.Context, wav []byte, language, petType string) (models.AdviceResponse, error)
	EditImage(ctx context.Context, req models.ImageEditRequest) (*models.ImageEditResponse, error)
}

type AIHandler struct {
	Service AIService
	Logger  *zap.Logger
}

func NewAIHandler(svc AIService, logger *zap.Logger) *AIHandler {
	return &AIHandler{Service: svc, Logger: logger}
}

// Advice handles POST /api/ai/advice.
func (h *AIHandler) Advice(c *gin.Context) {
	var req models.AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Digite uma pergunta.", err.Error())
		return
	}
	resp, err := h.Service.Advice(c.Request.Context(), req)
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VoiceAdvice handles POST /api/ai/advice/voice with a multipart "audio" WAV file.
func (h *AIHandler) VoiceAdvice(c *gin.Context) {
	language := c.DefaultPostForm("language", ai.DefaultLanguage)
	petType := c.PostForm("petType")

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "audio file is required", err.Error())
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != allowedAudioExtension {
		utils.JSONError(c, http.StatusBadRequest, "invalid file type", fmt.Sprintf("expected %s, got %s", allowedAudioExtension, ext))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, ai.MaxAudioSize+1))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to read audio file", err.Error())
		return
	}

	resp, err := h.Service.VoiceAdvice(c.Request.Context(), data, language, petType)
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EditImage handles POST /api/ai/image-edit.
func (h *AIHandler) EditImage(c *gin.Context) {
	var req models.ImageEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Envie uma imagem e uma instrução.", err.Error())
		return
	}
	resp, err := h.Service.EditImage(c.Request.Context(), req)
	if errors.Is(err, ai.ErrNoImage) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AIHandler) respond(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrEmptyQuestion):
		utils.JSONError(c, http.StatusBadRequest, "Digite uma pergunta.", "")
	case errors.Is(err, ai.ErrEmptyPrompt):
		utils.JSONError(c, http.StatusBadRequest, "Descreva a edição desejada.", "")
	case errors.Is(err, ai.ErrInvalidImage):
		utils.JSONError(c, http.StatusBadRequest, "Formato de imagem inválido", "")
	case errors.Is(err, ai.ErrInvalidAudio):
		utils.JSONError(c, http.StatusBadRequest, "Áudio inválido.", err.Error())
	default:
		h.Logger.Error("AIHandler: request failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, ai.FallbackUnavailable, "")
	}
}
