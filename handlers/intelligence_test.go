package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jepet/models"
	ai "jepet/services/intelligence"
	"jepet/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
	m.Run()
}

type fakeAI struct {
	advice   models.AdviceResponse
	edit     *models.ImageEditResponse
	err      error
	gotVoice struct {
		size     int
		language string
		petType  string
	}
}

func (f *fakeAI) Advice(_ context.Context, req models.AdviceRequest) (models.AdviceResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return models.AdviceResponse{}, ai.ErrEmptyQuestion
	}
	return f.advice, f.err
}

func (f *fakeAI) VoiceAdvice(_ context.Context, wav []byte, language, petType string) (models.AdviceResponse, error) {
	f.gotVoice.size, f.gotVoice.language, f.gotVoice.petType = len(wav), language, petType
	return f.advice, f.err
}

func (f *fakeAI) EditImage(context.Context, models.ImageEditRequest) (*models.ImageEditResponse, error) {
	return f.edit, f.err
}

func aiRouter(svc AIService) *gin.Engine {
	h := NewAIHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/advice", h.Advice)
	r.POST("/voice", h.VoiceAdvice)
	r.POST("/edit", h.EditImage)
	return r
}

func post(r *gin.Engine, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdviceHandler(t *testing.T) {
	svc := &fakeAI{advice: models.AdviceResponse{Advice: "Ofereça água fresca."}}
	r := aiRouter(svc)

	w := post(r, "/advice", "application/json", bytes.NewBufferString(`{"question":"Quanta água?","petType":"cao"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ofereça água fresca.")

	w = post(r, "/advice", "application/json", bytes.NewBufferString(`{"question":"   "}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/advice", "application/json", bytes.NewBufferString(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditImageHandler(t *testing.T) {
	svc := &fakeAI{edit: &models.ImageEditResponse{Image: "data:image/png;base64,AA=="}}
	r := aiRouter(svc)
	body := `{"image":"data:image/png;base64,AA==","prompt":"chapéu"}`

	w := post(r, "/edit", "application/json", bytes.NewBufferString(body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"image":"data:image/png;base64,AA=="`)

	svc.err = ai.ErrNoImage
	w = post(r, "/edit", "application/json", bytes.NewBufferString(body))
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.err = ai.ErrInvalidImage
	w = post(r, "/edit", "application/json", bytes.NewBufferString(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = errors.New("upstream exploded with secrets")
	w = post(r, "/edit", "application/json", bytes.NewBufferString(body))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "secrets")
}

func TestVoiceAdviceHandler(t *testing.T) {
	svc := &fakeAI{advice: models.AdviceResponse{Advice: "ok", Transcript: "oi"}}
	r := aiRouter(svc)

	form := func(filename string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("petType", "gato"))
		fw, err := mw.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = fw.Write(make([]byte, 64))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	body, ct := form("pergunta.wav")
	w := post(r, "/voice", ct, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 64, svc.gotVoice.size)
	assert.Equal(t, ai.DefaultLanguage, svc.gotVoice.language)
	assert.Equal(t, "gato", svc.gotVoice.petType)

	body, ct = form("pergunta.mp3")
	w = post(r, "/voice", ct, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/voice", "application/json", bytes.NewBufferString(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
