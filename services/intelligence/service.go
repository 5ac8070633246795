package ai

import (
	"context"
	"errors"
	"strings"

	"jepet/models"
	"jepet/services/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service backs the AI widget. Model failures never reach the customer
// verbatim: advice falls back to a retry-later message.
type Service struct {
	advisor     Advisor
	editor      ImageEditor
	transcriber Transcriber
	cache       AdviceCache
	images      storage.ImageStore
	logger      *zap.Logger

	group singleflight.Group
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Transcriber Transcriber
	Cache       AdviceCache
	Images      storage.ImageStore
}

func NewService(advisor Advisor, editor ImageEditor, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		advisor:     advisor,
		editor:      editor,
		transcriber: opts.Transcriber,
		cache:       opts.Cache,
		images:      opts.Images,
		logger:      logger,
	}
}

// Advice answers a question, serving repeated questions from the cache and
// collapsing concurrent identical ones into a single model call.
func (s *Service) Advice(ctx context.Context, req models.AdviceRequest) (models.AdviceResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return models.AdviceResponse{}, ErrEmptyQuestion
	}
	petType := strings.TrimSpace(req.PetType)
	key := adviceKey(question, petType)

	if s.cache != nil {
		advice, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("ai.Advice: cache read failed", zap.Error(err))
		} else if ok {
			return models.AdviceResponse{Advice: advice, Cached: true}, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		advice, err := s.advisor.Advise(ctx, question, petType)
		if err != nil {
			return "", err
		}
		if advice == "" {
			return FallbackNoAnswer, nil
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, advice); err != nil {
				s.logger.Warn("ai.Advice: cache write failed", zap.Error(err))
			}
		}
		return advice, nil
	})
	if err != nil {
		s.logger.Error("ai.Advice: model call failed", zap.String("pet_type", petType), zap.Error(err))
		return models.AdviceResponse{Advice: FallbackUnavailable}, nil
	}
	return models.AdviceResponse{Advice: v.(string)}, nil
}

// VoiceAdvice transcribes a WAV question and answers it.
func (s *Service) VoiceAdvice(ctx context.Context, wav []byte, language, petType string) (models.AdviceResponse, error) {
	if s.transcriber == nil {
		return models.AdviceResponse{}, errors.New("voice questions are not configured")
	}
	if err := CheckWAV(wav); err != nil {
		return models.AdviceResponse{}, err
	}
	transcript, err := s.transcriber.Transcribe(ctx, wav, language)
	if err != nil {
		s.logger.Error("ai.VoiceAdvice: transcription failed", zap.Error(err))
		return models.AdviceResponse{Advice: FallbackUnavailable}, nil
	}
	if transcript == "" {
		return models.AdviceResponse{}, ErrEmptyQuestion
	}
	resp, err := s.Advice(ctx, models.AdviceRequest{Question: transcript, PetType: petType})
	resp.Transcript = transcript
	return resp, err
}

// EditImage applies prompt to a data URL image. It returns ErrNoImage when
// the model produced no image and ErrInvalidImage for malformed input.
func (s *Service) EditImage(ctx context.Context, req models.ImageEditRequest) (*models.ImageEditResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	img, err := ParseDataURL(strings.TrimSpace(req.Image))
	if err != nil {
		return nil, err
	}

	edited, err := s.editor.EditImage(ctx, img, prompt)
	if err != nil {
		if !errors.Is(err, ErrNoImage) {
			s.logger.Error("ai.EditImage: model call failed", zap.Error(err))
		}
		return nil, err
	}

	resp := &models.ImageEditResponse{Image: edited.DataURL()}
	if s.images != nil {
		upload, err := s.images.UploadImage(ctx, edited.Data, edited.MIMEType)
		if err != nil {
			s.logger.Warn("ai.EditImage: hosting upload failed", zap.Error(err))
		} else {
			resp.HostedURL = upload.SecureURL
		}
	}
	return resp, nil
}
