package ai

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

const (
	MaxAudioSeconds = 60
	MaxAudioSize    = 5 * 1024 * 1024
	DefaultLanguage = "pt-BR"
)

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

// parseWaveHeader reads the canonical 44-byte header of a PCM WAV file.
func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 44 {
		return nil, fmt.Errorf("%w: header too short", ErrInvalidAudio)
	}
	var h waveHeader
	if err := binary.Read(bytes.NewReader(data[:44]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	if string(h.RiffTag[:]) != "RIFF" || string(h.WaveTag[:]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a WAV file", ErrInvalidAudio)
	}
	if h.AudioFormat != 1 || h.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: expected 16-bit PCM", ErrInvalidAudio)
	}
	if h.ByteRate == 0 {
		return nil, fmt.Errorf("%w: zero byte rate", ErrInvalidAudio)
	}
	return &h, nil
}

func (h *waveHeader) seconds() float64 {
	return float64(h.DataSize) / float64(h.ByteRate)
}

// CheckWAV validates an upload before it is sent for recognition.
func CheckWAV(data []byte) error {
	if len(data) > MaxAudioSize {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidAudio, MaxAudioSize)
	}
	h, err := parseWaveHeader(data)
	if err != nil {
		return err
	}
	if h.seconds() > MaxAudioSeconds {
		return fmt.Errorf("%w: longer than %d seconds", ErrInvalidAudio, MaxAudioSeconds)
	}
	return nil
}

type SpeechTranscriber struct {
	client *speech.Client
}

func NewSpeechTranscriber(ctx context.Context, credentialsFile string) (*SpeechTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &SpeechTranscriber{client: client}, nil
}

func (s *SpeechTranscriber) Close() error {
	return s.client.Close()
}

func (s *SpeechTranscriber) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	if err := CheckWAV(wav); err != nil {
		return "", err
	}
	h, _ := parseWaveHeader(wav)
	if language == "" {
		language = DefaultLanguage
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(h.SampleRate),
			LanguageCode:      language,
			AudioChannelCount: int32(h.NumChannels),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav[44:]},
		},
	}
	resp, err := s.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript + " ")
		}
	}
	return strings.TrimSpace(transcript.String()), nil
}
