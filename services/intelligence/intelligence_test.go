package ai

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jepet/models"
	"jepet/services/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAdvisor struct {
	calls  atomic.Int32
	answer string
	err    error
	gate   chan struct{}
}

func (f *fakeAdvisor) Advise(ctx context.Context, question, petType string) (string, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.answer, f.err
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, advice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = advice
	return nil
}

type fakeEditor struct {
	out Image
	err error
	got Image
}

func (f *fakeEditor) EditImage(_ context.Context, img Image, _ string) (Image, error) {
	f.got = img
	return f.out, f.err
}

type fakeImages struct{ uploads int }

func (f *fakeImages) UploadImage(context.Context, []byte, string) (storage.Upload, error) {
	f.uploads++
	return storage.Upload{PublicID: "jepet/edits/1", SecureURL: "https://res.example.com/1.png"}, nil
}

func (f *fakeImages) DeleteImage(context.Context, string) error { return nil }

func TestAdviceCachesAnswers(t *testing.T) {
	advisor := &fakeAdvisor{answer: "Escove os dentes do seu cão."}
	svc := NewService(advisor, nil, Options{Cache: &mapCache{m: map[string]string{}}}, nil)
	ctx := context.Background()

	first, err := svc.Advice(ctx, models.AdviceRequest{Question: "Como cuidar dos dentes?", PetType: "cao"})
	require.NoError(t, err)
	assert.Equal(t, advisor.answer, first.Advice)
	assert.False(t, first.Cached)

	second, err := svc.Advice(ctx, models.AdviceRequest{Question: "  como cuidar   dos dentes? ", PetType: "Cao"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, advisor.answer, second.Advice)
	assert.EqualValues(t, 1, advisor.calls.Load())

	_, err = svc.Advice(ctx, models.AdviceRequest{Question: "Como cuidar dos dentes?", PetType: "gato"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, advisor.calls.Load(), "species is part of the key")
}

func TestAdviceRejectsEmptyQuestion(t *testing.T) {
	svc := NewService(&fakeAdvisor{}, nil, Options{}, nil)
	_, err := svc.Advice(context.Background(), models.AdviceRequest{Question: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAdviceFallbacks(t *testing.T) {
	cache := &mapCache{m: map[string]string{}}
	svc := NewService(&fakeAdvisor{err: errors.New("quota exceeded")}, nil, Options{Cache: cache}, nil)
	resp, err := svc.Advice(context.Background(), models.AdviceRequest{Question: "Ração?", PetType: "gato"})
	require.NoError(t, err)
	assert.Equal(t, FallbackUnavailable, resp.Advice)
	assert.NotContains(t, resp.Advice, "quota")
	assert.Empty(t, cache.m, "failures are not cached")

	svc = NewService(&fakeAdvisor{}, nil, Options{Cache: cache}, nil)
	resp, err = svc.Advice(context.Background(), models.AdviceRequest{Question: "Ração?", PetType: "gato"})
	require.NoError(t, err)
	assert.Equal(t, FallbackNoAnswer, resp.Advice)
	assert.Empty(t, cache.m)
}

func TestAdviceCollapsesConcurrentQuestions(t *testing.T) {
	advisor := &fakeAdvisor{answer: "Água fresca sempre.", gate: make(chan struct{})}
	svc := NewService(advisor, nil, Options{}, nil)

	const callers = 5
	var wg sync.WaitGroup
	answers := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.Advice(context.Background(), models.AdviceRequest{Question: "Quanta água?", PetType: "cao"})
			assert.NoError(t, err)
			answers[i] = resp.Advice
		}(i)
	}
	require.Eventually(t, func() bool { return advisor.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Give the other callers time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(advisor.gate)
	wg.Wait()

	assert.EqualValues(t, 1, advisor.calls.Load())
	for _, a := range answers {
		assert.Equal(t, "Água fresca sempre.", a)
	}
}

func TestAdvicePromptMentionsSpecies(t *testing.T) {
	p := advicePrompt("Posso dar chocolate?", "cao")
	assert.Contains(t, p, `um cao: "Posso dar chocolate?"`)
	assert.Contains(t, p, "não substitui uma consulta veterinária")
}

func TestParseDataURL(t *testing.T) {
	img, err := ParseDataURL("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte("hello"), img.Data)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", img.DataURL())

	for _, bad := range []string{"", "aGVsbG8=", "data:image/png,aGVsbG8=", "data:image/png;base64,%%%"} {
		_, err := ParseDataURL(bad)
		assert.ErrorIs(t, err, ErrInvalidImage, bad)
	}
}

func TestEditImage(t *testing.T) {
	editor := &fakeEditor{out: Image{MIMEType: "image/png", Data: []byte("edited")}}
	images := &fakeImages{}
	svc := NewService(nil, editor, Options{Images: images}, nil)
	ctx := context.Background()

	resp, err := svc.EditImage(ctx, models.ImageEditRequest{Image: "data:image/jpeg;base64,aGVsbG8=", Prompt: "adicione um chapéu"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,ZWRpdGVk", resp.Image)
	assert.Equal(t, "https://res.example.com/1.png", resp.HostedURL)
	assert.Equal(t, "image/jpeg", editor.got.MIMEType)
	assert.Equal(t, 1, images.uploads)

	_, err = svc.EditImage(ctx, models.ImageEditRequest{Image: "not-a-data-url", Prompt: "x"})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = svc.EditImage(ctx, models.ImageEditRequest{Image: "data:image/jpeg;base64,aGVsbG8=", Prompt: " "})
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	editor.err = ErrNoImage
	_, err = svc.EditImage(ctx, models.ImageEditRequest{Image: "data:image/jpeg;base64,aGVsbG8=", Prompt: "x"})
	assert.ErrorIs(t, err, ErrNoImage)
}

// wav builds a 16-bit PCM mono file with n samples at rate Hz.
func wav(rate uint32, samples int) []byte {
	dataSize := uint32(samples * 2)
	h := waveHeader{
		FileSize:      36 + dataSize,
		FmtSize:       16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    rate,
		ByteRate:      rate * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		DataSize:      dataSize,
	}
	copy(h.RiffTag[:], "RIFF")
	copy(h.WaveTag[:], "WAVE")
	copy(h.FmtTag[:], "fmt ")
	copy(h.DataTag[:], "data")
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, h)
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestCheckWAV(t *testing.T) {
	assert.NoError(t, CheckWAV(wav(16000, 16000)))

	assert.ErrorIs(t, CheckWAV([]byte("RIFF")), ErrInvalidAudio)

	notWav := wav(16000, 10)
	copy(notWav[8:12], "AVI ")
	assert.ErrorIs(t, CheckWAV(notWav), ErrInvalidAudio)

	long := wav(8000, 0)
	binary.LittleEndian.PutUint32(long[40:44], 8000*2*(MaxAudioSeconds+1))
	assert.ErrorIs(t, CheckWAV(long), ErrInvalidAudio)
}

type fakeTranscriber struct{ text string }

func (f fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return f.text, nil
}

func TestVoiceAdvice(t *testing.T) {
	advisor := &fakeAdvisor{answer: "Leve ao veterinário."}
	svc := NewService(advisor, nil, Options{Transcriber: fakeTranscriber{text: "meu gato espirra"}}, nil)

	resp, err := svc.VoiceAdvice(context.Background(), wav(16000, 1600), "", "gato")
	require.NoError(t, err)
	assert.Equal(t, "meu gato espirra", resp.Transcript)
	assert.Equal(t, "Leve ao veterinário.", resp.Advice)

	silent := NewService(advisor, nil, Options{Transcriber: fakeTranscriber{}}, nil)
	_, err = silent.VoiceAdvice(context.Background(), wav(16000, 1600), "", "gato")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}
