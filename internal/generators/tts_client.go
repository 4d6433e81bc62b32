package generators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/models"
)

const (
	translateTTSBaseURL = "https://translate.google.com/translate_tts"
	defaultTimeout      = 30 * time.Second
	narrationLanguage   = "en"
	normalSpeed         = "1"
	userAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	audioMIMEType       = "audio/mpeg"
)

// ErrEmptyText is returned when there is nothing to narrate
var ErrEmptyText = errors.New("text cannot be empty")

// TTSClient narrates text through the Google Translate speech endpoint.
// Long text is split into chunks, each chunk fetched as MP3 and the
// results appended in order into one in-memory clip.
type TTSClient struct {
	httpClient *http.Client
	baseURL    string
	chunkLimit int
	limiter    *rate.Limiter
}

// TTSOption configures a TTSClient
type TTSOption func(*TTSClient)

// WithChunkRate paces chunk requests to at most one per interval after an
// initial burst. A zero interval disables pacing.
func WithChunkRate(interval time.Duration, burst int) TTSOption {
	return func(t *TTSClient) {
		if interval <= 0 {
			t.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Every(interval), burst)
	}
}

// NewTTSClient creates a new narration client. An empty baseURL uses the
// public translate endpoint.
func NewTTSClient(baseURL string, timeout time.Duration, opts ...TTSOption) *TTSClient {
	if baseURL == "" {
		baseURL = translateTTSBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &TTSClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    baseURL,
		chunkLimit: DefaultChunkLimit,
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewNarrator builds the TTS client described by the narration config,
// including chunk pacing
func NewNarrator(cfg config.NarrationConfig) *TTSClient {
	return NewTTSClient(cfg.BaseURL, cfg.Timeout.Std(),
		WithChunkRate(cfg.ChunkInterval.Std(), cfg.ChunkBurst))
}

// Narrate implements interfaces.Narrator. On failure it logs the fault and
// returns nil audio with the error.
func (c *TTSClient) Narrate(ctx context.Context, text string) (*models.Audio, error) {
	audio, err := c.synthesize(ctx, text)
	if err != nil {
		slog.ErrorContext(ctx, "Error generating audio", "error", err)
		return nil, err
	}
	return audio, nil
}

func (c *TTSClient) synthesize(ctx context.Context, text string) (*models.Audio, error) {
	chunks := SplitText(text, c.chunkLimit)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}

	var buf bytes.Buffer
	for i, chunk := range chunks {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if err := c.fetchChunk(ctx, &buf, chunk, i, len(chunks)); err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	slog.DebugContext(ctx, "narration synthesized", "chunks", len(chunks), "bytes", buf.Len())
	return &models.Audio{Data: buf.Bytes(), MIMEType: audioMIMEType}, nil
}

func (c *TTSClient) fetchChunk(ctx context.Context, w io.Writer, chunk string, idx, total int) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", chunk)
	params.Set("tl", narrationLanguage)
	params.Set("total", strconv.Itoa(total))
	params.Set("idx", strconv.Itoa(idx))
	params.Set("textlen", strconv.Itoa(runeLen(chunk)))
	params.Set("client", "tw-ob")
	params.Set("ttsspeed", normalSpeed)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Referer", "https://translate.google.com/")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("TTS failed: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if n == 0 {
		return errors.New("TTS failed: empty audio response")
	}
	return nil
}
