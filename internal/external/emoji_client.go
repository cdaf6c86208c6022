package external

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/payperplay/mcwatch/pkg/logger"
)

const (
	EmojiGGAPIBase = "https://emoji.gg/api/"
	UserAgent      = "mcwatch/1.0 (+https://github.com/payperplay/mcwatch)"

	// MaxEmojiSize is the Discord upload limit for custom emojis
	MaxEmojiSize = 256 * 1024
)

var (
	ErrEmojiNotFound     = errors.New("emoji not found")
	ErrImageTooLarge     = errors.New("image exceeds the emoji size limit")
	ErrInvalidEmojiGGRef = errors.New("emoji.gg reference must look like 1234-name")
)

// StatusError is returned when a remote answers with a non-2xx status
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// EmojiClient talks to the emoji.gg catalogue and downloads emoji images
type EmojiClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewEmojiClient creates a new emoji.gg client
func NewEmojiClient(baseURL string) *EmojiClient {
	return NewEmojiClientWith(baseURL, &http.Client{Timeout: 30 * time.Second})
}

// NewEmojiClientWith uses a custom http client
func NewEmojiClientWith(baseURL string, client *http.Client) *EmojiClient {
	if baseURL == "" {
		baseURL = EmojiGGAPIBase
	}
	return &EmojiClient{httpClient: client, baseURL: baseURL}
}

// EmojiGGEntry is one emoji in the emoji.gg listing
type EmojiGGEntry struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Category    int    `json:"category"`
	Faves       int    `json:"faves"`
}

// Animated reports whether the image is a gif
func (e EmojiGGEntry) Animated() bool {
	return strings.HasSuffix(strings.ToLower(e.Image), ".gif")
}

// EmojiImage is a downloaded image ready for upload
type EmojiImage struct {
	Data        []byte
	ContentType string
}

// DataURI encodes the image the way the Discord emoji endpoint expects
func (img *EmojiImage) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", img.ContentType, base64.StdEncoding.EncodeToString(img.Data))
}

// ListEmojis fetches the full emoji.gg listing
func (c *EmojiClient) ListEmojis(ctx context.Context) ([]EmojiGGEntry, error) {
	resp, err := c.doRequest(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []EmojiGGEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode emoji list: %w", err)
	}

	return entries, nil
}

// FindEmoji looks up one emoji by its numeric id
func (c *EmojiClient) FindEmoji(ctx context.Context, id int) (*EmojiGGEntry, error) {
	entries, err := c.ListEmojis(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, ErrEmojiNotFound
}

// Download fetches an image, refusing anything over MaxEmojiSize
func (c *EmojiClient) Download(ctx context.Context, imageURL string) (*EmojiImage, error) {
	resp, err := c.doRequest(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxEmojiSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxEmojiSize {
		return nil, ErrImageTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}

	return &EmojiImage{Data: data, ContentType: contentType}, nil
}

// ParseEmojiGGRef extracts the numeric id from "1234-name", "1234" or the
// legacy "type:emoji id:1234-name" form
func ParseEmojiGGRef(raw string) (int, error) {
	ref := strings.TrimSpace(raw)
	for _, part := range strings.Fields(ref) {
		if strings.HasPrefix(part, "id:") {
			ref = strings.TrimPrefix(part, "id:")
			break
		}
	}

	idText, _, _ := strings.Cut(ref, "-")
	id, err := strconv.Atoi(idText)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEmojiGGRef, raw)
	}
	return id, nil
}

// doRequest performs a GET with proper headers
func (c *EmojiClient) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)

	logger.Debug("Emoji request", map[string]interface{}{
		"url": url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return resp, nil
}
