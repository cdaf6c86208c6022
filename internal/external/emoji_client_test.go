package external

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmojiServer(t *testing.T) *httptest.Server {
	t.Helper()
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "pepe", "slug": "1-pepe", "image": "https://cdn.example/1-pepe.png"},
			{"id": 2345, "title": "party", "slug": "2345-party", "image": "https://cdn.example/2345-party.GIF"}
		]`))
	})
	mux.HandleFunc("/img.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(png)
	})
	mux.HandleFunc("/typed.webp", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp; charset=binary")
		_, _ = w.Write([]byte("RIFF0000WEBP"))
	})
	mux.HandleFunc("/huge.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{1}, MaxEmojiSize+10))
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFindEmoji(t *testing.T) {
	srv := newEmojiServer(t)
	client := NewEmojiClientWith(srv.URL+"/api/", srv.Client())

	entry, err := client.FindEmoji(context.Background(), 2345)
	require.NoError(t, err)
	assert.Equal(t, "2345-party", entry.Slug)
	assert.True(t, entry.Animated())

	_, err = client.FindEmoji(context.Background(), 99)
	assert.ErrorIs(t, err, ErrEmojiNotFound)
}

func TestDownload(t *testing.T) {
	srv := newEmojiServer(t)
	client := NewEmojiClientWith(srv.URL+"/api/", srv.Client())
	ctx := context.Background()

	img, err := client.Download(ctx, srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.True(t, strings.HasPrefix(img.DataURI(), "data:image/png;base64,"))

	img, err = client.Download(ctx, srv.URL+"/typed.webp")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.ContentType)

	_, err = client.Download(ctx, srv.URL+"/huge.png")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = client.Download(ctx, srv.URL+"/missing.png")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestParseEmojiGGRef(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"2345-party", 2345, false},
		{"2345", 2345, false},
		{"type:emoji id:2345-party", 2345, false},
		{" 7-x ", 7, false},
		{"party", 0, true},
		{"-5", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEmojiGGRef(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEmojiGGRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
