package tiktok

import (
	"strings"
	"testing"
	"time"
)

func TestClientTimeouts(t *testing.T) {
	c := New("key", "secret")
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("call timeout = %v, want 30s", c.httpClient.Timeout)
	}
	if c.uploadClient.Timeout != 120*time.Second {
		t.Errorf("upload timeout = %v, want 120s", c.uploadClient.Timeout)
	}

	c = New("key", "secret", WithTimeout(5*time.Second), WithUploadTimeout(10*time.Second))
	if c.httpClient.Timeout != 5*time.Second || c.uploadClient.Timeout != 10*time.Second {
		t.Errorf("timeouts = %v/%v, want 5s/10s", c.httpClient.Timeout, c.uploadClient.Timeout)
	}
}

func TestPlanChunks(t *testing.T) {
	const mib = 1024 * 1024

	tests := []struct {
		name       string
		size       int64
		wantChunk  int64
		wantChunks int
	}{
		{"tiny file", 5 * mib, 5 * mib, 1},
		{"exactly the single chunk limit", 64 * mib, 64 * mib, 1},
		{"one byte over the limit", 64*mib + 1, 10 * mib, 7},
		{"exact multiple of the chunk size", 100 * mib, 10 * mib, 10},
		{"remainder goes to the last chunk", 105 * mib, 10 * mib, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, chunks := PlanChunks(tt.size)
			if chunk != tt.wantChunk {
				t.Errorf("chunk size = %d, want %d", chunk, tt.wantChunk)
			}
			if chunks != tt.wantChunks {
				t.Errorf("chunk count = %d, want %d", chunks, tt.wantChunks)
			}
		})
	}
}

func TestTruncateCaption(t *testing.T) {
	if got := truncateCaption("short"); got != "short" {
		t.Errorf("short caption changed: %q", got)
	}

	long := strings.Repeat("a", 200)
	if got := truncateCaption(long); len([]rune(got)) != maxCaptionLen {
		t.Errorf("truncated length = %d, want %d", len([]rune(got)), maxCaptionLen)
	}

	// Rune-safe truncation must not split multibyte characters
	runes := strings.Repeat("é", 160)
	got := truncateCaption(runes)
	if len([]rune(got)) != maxCaptionLen {
		t.Errorf("rune length = %d, want %d", len([]rune(got)), maxCaptionLen)
	}
	for _, r := range got {
		if r != 'é' {
			t.Fatalf("truncation corrupted runes: %q", got)
		}
	}
}

func TestAPIErrorIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  APIError
		want bool
	}{
		{"401 status", APIError{HTTPStatus: 401}, true},
		{"invalid token code", APIError{Code: "access_token_invalid", HTTPStatus: 400}, true},
		{"other error", APIError{Code: "spam_risk_too_many_posts", HTTPStatus: 403}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsAuthError(); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}
