package application

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeURLs(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job_urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing urls file: %v", err)
	}
	return path
}

func TestLoadURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		fallback string
		expect   []string
		err      error
	}{
		{
			name:    "trims and skips comments",
			content: "  https://a.example.com  \n\n# later\nhttps://b.example.com\n",
			expect:  []string{"https://a.example.com", "https://b.example.com"},
		},
		{
			name:    "drops duplicates",
			content: "https://a.example.com\nhttps://a.example.com\n",
			expect:  []string{"https://a.example.com"},
		},
		{
			name:     "empty file ignores fallback",
			content:  "\n# nothing yet\n",
			fallback: "https://default.example.com",
			err:      ErrNoURLs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			urls, err := LoadURLs(writeURLs(t, tt.content), tt.fallback, nil)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(urls, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, urls)
			}
		})
	}
}

func TestLoadURLsMissingFile(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	missing := filepath.Join(t.TempDir(), "absent.txt")

	urls, err := LoadURLs(missing, "https://default.example.com", zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(urls, []string{"https://default.example.com"}) {
		t.Fatalf("expected fallback url, got %v", urls)
	}
	if logs.FilterMessage("job URLs file not found, using the default URL").Len() != 1 {
		t.Fatalf("expected fallback warning")
	}

	if _, err := LoadURLs(missing, "", nil); !errors.Is(err, ErrNoURLs) {
		t.Fatalf("expected ErrNoURLs without fallback, got %v", err)
	}
}
