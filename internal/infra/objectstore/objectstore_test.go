package objectstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/genpost/internal/publish"
)

func TestObjectKey(t *testing.T) {
	ts := time.Date(2025, 3, 7, 23, 30, 0, 0, time.UTC)
	tests := []struct {
		prefix string
		name   string
		want   string
	}{
		{"", "a.png", "2025/03/07/a.png"},
		{"media", "a.png", "media/2025/03/07/a.png"},
		{"media", "../../etc/a.png", "media/2025/03/07/a.png"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.prefix, ts, tt.name); got != tt.want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestNewS3Store_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
	}{
		{"missing endpoint", S3Config{AccessKey: "a", SecretKey: "b", Bucket: "c"}},
		{"missing keys", S3Config{Endpoint: "localhost:9000", Bucket: "c"}},
		{"missing bucket", S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewS3Store(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "genpost-media"})
	if err != nil {
		t.Fatalf("NewS3Store failed: %v", err)
	}
	if s.region != "us-east-1" {
		t.Errorf("expected default region, got %s", s.region)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ref, err := s.UploadMedia(context.Background(), publish.Media{Name: "x.png"}, strings.NewReader("png"))
	if err != nil {
		t.Fatalf("UploadMedia failed: %v", err)
	}
	data, ok := s.Get(ref)
	if !ok || string(data) != "png" {
		t.Errorf("Get(%s) = %q, %v", ref, data, ok)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 object, got %d", s.Len())
	}
}
