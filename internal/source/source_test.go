package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/skypro1111/idn-stream-player/internal/config"
)

func TestParseS3Location(t *testing.T) {
	tests := []struct {
		location string
		bucket   string
		key      string
		wantErr  bool
	}{
		{"s3://shows/intro.ild", "shows", "intro.ild", false},
		{"s3://shows/2024/finale.ild", "shows", "2024/finale.ild", false},
		{"s3://shows", "", "", true},
		{"s3:///intro.ild", "", "", true},
		{"s3://shows/", "", "", true},
		{"/tmp/intro.ild", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			bucket, key, err := ParseS3Location(tt.location)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLocation) {
					t.Errorf("Expected ErrInvalidLocation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("Expected %s/%s, got %s/%s", tt.bucket, tt.key, bucket, key)
			}
		})
	}
}

func TestOpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.ild")
	if err := os.WriteFile(path, []byte("ILDA"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	rc, err := Open(context.Background(), path, config.S3Config{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "ILDA" {
		t.Errorf("Expected ILDA, got %q", data)
	}

	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.ild"), config.S3Config{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

func TestOpenS3Object(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("ILDA-object"))
	}))
	defer srv.Close()

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	cfg := config.S3Config{Region: "us-east-1", Endpoint: srv.URL, PathStyle: true}
	rc, err := Open(context.Background(), "s3://shows/intro.ild", cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "ILDA-object" {
		t.Errorf("Expected object body, got %q", data)
	}
	if gotPath != "/shows/intro.ild" {
		t.Errorf("Expected path style request, got %s", gotPath)
	}
}

func TestOpenS3WithoutCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	cfg := config.S3Config{Region: "us-east-1", Endpoint: "http://127.0.0.1:1", PathStyle: true}
	_, err := Open(context.Background(), "s3://shows/intro.ild", cfg)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Expected ErrNoCredentials, got %v", err)
	}
}
