package uploads_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sentinelworks/gatepass/internal/uploads"
)

func newPhotoRequest(t *testing.T, filename string, content []byte) (contentType string, body *bytes.Buffer) {
	t.Helper()

	body = &bytes.Buffer{}
	mp := multipart.NewWriter(body)
	if filename != "" {
		part, err := mp.CreateFormFile("photo", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(content)
	}
	mp.Close()
	return mp.FormDataContentType(), body
}

func TestSavePhoto_WritesFileAndReturnsRelativePath(t *testing.T) {
	dir := t.TempDir()
	store, err := uploads.NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	contentType, body := newPhotoRequest(t, "face.jpg", []byte("jpeg-bytes"))
	r := httptest.NewRequest("POST", "/api/visitors", body)
	r.Header.Set("Content-Type", contentType)

	rel, err := store.SavePhoto(r, "photo")
	if err != nil {
		t.Fatalf("save photo: %v", err)
	}
	if !strings.HasPrefix(rel, filepath.Base(dir)+"/") || !strings.HasSuffix(rel, ".jpg") {
		t.Fatalf("unexpected relative path %q", rel)
	}

	stored := filepath.Join(dir, filepath.Base(rel))
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("read stored photo: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatal("stored content differs from upload")
	}
}

func TestSavePhoto_MissingFileIsOptional(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	contentType, body := newPhotoRequest(t, "", nil)
	r := httptest.NewRequest("POST", "/api/visitors", body)
	r.Header.Set("Content-Type", contentType)

	rel, err := store.SavePhoto(r, "photo")
	if err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v", err)
	}
	if rel != "" {
		t.Fatalf("expected empty path, got %q", rel)
	}
}

func TestSavePhoto_RejectsUnsupportedType(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	for _, name := range []string{"payload.exe", "notes.txt", "image.svg"} {
		contentType, body := newPhotoRequest(t, name, []byte("data"))
		r := httptest.NewRequest("POST", "/api/visitors", body)
		r.Header.Set("Content-Type", contentType)

		if _, err := store.SavePhoto(r, "photo"); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestDelete_MissingFileTolerated(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Delete("uploads/never-existed.jpg"); err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v", err)
	}
	if err := store.Delete(""); err != nil {
		t.Fatalf("empty path must be a no-op, got %v", err)
	}
}
