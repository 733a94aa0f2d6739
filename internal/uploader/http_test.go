package uploader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"clipcast/internal/store"
	"clipcast/internal/testsupport"
	"clipcast/internal/uploader"
)

func testItem(t *testing.T) *store.Item {
	t.Helper()
	source := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, source, 64)
	return &store.Item{
		Account:     "acc1",
		ItemKey:     "clip",
		SourcePath:  source,
		Title:       "Clip",
		Description: "a clip",
	}
}

func TestPostItemSendsMultipartUpload(t *testing.T) {
	var gotAuth string
	var gotAccount string
	var gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotAccount = r.FormValue("account")
		if _, header, err := r.FormFile("video"); err == nil {
			gotFile = header.Filename
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Publisher.Endpoint = server.URL
	cfg.Publisher.AuthToken = "token-123"

	u := uploader.NewHTTP(cfg, nil)
	if err := u.PostItem(context.Background(), testItem(t)); err != nil {
		t.Fatalf("PostItem: %v", err)
	}
	if gotAuth != "Bearer token-123" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotAccount != "acc1" {
		t.Fatalf("unexpected account field %q", gotAccount)
	}
	if gotFile != "clip.mp4" {
		t.Fatalf("unexpected file name %q", gotFile)
	}
}

func TestPostItemRejectedStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Publisher.Endpoint = server.URL

	u := uploader.NewHTTP(cfg, nil)
	if err := u.PostItem(context.Background(), testItem(t)); err == nil {
		t.Fatal("expected error for rejected upload")
	}
}

func TestPostItemMissingSourceFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Publisher.Endpoint = "http://127.0.0.1:0"

	u := uploader.NewHTTP(cfg, nil)
	item := &store.Item{Account: "acc1", ItemKey: "ghost", SourcePath: "/nonexistent/ghost.mp4"}
	if err := u.PostItem(context.Background(), item); err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestPostItemRequiresEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	u := uploader.NewHTTP(cfg, nil)
	if err := u.PostItem(context.Background(), testItem(t)); err == nil {
		t.Fatal("expected error when endpoint is not configured")
	}
}

func TestPostItemClassifiesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Publisher.Endpoint = server.URL
	u := uploader.NewHTTP(cfg, nil)

	err := u.PostItem(context.Background(), testItem(t))
	if err == nil {
		t.Fatal("expected error for server failure")
	}
	if !store.IsTransient(err) {
		t.Fatalf("expected transient classification for 503, got %v", err)
	}

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad video", http.StatusBadRequest)
	}))
	defer rejecting.Close()

	cfg.Publisher.Endpoint = rejecting.URL
	u = uploader.NewHTTP(cfg, nil)
	err = u.PostItem(context.Background(), testItem(t))
	if err == nil {
		t.Fatal("expected error for rejected upload")
	}
	if store.IsTransient(err) {
		t.Fatalf("400 must stay a permanent upload failure, got transient: %v", err)
	}
}
