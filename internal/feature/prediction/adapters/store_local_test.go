package adapters

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"market_backend/internal/feature/prediction/domain/entity"
	"market_backend/internal/feature/prediction/usecase"
)

func testBlobs() entity.ArtifactBlobs {
	return entity.ArtifactBlobs{
		Model:        []byte("model-bytes"),
		Scaler:       []byte("scaler-bytes"),
		FeatureMeans: []byte(`{"volume": 3}`),
		Graph:        []byte("png-bytes"),
	}
}

func TestLocalStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	graphURL, err := store.Save(ctx, "abcdef0123456789", testBlobs())
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if graphURL == "" {
		t.Error("expected a graph path")
	}
	if _, err := os.Stat(graphURL); err != nil {
		t.Errorf("graph path does not exist: %v", err)
	}

	blobs, err := store.Load(ctx, "abcdef0123456789")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if string(blobs.Model) != "model-bytes" ||
		string(blobs.Scaler) != "scaler-bytes" ||
		string(blobs.FeatureMeans) != `{"volume": 3}` {
		t.Errorf("artifacts changed across the round trip: %+v", blobs)
	}
}

func TestLocalStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(t.TempDir())

	_, err := store.Load(context.Background(), "abcdef0123456789")
	if !errors.Is(err, usecase.ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got: %v", err)
	}
}

func TestLocalStore_SavePredictionGraph(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(t.TempDir())

	path, err := store.SavePredictionGraph(context.Background(), "abcdef0123456789", []byte("png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read prediction graph: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("unexpected graph contents: %q", data)
	}
}

func TestLocalStore_Delete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	if _, err := store.Save(ctx, "abcdef0123456789", testBlobs()); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if err := store.Delete(ctx, "abcdef0123456789"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	if _, err := store.Load(ctx, "abcdef0123456789"); !errors.Is(err, usecase.ErrArtifactNotFound) {
		t.Errorf("expected artifacts to be gone, got: %v", err)
	}

	// Deleting a fingerprint that never existed is not an error.
	if err := store.Delete(ctx, "0000000000000000"); err != nil {
		t.Errorf("expected idempotent delete, got: %v", err)
	}
}

func TestLocalStore_URLs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	if _, err := store.URLs(ctx, "abcdef0123456789"); !errors.Is(err, usecase.ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound before save, got: %v", err)
	}

	if _, err := store.Save(ctx, "abcdef0123456789", testBlobs()); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	urls, err := store.URLs(ctx, "abcdef0123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name, path := range map[string]string{
		"model":  urls.Model,
		"scaler": urls.Scaler,
		"stats":  urls.Stats,
		"graph":  urls.Graph,
	} {
		if !strings.HasPrefix(path, dir) {
			t.Errorf("%s path %q is outside the base directory", name, path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s path does not exist: %v", name, err)
		}
	}
}
