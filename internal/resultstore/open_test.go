package resultstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/paperreview/internal/config"
	"github.com/dgallion1/paperreview/internal/pathstore"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()

	store, closeFn, err := Open(ctx, cfg, quietLogger())
	if err != nil || store != nil {
		t.Fatalf("expected nil store for none backend, got %v %v", store, err)
	}
	closeFn()

	cfg.StoreBackend = config.StorePathstore
	store, closeFn, err = Open(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if _, ok := store.(*pathstore.ReviewStore); !ok {
		t.Errorf("expected pathstore review store, got %T", store)
	}

	cfg.StoreBackend = "redis"
	if _, _, err := Open(ctx, cfg, quietLogger()); err == nil {
		t.Error("expected error for unknown backend")
	}
}
