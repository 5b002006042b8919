// Package resultstore opens the review store selected by STORE_BACKEND.
package resultstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/paperreview/internal/config"
	"github.com/dgallion1/paperreview/internal/database"
	"github.com/dgallion1/paperreview/internal/pathstore"
	"github.com/dgallion1/paperreview/internal/pipeline"
)

// Open returns the configured store and a function that releases it. With
// the "none" backend the store is nil and duplicate detection is off.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (pipeline.ResultStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreNone, "":
		log.Info("no result store configured, duplicate detection disabled")
		return nil, func() {}, nil

	case config.StorePathstore:
		c := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		log.Info("using pathstore result store", "url", cfg.PathstoreURL)
		return pathstore.NewReviewStore(c), c.Close, nil

	case config.StorePostgres:
		db, err := database.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Initialize(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("using postgres result store")
		return db, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
