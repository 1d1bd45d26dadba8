package main

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"repairflow/config"
	"repairflow/db"
	"repairflow/items"
)

func main() {
	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("bootstrap config: %v", err)
	}

	// The pool is opened up front so a bad DSN fails the boot, not the first
	// caller that mounts the lifecycle services on this binary.
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	log.WithField("addr", cfg.HTTPAddr).Info("serving item API")

	handler := items.NewHandler(items.NewStore())
	if err := http.ListenAndServe(cfg.HTTPAddr, handler.Routes()); err != nil {
		log.Fatalf("serve item api: %v", err)
	}
}
