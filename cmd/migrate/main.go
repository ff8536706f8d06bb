package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := logrus.New()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{
		MaxConns:        int32(cfg.DBMaxConns),
		MaxConnIdleTime: cfg.DBConnMaxIdleTime,
		MaxConnLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	logger.Info("migrations applied")
}
