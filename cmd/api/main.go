package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	promorepo "storefront/internal/repository/promo"
	rolerepo "storefront/internal/repository/role"
	stockrepo "storefront/internal/repository/stock"
	cartsvc "storefront/internal/service/cart"
	checkoutsvc "storefront/internal/service/checkout"
	notificationsvc "storefront/internal/service/notification"
	ordersvc "storefront/internal/service/order"
	sessionsvc "storefront/internal/service/session"
	stocksvc "storefront/internal/service/stock"
	"storefront/internal/ws"
)

func main() {
	cfg := config.FromEnv()
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{
		MaxConns:        int32(cfg.DBMaxConns),
		MaxConnIdleTime: cfg.DBConnMaxIdleTime,
		MaxConnLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.WithError(err).Fatal("connect to db")
	}
	defer pool.Close()

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	var snapshots cache.CartCache
	redisClient, err := cache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, cart snapshots disabled")
	} else {
		defer redisClient.Close()
		snapshots = cache.NewRedisCache(redisClient)
	}

	var publisher ordersvc.Publisher
	producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("kafka unavailable, order events disabled")
		publisher = ordersvc.NopPublisher{}
	} else {
		defer producer.Close()
		publisher = producer
	}

	carts := cartrepo.NewPostgres(pool)
	orders := orderrepo.NewPostgres(pool, logger)
	products := productrepo.NewPostgres(pool)
	promos := promorepo.NewPostgres(pool)
	roles := rolerepo.NewPostgres(pool)
	stocks := stockrepo.NewPostgres(pool)

	sessionService := sessionsvc.New(roles)
	cartService := cartsvc.New(carts, products, stocks, promos, snapshots, hub, logger)
	validator := stocksvc.NewValidator(stocks)
	writer := ordersvc.NewWriter(orders, cartService, publisher, ordersvc.Policy{
		ShippingFeeCents:           cfg.ShippingFeeCents,
		FreeShippingThresholdCents: cfg.FreeShippingThresholdCents,
		TaxPercent:                 cfg.TaxPercent,
	}, logger)
	machine := checkoutsvc.NewMachine(validator, cartService, writer, logger)
	manager := checkoutsvc.NewManager()

	feed := events.NewKafkaFeed(cfg.KafkaBrokers, "storefront-admin", logger)
	aggregator := notificationsvc.NewAggregator(orders, feed, hub, logger)
	if err := aggregator.Start(ctx); err != nil {
		// Not fatal: the admin surface exposes a manual retry.
		logger.WithError(err).Error("notification aggregator start failed")
	}
	defer aggregator.Stop()

	srv, err := httpserver.New(cfg.HTTPAddr, logger, pool, httpserver.Deps{
		SessionSvc:  sessionService,
		CartSvc:     cartService,
		Checkout:    machine,
		Checkouts:   manager,
		OrderWriter: writer,
		Aggregator:  aggregator,
		Hub:         hub,
		Products:    products,
		Stocks:      stocks,
	})
	if err != nil {
		logger.WithError(err).Fatal("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
}
