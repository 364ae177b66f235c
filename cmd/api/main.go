package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/db"
	"storefront-checkout/internal/httpserver"
	identityrepo "storefront-checkout/internal/repository/identity"
	cartsvc "storefront-checkout/internal/service/cart"
	identitysvc "storefront-checkout/internal/service/identity"
	ordersvc "storefront-checkout/internal/service/order"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	// The identity store is optional: without it the service keeps working
	// for clients that already hold a device identity.
	var identityStore identitysvc.Store
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Printf("identity store unavailable, new identities cannot be issued: %v", err)
	} else {
		defer dbpool.Close()
		identityStore = identityrepo.NewPostgres(dbpool)
	}

	backendClient := backend.New(cfg.BackendBaseURL, cfg.BackendAPIKey, cfg.BackendTimeout, logger)
	identityService := identitysvc.New(identityStore, logger)
	cartService := cartsvc.New(backendClient, logger)
	orderService := ordersvc.New(backendClient, cfg.TaxAmount, cfg.ShippingAmount, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		IdentitySvc: identityService,
		CartSvc:     cartService,
		OrderSvc:    orderService,
		Tax:         cfg.TaxAmount,
		Shipping:    cfg.ShippingAmount,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
