package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixven/ecommerce-backend/internal/config"
	"github.com/felixven/ecommerce-backend/internal/db"
	"github.com/felixven/ecommerce-backend/internal/gateway/linepay"
	stripegw "github.com/felixven/ecommerce-backend/internal/gateway/stripe"
	"github.com/felixven/ecommerce-backend/internal/httpserver"
	addressrepo "github.com/felixven/ecommerce-backend/internal/repository/address"
	cartrepo "github.com/felixven/ecommerce-backend/internal/repository/cart"
	orderrepo "github.com/felixven/ecommerce-backend/internal/repository/order"
	productrepo "github.com/felixven/ecommerce-backend/internal/repository/product"
	ordersvc "github.com/felixven/ecommerce-backend/internal/service/order"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	addressRepo := addressrepo.NewPostgres(dbpool)
	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	orderService := ordersvc.New(orderRepo, cartRepo, addressRepo, productRepo)

	deps := httpserver.Deps{OrderSvc: orderService}
	if cfg.Stripe.SecretKey != "" {
		deps.StripeSvc = stripegw.New(cfg.Stripe)
	} else {
		logger.Printf("stripe secret key not set, card payments disabled")
	}
	if cfg.LinePay.ChannelID != "" && cfg.LinePay.ChannelSecret != "" {
		deps.LinePaySvc = linepay.New(cfg.LinePay, logger)
	} else {
		logger.Printf("linepay channel not set, wallet payments disabled")
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps)
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
