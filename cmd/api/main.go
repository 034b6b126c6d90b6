package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/allsale/allsale-api/internal/cart"
	"github.com/allsale/allsale-api/internal/catalog"
	"github.com/allsale/allsale-api/internal/config"
	"github.com/allsale/allsale-api/internal/httpx"
	kafkax "github.com/allsale/allsale-api/internal/kafka"
	"github.com/allsale/allsale-api/internal/metrics"
	"github.com/allsale/allsale-api/internal/objectstore"
	"github.com/allsale/allsale-api/internal/orders"
	"github.com/allsale/allsale-api/internal/paydunya"
	"github.com/allsale/allsale-api/internal/postgres"
	"github.com/allsale/allsale-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	created := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	paid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentCompleted, 1024)
	failed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentFailed, 1024)
	created.Start(ctx)
	paid.Start(ctx)
	failed.Start(ctx)

	// PayDunya gateway
	gw := paydunya.New(cfg.PayDunyaMode, cfg.PayDunyaMasterKey, cfg.PayDunyaPrivateKey, cfg.PayDunyaToken)
	gw.StoreURL = cfg.FrontendURL

	// Repos & service
	orderRepo := &orders.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db, FrontendURL: cfg.FrontendURL}

	svc := &orders.Service{
		Repo:          orderRepo,
		Gateway:       gw,
		Created:       created,
		Paid:          paid,
		Failed:        failed,
		ServiceName:   cfg.ServiceName,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	m := metrics.NewServerMetrics(cfg.ServiceName)
	router := httpx.NewRouter(m)

	oh := &httpx.OrdersHandler{Svc: svc, Repo: orderRepo, Redis: rdb}
	oh.Register(router)
	ph := &httpx.PaymentsHandler{Svc: svc}
	ph.Register(router)
	wh := &httpx.WebhooksHandler{Gateway: gw, Repo: orderRepo, Svc: svc, Redis: rdb}
	wh.Register(router)
	ch := &httpx.CatalogHandler{Repo: catalogRepo, Redis: rdb}
	ch.Register(router)
	crh := &httpx.CartHandler{Repo: cartRepo}
	crh.Register(router)
	ah := &httpx.AdminHandler{
		Catalog: catalogRepo,
		Orders:  orderRepo,
		Store:   objectstore.New(cfg.ImagesUploadURL, cfg.ImagesPublicURL),
		APIKey:  cfg.AdminAPIKey,
	}
	ah.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// close inboxes -> flush & close writers
	created.Close()
	paid.Close()
	failed.Close()
	cancel() // stop producer loops
	created.WaitClosed()
	paid.WaitClosed()
	failed.WaitClosed()
}
