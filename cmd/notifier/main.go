package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/allsale/allsale-api/internal/config"
	kafkax "github.com/allsale/allsale-api/internal/kafka"
	"github.com/allsale/allsale-api/internal/notify"
	"github.com/allsale/allsale-api/internal/orders"
	"github.com/allsale/allsale-api/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	w := &notify.Worker{
		Notify:      notify.New(cfg.NotifyURL),
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")

	// One consumer per payment topic, same handler.
	for _, topic := range []string{orders.TopicPaymentCompleted, orders.TopicPaymentFailed} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers)
		go func(topic string, cons *kafkax.Consumer) {
			log.Printf("notifier consumer started: group=%s topic=%s workers=%d", group, topic, workers)
			if err := cons.Start(ctx, w.HandlePaymentEvent); err != nil {
				log.Printf("consumer exit (%s): %v", topic, err)
				cancel()
			}
		}(topic, cons)
	}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("shutting down consumers...")
	case <-ctx.Done():
	}
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
