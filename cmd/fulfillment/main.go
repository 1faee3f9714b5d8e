package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-shop-cart.git/internal/config"
	"github.com/ariefcatur/go-shop-cart.git/internal/fulfillment"
	kafkax "github.com/ariefcatur/go-shop-cart.git/internal/kafka"
	"github.com/ariefcatur/go-shop-cart.git/internal/orders"
	"github.com/ariefcatur/go-shop-cart.git/internal/postgres"
	"github.com/ariefcatur/go-shop-cart.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	st := postgres.NewStore(pool)

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	pStatus.Start(ctx)

	svc := &fulfillment.Service{
		Orders: &orders.Service{Store: st, Events: pStatus, ServiceName: cfg.ServiceName + "-fulfillment"},
		Redis:  rdb,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.FulfillmentGroup, orders.TopicOrderCreated, cfg.FulfillmentWorkers)

	go func() {
		log.Printf("fulfillment consumer started: group=%s topic=%s workers=%d",
			cfg.FulfillmentGroup, orders.TopicOrderCreated, cfg.FulfillmentWorkers)
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pStatus.Close()
	pStatus.WaitClosed()
}
