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

	"github.com/ariefcatur/go-shop-cart.git/internal/cart"
	"github.com/ariefcatur/go-shop-cart.git/internal/catalog"
	"github.com/ariefcatur/go-shop-cart.git/internal/checkout"
	"github.com/ariefcatur/go-shop-cart.git/internal/config"
	"github.com/ariefcatur/go-shop-cart.git/internal/httpx"
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

	// DB + migrasi
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()
	st := postgres.NewStore(pool)

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, satu per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	pStatus.Start(ctx)
	pRejected := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockRejected, 1024)
	pRejected.Start(ctx)

	// Services
	cartSvc := &cart.Service{Store: st}
	catalogSvc := &catalog.Service{Store: st}
	checkoutSvc := &checkout.Service{
		Store:       st,
		Events:      pCreated,
		Rejections:  pRejected,
		ServiceName: cfg.ServiceName,
	}
	ordersSvc := &orders.Service{Store: st, Events: pStatus, ServiceName: cfg.ServiceName}

	// HTTP
	router := httpx.NewRouter()
	(&httpx.CartHandler{Cart: cartSvc, Redis: rdb}).Register(router)
	(&httpx.OrdersHandler{Checkout: checkoutSvc, Orders: ordersSvc, Redis: rdb}).Register(router)
	(&httpx.ProductsHandler{Catalog: catalogSvc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// tutup inbox -> flush & close writer, lalu tunggu drain
	pCreated.Close()
	pStatus.Close()
	pRejected.Close()
	pCreated.WaitClosed()
	pStatus.WaitClosed()
	pRejected.WaitClosed()
}
