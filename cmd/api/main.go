package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shopventory/shopventory/internal/cache"
	"github.com/shopventory/shopventory/internal/config"
	"github.com/shopventory/shopventory/internal/httpx"
	kafkax "github.com/shopventory/shopventory/internal/kafka"
	"github.com/shopventory/shopventory/internal/postgres"
	"github.com/shopventory/shopventory/internal/redisx"
	"github.com/shopventory/shopventory/internal/service"
	"github.com/shopventory/shopventory/internal/store"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer rdb.Close()
	cs := cache.New(rdb, cfg.CacheTTL)

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Services & handlers
	orders := service.NewOrderService(&store.Orders{DB: db}, cs, prod, cfg.ServiceName, cfg.CacheTTL)
	reservations := service.NewReservationService(&store.Reservations{DB: db}, cs, prod, cfg.ServiceName, cfg.CacheTTL, cfg.ReservationTTL, cfg.SweepBatch)
	products := service.NewProductService(&store.Products{DB: db}, cs, prod, cfg.ServiceName, cfg.CacheTTL)
	categories := service.NewCategoryService(&store.Categories{DB: db}, cs, prod, cfg.ServiceName, cfg.CacheTTL)
	users := service.NewUserService(&store.Users{DB: db}, cs, prod, cfg.ServiceName, cfg.CacheTTL)

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Svc: orders}).Register(router)
	(&httpx.ReservationsHandler{Svc: reservations}).Register(router)
	(&httpx.ProductsHandler{Svc: products}).Register(router)
	(&httpx.CategoriesHandler{Svc: categories}).Register(router)
	(&httpx.UsersHandler{Svc: users}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // close inbox -> flush & close writer
	prod.WaitClosed()
	cancel()
}
