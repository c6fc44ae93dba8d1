// The sweeper releases expired reservations on an interval, restoring stock
// through the same delete path the API uses. Multiple instances may run at
// once; losers of a per-reservation race simply skip it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shopventory/shopventory/internal/cache"
	"github.com/shopventory/shopventory/internal/config"
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

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer rdb.Close()
	cs := cache.New(rdb, cfg.CacheTTL)

	prod := kafkax.NewProducer(cfg.KafkaBrokers, 256)
	prod.Start(ctx)

	svc := service.NewReservationService(&store.Reservations{DB: db}, cs, prod,
		cfg.ServiceName+"-sweeper", cfg.CacheTTL, cfg.ReservationTTL, cfg.SweepBatch)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	log.Info().Dur("interval", cfg.SweepInterval).Msg("sweeper started")

	for {
		select {
		case <-ticker.C:
			n, err := svc.ExpireDue(ctx)
			if err != nil {
				log.Error().Err(err).Msg("sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("released", n).Msg("expired reservations released")
			}
		case <-sig:
			log.Info().Msg("shutting down sweeper...")
			prod.Close()
			prod.WaitClosed()
			cancel()
			return
		}
	}
}
