package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-organic-store/internal/auth"
	"github.com/ariefcatur/go-organic-store/internal/config"
	"github.com/ariefcatur/go-organic-store/internal/httpx"
	kafkax "github.com/ariefcatur/go-organic-store/internal/kafka"
	"github.com/ariefcatur/go-organic-store/internal/logging"
	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/postgres"
	"github.com/ariefcatur/go-organic-store/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.ServiceName, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var store orders.Store
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		store = orders.NewMemoryStore()
	default:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("db connect")
		}
		defer db.Close()
		store = &orders.Repo{DB: db}
	}

	// Redis (optional)
	rdb := redisx.New(cfg.RedisAddr)
	if rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, cache calls will fail soft")
		}
	}

	h := &httpx.Handler{
		Store:        store,
		Redis:        rdb,
		Tokens:       auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Service:      cfg.ServiceName,
		Log:          log,
		LoginLimiter: httpx.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginBurst),
	}
	// Kafka producers (optional)
	var producers []*kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
		changed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024, log)
		placed.Start(ctx)
		changed.Start(ctx)
		h.Placed, h.Changed = placed, changed
		producers = append(producers, placed, changed)
	} else {
		log.Info("KAFKA_BROKERS empty, order events disabled")
	}

	router := httpx.NewRouter(log)
	h.Register(router)

	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				h.LoginLimiter.Sweep()
			}
		}
	}()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close()
	}
	for _, p := range producers {
		p.WaitClosed()
	}
	cancel()
}
