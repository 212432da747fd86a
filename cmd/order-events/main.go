package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-organic-store/internal/config"
	kafkax "github.com/ariefcatur/go-organic-store/internal/kafka"
	"github.com/ariefcatur/go-organic-store/internal/logging"
	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/redisx"
	"github.com/ariefcatur/go-organic-store/internal/tracking"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	service := cfg.ServiceName + "-order-events"
	log := logging.New(service, cfg.LogLevel)

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}
	rdb := redisx.New(cfg.RedisAddr)
	if rdb == nil {
		log.Fatal("REDIS_ADDR is required")
	}
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := tracking.NewRedisCache(rdb, service)
	if err != nil {
		log.WithError(err).Fatal("status cache")
	}
	svc := &tracking.Service{Cache: cache, Log: log}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.EventsGroup, orders.TopicOrderStatusChanged, cfg.EventsWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.WithFields(logrus.Fields{
			"group": cfg.EventsGroup, "topic": orders.TopicOrderStatusChanged, "workers": cfg.EventsWorkers,
		}).Info("order events consumer started")
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			log.WithError(err).Error("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	<-done
}
