package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arabon-backend/config"
	"arabon-backend/internal/bootstrap"
	"arabon-backend/internal/cache"
	"arabon-backend/internal/coupon"
	"arabon-backend/internal/kafka"
	"arabon-backend/internal/repository"
	"arabon-backend/internal/service/booking"
	"arabon-backend/internal/service/offers"
	"arabon-backend/internal/service/slots"
	"arabon-backend/internal/wallet"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.StatsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	walletClient := wallet.NewClient(cfg.Wallet.BaseURL)
	couponClient := coupon.NewClient(cfg.Coupon.BaseURL, time.Duration(cfg.Coupon.CacheTTLSeconds)*time.Second)

	offerRepo := repository.NewOfferRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	offerService := offers.NewOfferService(offerRepo, producer, cfg.Kafka.ReservationsTopic)
	slotService := slots.NewSlotService(slotRepo, offerRepo)
	bookingService := booking.NewBookingService(
		bookingRepo,
		offerRepo,
		slotRepo,
		walletClient,
		couponClient,
		redisCache,
		producer,
		cfg.Kafka.ReservationsTopic,
		time.Duration(cfg.Booking.SlotLockTTLSeconds)*time.Second,
	)

	if err := bootstrap.Run(ctx, cfg, offerService, slotService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
