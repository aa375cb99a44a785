package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"arabon-backend/api"
	"arabon-backend/config"
	"arabon-backend/internal/mw"
	"arabon-backend/internal/service/booking"
	"arabon-backend/internal/service/offers"
	"arabon-backend/internal/service/slots"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, offerSvc offers.OfferUseCase, slotSvc slots.SlotUseCase, bookingSvc booking.BookingUseCase) error {
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, offerSvc, slotSvc, bookingSvc),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, offerSvc offers.OfferUseCase, slotSvc slots.SlotUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	listingTTL := time.Duration(cfg.Booking.StatsCacheTTLSeconds) * time.Second
	if listingTTL <= 0 {
		listingTTL = 30 * time.Second
	}
	listingCache := gocache.New(listingTTL, 2*listingTTL)

	public := router.Group("/api/v1")
	public.Use(mw.CacheGET(listingCache, listingTTL))
	authed := router.Group("/api/v1")
	authed.Use(mw.Auth(cfg.Auth.JWTSecret))

	confirmLimit := mw.RateLimit(rate.Limit(cfg.Booking.ConfirmRatePerSecond), cfg.Booking.ConfirmRateBurst)

	api.NewOfferHandler(offerSvc).Register(public, authed)
	api.NewSlotHandler(slotSvc).Register(public, authed)
	api.NewBookingHandler(bookingSvc).Register(authed, confirmLimit)

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.json"),
		)))
	}

	return router
}
