package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/adiraj/gocab/internal/pkg/config"
	"github.com/adiraj/gocab/internal/pkg/database"
	"github.com/adiraj/gocab/internal/pkg/health"
	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/nsq"
	"github.com/adiraj/gocab/internal/pkg/server"
	wspkg "github.com/adiraj/gocab/internal/pkg/websocket"
	dispatchWS "github.com/adiraj/gocab/services/dispatch/handler/websocket"
	dispatchUC "github.com/adiraj/gocab/services/dispatch/usecase"
	mapsGW "github.com/adiraj/gocab/services/maps/gateway"
	mapsHTTP "github.com/adiraj/gocab/services/maps/handler/http"
	matchUC "github.com/adiraj/gocab/services/match/usecase"
	notifyGW "github.com/adiraj/gocab/services/notify/gateway"
	presenceHTTP "github.com/adiraj/gocab/services/presence/handler/http"
	presenceRepo "github.com/adiraj/gocab/services/presence/repository"
	presenceUC "github.com/adiraj/gocab/services/presence/usecase"
	relayWS "github.com/adiraj/gocab/services/relay/handler/websocket"
	relayRepo "github.com/adiraj/gocab/services/relay/repository"
	relayUC "github.com/adiraj/gocab/services/relay/usecase"
	ridesGW "github.com/adiraj/gocab/services/rides/gateway"
	ridesHTTP "github.com/adiraj/gocab/services/rides/handler/http"
	ridesRepo "github.com/adiraj/gocab/services/rides/repository"
	ridesUC "github.com/adiraj/gocab/services/rides/usecase"
)

func main() {
	appName := "dispatch-service"
	configs := config.InitConfig(os.Getenv("CONFIG_PATH"))

	zapLogger, err := logger.NewZapLogger(configs.Logger, appName)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Close()
	logger.SetGlobalLogger(zapLogger)

	zapLogger.Info("Starting application",
		logger.String("app", appName),
		logger.String("environment", configs.App.Environment))

	shutdown := server.NewShutdownManager(zapLogger)

	// Infrastructure
	postgresClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	shutdown.Register(func(context.Context) error { return postgresClient.Close() })

	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	shutdown.Register(func(context.Context) error { return redisClient.Close() })

	var producer nsq.Publisher = &nsq.NoopProducer{}
	if configs.NSQ.Enabled {
		p, err := nsq.NewProducer(configs.NSQ.Address)
		if err != nil {
			zapLogger.Fatal("Failed to connect to NSQ", logger.Err(err))
		}
		producer = p
	}
	shutdown.Register(func(context.Context) error {
		producer.Stop()
		return nil
	})

	mapsTimeout := time.Duration(configs.Maps.TimeoutSec) * time.Second
	geocoder := mapsGW.NewNominatimClient(configs.Maps.NominatimURL, mapsTimeout)
	router := mapsGW.NewOSRMClient(configs.Maps.OSRMURL, mapsTimeout)
	notifier := notifyGW.NewSMSNotifier(configs.Notify)

	// Presence and matching
	locationTTL := time.Duration(configs.Relay.LocationTTLMin) * time.Minute
	geoMirror := presenceRepo.NewGeoRepository(redisClient, locationTTL)
	registry := presenceUC.NewInMemoryRegistry(geoMirror)
	matcher := matchUC.NewMatchUC(registry, configs.Match.AvgSpeedKmh)
	broadcaster := dispatchUC.NewBroadcasterUC(registry)

	// Rides
	rideRepo := ridesRepo.NewRideRepository(postgresClient.GetDB())
	rideGW := ridesGW.NewRideGW(producer)
	rideService := ridesUC.NewRideService(rideRepo, rideGW, matcher, broadcaster, registry, geocoder, router, notifier)

	// Live location relay
	locationStore := relayRepo.NewLocationRepository(redisClient, locationTTL)
	liveHub := relayUC.NewLiveHub(locationStore)

	// HTTP and WebSocket surface
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(logger.EchoMiddleware(zapLogger))

	writeTimeout := time.Duration(configs.Relay.WriteTimeoutMs) * time.Millisecond
	wsManager := wspkg.NewManager(configs.JWT, writeTimeout)

	health.NewHandler(appName, postgresClient, redisClient).RegisterRoutes(e)
	ridesHTTP.NewRideHandler(rideService).RegisterRoutes(e)
	mapsHTTP.NewMapsHandler(geocoder).RegisterRoutes(e)
	presenceHTTP.NewPresenceHandler(geoMirror, configs.JWT, configs.Match.DefaultRadiusKm).RegisterRoutes(e)
	dispatchWS.NewHandler(wsManager, registry).RegisterRoutes(e)
	relayWS.NewHandler(wsManager, liveHub).RegisterRoutes(e)

	shutdownTimeout := time.Duration(configs.Server.ShutdownTimeout) * time.Second
	srv := server.NewGracefulServer(e, zapLogger, configs.Server.Port, shutdownTimeout)
	if err := srv.Start(); err != nil {
		zapLogger.Error("Server error", logger.Err(err))
	}

	// The server has drained; close the backends in registration order.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = shutdown.Shutdown(ctx)
}
