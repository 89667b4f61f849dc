package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/ledgerlens/backend/internal/aggregation"
	v1 "github.com/ledgerlens/backend/internal/controllers/v1"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/ledgerlens/backend/internal/notify"
	"github.com/ledgerlens/backend/internal/router"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env file is fine, the environment is used as is
	_ = godotenv.Load()

	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode("release")
	} else {
		gin.SetMode(ginMode)
	}

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	apiURL, ok := os.LookupEnv("API_URL")
	if !ok {
		log.Fatal().Msg("environment variable API_URL must be set")
	}

	baseURL, err := url.Parse(apiURL)
	if err != nil {
		log.Fatal().Msg("environment variable API_URL must be a valid URL")
	}

	// Create data directory
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(".", "data")
	}

	err = os.MkdirAll(dataDir, os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Connect to the database
	err = models.Connect(filepath.Join(dataDir, "ledgerlens.db"))
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	configureAggregation()

	publisher := configureNotify()
	defer publisher.Close()

	r, teardown, err := router.Config(baseURL)
	defer teardown()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	router.AttachRoutes(r.Group(baseURL.Path))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", srv.Addr).Msg("backend startup complete")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msg(err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}

// configureAggregation sets up the aggregation API client. Without
// AGGREGATION_URL, linking and syncing items is disabled.
func configureAggregation() {
	aggregationURL := os.Getenv("AGGREGATION_URL")
	if aggregationURL == "" {
		log.Warn().Msg("AGGREGATION_URL is not set, items cannot be linked or synced")
		return
	}

	client, err := aggregation.New(aggregation.Config{
		URL:               aggregationURL,
		ClientID:          os.Getenv("AGGREGATION_CLIENT_ID"),
		Secret:            os.Getenv("AGGREGATION_SECRET"),
		RequestsPerSecond: envFloat("AGGREGATION_RPS"),
		BalanceTTL:        envDuration("AGGREGATION_BALANCE_TTL"),
	})
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	aggregation.Default = client
	v1.SyncLookbackDays = envInt("SYNC_LOOKBACK_DAYS")
}

// configureNotify sets up alert publishing. Without AMQP_URL, alerts are
// only counted.
func configureNotify() io.Closer {
	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		return io.NopCloser(nil)
	}

	exchange := os.Getenv("AMQP_EXCHANGE")
	if exchange == "" {
		exchange = "ledgerlens"
	}

	publisher, err := notify.NewAMQP(amqpURL, exchange)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	notify.Default = publisher
	return publisher
}

// envInt returns the integer value of an environment variable or 0 if it is
// not set. Invalid values are fatal.
func envInt(key string) int {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", value).Msg("environment variable must be an integer")
	}

	return i
}

func envFloat(key string) float64 {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", value).Msg("environment variable must be a number")
	}

	return f
}

func envDuration(key string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", value).Msg("environment variable must be a duration like 5m")
	}

	return d
}
