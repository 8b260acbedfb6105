package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	silentauth "github.com/silentauth/silentauth"
	"github.com/silentauth/silentauth/httpapi"
	"github.com/silentauth/silentauth/metrics/export/prometheus"
	"github.com/silentauth/silentauth/pkg/config"
	"github.com/silentauth/silentauth/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	users, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer users.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	engineCfg := silentauth.DefaultConfig()
	engineCfg.Token.Secret = []byte(cfg.JWTSecret)
	engineCfg.Token.SigningMethod = cfg.JWTAlg
	engineCfg.Token.Issuer = cfg.JWTIssuer
	engineCfg.Token.AccessTTL = cfg.AccessTTL
	engineCfg.Token.RefreshTTL = cfg.RefreshTTL
	engineCfg.Revocation.RedisPrefix = cfg.RedisPrefix
	engineCfg.Metrics.Enabled = cfg.MetricsEnabled

	builder := silentauth.New().
		WithConfig(engineCfg).
		WithRedis(redisClient).
		WithUserProvider(users)
	if cfg.AuditStdout {
		builder = builder.WithAuditSink(silentauth.NewJSONWriterSink(os.Stdout))
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	defer engine.Close()

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = prometheus.NewPrometheusExporter(engine).Handler()
	}

	router := gin.Default()
	handler := httpapi.NewHandler(engine, httpapi.Options{
		AccessTTL:      cfg.AccessTTL,
		RefreshTTL:     cfg.RefreshTTL,
		SecureCookies:  cfg.SecureCookies,
		MetricsHandler: metricsHandler,
	})
	handler.Register(router)

	log.Printf("authd listening on %s", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
