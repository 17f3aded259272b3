package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"nexura/config"
	"nexura/controllers"
	"nexura/db"
	"nexura/internal/cache"
	"nexura/internal/chain"
	"nexura/internal/metrics"
	"nexura/internal/socials"
	"nexura/internal/storage"
	"nexura/middlewares"
	reporter "nexura/pkg/errors"
	"nexura/pkg/log"
	"nexura/routes"
	"nexura/services"
	"nexura/store"
	"nexura/utils"
	"nexura/websocket"
)

const claimCooldown = 2 * time.Second

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.prod.yml"
	}
	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.Server.LogLevel)
	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret (or JWT_SECRET) must be set")
	}
	if os.Getenv("DEBUG") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := reporter.NewSentryReporter(cfg.Sentry.DSN, os.Getenv("ENVIRONMENT")); err != nil {
		log.Warnf("Sentry disabled: %v", err)
	}
	defer reporter.Flush()
	metrics.Init()

	utils.SetJWTSecret(cfg.JWT.Secret)
	utils.SetTokenTTL(time.Duration(cfg.JWT.ExpiryMinutes)*time.Minute, time.Duration(cfg.JWT.RefreshExpiryDays)*24*time.Hour)

	st, closeStore := openStore(ctx, cfg.Database.URI)
	defer closeStore()

	var (
		cooldown *cache.Cooldown
		svcCache services.Cache
	)
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warnf("Redis unavailable, running without cache and claim cooldown: %v", err)
		} else {
			defer rdb.Close()
			log.Info("Connected to Redis")
			cooldown = cache.NewCooldown(rdb, "claim", claimCooldown)
			svcCache = rdb
		}
	}

	discord, err := socials.NewDiscord(cfg.Discord.ClientID, cfg.Discord.ClientSecret, cfg.Discord.RedirectURL, cfg.Discord.BotToken)
	if err != nil {
		log.Fatalf("Failed to set up Discord: %v", err)
	}
	x := socials.NewX(cfg.X.ClientID, cfg.X.ClientSecret, cfg.X.RedirectURL)

	uploader, err := storage.NewUploader(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.PublicBaseURL)
	if err != nil {
		log.Warnf("Uploads disabled: %v", err)
	}

	hub := websocket.NewHub()
	svc := services.New(services.Deps{
		Store:    st,
		Notifier: hub,
		Verifier: socials.NewVerifier(discord),
		Mailer: &utils.SMTPMailer{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			SenderEmail: cfg.SMTP.SenderEmail,
			SenderName:  cfg.SMTP.SenderName,
		},
		Cache: svcCache,
	}, services.Options{
		BadgeContract:    cfg.Relay.BadgeContract,
		ReferralContract: cfg.Relay.ReferralContract,
		InviteURL:        strings.TrimRight(cfg.Server.PublicURL, "/") + "/admin/accept-invite",
	})

	submitter := openRelay(ctx, cfg)
	worker := chain.NewWorker(st, submitter, cfg.Relay.MaxAttempts)
	scheduler, err := svc.StartScheduler(worker, cfg.Relay.Interval)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	enforcer, err := middlewares.NewEnforcer()
	if err != nil {
		log.Fatalf("Failed to initialize RBAC: %v", err)
	}
	limiter := middlewares.NewIPLimiter(5, 30)
	go limiter.Cleanup(ctx)

	ctl := controllers.New(svc, controllers.Options{
		Discord:       discord,
		X:             x,
		Uploader:      uploader,
		SecureCookies: strings.HasPrefix(cfg.Server.PublicURL, "https://"),
	})
	router := routes.NewRouter(routes.Deps{
		Controller:     ctl,
		Enforcer:       enforcer,
		Hub:            hub,
		Upgrader:       websocket.NewUpgrader(cfg.Server.AllowedOrigins),
		Cooldown:       cooldown,
		Limiter:        limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsUser:    cfg.Metrics.User,
		MetricsPass:    cfg.Metrics.Pass,
	})
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}
}

// openStore connects to MongoDB, or keeps everything in memory when the
// database uri is "memory"
func openStore(ctx context.Context, uri string) (store.Store, func()) {
	if uri == "memory" {
		log.Warn("Using the in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}
	}
	client, database, err := db.ConnectMongoDB(ctx, uri)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Info("Connected to MongoDB")
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	return store.NewMongo(database), func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(disconnectCtx)
	}
}

// openRelay dials the chain when a node and key are configured and falls
// back to logging relay calls otherwise
func openRelay(ctx context.Context, cfg *config.Config) chain.Submitter {
	if cfg.Relay.RPCURL == "" || cfg.Relay.PrivateKey == "" {
		log.Warn("Relay RPC or key not configured, relay actions are only logged")
		return chain.NewLogRelay()
	}
	relay, err := chain.NewEthRelay(ctx, cfg.Relay.RPCURL, cfg.Relay.PrivateKey, cfg.Relay.ChainID)
	if err != nil {
		log.Fatalf("Failed to set up relay: %v", err)
	}
	log.Infof("Relaying from %s", relay.Address().Hex())
	return relay
}
