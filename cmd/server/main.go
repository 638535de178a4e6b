package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jomarcello/Waviate/internal/agent"
	"github.com/jomarcello/Waviate/internal/ai"
	"github.com/jomarcello/Waviate/internal/api"
	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/internal/database"
	"github.com/jomarcello/Waviate/internal/history"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/jomarcello/Waviate/internal/metrics"
	"github.com/jomarcello/Waviate/internal/relay"
	"github.com/jomarcello/Waviate/internal/webhook"
	"github.com/jomarcello/Waviate/internal/whatsapp"
	"github.com/jomarcello/Waviate/internal/ws"
	"github.com/jomarcello/Waviate/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalw("failed to open database", "driver", cfg.Database.Driver, "error", err)
	}
	store := database.NewStore(db)

	aiClient, err := ai.NewClient(cfg.AI)
	if err != nil {
		log.Fatalw("invalid AI configuration", "error", err)
	}
	whatsappClient, err := whatsapp.NewClient(cfg.WhatsApp, log)
	if err != nil {
		log.Fatalw("invalid WhatsApp configuration", "error", err)
	}

	var historyStore history.Store = store
	if cfg.History.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.History.RedisAddr,
			Password: cfg.History.RedisPassword,
			DB:       cfg.History.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalw("failed to connect to redis", "addr", cfg.History.RedisAddr, "error", err)
		}
		historyStore = history.NewRedisStore(rdb, cfg.History.TTL)
	}

	relayMetrics := metrics.NewRelayMetrics(prometheus.DefaultRegisterer)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	pipeline := relay.NewPipeline(relay.Config{
		MaxHistory:   cfg.AI.MaxHistory,
		HandoffReply: cfg.HandoffReply,
	}, relay.Deps{
		Classifier: agent.NewIntentClassifier(aiClient, log),
		Responder: agent.NewResponseGenerator(aiClient, agent.GeneratorConfig{
			Persona:    cfg.AI.SystemPrompt,
			MaxHistory: cfg.AI.MaxHistory,
			MaxTokens:  cfg.AI.MaxTokens,
		}, log),
		Sender:   whatsappClient,
		History:  historyStore,
		Recorder: store,
		Notifier: hub,
		Metrics:  relayMetrics,
		Log:      log,
	})

	webhookHandler := webhook.NewHandler(ctx, cfg.Webhook, cfg.PipelineTimeout,
		webhook.ProcessorFunc(func(ctx context.Context, env models.Envelope) error {
			_, err := pipeline.Process(ctx, env)
			return err
		}), relayMetrics, log)

	r := gin.New()
	r.Use(gin.Recovery(), cors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", gin.WrapF(hub.ServeWs))

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)

	dashboardHandler := api.NewDashboardHandler(pipeline, store, cfg.WhatsApp, log)
	leadHandler := api.NewLeadHandler(store, log)
	broadcastHandler := api.NewBroadcastHandler(pipeline, whatsappClient, cfg.WhatsApp, log)

	// Dashboard API Routes
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/messages", dashboardHandler.GetMessages)
		apiGroup.POST("/send", dashboardHandler.SendMessage)
		apiGroup.POST("/send-template", dashboardHandler.SendTemplate)

		apiGroup.GET("/leads", leadHandler.GetLeads)
		apiGroup.GET("/leads/:phone/conversation", leadHandler.GetConversation)

		apiGroup.GET("/templates", broadcastHandler.GetTemplates)
		apiGroup.POST("/broadcast", broadcastHandler.SendBroadcast)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("failed to run server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server shutdown failed", "error", err)
	}
	webhookHandler.Wait()
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
