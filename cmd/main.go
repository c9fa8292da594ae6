package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"civicbot/backend/internal/api/handler"
	"civicbot/backend/internal/config"
	"civicbot/backend/internal/feed"
	"civicbot/backend/internal/intake"
	"civicbot/backend/internal/localization"
	"civicbot/backend/internal/session"
	"civicbot/backend/internal/storage"
	"civicbot/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// newSessionStore picks the draft backend: Redis when configured, process
// memory otherwise.
func newSessionStore(cfg *config.Config) session.Store {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore()
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis at %s: %v", cfg.RedisAddr, err)
	}
	log.Printf("Session drafts stored in Redis at %s", cfg.RedisAddr)
	return session.NewRedisStore(rdb)
}

func main() {
	log.Println("Starting CivicBot Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	store := storage.NewService(db)
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	loc, err := localization.New()
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to connect the Telegram bot: %v", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	gw := &telegram.BotGateway{API: api}
	hub := feed.NewHub()
	sessions := session.NewManager(newSessionStore(cfg))

	if cfg.GroupChatID == 0 {
		log.Println("Warning: GROUP_CHAT_ID is not set, group posting is disabled")
	}
	group := telegram.NewGroupPoster(gw, store, loc, hub, cfg.GroupChatID)
	intakeSvc := intake.NewService(store, group)
	bot := telegram.NewBotService(api, gw, store, sessions, intakeSvc, group, loc)

	go hub.Run()
	go bot.Run()

	r := gin.Default()
	h := handler.NewHandler(store, hub, cfg.JWTSecret)
	h.Register(r)

	server := &http.Server{
		Addr:           cfg.APIAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	log.Fatal(server.ListenAndServe())
}
