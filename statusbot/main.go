package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"cistatus/shared/cache"
	"cistatus/shared/config"
	"cistatus/shared/kafka"
	"cistatus/shared/notify"
	"cistatus/shared/stats"
	"cistatus/shared/store"
	"cistatus/statusbot/auth"
)

func main() {
	port := config.GetEnv("PORT", "8080")
	redisAddr := config.GetEnv("REDIS_ADDR", "redis:6379")
	kafkaBrokers := config.GetEnv("KAFKA_BROKERS", "")
	configPath := config.GetEnv("CONFIG_PATH", "statusbot.toml")

	log.Println("🚀 Starting Status Bot...")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if !cfg.NotificationsEnabled() {
		log.Println("⚠️ Notification endpoint not configured, pushes will be skipped")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Redis connection verified")

	resultStore := store.New(redisClient)

	statusCache := cache.New()
	results, err := resultStore.LoadAll(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to load branch statuses: %v", err)
	}
	statusCache.Seed(results)
	log.Printf("✅ Seeded status cache with %d branches", statusCache.Len())

	var producer *kafka.Producer
	if kafkaBrokers != "" {
		producer, err = kafka.NewProducer(kafkaBrokers)
		if err != nil {
			log.Fatalf("❌ Failed to create Kafka producer: %v", err)
		}
		defer producer.Close()
		log.Println("✅ Kafka producer created")
	} else {
		log.Println("⚠️ KAFKA_BROKERS not set, build-results relay disabled")
	}

	bot := NewStatusBot(
		resultStore,
		statusCache,
		stats.New(resultStore),
		notify.New(cfg.URL, cfg.AuthToken),
		producer,
		cfg.Trigger,
	)

	r := mux.NewRouter()

	r.Use(corsMiddleware)
	r.Use(auth.Middleware)

	r.HandleFunc("/hooks/ci", bot.HandleEvent).Methods("POST")
	r.HandleFunc("/command", bot.HandleCommand).Methods("POST")

	r.HandleFunc("/api/status", bot.GetStatuses).Methods("GET")
	r.HandleFunc("/api/status/{branch}", bot.GetStatus).Methods("GET")
	r.HandleFunc("/api/stats/{branch}", bot.GetStats).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("🌐 Status Bot is running on port %s...", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
