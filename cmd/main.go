package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"portfolio-chatbot/handler"
	"portfolio-chatbot/internal/bank"
	"portfolio-chatbot/internal/cache"
	"portfolio-chatbot/internal/integrations/content"
	"portfolio-chatbot/internal/integrations/paramstore"
	"portfolio-chatbot/internal/intent"
	"portfolio-chatbot/internal/learning"
	"portfolio-chatbot/internal/repository"
	"portfolio-chatbot/internal/usecase"
	"portfolio-chatbot/internal/worker"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	contentBaseURL := mustEnv("CONTENT_API_BASE_URL")
	cacheCapacity := envInt("CACHE_CAPACITY", cache.DefaultCapacity)
	cacheTTLSeconds := envInt("CACHE_TTL_SECONDS", int(cache.DefaultTTL/time.Second))
	workerQueueSize := envInt("WORKER_QUEUE_SIZE", worker.DefaultQueueSize)
	workerCount := envInt("WORKER_COUNT", worker.DefaultWorkers)
	maxMessageLen := envInt("MAX_MESSAGE_LENGTH", 800)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	store, err := repository.New(dynamoClient, stateTable)
	if err != nil {
		slog.Error("failed to create state client", "err", err)
		os.Exit(1)
	}
	contentClient, err := content.NewClient(ssmClient, paramPrefix, contentBaseURL)
	if err != nil {
		slog.Error("failed to create content client", "err", err)
		os.Exit(1)
	}

	// ---- Core components ----
	learner, err := learning.NewService(store, repository.NewKnowledgeEntryID)
	if err != nil {
		slog.Error("failed to create learning service", "err", err)
		os.Exit(1)
	}
	pool := worker.NewPool(workerQueueSize, workerCount, slog.Default())
	defer pool.Close()

	chat, err := usecase.NewChatService(
		intent.NewClassifier(),
		bank.New(contentClient),
		cache.New(cacheCapacity, time.Duration(cacheTTLSeconds)*time.Second),
		learner,
		pool,
		slog.Default(),
		maxMessageLen,
	)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(chat)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
