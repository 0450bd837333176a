package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultVerdictChannel = "drowsiness:verdicts"

type IRedis interface {
	PublishVerdict(ctx context.Context, event interface{}) error
	Close() error
}

type redisClient struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

func Configured() bool {
	return os.Getenv("REDIS_ADDRESS") != ""
}

func New(log *logrus.Logger) IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")

	channel := os.Getenv("REDIS_VERDICT_CHANNEL")
	if channel == "" {
		channel = defaultVerdictChannel
	}

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return &redisClient{
		client:  client,
		channel: channel,
		log:     log,
	}
}

func (r *redisClient) PublishVerdict(ctx context.Context, event interface{}) error {
	payload, err := jsoniter.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal verdict event: %w", err)
	}

	receivers, err := r.client.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		r.log.Error(fmt.Sprintf("Error publishing verdict on %s: %v", r.channel, err))
		return err
	}

	r.log.Debug(fmt.Sprintf("Published verdict on %s to %d subscribers", r.channel, receivers))
	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
