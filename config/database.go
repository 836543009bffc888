package config

import (
	"context"
	"time"

	"notemate/utils"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type DatabaseConfig struct {
	URI             string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	DatabaseName    string
	RetryWrites     bool
	ConnectTimeout  time.Duration
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("MONGODB_DB", "notemate")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 100)
	v.SetDefault("MONGO_MIN_POOL_SIZE", 10)
	v.SetDefault("MONGO_MAX_CONN_IDLE_TIME", "60s")
	v.SetDefault("MONGO_RETRY_WRITES", true)
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")
}

func loadDatabaseConfig(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		URI:             v.GetString("MONGODB_URI"),
		MaxPoolSize:     v.GetUint64("MONGO_MAX_POOL_SIZE"),
		MinPoolSize:     v.GetUint64("MONGO_MIN_POOL_SIZE"),
		MaxConnIdleTime: v.GetDuration("MONGO_MAX_CONN_IDLE_TIME"),
		DatabaseName:    v.GetString("MONGODB_DB"),
		RetryWrites:     v.GetBool("MONGO_RETRY_WRITES"),
		ConnectTimeout:  v.GetDuration("MONGO_CONNECT_TIMEOUT"),
	}
}

// ConnectMongo opens the client pool and pings the primary.
func ConnectMongo(ctx context.Context, cfg DatabaseConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRetryWrites(cfg.RetryWrites).
		SetPoolMonitor(utils.MongoPoolMonitor())

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return client, nil
}

// ConnectRedis parses REDIS_URL and checks the server answers.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing REDIS_URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}
