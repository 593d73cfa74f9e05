package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"antrelay/internal/config"
	"antrelay/internal/model"
	mysqlClient "antrelay/internal/platform/mysql"
	"antrelay/internal/platform/objectstore"
	rabbitmqClient "antrelay/internal/platform/rabbitmq"
	redisClient "antrelay/internal/platform/redis"
	"antrelay/internal/worker"
)

type App struct {
	Config         *config.Config
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ObjectStore    *objectstore.Client
	SnapshotWorker *worker.SnapshotWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.Message{}, &model.UsageCounter{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		MySQL:     mysqlDB,
		Redis:     redisCli,
		MQConn:    mqConn,
		StartedAt: time.Now(),
	}

	// Object storage is optional; without it the memory endpoint reports
	// unconfigured and no snapshots are archived.
	if cfg.MemoryEnabled() {
		store, err := objectstore.New(ctx, cfg.Memory.Endpoint, cfg.Memory.AccessKey, cfg.Memory.SecretKey, cfg.Memory.Bucket, cfg.Memory.UseSSL)
		if err != nil {
			return nil, err
		}
		app.ObjectStore = store

		snapshotWorker := worker.NewSnapshotWorker(mqConn, store, cfg.RabbitMQ.TurnEventQueue)
		if err := snapshotWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start snapshot worker failed: %w", err)
		}
		app.SnapshotWorker = snapshotWorker
	}

	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.SnapshotWorker != nil {
		a.SnapshotWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
