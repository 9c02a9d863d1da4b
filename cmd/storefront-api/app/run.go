package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/Galleee2002/fueradecontexto-api/configs"
	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/cache"
	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/gateway"
	httpadapter "github.com/Galleee2002/fueradecontexto-api/internal/adapter/http"
	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/http/middleware"
	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/kafka"
	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/queue"
	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/repo"
	"github.com/Galleee2002/fueradecontexto-api/internal/logging"
	"github.com/Galleee2002/fueradecontexto-api/internal/security"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, cfg.App.LogLevel, "./logs/app.log")
	logger.Info("storefront-api: starting up")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		return nil, nil, err
	}
	cancel()

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(ch, cfg.Rabbit.Exchange)
	if err != nil {
		return nil, nil, err
	}

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	stockRepo := repo.NewMySQLStockRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	dedup := cache.NewRedisWebhookDedup(rdb, cfg.Webhook.DedupTTL)
	orderCache := cache.NewRedisOrderCache(rdb, cfg.Cache.TTL)
	mp := gateway.NewMercadoPago(cfg.MercadoPago.BaseURL, cfg.MercadoPago.AccessToken, cfg.MercadoPago.Timeout)
	verifier := security.NewWebhookVerifier(cfg.Webhook.Secret)

	// usecases
	checkoutUC := usecase.NewCheckout(productRepo, stockRepo, orderRepo, mp, cfg.App.PublicBaseURL)
	reconcileUC := usecase.NewReconcile(mp, orderRepo, stockRepo, outboxRepo, dedup)

	// handlers + router
	ch2 := httpadapter.NewCheckoutHandler(checkoutUC)
	oh := httpadapter.NewOrderHandler(orderRepo, orderCache)
	wh := httpadapter.NewWebhookHandler(reconcileUC, verifier)
	th := httpadapter.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(ch2, oh, wh, th, authz)

	bgCtx, stopBG := context.WithCancel(context.Background())

	// outbox -> rabbit drain
	dispatcher := queue.NewOutboxDispatcher(outboxRepo, producer,
		cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, logging.New("outbox"))
	go dispatcher.Run(bgCtx)

	// fulfillment events from the warehouse
	group, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		stopBG()
		return nil, nil, err
	}
	fh := kafka.NewFulfillmentHandler(orderRepo, orderCache, logging.New("fulfillment"))
	consumer := kafka.NewConsumer(group, []string{cfg.Kafka.Topic}, fh.Handle, logging.New("kafka"))
	go func() {
		if err := consumer.Start(bgCtx); err != nil && bgCtx.Err() == nil {
			logging.New("kafka").Error("consumer stopped", "err", err)
		}
	}()

	cleanup := func() {
		stopBG()
		_ = group.Close()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}
