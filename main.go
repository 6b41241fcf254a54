package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/config"
	"github.com/asadk95/estore/internal/database"
	"github.com/asadk95/estore/internal/discovery"
	"github.com/asadk95/estore/internal/logger"
	"github.com/asadk95/estore/internal/ratelimit"
	"github.com/asadk95/estore/internal/server"
	"github.com/asadk95/estore/internal/store"
	"github.com/asadk95/estore/internal/store/mongostore"
	"github.com/asadk95/estore/internal/store/sqlstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer log.Sync()

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	apiLimiter, authLimiter := server.MemoryLimiters(cfg)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis connection failed, limits fall back to this process", zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		} else {
			apiLimiter = ratelimit.NewRedis(rdb, "ratelimit:api:", cfg.RateLimitMax, cfg.RateLimitWindow)
			authLimiter = ratelimit.NewRedis(rdb, "ratelimit:auth:", cfg.AuthRateLimitMax, cfg.RateLimitWindow)
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	router := server.NewRouter(server.Options{
		Config:      cfg,
		Logger:      log,
		Services:    server.NewServices(st, cfg, log),
		APILimiter:  apiLimiter,
		AuthLimiter: authLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("E-Store API listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var registry *discovery.Registry
	var instance discovery.Instance
	if len(cfg.Etcd.Endpoints) > 0 {
		host, _ := os.Hostname()
		instance = discovery.Instance{Name: "estore-api", Host: host, Port: cfg.Port}
		registry, err = discovery.New(cfg.Etcd.Endpoints, cfg.Etcd.Prefix, cfg.Etcd.DialTimeout, log)
		if err != nil {
			log.Error("failed to connect to etcd", zap.Error(err))
		} else if err := registry.Register(ctx, instance); err != nil {
			log.Error("failed to register service", zap.Error(err))
		} else {
			log.Info("service registered in etcd", zap.String("address", instance.Addr()))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if registry != nil {
		if err := registry.Deregister(shutdownCtx, instance); err != nil {
			log.Error("failed to deregister service", zap.Error(err))
		}
		_ = registry.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := st.Close(shutdownCtx); err != nil {
		log.Error("failed to close store", zap.Error(err))
	}
	log.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverFile:
		return store.OpenFile(cfg.DataDir)
	case config.DriverMongo:
		client, err := database.ConnectMongo(cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.DBName)
		if err := database.EnsureIndexes(db, log); err != nil {
			log.Warn("index setup incomplete", zap.Error(err))
		}
		return mongostore.Open(ctx, client, db)
	case config.DriverMySQL:
		db, err := database.OpenMySQL(database.MySQLConfig{
			Host:         cfg.MySQL.Host,
			Port:         cfg.MySQL.Port,
			Username:     cfg.MySQL.User,
			Password:     cfg.MySQL.Password,
			Database:     cfg.DBName,
			MaxIdleConns: 10,
			MaxOpenConns: 100,
		})
		if err != nil {
			return nil, err
		}
		return sqlstore.Open(ctx, db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
