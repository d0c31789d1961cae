package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-storefront/cart"
	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/repository"
	"go-storefront/routes"
	"go-storefront/session"
	"go-storefront/utils"
)

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	cfg, err := utils.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("No .env file found. Proceeding with environment variables.")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg utils.Config, logger *zap.Logger) error {
	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	client, err := utils.ConnectDB(startCtx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect from MongoDB", zap.Error(err))
		}
	}()
	db := client.Database(cfg.MongoDB)
	if err := repository.CreateIndexes(startCtx, db); err != nil {
		return err
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	if err := rdb.Ping(startCtx).Err(); err != nil {
		return err
	}

	// Initialize EmailService
	mailer, err := utils.NewMailer(cfg.Email, logger)
	if err != nil {
		return err
	}
	emailService := utils.NewEmailService(mailer, cfg.PublicURL, logger)

	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)
	users := repository.NewUserRepository(db)
	subscribers := repository.NewSubscriberRepository(db)
	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)
	cartService := cart.NewService(products, orders, logger)

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.Recover(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Session(cfg.SessionTTL, cfg.Production()))
	routes.RegisterRoutes(router, routes.Controllers{
		User:       controllers.NewUserController(users, emailService, cfg.JWTTTL, logger),
		Product:    controllers.NewProductController(products, sessions, logger),
		Cart:       controllers.NewCartController(cartService, sessions, logger),
		Order:      controllers.NewOrderController(cartService, sessions, orders, emailService, logger),
		Newsletter: controllers.NewNewsletterController(subscribers, emailService, logger),
		Mobile:     controllers.NewMobileController(users, products, logger),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: 2 * cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
