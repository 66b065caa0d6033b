package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"dollmart/internal/auth"
	"dollmart/internal/auth/auth_api"
	authdb "dollmart/internal/auth/db"
	"dollmart/internal/cart"
	"dollmart/internal/cart/cart_api"
	cartdb "dollmart/internal/cart/db"
	"dollmart/internal/catalog"
	"dollmart/internal/catalog/catalog_api"
	catalogdb "dollmart/internal/catalog/db"
	"dollmart/internal/config"
	"dollmart/internal/coupon"
	"dollmart/internal/coupon/coupon_api"
	coupondb "dollmart/internal/coupon/db"
	"dollmart/internal/coupon/qr"
	"dollmart/internal/database"
	"dollmart/internal/kafka"
	"dollmart/internal/logger"
	"dollmart/internal/order"
	orderdb "dollmart/internal/order/db"
	"dollmart/internal/order/order_api"
	rediswrap "dollmart/internal/order/redis"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Dollmart storefront initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open database: %v", err))
	}
	defer bunDB.Close()

	if err := database.Migrate(ctx, bunDB, cfg.Auth, log); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	defer redisClient.Close()
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	var publisher order.KafkaPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		publisher = producer
		log.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{cfg.Kafka.Topics.OrderPlaced, cfg.Kafka.Topics.CouponIssued}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, order events will not be published")
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := auth.NewAuthService(&authdb.DB{Bun: bunDB}, tokens)
	catalogService := catalog.NewCatalogService(&catalogdb.DB{Bun: bunDB})
	cartService := cart.NewCartService(&cartdb.DB{Bun: bunDB}, catalogService)
	couponService := coupon.NewCouponService(&coupondb.DB{Bun: bunDB})
	orderService := order.NewOrderService(
		bunDB,
		&orderdb.DB{Bun: bunDB},
		cartService,
		couponService,
		rediswrap.NewRedis(redisClient),
		publisher,
		cfg.Kafka.Topics,
		log,
	)

	authHandler := auth_api.NewHandler(authService, log)
	catalogHandler := catalog_api.NewHandler(catalogService, log)
	cartHandler := cart_api.NewHandler(cartService, log)
	couponHandler := coupon_api.NewHandler(couponService, qr.NewQRGenerator(cfg.Auth.QRSecret), log)
	orderHandler := order_api.NewHandler(orderService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(authService))

		r.Route("/api", func(r chi.Router) {
			r.Get("/me", authHandler.Me)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", catalogHandler.ListProducts)
				r.Get("/{productId}", catalogHandler.GetProduct)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireManager)
					r.Post("/", catalogHandler.AddProduct)
					r.Put("/{productId}", catalogHandler.UpdateProduct)
				})
			})
			r.Get("/categories", catalogHandler.ListCategories)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.ViewCart)
				r.Post("/items", cartHandler.AddToCart)
				r.Put("/items/{itemId}", cartHandler.UpdateItem)
				r.Delete("/", cartHandler.ClearCart)
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", couponHandler.ListCoupons)
				r.Get("/{couponId}/qr", couponHandler.CouponQR)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.PlaceOrder)
				r.Get("/", orderHandler.MyOrders)
				r.Get("/{orderId}", orderHandler.OrderDetails)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireManager)
					r.Get("/all", orderHandler.AllOrders)
				})
			})

			// --- Manager Routes ---
			r.Route("/customers", func(r chi.Router) {
				r.Use(auth.RequireManager)
				r.Get("/", authHandler.ListCustomers)
				r.Put("/{userId}/type", authHandler.UpdateUserType)
			})
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Dollmart storefront running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Storefront shutdown complete")
	}
}
