package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"

	"vitrine-checkout-api/config"
	"vitrine-checkout-api/database"
	"vitrine-checkout-api/handlers"
	"vitrine-checkout-api/middleware"
	"vitrine-checkout-api/queue"
	"vitrine-checkout-api/services/auth"
	"vitrine-checkout-api/services/checkout"
	"vitrine-checkout-api/services/email"
	"vitrine-checkout-api/services/payment/mercadopago"
	"vitrine-checkout-api/worker"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Internal-Secret")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		// Registrar apenas requisições com duração longa ou erros
		elapsed := time.Since(start)
		if elapsed > 500*time.Millisecond || wrapper.status >= 400 {
			log.Printf(
				"%s %s %s %d %v",
				r.Method,
				r.RequestURI,
				r.RemoteAddr,
				wrapper.status,
				elapsed,
			)
		}
	})
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)

	numCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(numCPU)
	log.Printf("Server starting with %d CPUs available", numCPU)

	cfg := config.Load()

	// Conectar ao banco de dados com retry
	var db *database.Connection
	var err error
	for retries := 0; retries < 5; retries++ {
		db, err = database.NewConnection(cfg.Database)
		if err == nil {
			break
		}
		retryDelay := time.Duration(retries+1) * time.Second
		log.Printf("Failed to connect to database (attempt %d/5): %v. Retrying in %v...",
			retries+1, err, retryDelay)
		time.Sleep(retryDelay)
	}

	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.GetDB().PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Successfully connected to database")

	jobQueue, err := queue.NewQueue(cfg.Redis.URL, "checkout_jobs")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer jobQueue.Close()
	log.Println("Successfully connected to Redis")

	gateway := mercadopago.NewClient(
		cfg.MercadoPago.AccessToken,
		cfg.MercadoPago.PublicKey,
		cfg.MercadoPago.BaseURL,
	)
	emailService := email.NewSMTPService(cfg.SMTP)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Desfechos das sessões alimentam a fila: recibo na aprovação,
	// reconciliação quando o polling esgota
	manager := checkout.NewManager(db, db, gateway, checkout.Config{
		SuccessPath: cfg.Server.SuccessPath,
		SessionTTL:  time.Duration(cfg.Session.MaxAge) * time.Second,
	}, checkout.Hooks{
		OnApproved: func(orderID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := jobQueue.Enqueue(ctx, queue.JobTypeReceiptEmail, map[string]interface{}{
				"order_id": orderID,
			}); err != nil {
				log.Printf("Failed to enqueue receipt for order %s: %v", orderID, err)
			}
		},
		OnPixTimeout: func(orderID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := jobQueue.EnqueueDelayed(ctx, queue.JobTypeReconcileOrder, map[string]interface{}{
				"order_id": orderID,
			}, 5*time.Minute); err != nil {
				log.Printf("Failed to enqueue reconciliation for order %s: %v", orderID, err)
			}
		},
	})
	defer manager.Stop()

	workerConcurrency := cfg.Redis.WorkerConcurrency
	if workerConcurrency < 2 {
		workerConcurrency = 2
	} else if workerConcurrency > 8 {
		workerConcurrency = 8
	}

	checkoutWorker := worker.NewWorker(jobQueue, db, gateway, emailService)
	checkoutWorker.Start(workerConcurrency)
	defer checkoutWorker.Stop()
	log.Printf("Started checkout worker with %d threads", workerConcurrency)

	checkoutHandler := handlers.NewCheckoutHandler(manager,
		cfg.Session.Secret, cfg.Session.Domain, cfg.Session.MaxAge)
	paymentHandler, err := handlers.NewPaymentHandler(db, checkoutHandler)
	if err != nil {
		log.Fatalf("Failed to initialize payment handler: %v", err)
	}
	subscriptionHandler := handlers.NewSubscriptionHandler(db, gateway, cfg.Server.PublicBaseURL)
	internalHandler := handlers.NewInternalHandler(jwtService, jobQueue, cfg.JWT.InternalSecret)

	rateLimiter, err := middleware.NewRateLimiter(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)
	router.Use(middleware.SecurityHeadersMiddleware)
	router.Use(rateLimiter.RateLimitMiddleware())

	api := router.PathPrefix("/api").Subrouter()

	// Sessão de checkout
	api.HandleFunc("/checkout", checkoutHandler.OpenCheckout).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout", checkoutHandler.GetCheckout).Methods("GET", "OPTIONS")
	api.HandleFunc("/checkout", checkoutHandler.CloseCheckout).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/checkout/method", checkoutHandler.SelectMethod).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout/customer", checkoutHandler.SetCustomer).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout/card-form", checkoutHandler.CardFormEvent).Methods("POST", "OPTIONS")

	// Pagamento e polling do storefront
	api.HandleFunc("/process-payment", paymentHandler.ProcessPayment).Methods("POST", "OPTIONS")
	api.HandleFunc("/check-order-status", paymentHandler.CheckOrderStatus).Methods("GET", "OPTIONS")
	api.HandleFunc("/subscriptions", subscriptionHandler.CreateSubscription).Methods("POST", "OPTIONS")

	// Endpoints internos de operação
	api.HandleFunc("/internal/generate-token", internalHandler.GenerateToken).Methods("POST")

	internalRouter := api.PathPrefix("/internal").Subrouter()
	internalRouter.Use(middleware.InternalAuthMiddleware(jwtService))
	internalRouter.HandleFunc("/failed-jobs", internalHandler.ListFailedJobs).Methods("GET")
	internalRouter.HandleFunc("/failed-jobs/{id}/retry", internalHandler.RetryJob).Methods("POST")

	startTime := time.Now()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		health := struct {
			Status    string `json:"status"`
			Time      string `json:"time"`
			Database  string `json:"database"`
			Redis     string `json:"redis"`
			Uptime    string `json:"uptime"`
			GoVersion string `json:"go_version"`
		}{
			Status:    "ok",
			Time:      time.Now().Format(time.RFC3339),
			Database:  "connected",
			Redis:     "connected",
			Uptime:    fmt.Sprintf("%v", time.Since(startTime)),
			GoVersion: runtime.Version(),
		}

		dbCtx, dbCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer dbCancel()

		if err := db.GetDB().PingContext(dbCtx); err != nil {
			health.Status = "degraded"
			health.Database = "error"
		}

		redisCtx, redisCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer redisCancel()

		if err := jobQueue.Client().Ping(redisCtx).Err(); err != nil {
			health.Status = "degraded"
			health.Redis = "error"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}).Methods("GET")

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	<-stop
	log.Println("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Stopping checkout sessions...")
	manager.Stop()

	log.Println("Stopping checkout worker...")
	checkoutWorker.Stop()

	time.Sleep(2 * time.Second)

	log.Println("Closing database connections...")
	db.Close()

	log.Println("Closing Redis connections...")
	jobQueue.Close()

	log.Println("Server exited properly")
}
