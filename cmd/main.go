package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/cancel_booking"
	collectVenuePaymentHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/collect_venue_payment"
	createBookingHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/get_booking"
	getUserBookingsHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/get_user_bookings"
	getVenueBookingsHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/get_venue_bookings"
	getVenueConfigHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/get_venue_config"
	paymentWebhookHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/payment_webhook"
	updateVenueConfigHandler "github.com/m04kA/SMC-VenueBookingService/internal/api/handlers/update_venue_config"
	"github.com/m04kA/SMC-VenueBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-VenueBookingService/internal/config"
	"github.com/m04kA/SMC-VenueBookingService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/catalog"
	holidayClient "github.com/m04kA/SMC-VenueBookingService/internal/integrations/holidays"
	bookingsService "github.com/m04kA/SMC-VenueBookingService/internal/service/bookings"
	catalogService "github.com/m04kA/SMC-VenueBookingService/internal/service/catalog"
	createBookingUC "github.com/m04kA/SMC-VenueBookingService/internal/usecase/create_booking"
	expireLocksUC "github.com/m04kA/SMC-VenueBookingService/internal/usecase/expire_locks"
	getAvailableSlotsUC "github.com/m04kA/SMC-VenueBookingService/internal/usecase/get_available_slots"
	processPaymentUC "github.com/m04kA/SMC-VenueBookingService/internal/usecase/process_payment"
	"github.com/m04kA/SMC-VenueBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-VenueBookingService/pkg/logger"
	"github.com/m04kA/SMC-VenueBookingService/pkg/metrics"
	"github.com/m04kA/SMC-VenueBookingService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-VenueBookingService/pkg/slottoken"
	"github.com/m04kA/SMC-VenueBookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-VenueBookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем клиента производственного календаря
	holidays := holidayClient.NewClient(
		cfg.HolidayService.URL,
		time.Duration(cfg.HolidayService.Timeout)*time.Second,
		log,
	)
	log.Info("Holiday calendar client initialized (%s, timeout=%ds)",
		cfg.HolidayService.URL, cfg.HolidayService.Timeout)

	// Инициализируем продюсер событий
	var producer bookingsService.EventProducer
	if cfg.Kafka.Enabled {
		kafkaProducer := events.NewProducer(
			cfg.Kafka.Brokers,
			cfg.Kafka.BookingConfirmedTopic,
			cfg.Kafka.RefundIssuedTopic,
			log,
		)
		defer kafkaProducer.Close()
		producer = kafkaProducer
		log.Info("Kafka producer initialized (brokers=%v)", cfg.Kafka.Brokers)
	} else {
		producer = events.NewNopProducer(log)
		log.Info("Kafka disabled, events will be logged only")
	}

	// Кодек подписанных котировок слотов
	quoteCodec := slottoken.NewCodec(
		cfg.Booking.TokenSecret,
		time.Duration(cfg.Booking.QuoteTTLMinutes)*time.Minute,
	)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository *bookingRepo.Repository
		catalogRepository *catalogRepo.Repository
	)

	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		catalogRepository = catalogRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		catalogRepository = catalogRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		catalogRepository,
		producer,
		txMgr,
		log,
		time.Local,
	)
	catalogSvc := catalogService.NewService(
		catalogRepository,
		txMgr,
		log,
	)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		catalogRepository,
		holidays,
		quoteCodec,
		getAvailableSlotsUC.Config{
			MinNoticeMinutes:   cfg.Booking.MinNoticeMinutes,
			AdvanceBookingDays: cfg.Booking.AdvanceBookingDays,
		},
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		catalogRepository,
		holidays,
		quoteCodec,
		txMgr,
		createBookingUC.Config{
			PlatformFeePercent: cfg.Booking.PlatformFeePercent,
			SoftLockTTL:        time.Duration(cfg.Booking.SoftLockTTLMinutes) * time.Minute,
			MinNoticeMinutes:   cfg.Booking.MinNoticeMinutes,
			AdvanceBookingDays: cfg.Booking.AdvanceBookingDays,
		},
		log,
	)

	processPaymentUseCase := processPaymentUC.NewUseCase(
		bookingRepository,
		producer,
		txMgr,
		log,
	)

	expireLocksUseCase := expireLocksUC.NewUseCase(
		bookingRepository,
		time.Duration(cfg.Booking.PendingTTLMinutes)*time.Minute,
		metricsCollector,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	paymentWebhook := paymentWebhookHandler.NewHandler(processPaymentUseCase, log)
	collectVenuePayment := collectVenuePaymentHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getVenueBookings := getVenueBookingsHandler.NewHandler(bookingSvc, log)
	getVenueConfig := getVenueConfigHandler.NewHandler(catalogSvc, log)
	updateVenueConfig := updateVenueConfigHandler.NewHandler(catalogSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Проекция доступных слотов
	api.HandleFunc("/services/{serviceId}/activities/{activity}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Конфигурация площадки
	api.HandleFunc("/venues/{serviceId}/config",
		getVenueConfig.Handle).Methods(http.MethodGet)

	// Вебхук платёжного шлюза
	api.HandleFunc("/payments/webhook", paymentWebhook.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{ref}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{ref}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{ref}/collect", collectVenuePayment.Handle).Methods(http.MethodPost)

	// История бронирований пользователя
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Управление площадкой ---
	protected.HandleFunc("/venues/{serviceId}/bookings", getVenueBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/venues/{serviceId}/config", updateVenueConfig.Handle).Methods(http.MethodPut)

	// Фоновая зачистка протухших блокировок
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go expireLocksUseCase.Run(sweepCtx, time.Duration(cfg.Booking.SweepIntervalSeconds)*time.Second)
	log.Info("Lock sweep started (interval=%ds)", cfg.Booking.SweepIntervalSeconds)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновую зачистку и сбор метрик
	stopSweep()
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
