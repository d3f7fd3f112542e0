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
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	cancelAppointmentHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/cancel_appointment"
	closeAppointmentHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/close_appointment"
	createAppointmentHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/create_appointment"
	getAppointmentHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/get_appointment"
	getAvailabilityHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/get_availability"
	getDoctorAppointmentsHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/get_doctor_appointments"
	getDoctorScheduleHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/get_doctor_schedule"
	getPatientAppointmentsHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/get_patient_appointments"
	healthHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/health"
	updateAppointmentHandler "github.com/m04kA/MedAppointmentService/internal/api/handlers/update_appointment"
	"github.com/m04kA/MedAppointmentService/internal/api/middleware"
	"github.com/m04kA/MedAppointmentService/internal/config"
	scheduleCache "github.com/m04kA/MedAppointmentService/internal/infra/cache/schedule"
	appointmentRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/MedAppointmentService/internal/infra/storage/schedule"
	appointmentsService "github.com/m04kA/MedAppointmentService/internal/service/appointments"
	schedulesService "github.com/m04kA/MedAppointmentService/internal/service/schedules"
	createAppointmentUC "github.com/m04kA/MedAppointmentService/internal/usecase/create_appointment"
	getAvailabilityUC "github.com/m04kA/MedAppointmentService/internal/usecase/get_availability"
	updateAppointmentUC "github.com/m04kA/MedAppointmentService/internal/usecase/update_appointment"
	"github.com/m04kA/MedAppointmentService/pkg/dbmetrics"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
	"github.com/m04kA/MedAppointmentService/pkg/metrics"
	"github.com/m04kA/MedAppointmentService/pkg/tracing"
	"github.com/m04kA/MedAppointmentService/pkg/txmanager"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.toml"
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
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

	log.Info("Starting MedAppointmentService...")
	log.Info("Configuration loaded from %s", configPath)

	location, err := cfg.Booking.Location()
	if err != nil {
		log.Fatal("Failed to load timezone %q: %v", cfg.Booking.Timezone, err)
	}

	// Трейсинг (при выключенном только пропагаторы)
	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Metrics.ServiceName,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal("Failed to setup tracing: %v", err)
	}
	if cfg.Tracing.Enabled {
		log.Info("Tracing enabled, exporting to %s", cfg.Tracing.Endpoint)
	}

	// Метрики. При выключенных метриках коллектор nil, все методы безопасны
	var metricsCollector *metrics.Metrics
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

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	txMgr := txmanager.NewTransactionManager(
		wrappedDB,
		txmanager.WithStatementTimeout(time.Duration(cfg.Database.StatementTimeoutMs)*time.Millisecond),
	)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)

	// Кеш шаблонов используется только на чтение расписаний и свободных слотов.
	// Запись и перенос читают шаблоны напрямую из БД внутри транзакции.
	var scheduleReader scheduleCache.TemplateSource = scheduleRepository
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// Кеш необязателен: при недоступном redis чтения уходят в БД
			log.Warn("Redis is unavailable at %s: %v", cfg.Redis.Addr, err)
		}
		cancel()

		scheduleReader = scheduleCache.NewCache(redisClient, scheduleRepository, cfg.Redis.TemplateTTL(), metricsCollector, log)
		log.Info("Schedule template cache enabled (addr=%s, ttl=%s)", cfg.Redis.Addr, cfg.Redis.TemplateTTL())
	}

	// Инициализируем сервисы
	appointmentSvc := appointmentsService.NewService(
		appointmentRepository,
		txMgr,
		metricsCollector,
		location,
		log,
	)
	scheduleSvc := schedulesService.NewService(scheduleReader, log)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		appointmentRepository,
		scheduleRepository,
		txMgr,
		metricsCollector,
		createAppointmentUC.Settings{Location: location, TxTimeout: cfg.Booking.TxTimeout()},
		log,
	)

	updateAppointmentUseCase := updateAppointmentUC.NewUseCase(
		appointmentRepository,
		scheduleRepository,
		txMgr,
		metricsCollector,
		updateAppointmentUC.Settings{Location: location, TxTimeout: cfg.Booking.TxTimeout()},
		log,
	)

	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		appointmentRepository,
		scheduleReader,
		location,
		log,
	)

	// Инициализируем handlers
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	updateAppointment := updateAppointmentHandler.NewHandler(updateAppointmentUseCase, log)
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(appointmentSvc, log)
	closeAppointment := closeAppointmentHandler.NewHandler(appointmentSvc, log)
	getPatientAppointments := getPatientAppointmentsHandler.NewHandler(appointmentSvc, log)
	getDoctorAppointments := getDoctorAppointmentsHandler.NewHandler(appointmentSvc, log)
	getDoctorSchedule := getDoctorScheduleHandler.NewHandler(scheduleSvc, log)

	health := healthHandler.NewHandler(log).WithCheck("postgres", wrappedDB.PingContext)
	if redisClient != nil {
		health.WithCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// Identity: bearer JWT, если задан секрет, иначе заголовки от gateway
	var verifier middleware.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = middleware.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
		log.Info("Bearer JWT authentication enabled")
	} else {
		log.Info("Trusting identity headers from gateway")
	}

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware (если метрики включены).
	// Регистрируется до Recover, чтобы видеть ответ 500 после паники.
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}
	r.Use(middleware.Recover(log))

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/healthz", health.Live).Methods(http.MethodGet)
	r.HandleFunc("/readyz", health.Ready).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты врача или специальности на дату
	api.HandleFunc("/availability", getAvailability.Handle).Methods(http.MethodGet)

	// Недельное расписание врача
	api.HandleFunc("/doctors/{doctorProfileId}/schedule", getDoctorSchedule.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют identity вызывающего)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(verifier, log))

	// --- Записи ---
	// Создание записи
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)

	// Получение записи по ID
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)

	// Изменение заметок и перенос
	protected.HandleFunc("/appointments/{appointmentId}", updateAppointment.Handle).Methods(http.MethodPatch)

	// Отмена записи
	protected.HandleFunc("/appointments/{appointmentId}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)

	// --- Закрытие визита (для врачей и администраторов) ---
	protected.HandleFunc("/appointments/{appointmentId}/complete", closeAppointment.HandleComplete).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{appointmentId}/no-show", closeAppointment.HandleNoShow).Methods(http.MethodPatch)

	// История записей пациента
	protected.HandleFunc("/patients/{patientId}/appointments", getPatientAppointments.Handle).Methods(http.MethodGet)

	// Записи врача на день (для персонала)
	protected.HandleFunc("/doctors/{doctorProfileId}/appointments", getDoctorAppointments.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.Metrics.ServiceName),
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

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to flush traces: %v", err)
	}

	log.Info("Server stopped gracefully")
}
