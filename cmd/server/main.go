// Kotihoito 居家护理分配引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kotihoito/kotihoito/internal/config"
	"github.com/kotihoito/kotihoito/internal/database"
	"github.com/kotihoito/kotihoito/internal/geocode"
	"github.com/kotihoito/kotihoito/internal/handler"
	"github.com/kotihoito/kotihoito/internal/metrics"
	"github.com/kotihoito/kotihoito/internal/repository"
	"github.com/kotihoito/kotihoito/pkg/assigner"
	"github.com/kotihoito/kotihoito/pkg/logger"
	"github.com/kotihoito/kotihoito/pkg/slot"
	"github.com/kotihoito/kotihoito/pkg/stats"
	"github.com/kotihoito/kotihoito/pkg/travel"
	"github.com/kotihoito/kotihoito/pkg/validator"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	fmt.Printf("Kotihoito 居家护理分配引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error().Err(err).Msg("数据库初始化失败")
		os.Exit(1)
	}
	defer db.Close()

	store := repository.NewStore(db)

	// Redis（仅地理编码缓存用，连不上则降级为无缓存）
	var geocodeCache geocode.Cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis 不可用，地理编码缓存关闭")
		} else {
			geocodeCache = geocode.NewRedisCache(redisClient, cfg.Geocode.CacheTTL)
		}
		cancel()
	}

	geocoder := geocode.New(cfg.Geocode, geocodeCache)
	backfiller := geocode.NewBackfiller(geocoder, store.Patients)

	// 路上时间估算与时段查找
	estimator := travel.New(travel.Config{
		AverageSpeedKmh:    cfg.Travel.AverageSpeedKmh,
		DetourFactor:       cfg.Travel.DetourFactor,
		BufferMinutes:      cfg.Travel.BufferMinutes,
		DefaultZoneMinutes: cfg.Travel.DefaultZoneMin,
		UnknownPairMinutes: cfg.Travel.UnknownPairMin,
	})
	finder := slot.NewFinder(slot.Config{
		HorizonDays:       cfg.Scheduling.HorizonDays,
		PreviewDays:       cfg.Scheduling.PreviewDays,
		MaxVisitsPerDay:   cfg.Scheduling.MaxVisitsPerDay,
		SlotBufferMinutes: cfg.Scheduling.SlotBufferMinutes,
		StartZone:         cfg.Travel.StartZone,
	}, estimator, store)

	// 分配引擎
	engine := assigner.New(store, finder).WithConfig(assigner.Config{
		MaxCandidates:   cfg.Assigner.MaxCandidates,
		SmartMatchScore: cfg.Assigner.SmartMatchScore,
	})

	detector := validator.NewConflictDetector(&validator.DetectorConfig{
		MaxVisitsPerDay:  cfg.Scheduling.MaxVisitsPerDay,
		CheckPreferences: true,
	}, estimator)
	analyzer := stats.NewWorkloadAnalyzer(cfg.Scheduling.MaxVisitsPerDay)

	// 处理器
	assignHandler := handler.NewAssignHandler(engine)
	patientHandler := handler.NewPatientHandler(store.Patients, geocoder, backfiller)
	scheduleHandler := handler.NewScheduleHandler(engine, finder, store, detector)
	statsHandler := handler.NewStatsHandler(store, analyzer)
	routeHandler := handler.NewRouteHandler(store, estimator, cfg.Travel.StartZone)

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","service":"kotihoito"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"kotihoito"}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "Kotihoito 居家护理分配引擎 API v1",
			"endpoints": {
				"assign": {
					"matches": "POST /api/v1/assign/matches",
					"matches_with_slots": "POST /api/v1/assign/matches-with-slots",
					"auto": "POST /api/v1/assign/auto",
					"smart": "POST /api/v1/assign/smart",
					"bulk": "POST /api/v1/assign/bulk",
					"reassign": "POST /api/v1/assign/reassign",
					"unassign": "POST /api/v1/assign/unassign",
					"suggest": "POST /api/v1/assign/suggest",
					"suggestions": "POST /api/v1/assign/suggestions",
					"insights": "POST /api/v1/assign/insights"
				},
				"patients": {
					"create": "POST /api/v1/patients/create",
					"list": "GET /api/v1/patients",
					"pending": "GET /api/v1/patients/pending",
					"get": "GET /api/v1/patients/get?id=",
					"geocode_backfill": "POST /api/v1/patients/geocode-backfill"
				},
				"schedule": {
					"day_slots": "GET /api/v1/schedule/day-slots",
					"preview": "GET /api/v1/schedule/preview",
					"patients": "GET /api/v1/schedule/patients",
					"conflicts": "GET /api/v1/schedule/conflicts",
					"route": "GET /api/v1/schedule/route"
				},
				"stats": {
					"workload": "GET /api/v1/stats/workload",
					"day_fills": "GET /api/v1/stats/day-fills",
					"drift": "GET /api/v1/stats/drift",
					"history": "GET /api/v1/stats/history"
				}
			}
		}`))
	})

	// 分配 API
	mux.HandleFunc("/api/v1/assign/matches", assignHandler.Matches)
	mux.HandleFunc("/api/v1/assign/matches-with-slots", assignHandler.MatchesWithSlots)
	mux.HandleFunc("/api/v1/assign/auto", assignHandler.Auto)
	mux.HandleFunc("/api/v1/assign/smart", assignHandler.Smart)
	mux.HandleFunc("/api/v1/assign/bulk", assignHandler.Bulk)
	mux.HandleFunc("/api/v1/assign/reassign", assignHandler.Reassign)
	mux.HandleFunc("/api/v1/assign/unassign", assignHandler.Unassign)
	mux.HandleFunc("/api/v1/assign/suggest", assignHandler.Suggest)
	mux.HandleFunc("/api/v1/assign/suggestions", assignHandler.Suggestions)
	mux.HandleFunc("/api/v1/assign/insights", assignHandler.Insights)

	// 患者 API
	mux.HandleFunc("/api/v1/patients/create", patientHandler.Create)
	mux.HandleFunc("/api/v1/patients", patientHandler.List)
	mux.HandleFunc("/api/v1/patients/pending", patientHandler.Pending)
	mux.HandleFunc("/api/v1/patients/get", patientHandler.Get)
	mux.HandleFunc("/api/v1/patients/geocode-backfill", patientHandler.Backfill)

	// 排期 API
	mux.HandleFunc("/api/v1/schedule/day-slots", scheduleHandler.DaySlots)
	mux.HandleFunc("/api/v1/schedule/preview", scheduleHandler.Preview)
	mux.HandleFunc("/api/v1/schedule/patients", scheduleHandler.Patients)
	mux.HandleFunc("/api/v1/schedule/conflicts", scheduleHandler.Conflicts)
	mux.HandleFunc("/api/v1/schedule/route", routeHandler.Optimize)

	// 统计 API
	mux.HandleFunc("/api/v1/stats/workload", statsHandler.Workload)
	mux.HandleFunc("/api/v1/stats/day-fills", statsHandler.DayFills)
	mux.HandleFunc("/api/v1/stats/drift", statsHandler.Drift)
	mux.HandleFunc("/api/v1/stats/history", statsHandler.History)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// 中间件执行顺序：requestID -> cors -> logging -> handler
	root := requestIDMiddleware(corsMiddleware(loggingMiddleware(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, _ := r.Context().Value("request_id").(string)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		metrics.RecordRequest(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
