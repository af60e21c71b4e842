package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/examcore/config"
	"github.com/lshigami/examcore/database"
	_ "github.com/lshigami/examcore/docs" // Swagger docs
	adminctrl "github.com/lshigami/examcore/internal/controller/admin"
	userctrl "github.com/lshigami/examcore/internal/controller/user"
	"github.com/lshigami/examcore/internal/logger"
	"github.com/lshigami/examcore/internal/middleware"
	"github.com/lshigami/examcore/internal/model"
	"github.com/lshigami/examcore/internal/repository"
	"github.com/lshigami/examcore/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Exam Attempt & Scoring API
// @version 1.0
// @description Timed exam attempts with section submission, automatic scoring and standardized score conversion.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init("info", "console")

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			middleware.NewAuth,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewAttemptRepository,
			NewExamRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewSystemClock,
			service.NewScoreConverterService,
			service.NewTextJudge,
			NewTextEvaluator,
			service.NewThresholds,
			service.NewAnswerComparator,
			func(cfg *config.Config, comparator service.AnswerComparator, converter service.ScoreConverterService, clock service.Clock) service.ScoreAggregator {
				return service.NewScoreAggregator(comparator, converter, clock, cfg.Evaluator.MaxConcurrency)
			},
			service.NewGeminiTranscriber,
			service.NewAttemptSettings,
			service.NewAttemptService,
			service.NewAdminExamService,
			service.NewUserExamService,
			service.NewExpirySweeper,
		),

		// API Controllers Layer
		fx.Provide(
			adminctrl.NewExamController,
			adminctrl.NewGradingController,
			userctrl.NewExamController,
			userctrl.NewAttemptController,
		),

		fx.Invoke(func(cfg *config.Config) { logger.Init(cfg.Log.Level, cfg.Log.Format) }),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(StartExpirySweeper),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop application cleanly")
	}
}

// NewExamRepository puts the redis read-through cache in front of the gorm
// repository when REDIS_ADDR is configured.
func NewExamRepository(lc fx.Lifecycle, cfg *config.Config, db *gorm.DB) repository.ExamRepository {
	base := repository.NewExamRepository(db)
	if cfg.Redis.Addr == "" {
		return base
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable; exam reads fall through to the database")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return repository.NewCachedExamRepository(base, rdb, cfg.Redis.ExamTTL)
}

func NewTextEvaluator(cfg *config.Config, judge service.TextJudge) service.TextEvaluator {
	return service.NewTextEvaluator(judge, cfg.Evaluator.Timeout)
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

func AutoMigrateDB(db *gorm.DB) error {
	return database.Migrate(db)
}

func StartExpirySweeper(lc fx.Lifecycle, sweeper *service.ExpirySweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sweeper.Start()
		},
		OnStop: func(ctx context.Context) error {
			sweeper.Stop(ctx)
			return nil
		},
	})
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	auth *middleware.Auth,
	adminExamCtrl *adminctrl.ExamController,
	gradingCtrl *adminctrl.GradingController,
	examCtrl *userctrl.ExamController,
	attemptCtrl *userctrl.AttemptController,
) {
	api := router.Group("/api/v1", auth.RequireAuth())
	{
		api.GET("/exams", examCtrl.GetAllExams)
		api.GET("/exams/:exam_id", examCtrl.GetExamDetails)
		api.POST("/exams/:exam_id/attempts", attemptCtrl.CreateOrResumeAttempt)
		api.POST("/exams/:exam_id/sections/:section_id/attempts", attemptCtrl.StartSectionAttempt)
		api.GET("/exams/:exam_id/my-attempts", attemptCtrl.GetMyAttempts)

		attempts := api.Group("/attempts/:attempt_id")
		attempts.GET("", attemptCtrl.GetAttempt)
		attempts.GET("/status", attemptCtrl.GetAttemptStatus)
		attempts.PUT("/responses", attemptCtrl.RecordResponse)
		attempts.POST("/sections/:section_id/submit", attemptCtrl.SubmitSection)
		attempts.POST("/submit", attemptCtrl.SubmitAttempt)
		attempts.POST("/grade", attemptCtrl.GradeAttempt)
		attempts.POST("/cancel", attemptCtrl.CancelAttempt)
		attempts.POST("/expire", attemptCtrl.ExpireAttempt)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/exams", middleware.RequireRole(model.RoleAdmin), adminExamCtrl.CreateExam)

		graders := admin.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleGrader))
		graders.GET("/exams/:exam_id/attempt-stats", gradingCtrl.GetAttemptStats)
		graders.POST("/attempts/:attempt_id/grade/manual", gradingCtrl.GradeManual)
		graders.POST("/attempts/:attempt_id/grade/external", gradingCtrl.GradeExternal)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Exam API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
