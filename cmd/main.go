package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/bandwise/config"
	"github.com/lshigami/bandwise/database"
	_ "github.com/lshigami/bandwise/docs" // Swagger docs - generated by swag init
	"github.com/lshigami/bandwise/internal/cache"
	"github.com/lshigami/bandwise/internal/controller"
	adminctrl "github.com/lshigami/bandwise/internal/controller/admin"
	userctrl "github.com/lshigami/bandwise/internal/controller/user"
	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/grading"
	"github.com/lshigami/bandwise/internal/logger"
	"github.com/lshigami/bandwise/internal/metrics"
	"github.com/lshigami/bandwise/internal/middleware"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/lshigami/bandwise/internal/repository"
	"github.com/lshigami/bandwise/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Bandwise IELTS Practice API
// @version 1.0
// @description Authoring, submission and band scoring for IELTS reading, listening and writing tests.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			NewPinger,
		),

		// Events and read cache
		fx.Provide(
			event.NewBus,
			func(bus *event.Bus) event.Publisher { return bus },
			cache.NewStore,
			cache.NewTestCache,
			metrics.NewListener,
		),

		fx.Provide(
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewSubmissionRepository,
		),

		// Scoring core
		fx.Provide(
			func(cfg *config.Config) grading.Matcher { return grading.NewMatcher(cfg.Grading.NormalizeAnswers) },
			grading.NewGrader,
			grading.NewAggregator,
		),

		fx.Provide(
			service.NewTestReader,
			service.NewGeminiWritingGrader,
			service.NewWritingGradingService,
			service.NewSubmissionService,
			service.NewAdminTestService,
			service.NewQuestionService,
			service.NewUserTestService,
		),

		fx.Provide(
			adminctrl.NewAdminTestController,
			adminctrl.NewAdminGradingController,
			userctrl.NewUserTestController,
			controller.NewHealthController,
		),

		fx.Invoke(SubscribeListeners),
		fx.Invoke(AutoMigrateDB),
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

func NewPinger(db *gorm.DB) (controller.Pinger, error) {
	return db.DB()
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	logger.SetLevel(cfg.LogLevel)
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// SubscribeListeners attaches the read cache and the metrics recorder to
// the change bus. The cache goes first so a listener never observes stale
// content after a write.
func SubscribeListeners(bus *event.Bus, testCache *cache.TestCache, metricsListener *metrics.Listener) {
	bus.Subscribe(testCache)
	bus.Subscribe(metricsListener)
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminTestCtrl *adminctrl.AdminTestController,
	gradingCtrl *adminctrl.AdminGradingController,
	userTestCtrl *userctrl.UserTestController,
	healthCtrl *controller.HealthController,
) {
	router.GET("/healthz", healthCtrl.Healthz)

	adminAPIGroup := router.Group("/api/v1/admin")
	{
		tests := adminAPIGroup.Group("/tests")
		tests.POST("", adminTestCtrl.CreateTest)
		tests.GET("/:test_id", adminTestCtrl.GetTest)
		tests.PUT("/:test_id", adminTestCtrl.UpdateTest)
		tests.DELETE("/:test_id", adminTestCtrl.DeleteTest)

		questions := adminAPIGroup.Group("/questions")
		questions.PUT("/:question_id", adminTestCtrl.UpdateQuestion)
		questions.DELETE("/:question_id", adminTestCtrl.DeleteQuestion)

		submissions := adminAPIGroup.Group("/submissions")
		submissions.POST("/:submission_id/grade", gradingCtrl.GradeSubmission)
		submissions.POST("/:submission_id/ai-grade", gradingCtrl.AIGradeSubmission)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/tests", userTestCtrl.GetAllTests)
		userAPIGroup.GET("/tests/:test_id", userTestCtrl.GetTestDetails)
		userAPIGroup.POST("/tests/:test_id/submissions", userTestCtrl.SubmitTest)
		userAPIGroup.GET("/submissions/:submission_id", userTestCtrl.GetSubmissionResult)
		userAPIGroup.GET("/users/:user_id/submissions", userTestCtrl.GetUserSubmissions)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Bandwise API server starting on port %s", cfg.Server.Port)
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

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Test{},
		&model.Section{},
		&model.Question{},
		&model.Submission{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
