package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/config"
	"github.com/varunaditya27/EduSynth/constant"
	jobHandler "github.com/varunaditya27/EduSynth/handler"
	"github.com/varunaditya27/EduSynth/pkg/elevenlabs"
	"github.com/varunaditya27/EduSynth/pkg/gemini"
	"github.com/varunaditya27/EduSynth/pkg/groq"
	"github.com/varunaditya27/EduSynth/pkg/rabbitmq"
	"github.com/varunaditya27/EduSynth/pkg/storage"
	"github.com/varunaditya27/EduSynth/pkg/token"
	"github.com/varunaditya27/EduSynth/pkg/unsplash"
	"github.com/varunaditya27/EduSynth/repository"
	"github.com/varunaditya27/EduSynth/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("NewRabbitMQConn")
	}

	repo := repository.NewRepo(cfg.DB)
	store := storage.NewMinioStore(cfg.Storage, cfg.Bucket)

	geminiClient, err := gemini.NewClient(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("gemini client")
	}
	defer geminiClient.Close()

	groqClient, err := groq.NewClient(cfg.AI.GroqAPIKey, cfg.AI.GroqModel, cfg.AI.GroqBaseURL)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("groq client")
	}
	elevenClient, err := elevenlabs.NewClient(cfg.AI.ElevenAPIKey, cfg.AI.ElevenVoiceID)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("elevenlabs client")
	}
	unsplashClient, err := unsplash.NewClient(cfg.AI.UnsplashAccessKey)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("unsplash client")
	}
	renderer, err := service.NewSlideRenderer(cfg.Pipeline.FontPath)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("slide renderer")
	}
	tokens, err := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("token manager")
	}

	publisher := rabbitmq.NewPublisher(conn, cfg.Queue)

	contentService := service.NewContentService(geminiClient)
	assetService := service.NewAssetService(repo, unsplashClient)
	narrationService := service.NewNarrationService(repo, elevenClient, store)
	pipelineService := service.NewPipelineService(repo, contentService, renderer, assetService, narrationService, store, &cfg.Pipeline)
	deckService := service.NewDeckService(repo, geminiClient, store)
	lectureService := service.NewLectureService(repo, publisher)
	quizService := service.NewQuizService(repo, geminiClient)
	mindMapService := service.NewMindMapService(repo, geminiClient)
	chatService := service.NewChatService(groqClient)
	authService := service.NewAuthService(repo, tokens)
	exportService := service.NewExportService(repo, store)

	serviceDeps := jobHandler.ServiceDependencies{
		PipelineService: pipelineService,
		DeckService:     deckService,
	}

	// Start lecture pipeline consumer
	lectureConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, jobHandler.LectureJobHandler)
	go func() {
		err := lectureConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Lecture consumer error")
		}
	}()

	// Start deck build consumer
	deckConsumer := rabbitmq.NewDeckConsumer(conn, cfg.Queue, cfg.Server.Workers, jobHandler.DeckJobHandler, jobHandler.DeckJobFailureHandler)
	go func() {
		err := deckConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Deck consumer error")
		}
	}()

	registerValidators()

	r := gin.Default()
	r.Use(requestLogger(ctx))
	r.Use(cors.New(corsConfig(cfg)))
	addHealth(r)
	addRoutes(r, routeDeps{
		lectures:  jobHandler.NewLectureHandler(lectureService),
		quizzes:   jobHandler.NewQuizHandler(quizService),
		mindmaps:  jobHandler.NewMindMapHandler(mindMapService),
		chat:      jobHandler.NewChatHandler(chatService),
		auth:      jobHandler.NewAuthHandler(authService),
		animation: jobHandler.NewAnimationHandler(lectureService, repo, store),
		exports:   jobHandler.NewExportHandler(exportService),
		tokens:    tokens,
	})

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

type routeDeps struct {
	lectures  *jobHandler.LectureHandler
	quizzes   *jobHandler.QuizHandler
	mindmaps  *jobHandler.MindMapHandler
	chat      *jobHandler.ChatHandler
	auth      *jobHandler.AuthHandler
	animation *jobHandler.AnimationHandler
	exports   *jobHandler.ExportHandler
	tokens    *token.Manager
}

func addRoutes(r *gin.Engine, deps routeDeps) {
	optional := jobHandler.AuthOptional(deps.tokens)

	// Legacy video-pipeline submission and polling.
	r.POST("/generate", optional, deps.lectures.Generate)
	r.GET("/status/:taskId", optional, deps.lectures.Status)
	r.POST("/generate-quiz/:lectureId", optional, deps.quizzes.Generate)

	lectures := r.Group("/api/lectures")
	lectures.Use(optional)
	lectures.POST("", deps.lectures.Create)
	lectures.GET("", deps.lectures.List)
	lectures.GET("/:id", deps.lectures.Get)
	lectures.DELETE("/:id", deps.lectures.Delete)
	lectures.GET("/:id/quiz", deps.quizzes.Get)
	lectures.POST("/:id/export/pdf", deps.exports.PDF)
	lectures.POST("/:id/export/pptx", deps.exports.PPTX)

	v1 := r.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/signup", deps.auth.Signup)
	auth.POST("/login", deps.auth.Login)
	auth.POST("/google", deps.auth.Google)
	auth.GET("/me", jobHandler.AuthRequired(deps.tokens), deps.auth.Me)
	auth.POST("/logout", jobHandler.AuthRequired(deps.tokens), deps.auth.Logout)

	mindmap := v1.Group("/mindmap")
	mindmap.Use(optional)
	mindmap.GET("/health", deps.mindmaps.Health)
	mindmap.POST("/generate", deps.mindmaps.Generate)
	mindmap.GET("/lecture/:id", deps.mindmaps.Get)
	mindmap.DELETE("/lecture/:id", deps.mindmaps.Delete)

	chatbot := v1.Group("/chatbot")
	chatbot.Use(optional)
	chatbot.POST("/chat", deps.chat.Chat)
	chatbot.POST("/chat/stream", deps.chat.Stream)
	chatbot.POST("/quick-ask", deps.chat.QuickAsk)

	animations := v1.Group("/animations")
	animations.Use(optional)
	animations.POST("/generate", deps.animation.Generate)
	animations.GET("/:taskId", deps.animation.Get)
	animations.GET("/:taskId/slides/:i", deps.animation.GetSlide)
	animations.GET("/:taskId/metadata", deps.animation.Metadata)
	animations.POST("/:taskId/progress", deps.animation.Progress)
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("visualtheme", func(fl validator.FieldLevel) bool {
			return constant.VisualTheme(fl.Field().String()).Valid()
		})
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	return corsCfg
}

// requestLogger attaches the context logger so zerolog.Ctx works in
// handlers.
func requestLogger(base context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(base)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
