package main

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/application/services"
	"avatar-video-api/config"
	"avatar-video-api/infrastructure/adapters"
	"avatar-video-api/infrastructure/gin_interface/controllers"
	"avatar-video-api/infrastructure/observability"
	"avatar-video-api/middleware"
	"avatar-video-api/mock"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	serverConfig, err := config.GetServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get server config")
	}

	pipelineConfig, err := config.GetPipelineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get pipeline config")
	}

	zeroLogger := adapters.NewZerologWrapper(serverConfig.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init metrics")
	}
	defer shutdownMetrics(context.Background())

	if serverConfig.OtlpEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "avatar-video-api", serverConfig.OtlpEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to init tracer")
		}
		defer shutdownTracer(context.Background())
	}

	pipelineMetrics, err := observability.NewPipelineMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register pipeline metrics")
	}

	workerPool, err := adapters.NewWorkerPool(pipelineConfig.WorkerPoolSize, zeroLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	watchPool, err := adapters.NewWorkerPool(pipelineConfig.WatchPoolSize, zeroLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create progress watcher pool")
	}
	defer watchPool.Release()

	var sess *session.Session
	awsSession := func() *session.Session {
		if sess == nil {
			sess = session.Must(session.NewSessionWithOptions(session.Options{
				SharedConfigState: session.SharedConfigEnable,
			}))
		}
		return sess
	}

	progressStore, closeStore := newProgressStore(ctx, pipelineConfig, zeroLogger, awsSession)
	defer closeStore()

	collaborators := newCollaborators(pipelineConfig, zeroLogger, awsSession)

	poller := services.NewPollLoop(zeroLogger, pipelineMetrics)
	pipeline := services.NewVideoPipelineOrchestrator(services.VideoPipelineDeps{
		Logger:         zeroLogger,
		WorkerPool:     workerPool,
		ProgressStore:  progressStore,
		MediaStage:     services.NewMediaUploadStage(zeroLogger, collaborators.uploader, collaborators.cleaner),
		ScriptAcquirer: services.NewScriptAcquirer(zeroLogger, collaborators.scriptGenerator, pipelineConfig.WordsPerScript),
		Synthesizer:    collaborators.synthesizer,
		Compositor:     collaborators.compositor,
		Cleaner:        collaborators.cleaner,
		Poller:         poller,
		Metrics:        pipelineMetrics,
	}, services.PipelineOptions{
		PollInterval:    pipelineConfig.PollInterval,
		PollMaxAttempts: pipelineConfig.PollMaxAttempts,
	})
	progressReader := services.NewProgressReader(zeroLogger, progressStore, watchPool)

	videoJobsController := controllers.NewVideoJobsController(zeroLogger, pipeline, progressReader, serverConfig.WatchInterval)

	router := gin.Default()

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	corsConfig := cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(serverConfig.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = serverConfig.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	if serverConfig.JwksURL != "" {
		authHandler, err := middleware.NewAuthHandler(serverConfig.JwksURL, zeroLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth handler!")
		}
		defer authHandler.Close()
		router.Use(authHandler.AuthMiddleware())
	} else {
		zeroLogger.Warn("JWKS_URL is not set, requests are not authenticated")
	}

	router.GET("/metrics", gin.WrapH(metricsHandler))
	videoJobsController.RegisterRoutes(router, middleware.RateLimitMiddleware(serverConfig.SubmitRPS, serverConfig.SubmitBurst))

	srv := &http.Server{
		Addr:    ":" + serverConfig.Port,
		Handler: router,
	}

	go func() {
		zeroLogger.InfoWithFields("Server listening", map[string]interface{}{"port": serverConfig.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server!")
		}
	}()

	<-ctx.Done()
	zeroLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zeroLogger.Error(err, "Failed to shut down the HTTP server")
	}
	if err := pipeline.Shutdown(shutdownCtx); err != nil {
		zeroLogger.Error(err, "Running jobs did not finish before the shutdown deadline")
	}
}

func newProgressStore(ctx context.Context, pipelineConfig *config.PipelineConfig, logger outbound.LoggerPort,
	awsSession func() *session.Session) (outbound.ProgressStorePort, func()) {
	switch pipelineConfig.ProgressStore {
	case config.DynamoProgressStore:
		dynamoConfig, err := config.GetDynamoConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get dynamo config")
		}
		return adapters.NewDynamoProgressStore(logger, dynamodb.New(awsSession()), dynamoConfig), func() {}
	case config.PostgresProgressStore:
		postgresConfig, err := config.GetPostgresConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get postgres config")
		}
		store, db, err := adapters.OpenPostgresProgressStore(ctx, logger, postgresConfig.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open postgres progress store")
		}
		return store, func() { db.Close() }
	default:
		return adapters.NewMemoryProgressStore(), func() {}
	}
}

type collaborators struct {
	scriptGenerator outbound.ScriptGeneratorPort
	synthesizer     outbound.AvatarSynthesizerPort
	compositor      outbound.VideoCompositorPort
	uploader        outbound.MediaUploaderPort
	cleaner         outbound.MediaCleanerPort
}

func newCollaborators(pipelineConfig *config.PipelineConfig, logger outbound.LoggerPort,
	awsSession func() *session.Session) collaborators {
	if pipelineConfig.MockCollaborators {
		stubs, err := mock.Init(logger, pipelineConfig.MockScriptsFile, pipelineConfig.MockPendingPolls)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to init mock collaborators")
		}
		logger.Warn("Using stub collaborators, no external service is called")
		return collaborators{
			scriptGenerator: stubs.ScriptGenerator,
			synthesizer:     stubs.Synthesizer,
			compositor:      stubs.Compositor,
			uploader:        stubs.Uploader,
			cleaner:         stubs.Cleaner,
		}
	}

	gptConfig, err := config.GetGptConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get gpt config")
	}

	avatarConfig, err := config.GetAvatarConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get avatar config")
	}

	compositorConfig, err := config.GetCompositorConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get compositor config")
	}

	s3Config, err := config.GetS3Config()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get s3 config")
	}

	s3Client := s3.New(awsSession(), aws.NewConfig().WithRegion(s3Config.Region))
	contentFetcher := adapters.NewContentFetcher(logger, nil)

	return collaborators{
		scriptGenerator: adapters.NewScriptGenerator(gptConfig, logger),
		synthesizer:     adapters.NewAvatarSynthesizer(contentFetcher, avatarConfig, logger),
		compositor:      adapters.NewVideoCompositor(contentFetcher, compositorConfig, logger),
		uploader:        adapters.NewS3MediaUploader(s3Client, s3Config, logger),
		cleaner:         adapters.NewS3MediaCleaner(logger, s3Client, s3Config),
	}
}
