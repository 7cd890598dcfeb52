package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mockmate/mockmate/config"
	"github.com/mockmate/mockmate/internal/api/handlers"
	"github.com/mockmate/mockmate/internal/api/middleware"
	"github.com/mockmate/mockmate/internal/api/routes"
	"github.com/mockmate/mockmate/internal/cache"
	"github.com/mockmate/mockmate/internal/logger"
	"github.com/mockmate/mockmate/internal/providers/llm"
	mongorepo "github.com/mockmate/mockmate/internal/repositories/mongo"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
	"github.com/mockmate/mockmate/internal/services"
	"github.com/mockmate/mockmate/internal/storage"
	"github.com/mockmate/mockmate/internal/workers"
)

func newOracle(ctx context.Context) (llm.Provider, error) {
	if os.Getenv("LLM_PROVIDER") == "openai" {
		return llm.NewOpenAI(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))
	}
	return llm.NewVertexGemini(ctx,
		os.Getenv("GCP_PROJECT_ID"),
		os.Getenv("GCP_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
	)
}

func main() {
	_ = godotenv.Load()

	lg := logger.New()
	ctx := context.Background()

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}

	oracle, err := newOracle(ctx)
	if err != nil {
		log.Fatalf("LLM init error: %v", err)
	}
	defer oracle.Close()

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "mockmate"
	}
	mongoDB := config.MongoClient.Database(dbName)

	// repositories
	interviewRepo := mongorepo.NewInterviewRepo(mongoDB)
	turnRepo := pgrepo.NewTurnRepo(config.PostgresDB)
	reportRepo := pgrepo.NewReportRepo(config.PostgresDB)
	profileRepo := pgrepo.NewProfileRepo(config.PostgresDB)
	cvRepo := pgrepo.NewCVFileRepo(config.PostgresDB)

	// services
	rcache := cache.NewRedisCache(config.RedisClient)
	profileSvc := services.NewProfileService(profileRepo)
	interviewSvc := services.NewInterviewService(interviewRepo, profileSvc, rcache)
	turnSvc := services.NewTurnService(turnRepo)
	reportSvc := services.NewReportService(reportRepo)

	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		up, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer up.Close()
		uploader = up
	}
	cvSvc := services.NewCVFileService(cvRepo, uploader)

	queue := &workers.RedisReportQueue{Redis: config.RedisClient}
	driver := services.NewDriver(interviewSvc, turnSvc, oracle, queue, lg)

	// background report generation
	pool := &workers.ReportWorkerPool{
		Redis:      config.RedisClient,
		Interviews: interviewSvc,
		Turns:      turnSvc,
		Reports:    reportSvc,
		Profiles:   profileSvc,
		LLM:        oracle,
		Logger:     lg,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("report worker init error: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(lg))

	routes.RegisterRoutes(r, routes.Deps{
		Interview: handlers.NewInterviewHandler(interviewSvc, turnSvc, reportSvc, driver),
		Question:  handlers.NewQuestionHandler(oracle, profileSvc),
		Profile:   handlers.NewProfileHandler(profileSvc),
		CV:        handlers.NewCVHandler(cvSvc),
		WS:        handlers.NewWSHandler(interviewSvc, driver, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
