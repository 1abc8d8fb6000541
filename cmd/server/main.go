package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"market_backend/internal/app/router"
	authadapters "market_backend/internal/feature/auth/adapters"
	authhandler "market_backend/internal/feature/auth/transport/handler"
	authusecase "market_backend/internal/feature/auth/usecase"
	groupadapters "market_backend/internal/feature/groups/adapters"
	grouphandler "market_backend/internal/feature/groups/transport/handler"
	groupusecase "market_backend/internal/feature/groups/usecase"
	predictionadapters "market_backend/internal/feature/prediction/adapters"
	mlhandler "market_backend/internal/feature/prediction/transport/handler"
	predictionusecase "market_backend/internal/feature/prediction/usecase"
	"market_backend/internal/platform/chart"
	infradb "market_backend/internal/platform/db"
	jwtmw "market_backend/internal/platform/jwt"
	"market_backend/internal/platform/objstore"
	infraredis "market_backend/internal/platform/redis"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	// db
	db := infradb.OpenDB()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// アーティファクトストア: ローカルFSかS3を起動時に選択する
	var artifactStore predictionusecase.ArtifactStore
	if os.Getenv("LOCAL_STORAGE") == "true" {
		dir := os.Getenv("STORAGE_DIR")
		if dir == "" {
			dir = "tmp"
		}
		artifactStore = predictionadapters.NewLocalStore(dir)
		log.Println("[INFO] Using local artifact storage:", dir)
	} else {
		client, err := objstore.New(context.Background())
		if err != nil {
			log.Fatalf("S3 storage unavailable and LOCAL_STORAGE is not enabled: %v", err)
		}
		artifactStore = predictionadapters.NewS3Store(client)
	}

	// Repository
	userRepo := authadapters.NewUserMySQL(db)
	groupRepo := groupadapters.NewGroupRepository(db)
	groupStore := predictionadapters.NewGroupStore(db)
	indexRepo := predictionadapters.NewIndexRepository(db)

	// Redisキャッシュでラップ
	cachedGroupRepo := groupadapters.NewCachingGroupRepository(rdb, 5*time.Minute, groupRepo)

	// JWT
	jwtGen := jwtmw.NewGenerator(os.Getenv(jwtmw.EnvKeyJWTSecret), 24*time.Hour)

	// 学習ジョブの同時実行数とキュー長はプロセス全体で共有する
	runner := predictionusecase.NewJobRunner(
		predictionusecase.DefaultMaxConcurrentTrainings,
		predictionusecase.DefaultQueueCapacity,
	)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, jwtGen)
	groupsUC := groupusecase.NewGroupsUsecase(cachedGroupRepo, predictionadapters.NewValidator())
	modelUC := predictionusecase.NewModelUsecase(groupStore, indexRepo, artifactStore, runner, chart.NewRenderer())
	cachedModelUC := predictionadapters.NewCachingModelUsecase(rdb, 5*time.Minute, modelUC)

	// Handler
	authH := authhandler.NewAuthHandler(authUC)
	groupsH := grouphandler.NewGroupHandler(groupsUC)
	mlH := mlhandler.NewMLHandler(cachedModelUC)

	// ルータ生成
	router := router.NewRouter(authH, groupsH, mlH)

	// CORS追加
	router.Use(cors.Default())

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv("JWT_SECRET") == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
	}

	if err := router.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
