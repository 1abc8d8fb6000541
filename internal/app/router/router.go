package router

import (
	"github.com/gin-gonic/gin"

	authhandler "market_backend/internal/feature/auth/transport/handler"
	grouphandler "market_backend/internal/feature/groups/transport/handler"
	mlhandler "market_backend/internal/feature/prediction/transport/handler"
	jwtmw "market_backend/internal/platform/jwt"
)

// Health は導通確認用エンドポイントです。
func Health(c *gin.Context) {
	// キャッシュされないように明示
	c.Header("Cache-Control", "no-store")

	// GET/HEAD/OPTIONS すべて 200 or 204 で返す
	switch c.Request.Method {
	case "HEAD":
		c.Status(200)
	case "OPTIONS":
		c.Status(204)
	default:
		c.JSON(200, gin.H{"status": "ok"})
	}
}

func NewRouter(authHandler *authhandler.AuthHandler, groups *grouphandler.GroupHandler,
	ml *mlhandler.MLHandler) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", Health)
	// 新規ユーザー登録
	r.POST("/signup", authHandler.Signup)
	// ログイン（JWT 発行）
	r.POST("/login", authHandler.Login)

	// 認証必須のルート
	// r.Group("/") でルートグループを作成
	auth := r.Group("/")
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → リクエストヘッダーに JWT が必要になる
	auth.Use(jwtmw.AuthRequired())
	{
		// グループとアイテムのCRUD
		auth.POST("/groups", groups.CreateGroup)
		auth.GET("/groups", groups.ListGroups)
		auth.PUT("/groups/:id", groups.RenameGroup)
		auth.DELETE("/groups/:id", groups.DeleteGroup)
		auth.POST("/groups/:id/items", groups.AddItem)
		auth.GET("/groups/:id/items", groups.ListItems)
		auth.DELETE("/groups/:id/items", groups.RemoveItem)

		// 学習・予測・モデル管理
		auth.POST("/groups/:id/train", ml.TrainGroup)
		auth.POST("/groups/:id/predict", ml.PredictItem)
		auth.GET("/groups/:id/models", ml.GetGroupModels)
		auth.DELETE("/groups/:id/models", ml.DeleteGroupModels)
		auth.POST("/validate", ml.ValidatePriceHistory)
	}

	return r
}
