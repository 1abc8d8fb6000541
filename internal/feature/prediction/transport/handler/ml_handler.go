// Package handler はpredictionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"market_backend/internal/api"
	"market_backend/internal/feature/prediction/domain/entity"
	"market_backend/internal/feature/prediction/usecase"
	jwtmw "market_backend/internal/platform/jwt"
)

// MLUsecase は学習・予測・モデル管理のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MLUsecase interface {
	// TrainGroup はグループ内の全アイテムのモデルを学習します。
	TrainGroup(ctx context.Context, userID uint, username string, groupID uint) ([]entity.TrainedItem, error)
	// PredictItem は保存済みモデルで指定期間の価格を予測します。
	PredictItem(ctx context.Context, userID uint, username string, groupID, itemID uint, start, end time.Time) (*entity.PredictionResult, error)
	// GetGroupModels はグループ内の学習済みモデルの取得先を一覧します。
	GetGroupModels(ctx context.Context, userID, groupID uint) (*entity.GroupModels, error)
	// DeleteGroupModels はグループの全モデルを削除します。
	DeleteGroupModels(ctx context.Context, userID, groupID uint) error
}

// MLHandler は学習・予測APIのHTTPリクエストを処理します。
type MLHandler struct {
	uc MLUsecase
}

// NewMLHandler は指定されたusecaseでMLHandlerの新しいインスタンスを生成します。
func NewMLHandler(uc MLUsecase) *MLHandler {
	return &MLHandler{uc: uc}
}

// TrainGroup はグループ学習APIエンドポイントを処理します。
//
// POST /groups/:id/train
//   - グループが1アイテムのみの場合はグラフ単体のレスポンス
//   - 複数アイテムの場合は全学習結果の一覧
//   - 学習キューが満杯・学習枠が埋まっている場合は503を返却
func (h *MLHandler) TrainGroup(c *gin.Context) {
	userID, username, ok := identity(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c)
	if !ok {
		return
	}

	results, err := h.uc.TrainGroup(c.Request.Context(), userID, username, groupID)
	if err != nil {
		h.writeTrainError(c, userID, groupID, err)
		return
	}

	// 単一アイテムのグループはグラフのみを返す（レスポンスを軽く保つ）
	if len(results) == 1 {
		c.JSON(http.StatusOK, api.GraphResponse{
			Graph:    base64.StdEncoding.EncodeToString(results[0].Graph),
			GraphURL: results[0].GraphURL,
		})
		return
	}

	out := api.TrainGroupResponse{Success: true}
	for _, r := range results {
		out.TrainedModels = append(out.TrainedModels, api.TrainedModelResponse{
			ItemID:   r.ItemID,
			ItemName: r.ItemName,
			DataHash: r.DataHash,
			Metrics:  api.MetricsResponse{MSE: r.Metrics.MSE, R2: r.Metrics.R2},
			Graph:    base64.StdEncoding.EncodeToString(r.Graph),
			GraphURL: r.GraphURL,
		})
	}
	c.JSON(http.StatusOK, out)
}

// PredictItem は価格予測APIエンドポイントを処理します。
//
// POST /groups/:id/predict
func (h *MLHandler) PredictItem(c *gin.Context) {
	userID, username, ok := identity(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c)
	if !ok {
		return
	}

	var req api.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	start, err := parseISODate(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid start_time"})
		return
	}
	end, err := parseISODate(req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid end_time"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "end_time must not precede start_time"})
		return
	}

	result, err := h.uc.PredictItem(c.Request.Context(), userID, username, groupID, req.ItemID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrGroupNotFound), errors.Is(err, usecase.ErrItemNotFound),
			errors.Is(err, usecase.ErrModelNotFound), errors.Is(err, usecase.ErrArtifactNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("prediction failed", "user_id", userID, "group_id", groupID,
				"item_id", req.ItemID, "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "prediction failed"})
		}
		return
	}

	c.JSON(http.StatusOK, api.GraphResponse{
		Graph:    base64.StdEncoding.EncodeToString(result.Graph),
		GraphURL: result.GraphURL,
	})
}

// GetGroupModels はモデル一覧APIエンドポイントを処理します。
//
// GET /groups/:id/models
func (h *MLHandler) GetGroupModels(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c)
	if !ok {
		return
	}

	models, err := h.uc.GetGroupModels(c.Request.Context(), userID, groupID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrGroupNotFound), errors.Is(err, usecase.ErrModelNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("model listing failed", "user_id", userID, "group_id", groupID, "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list models"})
		}
		return
	}

	out := api.GroupModelsResponse{GroupID: models.GroupID, GroupName: models.GroupName}
	for _, item := range models.Items {
		out.Items = append(out.Items, api.ItemModelResponse{
			ItemID:    item.ItemID,
			ItemName:  item.ItemName,
			ModelURL:  item.URLs.Model,
			ScalerURL: item.URLs.Scaler,
			StatsURL:  item.URLs.Stats,
			GraphURL:  item.URLs.Graph,
		})
	}
	c.JSON(http.StatusOK, out)
}

// DeleteGroupModels はモデル削除APIエンドポイントを処理します。
//
// DELETE /groups/:id/models
func (h *MLHandler) DeleteGroupModels(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteGroupModels(c.Request.Context(), userID, groupID); err != nil {
		switch {
		case errors.Is(err, usecase.ErrGroupNotFound), errors.Is(err, usecase.ErrModelNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("model deletion failed", "user_id", userID, "group_id", groupID, "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to delete models"})
		}
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "models deleted"})
}

// ValidatePriceHistory は価格履歴の構造検証APIエンドポイントを処理します。
// 保存は行わず、アイテム追加前のクライアント側チェックに使われます。
//
// POST /validate
func (h *MLHandler) ValidatePriceHistory(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "failed to read request body"})
		return
	}
	valid, reason := usecase.ValidatePriceHistory(raw)
	c.JSON(http.StatusOK, api.ValidateResponse{Valid: valid, Error: reason})
}

// writeTrainError は学習エラーをHTTPステータスにマッピングします。
func (h *MLHandler) writeTrainError(c *gin.Context, userID, groupID uint, err error) {
	switch {
	case errors.Is(err, usecase.ErrServerBusy), errors.Is(err, usecase.ErrQueueFull):
		// 呼び出し側がリトライできるよう、容量不足は503で通知する
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrModelsExist):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("training failed", "user_id", userID, "group_id", groupID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "training failed"})
	}
}

// identity はJWTミドルウェアが設定したユーザーIDとユーザー名を取得します。
func identity(c *gin.Context) (uint, string, bool) {
	userID := c.GetUint(jwtmw.ContextUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return 0, "", false
	}
	return userID, c.GetString(jwtmw.ContextUsername), true
}

// pathID はパスパラメータ:idを解析します。
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid group id"})
		return 0, false
	}
	return uint(id), true
}

// parseISODate はISO 8601の日付または日時文字列を解析します。
func parseISODate(s string) (time.Time, error) {
	layouts := []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
