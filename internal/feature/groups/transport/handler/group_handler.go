// Package handler はgroupsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"market_backend/internal/api"
	"market_backend/internal/feature/groups/domain/entity"
	"market_backend/internal/feature/groups/usecase"
	jwtmw "market_backend/internal/platform/jwt"
)

// GroupsUsecase はグループとアイテムのCRUD操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type GroupsUsecase interface {
	// CreateGroup は新しいグループを作成します。
	CreateGroup(ctx context.Context, userID uint, title string) (*entity.Group, error)
	// RenameGroup はグループの名前を変更します。
	RenameGroup(ctx context.Context, userID, groupID uint, title string) error
	// DeleteGroup はグループとそのアイテムを削除します。
	DeleteGroup(ctx context.Context, userID, groupID uint) error
	// ListGroups は全グループを返します。
	ListGroups(ctx context.Context) ([]entity.Group, error)
	// AddItem は価格履歴を検証してからアイテムをグループに追加します。
	AddItem(ctx context.Context, userID, groupID uint, itemName string, priceHistory []byte) (*entity.Item, error)
	// RemoveItem はグループからアイテムを削除します。
	RemoveItem(ctx context.Context, userID, groupID uint, itemName string) error
	// ListItems はグループのアイテムを返します。
	ListItems(ctx context.Context, userID, groupID uint) ([]entity.Item, error)
}

// GroupHandler はグループ操作のHTTPリクエストを処理します。
type GroupHandler struct {
	uc GroupsUsecase
}

// NewGroupHandler は指定されたusecaseでGroupHandlerの新しいインスタンスを生成します。
func NewGroupHandler(uc GroupsUsecase) *GroupHandler {
	return &GroupHandler{uc: uc}
}

// CreateGroup はグループ作成APIエンドポイントを処理します。
//
// POST /groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	var req api.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	group, err := h.uc.CreateGroup(c.Request.Context(), userID, req.Title)
	if err != nil {
		if errors.Is(err, usecase.ErrTitleRequired) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("group creation failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create group"})
		return
	}
	c.JSON(http.StatusCreated, toGroupResponse(*group))
}

// ListGroups はグループ一覧APIエンドポイントを処理します。
//
// GET /groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.uc.ListGroups(c.Request.Context())
	if err != nil {
		slog.Error("group listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list groups"})
		return
	}
	out := make([]api.GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	c.JSON(http.StatusOK, out)
}

// RenameGroup はグループ名変更APIエンドポイントを処理します。
//
// PUT /groups/:id
func (h *GroupHandler) RenameGroup(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	var req api.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.uc.RenameGroup(c.Request.Context(), userID, groupID, req.Title); err != nil {
		h.writeGroupError(c, userID, groupID, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "group renamed"})
}

// DeleteGroup はグループ削除APIエンドポイントを処理します。
//
// DELETE /groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteGroup(c.Request.Context(), userID, groupID); err != nil {
		h.writeGroupError(c, userID, groupID, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "group deleted"})
}

// AddItem はアイテム追加APIエンドポイントを処理します。
// 価格履歴の検証に失敗した場合、アイテムは保存されません。
//
// POST /groups/:id/items
func (h *GroupHandler) AddItem(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	var req api.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	item, err := h.uc.AddItem(c.Request.Context(), userID, groupID, req.ItemName, req.ItemJSON)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidPriceHistory) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		h.writeGroupError(c, userID, groupID, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(*item))
}

// RemoveItem はアイテム削除APIエンドポイントを処理します。
//
// DELETE /groups/:id/items
func (h *GroupHandler) RemoveItem(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	var req api.RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.uc.RemoveItem(c.Request.Context(), userID, groupID, req.ItemName); err != nil {
		h.writeGroupError(c, userID, groupID, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "item removed"})
}

// ListItems はアイテム一覧APIエンドポイントを処理します。
//
// GET /groups/:id/items
func (h *GroupHandler) ListItems(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	items, err := h.uc.ListItems(c.Request.Context(), userID, groupID)
	if err != nil {
		h.writeGroupError(c, userID, groupID, err)
		return
	}
	out := make([]api.ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	c.JSON(http.StatusOK, out)
}

// writeGroupError はユースケースのエラーをHTTPステータスにマッピングします。
func (h *GroupHandler) writeGroupError(c *gin.Context, userID, groupID uint, err error) {
	switch {
	case errors.Is(err, usecase.ErrGroupNotFound), errors.Is(err, usecase.ErrItemNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("group operation failed", "user_id", userID, "group_id", groupID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
	}
}

// authedUserID はJWTミドルウェアが設定したユーザーIDを取得します。
func authedUserID(c *gin.Context) (uint, bool) {
	userID := c.GetUint(jwtmw.ContextUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return 0, false
	}
	return userID, true
}

// groupIDParam はパスパラメータ:idを解析します。
func groupIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid group id"})
		return 0, false
	}
	return uint(id), true
}

func toGroupResponse(g entity.Group) api.GroupResponse {
	return api.GroupResponse{
		ID:        g.ID,
		GroupName: g.GroupName,
		HasModel:  g.HasModel,
		CreatedAt: g.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func toItemResponse(item entity.Item) api.ItemResponse {
	return api.ItemResponse{
		ID:       item.ID,
		GroupID:  item.GroupID,
		ItemName: item.ItemName,
	}
}
