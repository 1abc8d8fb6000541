package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/api"
	"market_backend/internal/feature/groups/domain/entity"
	"market_backend/internal/feature/groups/usecase"
	jwtmw "market_backend/internal/platform/jwt"
)

// mockGroupsUsecase はテスト用のGroupsUsecaseモック実装です。
type mockGroupsUsecase struct {
	CreateGroupFunc func(userID uint, title string) (*entity.Group, error)
	RenameGroupFunc func(userID, groupID uint, title string) error
	DeleteGroupFunc func(userID, groupID uint) error
	ListGroupsFunc  func() ([]entity.Group, error)
	AddItemFunc     func(userID, groupID uint, itemName string, priceHistory []byte) (*entity.Item, error)
	RemoveItemFunc  func(userID, groupID uint, itemName string) error
	ListItemsFunc   func(userID, groupID uint) ([]entity.Item, error)
}

func (m *mockGroupsUsecase) CreateGroup(_ context.Context, userID uint, title string) (*entity.Group, error) {
	return m.CreateGroupFunc(userID, title)
}

func (m *mockGroupsUsecase) RenameGroup(_ context.Context, userID, groupID uint, title string) error {
	return m.RenameGroupFunc(userID, groupID, title)
}

func (m *mockGroupsUsecase) DeleteGroup(_ context.Context, userID, groupID uint) error {
	return m.DeleteGroupFunc(userID, groupID)
}

func (m *mockGroupsUsecase) ListGroups(_ context.Context) ([]entity.Group, error) {
	return m.ListGroupsFunc()
}

func (m *mockGroupsUsecase) AddItem(_ context.Context, userID, groupID uint, itemName string, priceHistory []byte) (*entity.Item, error) {
	return m.AddItemFunc(userID, groupID, itemName, priceHistory)
}

func (m *mockGroupsUsecase) RemoveItem(_ context.Context, userID, groupID uint, itemName string) error {
	return m.RemoveItemFunc(userID, groupID, itemName)
}

func (m *mockGroupsUsecase) ListItems(_ context.Context, userID, groupID uint) ([]entity.Item, error) {
	return m.ListItemsFunc(userID, groupID)
}

// setupRouter はJWTミドルウェアの代わりに認証済みコンテキストを注入した
// テスト用ルーターを準備します。
func setupRouter(uc GroupsUsecase, authed bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if authed {
			c.Set(jwtmw.ContextUserID, uint(1))
			c.Set(jwtmw.ContextUsername, "alice")
		}
		c.Next()
	})

	h := NewGroupHandler(uc)
	r.POST("/groups", h.CreateGroup)
	r.GET("/groups", h.ListGroups)
	r.PUT("/groups/:id", h.RenameGroup)
	r.DELETE("/groups/:id", h.DeleteGroup)
	r.POST("/groups/:id/items", h.AddItem)
	r.DELETE("/groups/:id/items", h.RemoveItem)
	r.GET("/groups/:id/items", h.ListItems)
	return r
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestGroupHandler_CreateGroup(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		uc := &mockGroupsUsecase{
			CreateGroupFunc: func(userID uint, title string) (*entity.Group, error) {
				assert.Equal(t, uint(1), userID)
				assert.Equal(t, "rifles", title)
				return &entity.Group{ID: 7, UserID: 1, GroupName: "rifles", CreatedAt: created}, nil
			},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/groups", jsonBody(t, api.CreateGroupRequest{Title: "rifles"}))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp api.GroupResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, uint(7), resp.ID)
		assert.Equal(t, "rifles", resp.GroupName)
		assert.Equal(t, "2024-01-01T12:00:00Z", resp.CreatedAt)
	})

	t.Run("missing title", func(t *testing.T) {
		uc := &mockGroupsUsecase{}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(`{}`))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated request", func(t *testing.T) {
		uc := &mockGroupsUsecase{}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/groups", jsonBody(t, api.CreateGroupRequest{Title: "rifles"}))
		setupRouter(uc, false).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGroupHandler_ListGroups(t *testing.T) {
	uc := &mockGroupsUsecase{
		ListGroupsFunc: func() ([]entity.Group, error) {
			return []entity.Group{
				{ID: 7, GroupName: "rifles", HasModel: true},
				{ID: 8, GroupName: "pistols"},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/groups", nil)
	setupRouter(uc, true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []api.GroupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.True(t, resp[0].HasModel)
	assert.Equal(t, "pistols", resp[1].GroupName)
}

func TestGroupHandler_RenameGroup(t *testing.T) {
	t.Run("successful rename", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			RenameGroupFunc: func(userID, groupID uint, title string) error {
				assert.Equal(t, uint(7), groupID)
				assert.Equal(t, "pistols", title)
				return nil
			},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/groups/7", jsonBody(t, api.RenameGroupRequest{Title: "pistols"}))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"group renamed"}`, w.Body.String())
	})

	t.Run("missing group maps to 404", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			RenameGroupFunc: func(userID, groupID uint, title string) error { return usecase.ErrGroupNotFound },
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/groups/7", jsonBody(t, api.RenameGroupRequest{Title: "pistols"}))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGroupHandler_DeleteGroup(t *testing.T) {
	t.Run("successful deletion", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			DeleteGroupFunc: func(userID, groupID uint) error { return nil },
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/groups/7", nil)
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"group deleted"}`, w.Body.String())
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			DeleteGroupFunc: func(userID, groupID uint) error { return errors.New("disk on fire") },
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/groups/7", nil)
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	})
}

func TestGroupHandler_AddItem(t *testing.T) {
	history := json.RawMessage(`{"prices": [["2024-01-01", 10, "1"]]}`)

	t.Run("successful addition", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			AddItemFunc: func(userID, groupID uint, itemName string, priceHistory []byte) (*entity.Item, error) {
				assert.Equal(t, uint(7), groupID)
				assert.Equal(t, "AK-47", itemName)
				assert.JSONEq(t, string(history), string(priceHistory))
				return &entity.Item{ID: 11, GroupID: 7, ItemName: "AK-47"}, nil
			},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/groups/7/items",
			jsonBody(t, api.AddItemRequest{ItemName: "AK-47", ItemJSON: history}))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp api.ItemResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, uint(11), resp.ID)
		assert.Equal(t, uint(7), resp.GroupID)
	})

	t.Run("invalid price history maps to 400", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			AddItemFunc: func(userID, groupID uint, itemName string, priceHistory []byte) (*entity.Item, error) {
				return nil, fmt.Errorf("%w: Missing or invalid 'prices' list", usecase.ErrInvalidPriceHistory)
			},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/groups/7/items",
			jsonBody(t, api.AddItemRequest{ItemName: "AK-47", ItemJSON: json.RawMessage(`{}`)}))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Missing or invalid 'prices' list")
	})

	t.Run("missing group maps to 404", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			AddItemFunc: func(userID, groupID uint, itemName string, priceHistory []byte) (*entity.Item, error) {
				return nil, usecase.ErrGroupNotFound
			},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/groups/7/items",
			jsonBody(t, api.AddItemRequest{ItemName: "AK-47", ItemJSON: history}))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGroupHandler_RemoveItem(t *testing.T) {
	t.Run("successful removal", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			RemoveItemFunc: func(userID, groupID uint, itemName string) error {
				assert.Equal(t, "AK-47", itemName)
				return nil
			},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/groups/7/items",
			jsonBody(t, api.RemoveItemRequest{ItemName: "AK-47"}))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"item removed"}`, w.Body.String())
	})

	t.Run("missing item maps to 404", func(t *testing.T) {
		uc := &mockGroupsUsecase{
			RemoveItemFunc: func(userID, groupID uint, itemName string) error { return usecase.ErrItemNotFound },
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/groups/7/items",
			jsonBody(t, api.RemoveItemRequest{ItemName: "M4A1"}))
		setupRouter(uc, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGroupHandler_ListItems(t *testing.T) {
	uc := &mockGroupsUsecase{
		ListItemsFunc: func(userID, groupID uint) ([]entity.Item, error) {
			return []entity.Item{{ID: 11, GroupID: 7, ItemName: "AK-47"}}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/groups/7/items", nil)
	setupRouter(uc, true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []api.ItemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "AK-47", resp[0].ItemName)
}
