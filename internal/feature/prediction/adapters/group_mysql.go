package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	groupadapters "market_backend/internal/feature/groups/adapters"
	"market_backend/internal/feature/prediction/domain/entity"
	"market_backend/internal/feature/prediction/usecase"
)

// groupMySQL はGroupStoreインターフェースのMySQL実装です。
// groupsフィーチャーと同じテーブルを読み取り専用で参照します。
type groupMySQL struct {
	db *gorm.DB
}

var _ usecase.GroupStore = (*groupMySQL)(nil)

// NewGroupStore は指定されたDB接続でgroupMySQLの新しいインスタンスを生成します。
func NewGroupStore(db *gorm.DB) *groupMySQL {
	return &groupMySQL{db: db}
}

// GetGroup はIDでグループを取得します。
func (r *groupMySQL) GetGroup(ctx context.Context, groupID uint) (*entity.TrainableGroup, error) {
	var model groupadapters.GroupModel
	if err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrGroupNotFound
		}
		return nil, err
	}
	return &entity.TrainableGroup{
		ID:        model.ID,
		UserID:    model.UserID,
		GroupName: model.GroupName,
		HasModel:  model.HasModel,
	}, nil
}

// ListItems は所有権を確認してからグループのアイテムと価格履歴を返します。
func (r *groupMySQL) ListItems(ctx context.Context, userID, groupID uint) ([]entity.TrainableItem, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&groupadapters.GroupModel{}).
		Where("id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, usecase.ErrGroupNotFound
	}

	var models []groupadapters.ItemModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]entity.TrainableItem, len(models))
	for i, m := range models {
		items[i] = entity.TrainableItem{
			ID:           m.ID,
			ItemName:     m.ItemName,
			PriceHistory: m.ItemJSON,
		}
	}
	return items, nil
}
