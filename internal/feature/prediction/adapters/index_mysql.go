package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	groupadapters "market_backend/internal/feature/groups/adapters"
	"market_backend/internal/feature/prediction/domain/entity"
	"market_backend/internal/feature/prediction/usecase"
)

// ModelIndexModel はmodel_indexテーブルのGORMモデルです。
type ModelIndexModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_model_index_user_item;not null"`
	GroupID   uint   `gorm:"index;not null"`
	ItemID    uint   `gorm:"index:idx_model_index_user_item;not null"`
	DataHash  string `gorm:"size:16;not null"`
	CreatedAt time.Time
}

// TableName はテーブル名を指定します。
func (ModelIndexModel) TableName() string { return "model_index" }

// indexMySQL はModelIndexRepositoryインターフェースのMySQL実装です。
// インデックス行とグループのhas_modelフラグは同一トランザクションで更新されます。
// アーティファクトストアとの整合性はトランザクション外であり、呼び出し側が
// 「アーティファクト保存成功後にのみSaveを呼ぶ」順序で担保します。
type indexMySQL struct {
	db *gorm.DB
}

var _ usecase.ModelIndexRepository = (*indexMySQL)(nil)

// NewIndexRepository は指定されたDB接続でindexMySQLの新しいインスタンスを生成します。
func NewIndexRepository(db *gorm.DB) *indexMySQL {
	return &indexMySQL{db: db}
}

// Save はインデックスを保存し、グループのhas_modelフラグを立てます。
func (r *indexMySQL) Save(ctx context.Context, index *entity.ModelIndex) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := ModelIndexModel{
			UserID:   index.UserID,
			GroupID:  index.GroupID,
			ItemID:   index.ItemID,
			DataHash: index.DataHash,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		index.ID = model.ID
		index.CreatedAt = model.CreatedAt

		return tx.Model(&groupadapters.GroupModel{}).
			Where("id = ?", index.GroupID).
			Update("has_model", true).Error
	})
}

// GetLatest はユーザー・アイテムの最新のインデックスを返します。
func (r *indexMySQL) GetLatest(ctx context.Context, userID, itemID uint) (*entity.ModelIndex, error) {
	var model ModelIndexModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrModelNotFound
		}
		return nil, err
	}
	return &entity.ModelIndex{
		ID:        model.ID,
		UserID:    model.UserID,
		GroupID:   model.GroupID,
		ItemID:    model.ItemID,
		DataHash:  model.DataHash,
		CreatedAt: model.CreatedAt,
	}, nil
}

// DeleteByGroup はグループの全インデックスを削除し、has_modelフラグを下ろします。
func (r *indexMySQL) DeleteByGroup(ctx context.Context, userID, groupID uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&ModelIndexModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		if !deleted {
			return nil
		}
		return tx.Model(&groupadapters.GroupModel{}).
			Where("id = ?", groupID).
			Update("has_model", false).Error
	})
	return deleted, err
}
