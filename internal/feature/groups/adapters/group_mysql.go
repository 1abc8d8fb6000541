// Package adapters はgroupsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"market_backend/internal/feature/groups/domain/entity"
	"market_backend/internal/feature/groups/usecase"
)

// GroupModel はgroupsテーブルのGORMモデルです。
type GroupModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	GroupName string `gorm:"size:255;not null"`
	HasModel  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName はテーブル名を指定します。
func (GroupModel) TableName() string { return "groups" }

// ItemModel はgroup_itemsテーブルのGORMモデルです。
// ItemJSONは生の価格履歴エンベロープをそのまま保持します。
type ItemModel struct {
	ID        uint   `gorm:"primaryKey"`
	GroupID   uint   `gorm:"index;not null"`
	ItemName  string `gorm:"size:255;not null"`
	ItemJSON  []byte `gorm:"type:json"`
	CreatedAt time.Time
}

// TableName はテーブル名を指定します。
func (ItemModel) TableName() string { return "group_items" }

// groupMySQL はGroupRepositoryインターフェースのMySQL実装です。
type groupMySQL struct {
	db *gorm.DB
}

var _ usecase.GroupRepository = (*groupMySQL)(nil)

// NewGroupRepository は指定されたDB接続でgroupMySQLの新しいインスタンスを生成します。
func NewGroupRepository(db *gorm.DB) *groupMySQL {
	return &groupMySQL{db: db}
}

// CreateGroup はグループをデータベースに追加します。
func (r *groupMySQL) CreateGroup(ctx context.Context, g *entity.Group) error {
	model := GroupModel{UserID: g.UserID, GroupName: g.GroupName}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	g.ID = model.ID
	g.CreatedAt = model.CreatedAt
	return nil
}

// RenameGroup は所有者が一致するグループの名前を変更します。
func (r *groupMySQL) RenameGroup(ctx context.Context, userID, groupID uint, title string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&GroupModel{}).
		Where("id = ? AND user_id = ?", groupID, userID).
		Update("group_name", title)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteGroup は所有者が一致するグループとそのアイテムを削除します。
func (r *groupMySQL) DeleteGroup(ctx context.Context, userID, groupID uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", groupID, userID).Delete(&GroupModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		if deleted {
			return tx.Where("group_id = ?", groupID).Delete(&ItemModel{}).Error
		}
		return nil
	})
	return deleted, err
}

// ListGroups は全グループを返します。
func (r *groupMySQL) ListGroups(ctx context.Context) ([]entity.Group, error) {
	var models []GroupModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	groups := make([]entity.Group, len(models))
	for i, m := range models {
		groups[i] = toGroup(m)
	}
	return groups, nil
}

// GetGroup はIDでグループを取得します。
func (r *groupMySQL) GetGroup(ctx context.Context, groupID uint) (*entity.Group, error) {
	var model GroupModel
	if err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrGroupNotFound
		}
		return nil, err
	}
	group := toGroup(model)
	return &group, nil
}

// AddItem は所有権を確認してからアイテムを追加します。
func (r *groupMySQL) AddItem(ctx context.Context, userID uint, item *entity.Item) (bool, error) {
	if owned, err := r.ownsGroup(ctx, userID, item.GroupID); err != nil || !owned {
		return false, err
	}
	model := ItemModel{GroupID: item.GroupID, ItemName: item.ItemName, ItemJSON: item.PriceHistory}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return false, err
	}
	item.ID = model.ID
	item.CreatedAt = model.CreatedAt
	return true, nil
}

// RemoveItem は所有権を確認してから名前が一致するアイテムを削除します。
func (r *groupMySQL) RemoveItem(ctx context.Context, userID, groupID uint, itemName string) (bool, error) {
	if owned, err := r.ownsGroup(ctx, userID, groupID); err != nil || !owned {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND item_name = ?", groupID, itemName).
		Delete(&ItemModel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListItems は所有権を確認してからグループのアイテムを返します。
func (r *groupMySQL) ListItems(ctx context.Context, userID, groupID uint) ([]entity.Item, error) {
	if owned, err := r.ownsGroup(ctx, userID, groupID); err != nil {
		return nil, err
	} else if !owned {
		return nil, usecase.ErrGroupNotFound
	}
	var models []ItemModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]entity.Item, len(models))
	for i, m := range models {
		items[i] = entity.Item{
			ID:           m.ID,
			GroupID:      m.GroupID,
			ItemName:     m.ItemName,
			PriceHistory: m.ItemJSON,
			CreatedAt:    m.CreatedAt,
		}
	}
	return items, nil
}

// ownsGroup はグループがユーザーの所有かどうかを確認します。
func (r *groupMySQL) ownsGroup(ctx context.Context, userID, groupID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&GroupModel{}).
		Where("id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func toGroup(m GroupModel) entity.Group {
	return entity.Group{
		ID:        m.ID,
		UserID:    m.UserID,
		GroupName: m.GroupName,
		HasModel:  m.HasModel,
		CreatedAt: m.CreatedAt,
	}
}
