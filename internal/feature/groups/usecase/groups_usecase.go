package usecase

import (
	"context"
	"fmt"

	"market_backend/internal/feature/groups/domain/entity"
)

// GroupRepository はグループとアイテムの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type GroupRepository interface {
	// CreateGroup は新しいグループを作成し、IDが設定されたグループを返します。
	CreateGroup(ctx context.Context, group *entity.Group) error
	// RenameGroup はユーザーが所有するグループの名前を変更します。
	// 変更された行があったかどうかを返します。
	RenameGroup(ctx context.Context, userID, groupID uint, title string) (bool, error)
	// DeleteGroup はユーザーが所有するグループを削除します。
	DeleteGroup(ctx context.Context, userID, groupID uint) (bool, error)
	// ListGroups は全グループを返します。
	ListGroups(ctx context.Context) ([]entity.Group, error)
	// GetGroup はIDでグループを取得します。存在しない場合、ErrGroupNotFoundを返します。
	GetGroup(ctx context.Context, groupID uint) (*entity.Group, error)
	// AddItem はユーザーが所有するグループにアイテムを追加します。
	AddItem(ctx context.Context, userID uint, item *entity.Item) (bool, error)
	// RemoveItem はグループから名前が一致するアイテムを削除します。
	RemoveItem(ctx context.Context, userID, groupID uint, itemName string) (bool, error)
	// ListItems はユーザーが所有するグループのアイテムを返します。
	ListItems(ctx context.Context, userID, groupID uint) ([]entity.Item, error)
}

// PriceHistoryValidator は価格履歴の構造検証を抽象化します。
// 実装はpredictionフィーチャーの検証ロジックです。
type PriceHistoryValidator interface {
	// Validate は価格履歴が有効かどうかと、無効な場合の理由を返します。
	Validate(raw []byte) (bool, string)
}

// groupsUsecase はグループとアイテムのCRUD操作を実装します。
type groupsUsecase struct {
	groups    GroupRepository
	validator PriceHistoryValidator
}

// NewGroupsUsecase はgroupsUsecaseの新しいインスタンスを生成します。
func NewGroupsUsecase(groups GroupRepository, validator PriceHistoryValidator) *groupsUsecase {
	return &groupsUsecase{groups: groups, validator: validator}
}

// CreateGroup は新しいグループを作成します。
func (u *groupsUsecase) CreateGroup(ctx context.Context, userID uint, title string) (*entity.Group, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}
	group := &entity.Group{UserID: userID, GroupName: title}
	if err := u.groups.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// RenameGroup はグループの名前を変更します。
func (u *groupsUsecase) RenameGroup(ctx context.Context, userID, groupID uint, title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	renamed, err := u.groups.RenameGroup(ctx, userID, groupID, title)
	if err != nil {
		return err
	}
	if !renamed {
		return ErrGroupNotFound
	}
	return nil
}

// DeleteGroup はグループを削除します。
func (u *groupsUsecase) DeleteGroup(ctx context.Context, userID, groupID uint) error {
	deleted, err := u.groups.DeleteGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrGroupNotFound
	}
	return nil
}

// ListGroups は全グループを返します。
func (u *groupsUsecase) ListGroups(ctx context.Context) ([]entity.Group, error) {
	return u.groups.ListGroups(ctx)
}

// GetGroup はIDでグループを取得します。
func (u *groupsUsecase) GetGroup(ctx context.Context, groupID uint) (*entity.Group, error) {
	return u.groups.GetGroup(ctx, groupID)
}

// AddItem は価格履歴を検証してからアイテムをグループに追加します。
// 無効な価格履歴を持つアイテムは保存されず、後続の学習を汚染しません。
func (u *groupsUsecase) AddItem(ctx context.Context, userID, groupID uint, itemName string, priceHistory []byte) (*entity.Item, error) {
	if itemName == "" {
		return nil, fmt.Errorf("item name is required")
	}
	if valid, reason := u.validator.Validate(priceHistory); !valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPriceHistory, reason)
	}

	item := &entity.Item{GroupID: groupID, ItemName: itemName, PriceHistory: priceHistory}
	added, err := u.groups.AddItem(ctx, userID, item)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrGroupNotFound
	}
	return item, nil
}

// RemoveItem はグループからアイテムを削除します。
func (u *groupsUsecase) RemoveItem(ctx context.Context, userID, groupID uint, itemName string) error {
	if itemName == "" {
		return fmt.Errorf("item name is required")
	}
	removed, err := u.groups.RemoveItem(ctx, userID, groupID, itemName)
	if err != nil {
		return err
	}
	if !removed {
		return ErrItemNotFound
	}
	return nil
}

// ListItems はグループのアイテムを返します。
func (u *groupsUsecase) ListItems(ctx context.Context, userID, groupID uint) ([]entity.Item, error) {
	return u.groups.ListItems(ctx, userID, groupID)
}
