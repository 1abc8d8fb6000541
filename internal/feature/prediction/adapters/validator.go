package adapters

import "market_backend/internal/feature/prediction/usecase"

// Validator はgroupsフィーチャーへ価格履歴検証を提供するアダプターです。
type Validator struct{}

// NewValidator はValidatorの新しいインスタンスを生成します。
func NewValidator() Validator { return Validator{} }

// Validate は価格履歴が有効かどうかと、無効な場合の理由を返します。
func (Validator) Validate(raw []byte) (bool, string) {
	return usecase.ValidatePriceHistory(raw)
}
