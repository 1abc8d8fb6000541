package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"market_backend/internal/feature/prediction/domain/entity"
)

// GroupStore は学習対象のグループとアイテムへの読み取りアクセスを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type GroupStore interface {
	// GetGroup はグループを取得します。存在しない場合、ErrGroupNotFoundを返します。
	GetGroup(ctx context.Context, groupID uint) (*entity.TrainableGroup, error)
	// ListItems はユーザーが所有するグループのアイテムと価格履歴を返します。
	ListItems(ctx context.Context, userID, groupID uint) ([]entity.TrainableItem, error)
}

// ModelIndexRepository はモデルインデックスの永続化層を抽象化します。
// Saveはアーティファクトの保存が完全に成功した後にのみ呼び出されます。
type ModelIndexRepository interface {
	// Save はインデックスを保存し、グループのhas_modelフラグを立てます。
	Save(ctx context.Context, index *entity.ModelIndex) error
	// GetLatest はユーザー・アイテムの最新のインデックスを返します。
	// 存在しない場合、ErrModelNotFoundを返します。
	GetLatest(ctx context.Context, userID, itemID uint) (*entity.ModelIndex, error)
	// DeleteByGroup はグループの全インデックスを削除し、has_modelフラグを下ろします。
	// 削除された行があったかどうかを返します。
	DeleteByGroup(ctx context.Context, userID, groupID uint) (bool, error)
}

// ArtifactStore はモデル・スケーラー・特徴量平均・グラフの保存先を抽象化します。
// ローカルファイルシステムとオブジェクトストレージの2つの実装があり、
// 起動時の設定でどちらか一方が選択されます。
type ArtifactStore interface {
	// Save はアーティファクト一式を保存し、グラフの取得先URLを返します。
	// 一部の書き込みが失敗した場合、保存全体が失敗として扱われます。
	Save(ctx context.Context, dataHash string, blobs entity.ArtifactBlobs) (graphURL string, err error)
	// Load はアーティファクト三点セット（モデル・スケーラー・特徴量平均）を読み込みます。
	// 見つからない場合、ErrArtifactNotFoundを返します。
	Load(ctx context.Context, dataHash string) (entity.ArtifactBlobs, error)
	// SavePredictionGraph は予測グラフを保存し、取得先URLを返します。
	SavePredictionGraph(ctx context.Context, dataHash string, graph []byte) (string, error)
	// Delete はフィンガープリントに紐づく全アーティファクトを削除します。
	Delete(ctx context.Context, dataHash string) error
	// URLs は保存済みアーティファクトの取得先を返します。
	URLs(ctx context.Context, dataHash string) (entity.ArtifactURLs, error)
}

// ChartRenderer は時系列をPNGチャートへ描画するレンダラーを抽象化します。
type ChartRenderer interface {
	// RenderTraining は実測値と予測値の比較チャートを描画します。
	RenderTraining(subject string, times []time.Time, actual, predicted []float64) ([]byte, error)
	// RenderPrediction は予測値のみのチャートを描画します。
	RenderPrediction(subject string, times []time.Time, predicted []float64) ([]byte, error)
}

// modelUsecase は学習・予測・モデル管理のビジネスロジックを実装します。
type modelUsecase struct {
	groups GroupStore
	index  ModelIndexRepository
	store  ArtifactStore
	runner *JobRunner
	charts ChartRenderer
}

// NewModelUsecase はmodelUsecaseの新しいインスタンスを生成します。
// runnerはプロセス全体で共有される単一のJobRunnerです。
func NewModelUsecase(groups GroupStore, index ModelIndexRepository, store ArtifactStore,
	runner *JobRunner, charts ChartRenderer) *modelUsecase {
	return &modelUsecase{groups: groups, index: index, store: store, runner: runner, charts: charts}
}

// TrainGroup はグループ内の全アイテムのモデルを学習します。
// 既にモデルが存在するグループはErrModelsExistで拒否されます（暗黙の再学習はしない）。
func (u *modelUsecase) TrainGroup(ctx context.Context, userID uint, username string, groupID uint) ([]entity.TrainedItem, error) {
	group, err := u.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.UserID != userID {
		return nil, ErrGroupNotFound
	}
	if group.HasModel {
		return nil, ErrModelsExist
	}

	items, err := u.groups.ListItems(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrGroupNotFound
	}

	results := make([]entity.TrainedItem, 0, len(items))
	for _, item := range items {
		// 検証は安価なので、キューに投入する前に必ず実行する
		if valid, reason := ValidatePriceHistory(item.PriceHistory); !valid {
			return nil, fmt.Errorf("invalid price history for item %d: %s", item.ID, reason)
		}
		trained, err := u.trainItem(ctx, userID, username, groupID, item)
		if err != nil {
			return nil, fmt.Errorf("training failed for item %d (%s): %w", item.ID, item.ItemName, err)
		}
		results = append(results, *trained)
	}
	return results, nil
}

// trainItem は1アイテムの学習パイプライン全体を実行します:
// 正規化 → フィンガープリント → 学習（JobRunner経由） → グラフ描画 → 保存 → インデックス登録。
func (u *modelUsecase) trainItem(ctx context.Context, userID uint, username string, groupID uint, item entity.TrainableItem) (*entity.TrainedItem, error) {
	rows, err := NormalizePrices(item.PriceHistory)
	if err != nil {
		return nil, err
	}

	// ソルトに現在時刻を使うため、同一データの再学習でも必ず新しい
	// フィンガープリントが生成される
	salt := time.Now().UTC().Format("20060102_150405")
	dataHash := Fingerprint(userID, item.ID, salt, rows)

	output, err := u.runner.Submit(ctx, func() (*TrainingOutput, error) {
		return TrainAndEvaluate(rows)
	})
	if err != nil {
		return nil, err
	}

	means := ComputeFeatureMeans(output.Rows)

	// 学習グラフ: 正規化テーブル全体に対する実測値と予測値の比較
	scaled := output.Scaler.Transform(FeatureMatrix(output.Rows))
	predicted := output.Forest.PredictBatch(scaled)
	times := make([]time.Time, len(output.Rows))
	for i, r := range output.Rows {
		times[i] = r.Time
	}
	subject := fmt.Sprintf("Actual vs Predicted Price for user %s, item %s", username, item.ItemName)
	graph, err := u.charts.RenderTraining(subject, times, Targets(output.Rows), predicted)
	if err != nil {
		return nil, fmt.Errorf("failed to render training graph: %w", err)
	}

	blobs, err := EncodeArtifacts(output, means, graph)
	if err != nil {
		return nil, err
	}
	graphURL, err := u.store.Save(ctx, dataHash, blobs)
	if err != nil {
		return nil, fmt.Errorf("failed to persist model artifacts: %w", err)
	}

	// インデックスはアーティファクトの保存が完全に成功した後にのみ書き込む。
	// ここでクラッシュするとアーティファクトだけが残るが、インデックスが
	// 存在しないアーティファクトを指すことはない（逆方向の不整合は許容）。
	if err := u.index.Save(ctx, &entity.ModelIndex{
		UserID:   userID,
		GroupID:  groupID,
		ItemID:   item.ID,
		DataHash: dataHash,
	}); err != nil {
		return nil, fmt.Errorf("failed to save model index: %w", err)
	}

	slog.Info("model trained", "user_id", userID, "item_id", item.ID,
		"data_hash", dataHash, "mse", output.Metrics.MSE, "r2", output.Metrics.R2)

	return &entity.TrainedItem{
		ItemID:   item.ID,
		ItemName: item.ItemName,
		DataHash: dataHash,
		Metrics:  output.Metrics,
		Graph:    graph,
		GraphURL: graphURL,
	}, nil
}

// PredictItem は保存済みモデルで指定期間の価格を予測し、グラフを描画します。
func (u *modelUsecase) PredictItem(ctx context.Context, userID uint, username string, groupID, itemID uint, start, end time.Time) (*entity.PredictionResult, error) {
	group, err := u.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.UserID != userID {
		return nil, ErrGroupNotFound
	}

	items, err := u.groups.ListItems(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	var item *entity.TrainableItem
	for i := range items {
		if items[i].ID == itemID {
			item = &items[i]
			break
		}
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	index, err := u.index.GetLatest(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	blobs, err := u.store.Load(ctx, index.DataHash)
	if err != nil {
		return nil, err
	}
	forest, scaler, means, err := DecodeArtifacts(blobs)
	if err != nil {
		// 壊れたアーティファクトは「見つからない」と同じ扱い。詳細はログにのみ残す。
		slog.Error("failed to decode model artifacts", "data_hash", index.DataHash, "error", err)
		return nil, ErrArtifactNotFound
	}

	rows := BuildPredictionRows(start, end, means)
	predicted := forest.PredictBatch(scaler.Transform(FeatureMatrix(rows)))

	points := make([]entity.PredictionPoint, len(rows))
	times := make([]time.Time, len(rows))
	for i, r := range rows {
		points[i] = entity.PredictionPoint{Time: r.Time, Price: predicted[i]}
		times[i] = r.Time
	}

	subject := fmt.Sprintf("Predicted Price for user %s, item %s", username, item.ItemName)
	graph, err := u.charts.RenderPrediction(subject, times, predicted)
	if err != nil {
		return nil, fmt.Errorf("failed to render prediction graph: %w", err)
	}

	graphURL, err := u.store.SavePredictionGraph(ctx, index.DataHash, graph)
	if err != nil {
		return nil, fmt.Errorf("failed to persist prediction graph: %w", err)
	}

	return &entity.PredictionResult{Points: points, Graph: graph, GraphURL: graphURL}, nil
}

// GetGroupModels はグループ内の学習済みモデルのアーティファクト取得先を一覧します。
func (u *modelUsecase) GetGroupModels(ctx context.Context, userID, groupID uint) (*entity.GroupModels, error) {
	group, err := u.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.UserID != userID {
		return nil, ErrGroupNotFound
	}

	items, err := u.groups.ListItems(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	result := &entity.GroupModels{GroupID: groupID, GroupName: group.GroupName}
	for _, item := range items {
		index, err := u.index.GetLatest(ctx, userID, item.ID)
		if err != nil {
			continue // 未学習のアイテムはスキップ
		}
		urls, err := u.store.URLs(ctx, index.DataHash)
		if err != nil {
			slog.Warn("failed to resolve artifact URLs", "data_hash", index.DataHash, "error", err)
			continue
		}
		result.Items = append(result.Items, entity.ItemModels{
			ItemID:   item.ID,
			ItemName: item.ItemName,
			URLs:     urls,
		})
	}
	if len(result.Items) == 0 {
		return nil, ErrModelNotFound
	}
	return result, nil
}

// DeleteGroupModels はグループの全モデルを削除します。インデックス行と
// アーティファクト一式が1単位として削除されます。
func (u *modelUsecase) DeleteGroupModels(ctx context.Context, userID, groupID uint) error {
	items, err := u.groups.ListItems(ctx, userID, groupID)
	if err != nil {
		return err
	}

	// 削除前にインデックスからフィンガープリントを収集する
	var hashes []string
	for _, item := range items {
		if index, err := u.index.GetLatest(ctx, userID, item.ID); err == nil {
			hashes = append(hashes, index.DataHash)
		}
	}

	deleted, err := u.index.DeleteByGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrModelNotFound
	}

	// アーティファクトの削除はベストエフォート。失敗してもインデックスは
	// 既に消えているため、孤児アーティファクトが残るだけで機能は壊れない。
	for _, hash := range hashes {
		if err := u.store.Delete(ctx, hash); err != nil {
			slog.Warn("failed to delete model artifacts", "data_hash", hash, "error", err)
		}
	}
	return nil
}
