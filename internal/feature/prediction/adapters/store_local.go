package adapters

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"market_backend/internal/feature/prediction/domain/entity"
	"market_backend/internal/feature/prediction/usecase"
)

// localStore はArtifactStoreのファイルシステム実装です。
// アーティファクトはベースディレクトリ配下の固定サブディレクトリに保存されます。
type localStore struct {
	baseDir string
}

var _ usecase.ArtifactStore = (*localStore)(nil)

// NewLocalStore は指定されたベースディレクトリでlocalStoreの新しいインスタンスを生成します。
func NewLocalStore(baseDir string) *localStore {
	return &localStore{baseDir: baseDir}
}

func (s *localStore) path(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func (s *localStore) write(key string, data []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	return nil
}

func (s *localStore) read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, usecase.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", key, err)
	}
	return data, nil
}

// Save はアーティファクト一式をファイルシステムへ書き込みます。
// 途中で失敗した場合、保存全体が失敗として扱われます。
func (s *localStore) Save(ctx context.Context, dataHash string, blobs entity.ArtifactBlobs) (string, error) {
	if err := s.write(modelKey(dataHash), blobs.Model); err != nil {
		return "", err
	}
	if err := s.write(scalerKey(dataHash), blobs.Scaler); err != nil {
		return "", err
	}
	if err := s.write(statsKey(dataHash), blobs.FeatureMeans); err != nil {
		return "", err
	}
	if err := s.write(graphKey(dataHash), blobs.Graph); err != nil {
		return "", err
	}
	return s.path(graphKey(dataHash)), nil
}

// Load はアーティファクト三点セットを読み込みます。
func (s *localStore) Load(ctx context.Context, dataHash string) (entity.ArtifactBlobs, error) {
	model, err := s.read(modelKey(dataHash))
	if err != nil {
		return entity.ArtifactBlobs{}, err
	}
	scaler, err := s.read(scalerKey(dataHash))
	if err != nil {
		return entity.ArtifactBlobs{}, err
	}
	stats, err := s.read(statsKey(dataHash))
	if err != nil {
		return entity.ArtifactBlobs{}, err
	}
	return entity.ArtifactBlobs{Model: model, Scaler: scaler, FeatureMeans: stats}, nil
}

// SavePredictionGraph は予測グラフを書き込み、そのパスを返します。
func (s *localStore) SavePredictionGraph(ctx context.Context, dataHash string, graph []byte) (string, error) {
	key := predictionGraphKey(dataHash)
	if err := s.write(key, graph); err != nil {
		return "", err
	}
	return s.path(key), nil
}

// Delete はフィンガープリントに紐づく全アーティファクトを削除します。
func (s *localStore) Delete(ctx context.Context, dataHash string) error {
	keys := []string{modelKey(dataHash), scalerKey(dataHash), statsKey(dataHash),
		graphKey(dataHash), predictionGraphKey(dataHash)}
	for _, key := range keys {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete artifact %s: %w", key, err)
		}
	}
	return nil
}

// URLs は保存済みアーティファクトのファイルパスを返します。
func (s *localStore) URLs(ctx context.Context, dataHash string) (entity.ArtifactURLs, error) {
	if _, err := os.Stat(s.path(modelKey(dataHash))); err != nil {
		return entity.ArtifactURLs{}, usecase.ErrArtifactNotFound
	}
	return entity.ArtifactURLs{
		Model:  s.path(modelKey(dataHash)),
		Scaler: s.path(scalerKey(dataHash)),
		Stats:  s.path(statsKey(dataHash)),
		Graph:  s.path(graphKey(dataHash)),
	}, nil
}
