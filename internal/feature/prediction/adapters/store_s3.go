package adapters

import (
	"context"
	"errors"
	"fmt"

	"market_backend/internal/feature/prediction/domain/entity"
	"market_backend/internal/feature/prediction/usecase"
	"market_backend/internal/platform/objstore"
)

// s3Store はArtifactStoreのオブジェクトストレージ実装です。
// グラフの取得には署名付きURLを発行します。
type s3Store struct {
	client *objstore.Client
}

var _ usecase.ArtifactStore = (*s3Store)(nil)

// NewS3Store は指定されたクライアントでs3Storeの新しいインスタンスを生成します。
func NewS3Store(client *objstore.Client) *s3Store {
	return &s3Store{client: client}
}

// Save はアーティファクト一式をアップロードし、グラフの署名付きURLを返します。
func (s *s3Store) Save(ctx context.Context, dataHash string, blobs entity.ArtifactBlobs) (string, error) {
	uploads := []struct {
		key         string
		data        []byte
		contentType string
	}{
		{modelKey(dataHash), blobs.Model, "application/octet-stream"},
		{scalerKey(dataHash), blobs.Scaler, "application/octet-stream"},
		{statsKey(dataHash), blobs.FeatureMeans, "application/json"},
		{graphKey(dataHash), blobs.Graph, "image/png"},
	}
	for _, up := range uploads {
		if err := s.client.Put(ctx, up.key, up.data, up.contentType); err != nil {
			return "", err
		}
	}
	return s.client.PresignGet(ctx, graphKey(dataHash))
}

// Load はアーティファクト三点セットをダウンロードします。
func (s *s3Store) Load(ctx context.Context, dataHash string) (entity.ArtifactBlobs, error) {
	model, err := s.get(ctx, modelKey(dataHash))
	if err != nil {
		return entity.ArtifactBlobs{}, err
	}
	scaler, err := s.get(ctx, scalerKey(dataHash))
	if err != nil {
		return entity.ArtifactBlobs{}, err
	}
	stats, err := s.get(ctx, statsKey(dataHash))
	if err != nil {
		return entity.ArtifactBlobs{}, err
	}
	return entity.ArtifactBlobs{Model: model, Scaler: scaler, FeatureMeans: stats}, nil
}

func (s *s3Store) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, usecase.ErrArtifactNotFound
		}
		return nil, err
	}
	return data, nil
}

// SavePredictionGraph は予測グラフをアップロードし、署名付きURLを返します。
func (s *s3Store) SavePredictionGraph(ctx context.Context, dataHash string, graph []byte) (string, error) {
	key := predictionGraphKey(dataHash)
	if err := s.client.Put(ctx, key, graph, "image/png"); err != nil {
		return "", err
	}
	return s.client.PresignGet(ctx, key)
}

// Delete はフィンガープリントに紐づく全オブジェクトを削除します。
func (s *s3Store) Delete(ctx context.Context, dataHash string) error {
	keys := []string{modelKey(dataHash), scalerKey(dataHash), statsKey(dataHash),
		graphKey(dataHash), predictionGraphKey(dataHash)}
	for _, key := range keys {
		if err := s.client.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete artifact set %s: %w", dataHash, err)
		}
	}
	return nil
}

// URLs は各アーティファクトの署名付きURLを返します。
func (s *s3Store) URLs(ctx context.Context, dataHash string) (entity.ArtifactURLs, error) {
	var urls entity.ArtifactURLs
	var err error
	if urls.Model, err = s.client.PresignGet(ctx, modelKey(dataHash)); err != nil {
		return entity.ArtifactURLs{}, err
	}
	if urls.Scaler, err = s.client.PresignGet(ctx, scalerKey(dataHash)); err != nil {
		return entity.ArtifactURLs{}, err
	}
	if urls.Stats, err = s.client.PresignGet(ctx, statsKey(dataHash)); err != nil {
		return entity.ArtifactURLs{}, err
	}
	if urls.Graph, err = s.client.PresignGet(ctx, graphKey(dataHash)); err != nil {
		return entity.ArtifactURLs{}, err
	}
	return urls, nil
}
