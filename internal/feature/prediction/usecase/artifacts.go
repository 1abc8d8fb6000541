package usecase

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"market_backend/internal/feature/prediction/domain/entity"
)

// The artifact triad travels through an opaque blob store, so every piece is
// serialized to a self-contained byte string: gob for the fitted pipeline
// and scaler, JSON for the feature-mean snapshot.

// EncodeArtifacts serializes the fitted pipeline into the artifact triad.
func EncodeArtifacts(out *TrainingOutput, means entity.FeatureMeans, graph []byte) (entity.ArtifactBlobs, error) {
	model, err := gobEncode(out.Forest)
	if err != nil {
		return entity.ArtifactBlobs{}, fmt.Errorf("failed to encode model: %w", err)
	}
	scaler, err := gobEncode(out.Scaler)
	if err != nil {
		return entity.ArtifactBlobs{}, fmt.Errorf("failed to encode scaler: %w", err)
	}
	stats, err := json.Marshal(means)
	if err != nil {
		return entity.ArtifactBlobs{}, fmt.Errorf("failed to encode feature means: %w", err)
	}
	return entity.ArtifactBlobs{Model: model, Scaler: scaler, FeatureMeans: stats, Graph: graph}, nil
}

// DecodeArtifacts reconstructs the fitted pipeline from a loaded triad.
func DecodeArtifacts(blobs entity.ArtifactBlobs) (*RandomForest, *StandardScaler, entity.FeatureMeans, error) {
	forest := &RandomForest{}
	if err := gobDecode(blobs.Model, forest); err != nil {
		return nil, nil, entity.FeatureMeans{}, fmt.Errorf("failed to decode model: %w", err)
	}
	scaler := &StandardScaler{}
	if err := gobDecode(blobs.Scaler, scaler); err != nil {
		return nil, nil, entity.FeatureMeans{}, fmt.Errorf("failed to decode scaler: %w", err)
	}
	var means entity.FeatureMeans
	if err := json.Unmarshal(blobs.FeatureMeans, &means); err != nil {
		return nil, nil, entity.FeatureMeans{}, fmt.Errorf("failed to decode feature means: %w", err)
	}
	return forest, scaler, means, nil
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
