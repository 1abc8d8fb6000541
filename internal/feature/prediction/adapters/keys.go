// Package adapters はpredictionフィーチャーのリポジトリ・ストレージ実装を提供します。
package adapters

import "fmt"

// Artifact key layout, shared by the local and object-store backends.
// Every artifact of one training run is addressed by its dataset fingerprint.
func modelKey(dataHash string) string {
	return fmt.Sprintf("models/model_%s.gob", dataHash)
}

func scalerKey(dataHash string) string {
	return fmt.Sprintf("scalers/scaler_%s.gob", dataHash)
}

func statsKey(dataHash string) string {
	return fmt.Sprintf("features/feature_means_%s.json", dataHash)
}

func graphKey(dataHash string) string {
	return fmt.Sprintf("graphs/training_graph_%s.png", dataHash)
}

func predictionGraphKey(dataHash string) string {
	return fmt.Sprintf("predictions/prediction_graph_%s.png", dataHash)
}
