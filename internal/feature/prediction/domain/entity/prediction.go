// Package entity defines the domain models for the prediction feature.
package entity

import "time"

// FeatureRow is one normalized observation of an item's market price.
// Rows are always kept sorted ascending by Time so that the rolling and
// difference features only depend on current and past observations.
type FeatureRow struct {
	Time               time.Time // Parsed tick timestamp
	TimeNumeric        int64     // Epoch seconds of Time
	Volume             float64   // Units sold at this tick (0 when missing)
	Price              float64   // Median sale price at this tick
	DayOfWeek          int       // 0=Monday .. 6=Sunday
	Month              int       // 1..12
	Year               int
	Day                int       // Day of month
	IsWeekend          int       // 1 on Saturday/Sunday, else 0
	PriceRollingMean7  float64   // Mean price over up to 7 trailing samples
	PriceDiff          float64   // First difference of price (0 for the first row)
	VolumeRollingMean7 float64   // Mean volume over up to 7 trailing samples
}

// Metrics holds the held-out evaluation results of a training run.
type Metrics struct {
	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`
}

// FeatureMeans is the persisted snapshot of training-time feature averages.
// Future dates have no real volume or rolling history, so these means are
// broadcast across synthetic prediction rows as a stand-in.
type FeatureMeans struct {
	Volume             float64 `json:"volume"`
	PriceRollingMean7  float64 `json:"price_rolling_mean_7"`
	PriceDiff          float64 `json:"price_diff"`
	VolumeRollingMean7 float64 `json:"volume_rolling_mean_7"`
}

// ArtifactBlobs is the serialized artifact triad plus the training chart,
// all addressed by one dataset fingerprint. The set is written and deleted
// as a unit; a partially persisted set is never a valid resting state.
type ArtifactBlobs struct {
	Model        []byte
	Scaler       []byte
	FeatureMeans []byte
	Graph        []byte
}

// ArtifactURLs points at the persisted artifacts of one fingerprint,
// either filesystem paths or presigned object-store URLs.
type ArtifactURLs struct {
	Model  string
	Scaler string
	Stats  string
	Graph  string
}

// ModelIndex maps a (user, group, item) to the fingerprint of its most
// recently trained artifact set.
type ModelIndex struct {
	ID        uint
	UserID    uint
	GroupID   uint
	ItemID    uint
	DataHash  string
	CreatedAt time.Time
}

// TrainableGroup is the group view the prediction feature needs: ownership
// and the has_model guard that makes training exclusive per group.
type TrainableGroup struct {
	ID        uint
	UserID    uint
	GroupName string
	HasModel  bool
}

// TrainableItem is one item of a group together with its raw price history.
type TrainableItem struct {
	ID           uint
	ItemName     string
	PriceHistory []byte // raw {"prices": [...]} envelope
}

// TrainedItem is the outcome of training one item.
type TrainedItem struct {
	ItemID   uint
	ItemName string
	DataHash string
	Metrics  Metrics
	Graph    []byte
	GraphURL string
}

// PredictionPoint is one predicted price at a future date.
type PredictionPoint struct {
	Time  time.Time
	Price float64
}

// PredictionResult is the outcome of predicting an item's future prices.
type PredictionResult struct {
	Points   []PredictionPoint
	Graph    []byte
	GraphURL string
}

// ItemModels describes the artifact locations of one trained item.
type ItemModels struct {
	ItemID   uint
	ItemName string
	URLs     ArtifactURLs
}

// GroupModels lists the trained models of a group.
type GroupModels struct {
	GroupID   uint
	GroupName string
	Items     []ItemModels
}
