package api

// PredictRequest is the payload for POST /groups/:id/predict.
// StartTime and EndTime are ISO 8601 dates (e.g. "2024-01-21").
type PredictRequest struct {
	ItemID    uint   `json:"item_id" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// MetricsResponse carries the held-out evaluation metrics of a training run.
type MetricsResponse struct {
	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`
}

// TrainedModelResponse describes one trained item inside a group training response.
type TrainedModelResponse struct {
	ItemID   uint            `json:"item_id"`
	ItemName string          `json:"item_name"`
	DataHash string          `json:"data_hash"`
	Metrics  MetricsResponse `json:"metrics"`
	Graph    string          `json:"graph"` // base64-encoded PNG
	GraphURL string          `json:"graph_url,omitempty"`
}

// TrainGroupResponse is returned when a group with more than one item is trained.
type TrainGroupResponse struct {
	Success       bool                   `json:"success"`
	TrainedModels []TrainedModelResponse `json:"trained_models"`
}

// GraphResponse is returned by single-item training and by prediction.
type GraphResponse struct {
	Graph    string `json:"graph"` // base64-encoded PNG
	GraphURL string `json:"graph_url,omitempty"`
}

// ValidateResponse is the result of a standalone price-history validation.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// ItemModelResponse lists the artifact locations of one trained item.
type ItemModelResponse struct {
	ItemID    uint   `json:"item_id"`
	ItemName  string `json:"item_name"`
	ModelURL  string `json:"model_url"`
	ScalerURL string `json:"scaler_url"`
	StatsURL  string `json:"stats_url"`
	GraphURL  string `json:"graph_url"`
}

// GroupModelsResponse lists all trained models of a group.
type GroupModelsResponse struct {
	GroupID   uint                `json:"group_id"`
	GroupName string              `json:"group_name"`
	Items     []ItemModelResponse `json:"items"`
}
