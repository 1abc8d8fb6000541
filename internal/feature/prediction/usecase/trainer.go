package usecase

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"market_backend/internal/feature/prediction/domain/entity"
)

// TrainingOutput is the result of one training run: the fitted pipeline,
// the full normalized table (for feature-mean extraction) and the held-out
// evaluation metrics.
type TrainingOutput struct {
	Forest  *RandomForest
	Scaler  *StandardScaler
	Rows    []entity.FeatureRow
	Metrics entity.Metrics
}

// TrainAndEvaluate fits the scaler and the forest on the normalized table
// and evaluates on a deterministic 70/30 held-out split. Any failure is
// fatal for this item's training attempt; nothing is retried here.
func TrainAndEvaluate(rows []entity.FeatureRow) (*TrainingOutput, error) {
	testSize := int(math.Round(float64(len(rows)) * testSplitFraction))
	if testSize < 1 || len(rows)-testSize < 1 {
		return nil, fmt.Errorf("too few data points for a train/test split: %d rows", len(rows))
	}

	x := FeatureMatrix(rows)
	y := Targets(rows)

	scaler := &StandardScaler{}
	scaled := scaler.FitTransform(x)

	// Deterministic shuffle: the fixed seed makes the split reproducible.
	perm := rand.New(rand.NewSource(trainTestSeed)).Perm(len(rows))
	trainIdx, testIdx := perm[:len(rows)-testSize], perm[len(rows)-testSize:]

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = scaled[idx]
		trainY[i] = y[idx]
	}
	testX := make([][]float64, len(testIdx))
	testY := make([]float64, len(testIdx))
	for i, idx := range testIdx {
		testX[i] = scaled[idx]
		testY[i] = y[idx]
	}

	forest := NewRandomForest()
	forest.Fit(trainX, trainY)

	pred := forest.PredictBatch(testX)
	metrics, err := evaluate(testY, pred)
	if err != nil {
		return nil, err
	}

	return &TrainingOutput{Forest: forest, Scaler: scaler, Rows: rows, Metrics: metrics}, nil
}

// evaluate computes mean-squared-error and R² of predictions against the
// held-out targets.
func evaluate(actual, predicted []float64) (entity.Metrics, error) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return entity.Metrics{}, fmt.Errorf("evaluation set mismatch: %d actual vs %d predicted", len(actual), len(predicted))
	}

	sqErr := make([]float64, len(actual))
	for i := range actual {
		d := actual[i] - predicted[i]
		sqErr[i] = d * d
	}
	mse := stat.Mean(sqErr, nil)

	mean := stat.Mean(actual, nil)
	ssTot := 0.0
	for _, v := range actual {
		ssTot += (v - mean) * (v - mean)
	}
	r2 := 1.0
	if ssTot > 0 {
		r2 = 1 - stat.Mean(sqErr, nil)*float64(len(actual))/ssTot
	} else if mse > 0 {
		// Constant targets with a non-zero error: R² is undefined,
		// report the worst score instead of dividing by zero.
		r2 = math.Inf(-1)
	}

	return entity.Metrics{MSE: mse, R2: r2}, nil
}
