package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"market_backend/internal/feature/prediction/domain/entity"
)

// FeatureCols is the fixed feature column order used for the design matrix
// and for fingerprinting. Changing the order changes every fingerprint.
var FeatureCols = []string{
	"time_numeric", "volume", "day_of_week", "month", "year", "day",
	"is_weekend", "price_rolling_mean_7", "price_diff", "volume_rolling_mean_7",
}

// rollingWindow is the sample count of the rolling mean features.
const rollingWindow = 7

// timestampLayouts are tried in order when parsing tick timestamps. The
// market feed emits "Jan 02 2024 01: +0"; the offset marker and trailing
// colon are stripped before parsing.
var timestampLayouts = []string{
	"Jan 02 2006 15",
	"Jan 02 2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ValidatePriceHistory checks the raw {"prices": [...]} envelope and returns
// a specific reason when the shape is invalid. It is cheap and must run
// before any training job is queued so malformed input never costs a slot.
func ValidatePriceHistory(raw []byte) (bool, string) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, "Price history must be a JSON object"
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return false, "Price history must be a JSON object"
	}
	prices, ok := obj["prices"].([]any)
	if !ok || len(prices) == 0 {
		return false, "Missing or invalid 'prices' list"
	}
	for _, raw := range prices {
		entry, ok := raw.([]any)
		if !ok || len(entry) != 3 {
			return false, "Each price entry must be a list of [date, price, quantity]"
		}
		if _, ok := entry[0].(string); !ok {
			return false, "Date must be a string"
		}
		if !coercibleToFloat(entry[1]) {
			return false, "Price must be a number"
		}
		switch q := entry[2].(type) {
		case string:
		case float64:
			// JSON numbers decode as float64; only integral values pass.
			if q != math.Trunc(q) {
				return false, "Quantity must be a string or integer"
			}
		default:
			return false, "Quantity must be a string or integer"
		}
	}
	return true, ""
}

// coercibleToFloat reports whether v is a number or a numeric string.
func coercibleToFloat(v any) bool {
	switch x := v.(type) {
	case float64:
		return true
	case string:
		_, err := strconv.ParseFloat(x, 64)
		return err == nil
	default:
		return false
	}
}

// rawTick is one decoded [date, price, quantity] triple.
type rawTick struct {
	timestamp string
	price     float64
	volume    float64
}

// decodeTicks parses the raw envelope into ticks. Prices must parse (the
// envelope is expected to be validated first); non-numeric quantities
// coerce to zero instead of failing.
func decodeTicks(raw []byte) ([]rawTick, error) {
	var envelope struct {
		Prices [][]any `json:"prices"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode price history: %w", err)
	}
	if len(envelope.Prices) == 0 {
		return nil, fmt.Errorf("price history contains no entries")
	}

	ticks := make([]rawTick, 0, len(envelope.Prices))
	for i, entry := range envelope.Prices {
		if len(entry) != 3 {
			return nil, fmt.Errorf("price entry %d has %d elements, want 3", i, len(entry))
		}
		ts, ok := entry[0].(string)
		if !ok {
			return nil, fmt.Errorf("price entry %d: date is not a string", i)
		}
		price, err := toFloat(entry[1])
		if err != nil {
			return nil, fmt.Errorf("price entry %d: %w", i, err)
		}
		volume, err := toFloat(entry[2])
		if err != nil {
			volume = 0 // non-numeric quantities coerce to zero
		}
		ticks = append(ticks, rawTick{timestamp: ts, price: price, volume: volume})
	}
	return ticks, nil
}

// toFloat converts a decoded JSON value to float64.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

// parseTimestamp parses a tick timestamp after stripping the upstream
// artifacts: a trailing " +0" offset marker and a trailing colon.
func parseTimestamp(raw string) (time.Time, error) {
	cleaned := strings.TrimSuffix(raw, " +0")
	cleaned = strings.TrimSuffix(cleaned, ":")
	cleaned = strings.TrimSpace(cleaned)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// NormalizePrices converts the raw price envelope into the feature table.
// Rows are sorted ascending by time before the rolling and difference
// features are derived, so those features are causally correct. A single
// unparseable timestamp fails the whole batch: silently dropping a row
// would desynchronize the ordering.
func NormalizePrices(raw []byte) ([]entity.FeatureRow, error) {
	ticks, err := decodeTicks(raw)
	if err != nil {
		return nil, err
	}

	rows := make([]entity.FeatureRow, 0, len(ticks))
	for _, tick := range ticks {
		t, err := parseTimestamp(tick.timestamp)
		if err != nil {
			return nil, err
		}
		rows = append(rows, entity.FeatureRow{
			Time:        t,
			TimeNumeric: t.Unix(),
			Volume:      tick.volume,
			Price:       tick.price,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })

	for i := range rows {
		t := rows[i].Time
		// Monday=0 .. Sunday=6
		dow := (int(t.Weekday()) + 6) % 7
		rows[i].DayOfWeek = dow
		rows[i].Month = int(t.Month())
		rows[i].Year = t.Year()
		rows[i].Day = t.Day()
		if dow == 5 || dow == 6 {
			rows[i].IsWeekend = 1
		}
		rows[i].PriceRollingMean7 = trailingMean(rows, i, func(r entity.FeatureRow) float64 { return r.Price })
		rows[i].VolumeRollingMean7 = trailingMean(rows, i, func(r entity.FeatureRow) float64 { return r.Volume })
		if i > 0 {
			rows[i].PriceDiff = rows[i].Price - rows[i-1].Price
		}
	}
	return rows, nil
}

// trailingMean averages the selected value over up to rollingWindow samples
// ending at row i. Only current and past rows contribute.
func trailingMean(rows []entity.FeatureRow, i int, value func(entity.FeatureRow) float64) float64 {
	start := i - rollingWindow + 1
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for j := start; j <= i; j++ {
		sum += value(rows[j])
	}
	return sum / float64(i-start+1)
}

// featureVector lays out one row in FeatureCols order.
func featureVector(r entity.FeatureRow) []float64 {
	return []float64{
		float64(r.TimeNumeric), r.Volume, float64(r.DayOfWeek), float64(r.Month),
		float64(r.Year), float64(r.Day), float64(r.IsWeekend),
		r.PriceRollingMean7, r.PriceDiff, r.VolumeRollingMean7,
	}
}

// FeatureMatrix builds the design matrix in FeatureCols order.
func FeatureMatrix(rows []entity.FeatureRow) [][]float64 {
	x := make([][]float64, len(rows))
	for i, r := range rows {
		x[i] = featureVector(r)
	}
	return x
}

// Targets extracts the price target column.
func Targets(rows []entity.FeatureRow) []float64 {
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.Price
	}
	return y
}

// ComputeFeatureMeans snapshots the training-time averages of the features
// that cannot be derived from the calendar for future dates.
func ComputeFeatureMeans(rows []entity.FeatureRow) entity.FeatureMeans {
	volume := make([]float64, len(rows))
	priceRolling := make([]float64, len(rows))
	priceDiff := make([]float64, len(rows))
	volumeRolling := make([]float64, len(rows))
	for i, r := range rows {
		volume[i] = r.Volume
		priceRolling[i] = r.PriceRollingMean7
		priceDiff[i] = r.PriceDiff
		volumeRolling[i] = r.VolumeRollingMean7
	}
	return entity.FeatureMeans{
		Volume:             stat.Mean(volume, nil),
		PriceRollingMean7:  stat.Mean(priceRolling, nil),
		PriceDiff:          stat.Mean(priceDiff, nil),
		VolumeRollingMean7: stat.Mean(volumeRolling, nil),
	}
}
