package usecase

import (
	"time"

	"market_backend/internal/feature/prediction/domain/entity"
)

// BuildPredictionRows synthesizes one feature row per calendar day in
// [start, end]. Calendar features are computed directly for each synthetic
// date; volume and the rolling/diff features have no real future history,
// so the persisted training-time means are broadcast uniformly across all
// rows. This assumes feature stationarity over the prediction horizon and
// is a deliberate approximation, not a gap to fix.
func BuildPredictionRows(start, end time.Time, means entity.FeatureMeans) []entity.FeatureRow {
	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)

	var rows []entity.FeatureRow
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		dow := (int(t.Weekday()) + 6) % 7
		row := entity.FeatureRow{
			Time:               t,
			TimeNumeric:        t.Unix(),
			Volume:             means.Volume,
			DayOfWeek:          dow,
			Month:              int(t.Month()),
			Year:               t.Year(),
			Day:                t.Day(),
			PriceRollingMean7:  means.PriceRollingMean7,
			PriceDiff:          means.PriceDiff,
			VolumeRollingMean7: means.VolumeRollingMean7,
		}
		if dow == 5 || dow == 6 {
			row.IsWeekend = 1
		}
		rows = append(rows, row)
	}
	return rows
}
