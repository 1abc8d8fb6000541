package usecase

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"market_backend/internal/feature/prediction/domain/entity"
)

// Fingerprint derives the 16-hex-character content address of a normalized
// dataset. The hash covers the owner, the item, a timestamp salt and the
// serialized feature and price columns, so identical inputs always produce
// the identical fingerprint while a fresh salt makes every retraining yield
// a new artifact set. The fingerprint names the artifact triad; it is never
// used for deduplication.
func Fingerprint(userID, itemID uint, salt string, rows []entity.FeatureRow) string {
	h := sha256.New()
	h.Write([]byte(fmt.Sprint(userID)))
	h.Write([]byte(fmt.Sprint(itemID)))
	h.Write([]byte(salt))

	// Feature columns plus price, column-major in FeatureCols order,
	// little-endian float64 bytes.
	buf := make([]byte, 8)
	writeColumn := func(value func(entity.FeatureRow) float64) {
		for _, r := range rows {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(value(r)))
			h.Write(buf)
		}
	}
	writeColumn(func(r entity.FeatureRow) float64 { return float64(r.TimeNumeric) })
	writeColumn(func(r entity.FeatureRow) float64 { return r.Volume })
	writeColumn(func(r entity.FeatureRow) float64 { return float64(r.DayOfWeek) })
	writeColumn(func(r entity.FeatureRow) float64 { return float64(r.Month) })
	writeColumn(func(r entity.FeatureRow) float64 { return float64(r.Year) })
	writeColumn(func(r entity.FeatureRow) float64 { return float64(r.Day) })
	writeColumn(func(r entity.FeatureRow) float64 { return float64(r.IsWeekend) })
	writeColumn(func(r entity.FeatureRow) float64 { return r.PriceRollingMean7 })
	writeColumn(func(r entity.FeatureRow) float64 { return r.PriceDiff })
	writeColumn(func(r entity.FeatureRow) float64 { return r.VolumeRollingMean7 })
	writeColumn(func(r entity.FeatureRow) float64 { return r.Price })

	return hex.EncodeToString(h.Sum(nil))[:16]
}
