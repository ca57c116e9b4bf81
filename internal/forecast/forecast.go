package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/alecacerestel/AppASO/internal/schema"
)

// Point is one observed (date, installs) pair for a platform.
type Point struct {
	Date     time.Time
	Installs float64
	Platform schema.Platform
}

// Prediction is one forecast day for a platform.
type Prediction struct {
	Date     time.Time
	Installs int64
	Platform schema.Platform
}

// Config tunes the forecaster.
type Config struct {
	// TrainingMonths bounds the history used for fitting (default 4).
	TrainingMonths int `yaml:"training_months" mapstructure:"training_months"`
}

// Forecaster fits one ordinary-least-squares line of installs on
// date per platform and projects it over the next calendar month.
type Forecaster struct {
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// New creates a Forecaster. now is injectable for tests; pass nil for
// the wall clock.
func New(cfg Config, now func() time.Time, logger *zap.Logger) *Forecaster {
	if cfg.TrainingMonths <= 0 {
		cfg.TrainingMonths = 4
	}
	if now == nil {
		now = time.Now
	}
	return &Forecaster{cfg: cfg, now: now, logger: logger}
}

// Run trains on the recent window of points and returns one prediction
// per day of the next calendar month per platform, sorted by
// (date, platform). Rows with missing installs must be filtered out by
// the caller; gaps are not imputed here either.
func (f *Forecaster) Run(points []Point) ([]Prediction, error) {
	training := f.trainingWindow(points)
	if len(training) == 0 {
		return nil, fmt.Errorf("no install history inside the training window")
	}

	byPlatform := make(map[schema.Platform][]Point)
	for _, p := range training {
		byPlatform[p.Platform] = append(byPlatform[p.Platform], p)
	}

	start, end := nextMonth(f.now())
	var out []Prediction
	for _, platform := range schema.Platforms() {
		history := byPlatform[platform]
		if len(history) < 2 {
			f.logger.Warn("not enough history to fit platform",
				zap.String("platform", string(platform)),
				zap.Int("points", len(history)))
			continue
		}

		xs := make([]float64, len(history))
		ys := make([]float64, len(history))
		for i, p := range history {
			xs[i] = dayOrdinal(p.Date)
			ys[i] = p.Installs
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)

		estimates := make([]float64, len(xs))
		for i, x := range xs {
			estimates[i] = alpha + beta*x
		}
		f.logger.Info("platform model fitted",
			zap.String("platform", string(platform)),
			zap.Int("points", len(history)),
			zap.Float64("r_squared", stat.RSquaredFrom(estimates, ys, nil)))

		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			predicted := alpha + beta*dayOrdinal(day)
			out = append(out, Prediction{
				Date:     day,
				Installs: int64(math.Max(0, math.Round(predicted))),
				Platform: platform,
			})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no platform had enough history to fit")
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Platform < out[j].Platform
	})
	return out, nil
}

func (f *Forecaster) trainingWindow(points []Point) []Point {
	cutoff := f.now().AddDate(0, 0, -f.cfg.TrainingMonths*30)
	var kept []Point
	for _, p := range points {
		if !p.Date.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	return kept
}

// nextMonth returns the first and last day of the calendar month after
// the reference time.
func nextMonth(ref time.Time) (time.Time, time.Time) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	end := start.AddDate(0, 1, -1)
	return start, end
}

func dayOrdinal(t time.Time) float64 {
	return float64(t.Unix()) / 86400.0
}

// Records serializes predictions as a Date/Installs/Platform table,
// dates in the canonical DD/MM/YYYY form.
func Records(predictions []Prediction) [][]string {
	records := [][]string{{schema.ColDate, schema.ColInstalls, schema.ColPlatform}}
	for _, p := range predictions {
		records = append(records, []string{
			schema.FormatDate(p.Date),
			fmt.Sprintf("%d", p.Installs),
			string(p.Platform),
		})
	}
	return records
}
