package metrics

import (
	"context"
	"slices"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/interfaces"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/agrilens/agrilens/pkg/utils/errutil"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Query is one windowed aggregation request
type Query struct {
	RecordType types.RecordType
	Filter     model.Filter
	WindowDays int
	Fields     []string
}

// Records holds the rows of one window. Only the slice matching the record
// type is populated.
type Records struct {
	Farming []*model.FarmingCondition
	Market  []*model.MarketCondition
	Weather []*model.WeatherObservation
}

// Window computes per-field means of structured records over a trailing
// number of days.
type Window struct {
	repo      interfaces.RecordRepository
	estimator Estimator
	cache     SummaryCache
	cacheTTL  time.Duration
	clock     func() time.Time
}

type Option func(*Window)

// WithEstimator replaces the derived metric estimator. Nil disables derived
// metrics.
func WithEstimator(e Estimator) Option {
	return func(w *Window) {
		w.estimator = e
	}
}

// WithCache memoizes summaries for ttl
func WithCache(cache SummaryCache, ttl time.Duration) Option {
	return func(w *Window) {
		w.cache = cache
		w.cacheTTL = ttl
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Window) {
		w.clock = clock
	}
}

func New(repo interfaces.RecordRepository, opts ...Option) *Window {
	w := &Window{
		repo:      repo,
		estimator: &DefaultEstimator{},
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Aggregate summarizes records of recordType matching filter over the last
// windowDays days. Requested fields with no contributing rows are present
// with a nil value. An invalid record type yields an empty summary; a
// missing filter value, a non-positive window or an unknown field name yield
// nil values.
func (w *Window) Aggregate(ctx context.Context, recordType types.RecordType, filter model.Filter, windowDays int, fields ...string) (*model.Summary, error) {
	summary := model.NewSummary()
	if !recordType.IsValid() {
		return summary, nil
	}

	names := w.fieldNames(recordType, fields)
	key := filter.Key(recordType)
	if key == "" || windowDays <= 0 {
		for _, name := range names {
			summary.Metrics[model.MetricName(recordType, name)] = nil
		}
		w.absentDerived(summary, recordType, fields)
		return summary, nil
	}

	now := w.clock()
	cacheKey := summaryCacheKey(recordType, key, windowDays, fields, now)
	if w.cache != nil {
		cached, ok, err := w.cache.Get(ctx, cacheKey)
		if err != nil {
			errutil.Warn(ctx, err, "metrics cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	records, err := w.load(ctx, recordType, key, model.StartOfWindow(now, windowDays))
	if err != nil {
		return nil, model.WrapStorage(err, "failed to load records",
			goerr.V(model.RecordTypeKey, recordType),
			goerr.V("filter", key),
			goerr.V("window_days", windowDays))
	}

	for _, name := range names {
		summary.Metrics[model.MetricName(recordType, name)] = mean(records, recordType, name)
	}

	if w.estimator != nil {
		derived := w.estimator.Estimate(recordType, records)
		summary.Merge(selectDerived(derived, recordType, fields))
	}

	logging.From(ctx).Debug("metrics aggregated",
		"record_type", recordType,
		"filter", key,
		"window_days", windowDays,
		"rows", records.Len())

	if w.cache != nil {
		if err := w.cache.Set(ctx, cacheKey, summary, w.cacheTTL); err != nil {
			errutil.Warn(ctx, err, "metrics cache write failed")
		}
	}

	return summary, nil
}

// Compose runs every query and merges the summaries. Names are qualified by
// record type so queries of different types never collide.
func (w *Window) Compose(ctx context.Context, queries ...Query) (*model.Summary, error) {
	summary := model.NewSummary()
	for _, q := range queries {
		s, err := w.Aggregate(ctx, q.RecordType, q.Filter, q.WindowDays, q.Fields...)
		if err != nil {
			return nil, err
		}
		summary.Merge(s)
	}
	return summary, nil
}

func (w *Window) fieldNames(rt types.RecordType, fields []string) []string {
	if len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			if w.isDerived(rt, f) {
				continue
			}
			names = append(names, f)
		}
		return names
	}
	return model.FieldsOf(rt)
}

func (w *Window) isDerived(rt types.RecordType, field string) bool {
	if w.estimator == nil {
		return false
	}
	name := model.MetricName(rt, field)
	return slices.Contains(w.estimator.Names(rt), name)
}

// absentDerived records derived metrics as absent when the query cannot be
// resolved
func (w *Window) absentDerived(summary *model.Summary, rt types.RecordType, fields []string) {
	if w.estimator == nil {
		return
	}
	derived := w.estimator.Estimate(rt, &Records{})
	summary.Merge(selectDerived(derived, rt, fields))
}

func selectDerived(derived *model.Summary, rt types.RecordType, fields []string) *model.Summary {
	if derived == nil || len(fields) == 0 {
		return derived
	}

	wanted := make(map[string]bool, len(fields))
	for _, f := range fields {
		wanted[model.MetricName(rt, f)] = true
	}

	selected := model.NewSummary()
	for k, v := range derived.Metrics {
		if wanted[k] {
			selected.Metrics[k] = v
		}
	}
	for k, v := range derived.Labels {
		if wanted[k] {
			selected.Labels[k] = v
		}
	}
	return selected
}

func (w *Window) load(ctx context.Context, rt types.RecordType, key string, since time.Time) (*Records, error) {
	var (
		records Records
		err     error
	)
	switch rt {
	case types.RecordTypeFarming:
		records.Farming, err = w.repo.ListFarmingConditions(ctx, key, since)
	case types.RecordTypeMarket:
		records.Market, err = w.repo.ListMarketConditions(ctx, key, since)
	case types.RecordTypeWeather:
		records.Weather, err = w.repo.ListWeatherObservations(ctx, key, since)
	}
	if err != nil {
		return nil, err
	}
	return &records, nil
}

// Len returns the number of rows in the window
func (r *Records) Len() int {
	return len(r.Farming) + len(r.Market) + len(r.Weather)
}

type fielder interface {
	Field(name string) (*float64, bool)
}

func mean(records *Records, rt types.RecordType, field string) *float64 {
	var rows []fielder
	switch rt {
	case types.RecordTypeFarming:
		for _, r := range records.Farming {
			rows = append(rows, r)
		}
	case types.RecordTypeMarket:
		for _, r := range records.Market {
			rows = append(rows, r)
		}
	case types.RecordTypeWeather:
		for _, r := range records.Weather {
			rows = append(rows, r)
		}
	}
	return meanOf(rows, field)
}

func meanOf(rows []fielder, field string) *float64 {
	var (
		sum   float64
		count int
	)
	for _, row := range rows {
		v, ok := row.Field(field)
		if !ok {
			return nil
		}
		if v == nil {
			continue
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}
