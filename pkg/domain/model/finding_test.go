package model_test

import (
	"testing"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestNewTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		crop     string
		location string
		want     model.Topic
	}{
		{name: "crop and location", crop: "potato", location: "Haryana", want: "potato_Haryana"},
		{name: "trimmed", crop: " wheat ", location: "Punjab ", want: "wheat_Punjab"},
		{name: "empty crop", crop: "", location: "Haryana", want: ""},
		{name: "blank location", crop: "potato", location: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := model.NewTopic(tt.crop, tt.location)
			gt.Value(t, got).Equal(tt.want)
			gt.Value(t, got.IsZero()).Equal(tt.want == "")
		})
	}
}

func TestDedupKey(t *testing.T) {
	t.Parallel()

	base := &model.Finding{Topic: "potato_Haryana", Source: "https://a.example", Content: "drip irrigation"}

	t.Run("title and time do not affect key", func(t *testing.T) {
		other := base.Copy()
		other.Title = "different"
		other.CollectedAt = time.Now()
		gt.Value(t, other.DedupKey()).Equal(base.DedupKey())
	})

	t.Run("each component participates", func(t *testing.T) {
		variants := []*model.Finding{
			{Topic: "potato_Punjab", Source: base.Source, Content: base.Content},
			{Topic: base.Topic, Source: "https://b.example", Content: base.Content},
			{Topic: base.Topic, Source: base.Source, Content: "mulching"},
		}
		for _, v := range variants {
			gt.Value(t, v.DedupKey()).NotEqual(base.DedupKey())
		}
	})

	t.Run("separator prevents ambiguity", func(t *testing.T) {
		a := model.DedupKey("ab", "c", "d")
		b := model.DedupKey("a", "bc", "d")
		gt.Value(t, a).NotEqual(b)
	})

	t.Run("id is deterministic", func(t *testing.T) {
		id1 := model.NewFindingID(base.Topic, base.Source, base.Content)
		id2 := model.NewFindingID(base.Topic, base.Source, base.Content)
		gt.Value(t, id1).Equal(id2)
		gt.Value(t, model.NewFindingID(base.Topic, base.Source, "other")).NotEqual(id1)
	})
}

func TestSummaryMerge(t *testing.T) {
	t.Parallel()

	season := "Summer"
	s := model.NewSummary()
	s.Merge(&model.Summary{Metrics: model.Metrics{"farming.crop_yield": model.Float(3.5)}})
	s.Merge(&model.Summary{
		Metrics: model.Metrics{"weather.temperature": nil},
		Labels:  map[string]*string{model.MetricTrendingSeason: &season},
	})
	s.Merge(nil)

	gt.Map(t, s.Metrics).HasKey("farming.crop_yield")
	gt.Map(t, s.Metrics).HasKey("weather.temperature")
	gt.Value(t, s.Metrics["weather.temperature"]).Nil()
	gt.Value(t, *s.Metrics["farming.crop_yield"]).Equal(3.5)
	gt.Value(t, *s.Labels[model.MetricTrendingSeason]).Equal("Summer")
	gt.Value(t, s.Metrics.Names()).Equal([]string{"farming.crop_yield", "weather.temperature"})
}

func TestFilterKey(t *testing.T) {
	t.Parallel()

	f := model.Filter{CropType: "potato", Product: "onion", Location: "Haryana"}
	gt.Value(t, f.Key(types.RecordTypeFarming)).Equal("potato")
	gt.Value(t, f.Key(types.RecordTypeMarket)).Equal("onion")
	gt.Value(t, f.Key(types.RecordTypeWeather)).Equal("Haryana")
	gt.Value(t, f.Key(types.RecordType("soil"))).Equal("")
}

func TestStartOfWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 17, 45, 0, 0, time.FixedZone("IST", 5*3600+1800))
	got := model.StartOfWindow(now, 7)
	gt.Value(t, got).Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
}

func TestRecordField(t *testing.T) {
	t.Parallel()

	r := &model.FarmingCondition{CropYield: model.Float(4)}
	for _, name := range model.FarmingFields {
		_, ok := r.Field(name)
		gt.Bool(t, ok).True()
	}
	v, ok := r.Field("crop_yield")
	gt.Bool(t, ok).True()
	gt.Value(t, *v).Equal(4.0)

	_, ok = r.Field("market_price")
	gt.Bool(t, ok).False()

	m := &model.MarketCondition{}
	for _, name := range model.MarketFields {
		_, ok := m.Field(name)
		gt.Bool(t, ok).True()
	}
	w := &model.WeatherObservation{}
	for _, name := range model.WeatherFields {
		_, ok := w.Field(name)
		gt.Bool(t, ok).True()
	}
}
