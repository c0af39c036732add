package types_test

import (
	"testing"

	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestRecordType_IsValid(t *testing.T) {
	for _, rt := range types.AllRecordTypes() {
		gt.B(t, rt.IsValid()).True()
	}
	gt.B(t, types.RecordType("").IsValid()).False()
	gt.B(t, types.RecordType("soil").IsValid()).False()
}

func TestParseRecordType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.RecordType
		wantErr bool
	}{
		{name: "farming", input: "farming", want: types.RecordTypeFarming},
		{name: "market", input: "market", want: types.RecordTypeMarket},
		{name: "weather", input: "weather", want: types.RecordTypeWeather},
		{name: "upper case is rejected", input: "MARKET", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseRecordType(tt.input)
			if tt.wantErr {
				gt.Value(t, err).NotNil()
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestParseSourceType(t *testing.T) {
	t.Run("empty defaults to html", func(t *testing.T) {
		got, err := types.ParseSourceType("")
		gt.NoError(t, err).Required()
		gt.Value(t, got).Equal(types.SourceTypeHTML)
	})

	t.Run("rss", func(t *testing.T) {
		got, err := types.ParseSourceType("rss")
		gt.NoError(t, err).Required()
		gt.Value(t, got).Equal(types.SourceTypeRSS)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := types.ParseSourceType("pdf")
		gt.Value(t, err).NotNil()
	})
}
