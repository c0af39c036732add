package rdb

import (
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// TimestampLayout is the fixed width text form of a timestamp. Fixed width
// keeps lexical and chronological order identical for TEXT columns.
const TimestampLayout = "2006-01-02 15:04:05.000000000"

var parseLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	model.DateLayout,
}

// FormatTimestamp renders t in TimestampLayout as UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// dbTime scans DATE, TIMESTAMP and TEXT columns into a UTC time.Time
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return goerr.New("unsupported time value", goerr.V("value", src))
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return goerr.New("malformed time value", goerr.V("value", s))
}

func dateArg(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}
