package metrics

import (
	"time"

	"github.com/agrilens/agrilens/pkg/domain/types"
)

func SummaryCacheKey(rt types.RecordType, filter string, windowDays int, fields []string, now time.Time) string {
	return summaryCacheKey(rt, filter, windowDays, fields, now)
}
