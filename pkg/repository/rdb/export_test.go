package rdb

import "time"

// ScanTime runs the column scanner used for DATE, TIMESTAMP and TEXT values
func ScanTime(src any) (time.Time, error) {
	var t dbTime
	err := t.Scan(src)
	return t.Time, err
}
