package types

import "fmt"

// RecordType identifies a family of structured records that can be windowed
type RecordType string

const (
	RecordTypeFarming RecordType = "farming"
	RecordTypeMarket  RecordType = "market"
	RecordTypeWeather RecordType = "weather"
)

// AllRecordTypes returns all valid record types
func AllRecordTypes() []RecordType {
	return []RecordType{
		RecordTypeFarming,
		RecordTypeMarket,
		RecordTypeWeather,
	}
}

// IsValid checks if the record type is valid
func (r RecordType) IsValid() bool {
	switch r {
	case RecordTypeFarming,
		RecordTypeMarket,
		RecordTypeWeather:
		return true
	default:
		return false
	}
}

// String returns the string representation of the record type
func (r RecordType) String() string {
	return string(r)
}

// ParseRecordType parses a string into a RecordType
func ParseRecordType(s string) (RecordType, error) {
	rt := RecordType(s)
	if !rt.IsValid() {
		return "", fmt.Errorf("invalid record type: %s", s)
	}
	return rt, nil
}
