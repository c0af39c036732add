package types

import "fmt"

// SourceType represents how a research source is fetched and parsed
type SourceType string

const (
	SourceTypeHTML SourceType = "html"
	SourceTypeRSS  SourceType = "rss"
)

// IsValid checks if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeHTML,
		SourceTypeRSS:
		return true
	default:
		return false
	}
}

// Normalize returns the type, treating empty as SourceTypeHTML
func (s SourceType) Normalize() SourceType {
	if s == "" {
		return SourceTypeHTML
	}
	return s
}

func (s SourceType) String() string {
	return string(s)
}

// ParseSourceType parses a string into a SourceType
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(s).Normalize()
	if !st.IsValid() {
		return "", fmt.Errorf("invalid source type: %s", s)
	}
	return st, nil
}
