package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// findingNamespace scopes FindingID generation so IDs never collide with other UUIDv5 users
var findingNamespace = uuid.MustParse("6f1c3a52-8a0e-4b8e-9d7e-3c2f6b1e9a40")

// Topic is the cache key for a set of findings, "{crop}_{location}"
type Topic string

// NewTopic builds a Topic from crop and location. Either value being blank
// produces the empty Topic, which never matches any finding.
func NewTopic(crop, location string) Topic {
	crop = strings.TrimSpace(crop)
	location = strings.TrimSpace(location)
	if crop == "" || location == "" {
		return ""
	}
	return Topic(crop + "_" + location)
}

func (t Topic) String() string {
	return string(t)
}

// IsZero reports whether the topic is unresolvable
func (t Topic) IsZero() bool {
	return t == ""
}

// FindingID identifies a stored finding. It is derived from the dedup key so
// that every backend and every duplicate insert agree on it.
type FindingID string

// Finding is one deduplicated unit of external research content
type Finding struct {
	ID          FindingID `json:"id"`
	Topic       Topic     `json:"topic"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CollectedAt time.Time `json:"collected_at"`
}

// DedupKey returns the uniqueness key over (topic, source, content)
func (f *Finding) DedupKey() string {
	return DedupKey(f.Topic, f.Source, f.Content)
}

// DedupKey returns the hex sha256 of the finding uniqueness triple
func DedupKey(topic Topic, source, content string) string {
	h := sha256.New()
	h.Write([]byte(topic))
	h.Write([]byte{0})
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// NewFindingID returns the deterministic ID for a finding triple
func NewFindingID(topic Topic, source, content string) FindingID {
	key := DedupKey(topic, source, content)
	return FindingID(uuid.NewSHA1(findingNamespace, []byte(key)).String())
}

// Copy returns a shallow copy; all fields are values
func (f *Finding) Copy() *Finding {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
