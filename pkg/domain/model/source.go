package model

import (
	"net/url"
	"strings"

	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidSource is returned when a source definition cannot be used
var ErrInvalidSource = goerr.New("invalid source")

// Selectors are CSS selectors used by the html extractor
type Selectors struct {
	Item  string `json:"item" toml:"item" yaml:"item"`
	Title string `json:"title" toml:"title" yaml:"title"`
	Body  string `json:"body" toml:"body" yaml:"body"`
}

// Default CSS selectors for extension-site practice pages
const (
	DefaultItemSelector  = "article.sustainable-practice"
	DefaultTitleSelector = "h2"
	DefaultBodySelector  = "div.content"
	DefaultSnippetTitle  = "Untitled"
)

// WithDefaults fills empty selectors
func (s Selectors) WithDefaults() Selectors {
	if s.Item == "" {
		s.Item = DefaultItemSelector
	}
	if s.Title == "" {
		s.Title = DefaultTitleSelector
	}
	if s.Body == "" {
		s.Body = DefaultBodySelector
	}
	return s
}

// Source is one external location the fetcher reads research content from.
// URL may contain {crop} and {location} placeholders.
type Source struct {
	Name      string           `json:"name" toml:"name" yaml:"name"`
	Type      types.SourceType `json:"type" toml:"type" yaml:"type"`
	URL       string           `json:"url" toml:"url" yaml:"url"`
	Enabled   bool             `json:"enabled" toml:"enabled" yaml:"enabled"`
	Selectors Selectors        `json:"selectors" toml:"selectors" yaml:"selectors"`
}

// Validate checks the source definition
func (s *Source) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return goerr.Wrap(ErrInvalidSource, "url is required", goerr.V("name", s.Name))
	}
	if !s.Type.Normalize().IsValid() {
		return goerr.Wrap(ErrInvalidSource, "unsupported source type",
			goerr.V("name", s.Name), goerr.V("type", s.Type))
	}
	u, err := url.Parse(s.ExpandURL("x", "x"))
	if err != nil {
		return goerr.Wrap(ErrInvalidSource, "malformed url", goerr.V("name", s.Name), goerr.V("url", s.URL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return goerr.Wrap(ErrInvalidSource, "url scheme must be http or https",
			goerr.V("name", s.Name), goerr.V("url", s.URL))
	}
	return nil
}

// ExpandURL substitutes the {crop} and {location} placeholders
func (s *Source) ExpandURL(crop, location string) string {
	r := strings.NewReplacer(
		"{crop}", url.QueryEscape(crop),
		"{location}", url.QueryEscape(location),
	)
	return r.Replace(s.URL)
}

// Bind returns a copy of s with placeholders expanded
func (s *Source) Bind(crop, location string) *Source {
	c := *s
	c.URL = s.ExpandURL(crop, location)
	c.Type = s.Type.Normalize()
	return &c
}

// DefaultSources are the agricultural extension sites consulted when no
// source list is configured
func DefaultSources() []*Source {
	return []*Source{
		{Name: "umn-extension", Type: types.SourceTypeHTML, URL: "https://extension.umn.edu/sustainable-agriculture", Enabled: true},
		{Name: "ucdavis-extension", Type: types.SourceTypeHTML, URL: "https://extension.ucdavis.edu/areas-study/sustainable-agriculture", Enabled: true},
		{Name: "psu-extension", Type: types.SourceTypeHTML, URL: "https://extension.psu.edu/sustainable-agriculture", Enabled: true},
	}
}

// Snippet is one extracted piece of text from a fetched document
type Snippet struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// RawDocument is the fetcher output for one source
type RawDocument struct {
	Source   *Source   `json:"source"`
	URL      string    `json:"url"`
	Snippets []Snippet `json:"snippets"`
}
