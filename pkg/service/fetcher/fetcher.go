package fetcher

import (
	"context"
	"fmt"
	"io"
	"iter"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/agrilens/agrilens/pkg/utils/errutil"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/agrilens/agrilens/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultUserAgent    = "SustainableFarmingAI/1.0 (Research Agent for Academic Purposes)"
	DefaultAccept       = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	DefaultContentLimit = 2000

	// maxBodySize caps how much of a response is read
	maxBodySize = 10 << 20
)

// DelayRange is the politeness wait before each source request
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDelay waits 2 to 5 seconds between sources
var DefaultDelay = DelayRange{Min: 2 * time.Second, Max: 5 * time.Second}

// Pick returns a uniformly random duration in [Min, Max). Min is returned
// when the range is empty.
func (d DelayRange) Pick() time.Duration {
	if d.Max <= d.Min {
		return max(d.Min, 0)
	}
	return d.Min + time.Duration(rand.Int64N(int64(d.Max-d.Min)))
}

// Extractor turns a fetched body into snippets
type Extractor interface {
	Extract(ctx context.Context, src *model.Source, body io.Reader) ([]model.Snippet, error)
}

// Fetcher retrieves raw documents from a list of sources, one source at a
// time unless parallelism is configured.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	accept       string
	delay        DelayRange
	parallelism  int
	contentLimit int
	extractors   map[types.SourceType]Extractor
	sleep        func(ctx context.Context, d time.Duration) error
}

type Option func(*Fetcher)

func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

func WithDelay(d DelayRange) Option {
	return func(f *Fetcher) {
		f.delay = d
	}
}

// WithParallelism sets the global cap on in-flight requests. Values below 2
// keep the sequential behavior.
func WithParallelism(n int) Option {
	return func(f *Fetcher) {
		f.parallelism = n
	}
}

// WithContentLimit sets the rune limit applied to snippet bodies
func WithContentLimit(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.contentLimit = n
		}
	}
}

// WithExtractor registers or replaces the extractor for a source type
func WithExtractor(t types.SourceType, e Extractor) Option {
	return func(f *Fetcher) {
		f.extractors[t] = e
	}
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       &http.Client{Timeout: 30 * time.Second},
		userAgent:    DefaultUserAgent,
		accept:       DefaultAccept,
		delay:        DefaultDelay,
		parallelism:  1,
		contentLimit: DefaultContentLimit,
		sleep:        sleepContext,
	}
	f.extractors = map[types.SourceType]Extractor{
		types.SourceTypeHTML: &htmlExtractor{},
		types.SourceTypeRSS:  &rssExtractor{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fetch returns a lazy sequence of documents, one per enabled source that
// was fetched and parsed successfully, in list order. Failed sources are
// logged and skipped. The sequence can be consumed once; ranging over it
// again yields nothing. Cancelling ctx ends the sequence.
func (f *Fetcher) Fetch(ctx context.Context, sources []*model.Source) iter.Seq[*model.RawDocument] {
	var consumed atomic.Bool

	return func(yield func(*model.RawDocument) bool) {
		if consumed.Swap(true) {
			return
		}
		if f.parallelism > 1 {
			f.fetchParallel(ctx, sources, yield)
			return
		}
		f.fetchSequential(ctx, sources, yield)
	}
}

func (f *Fetcher) fetchSequential(ctx context.Context, sources []*model.Source, yield func(*model.RawDocument) bool) {
	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}
		if src == nil || !src.Enabled {
			continue
		}

		doc, ok := f.visit(ctx, src)
		if ctx.Err() != nil {
			return
		}
		if !ok {
			continue
		}
		if !yield(doc) {
			return
		}
	}
}

func (f *Fetcher) fetchParallel(ctx context.Context, sources []*model.Source, yield func(*model.RawDocument) bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type slot struct {
		doc   *model.RawDocument
		ready chan struct{}
	}
	slots := make([]*slot, len(sources))
	for i := range slots {
		slots[i] = &slot{ready: make(chan struct{})}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(f.parallelism)

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, src := range sources {
			s := slots[i]
			if src == nil || !src.Enabled || egCtx.Err() != nil {
				close(s.ready)
				continue
			}
			eg.Go(func() error {
				defer close(s.ready)
				if doc, ok := f.visit(egCtx, src); ok {
					s.doc = doc
				}
				return nil
			})
		}
	}()
	defer func() {
		cancel()
		<-dispatched
		_ = eg.Wait()
	}()

	for _, s := range slots {
		select {
		case <-ctx.Done():
			return
		case <-s.ready:
		}
		if ctx.Err() != nil {
			return
		}
		if s.doc == nil {
			continue
		}
		if !yield(s.doc) {
			return
		}
	}
}

// visit waits the politeness delay and fetches one source. A false result
// means the source produced nothing; the reason is already logged.
func (f *Fetcher) visit(ctx context.Context, src *model.Source) (*model.RawDocument, bool) {
	if err := f.sleep(ctx, f.delay.Pick()); err != nil {
		return nil, false
	}

	doc, err := f.fetchOne(ctx, src)
	if err != nil {
		if ctx.Err() == nil {
			errutil.Warn(ctx, err, "source fetch failed")
		}
		return nil, false
	}

	logging.From(ctx).Debug("source fetched",
		"source", src.Name,
		"url", doc.URL,
		"snippets", len(doc.Snippets))
	return doc, true
}

func (f *Fetcher) fetchOne(ctx context.Context, src *model.Source) (*model.RawDocument, error) {
	extractor, ok := f.extractors[src.Type.Normalize()]
	if !ok {
		return nil, goerr.New("no extractor for source type",
			goerr.V("source", src.Name), goerr.V("type", src.Type))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", src.URL))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", f.accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to request source", goerr.V("url", src.URL))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.New(fmt.Sprintf("unexpected status %d", resp.StatusCode),
			goerr.V("url", src.URL), goerr.V("status", resp.StatusCode))
	}

	snippets, err := extractor.Extract(ctx, src, io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract snippets", goerr.V("url", src.URL))
	}

	for i := range snippets {
		snippets[i].Title = Normalize(snippets[i].Title, f.contentLimit)
		snippets[i].Body = Normalize(snippets[i].Body, f.contentLimit)
		if snippets[i].Title == "" {
			snippets[i].Title = model.DefaultSnippetTitle
		}
	}

	return &model.RawDocument{
		Source:   src,
		URL:      src.URL,
		Snippets: snippets,
	}, nil
}
