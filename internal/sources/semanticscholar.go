package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lidianycs/cerca/internal/reference"
)

const (
	// SemanticScholarBaseURL is the academic graph API base URL.
	SemanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

	// semanticScholarAuthorFloor is the author-similarity floor.
	semanticScholarAuthorFloor = 40

	// semanticScholarMaxRetries bounds retries on a rate-limit response.
	semanticScholarMaxRetries = 2

	// semanticScholarBackoffBase is the first rate-limit wait; it doubles
	// on each subsequent retry.
	semanticScholarBackoffBase = 3 * time.Second

	semanticScholarFields = "title,authors,externalIds,url"
)

// SemanticScholar is the key-gated academic-graph source. It requires a
// configured API key and is skipped with a logged error without one. On a
// rate-limit response it retries with exponential backoff; a rejected key
// aborts immediately.
type SemanticScholar struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	log         zerolog.Logger
}

// SemanticScholarOption configures a SemanticScholar source.
type SemanticScholarOption func(*SemanticScholar)

// WithSemanticScholarBaseURL sets a custom base URL (for testing).
func WithSemanticScholarBaseURL(u string) SemanticScholarOption {
	return func(s *SemanticScholar) { s.baseURL = u }
}

// WithSemanticScholarHTTPClient sets a custom HTTP client.
func WithSemanticScholarHTTPClient(hc *http.Client) SemanticScholarOption {
	return func(s *SemanticScholar) { s.httpClient = hc }
}

// WithSemanticScholarBackoff sets the base rate-limit wait (for testing).
func WithSemanticScholarBackoff(d time.Duration) SemanticScholarOption {
	return func(s *SemanticScholar) { s.backoffBase = d }
}

// WithSemanticScholarSleep replaces the backoff sleeper (for testing).
func WithSemanticScholarSleep(fn func(ctx context.Context, d time.Duration) error) SemanticScholarOption {
	return func(s *SemanticScholar) { s.sleep = fn }
}

// NewSemanticScholar creates the Semantic Scholar source.
func NewSemanticScholar(apiKey string, log zerolog.Logger, opts ...SemanticScholarOption) *SemanticScholar {
	s := &SemanticScholar{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		baseURL:     SemanticScholarBaseURL,
		apiKey:      apiKey,
		backoffBase: semanticScholarBackoffBase,
		sleep:       sleepCtx,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source name.
func (s *SemanticScholar) Name() string { return "semanticscholar" }

type semanticScholarPaper struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
}

// Verify runs a title search with bounded rate-limit retries and scores
// the top paper. Without a configured key the source is skipped.
func (s *SemanticScholar) Verify(ctx context.Context, rec *reference.Record) (bool, error) {
	if s.apiKey == "" {
		s.log.Error().Int("record", rec.ID).
			Msg("semantic scholar API key not configured, skipping source")
		return false, nil
	}

	term, _ := queryTerm(rec)
	if len(term) < minQueryLen {
		return false, nil
	}
	clean := cleanQuery(term)

	wait := s.backoffBase
	for attempt := 0; ; attempt++ {
		paper, retryable, err := s.search(ctx, clean, rec.ID)
		if err == nil {
			if paper == nil {
				s.log.Info().Int("record", rec.ID).Msg("no results returned from semantic scholar")
				return false, nil
			}
			return apply(s.log, s.Name(), rec, paperCandidate(paper), semanticScholarAuthorFloor), nil
		}
		if !retryable || attempt >= semanticScholarMaxRetries {
			return false, err
		}

		s.log.Warn().Int("record", rec.ID).Dur("wait", wait).
			Msg("semantic scholar rate limit hit, backing off")
		if serr := s.sleep(ctx, wait); serr != nil {
			return false, serr
		}
		wait *= 2
	}
}

// search performs one attempt. The second return reports whether the
// failure is worth retrying (only rate limiting is).
func (s *SemanticScholar) search(ctx context.Context, query string, recordID int) (*semanticScholarPaper, bool, error) {
	u := s.baseURL + "/paper/search?query=" + url.QueryEscape(query) +
		"&limit=1&fields=" + semanticScholarFields
	s.log.Debug().Int("record", recordID).Str("query", query).Msg("semantic scholar search")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(s.Name(), resp); err != nil {
		if IsAuthError(err) {
			// A rejected key will not improve on retry.
			s.log.Error().Int("record", recordID).
				Msg("semantic scholar rejected the API key, check configuration")
			return nil, false, err
		}
		return nil, IsRateLimited(err), err
	}

	var body struct {
		Data []semanticScholarPaper `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(body.Data) == 0 {
		return nil, false, nil
	}
	return &body.Data[0], false, nil
}

func paperCandidate(p *semanticScholarPaper) candidate {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	id := p.ExternalIDs.DOI
	if id == "" && p.ExternalIDs.ArXiv != "" {
		id = "arXiv:" + p.ExternalIDs.ArXiv
	}
	if id == "" {
		id = p.URL
	}

	return candidate{
		Title:      p.Title,
		Authors:    strings.Join(names, "; "),
		Identifier: id,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
