package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lidianycs/cerca/internal/reference"
)

const (
	// ZenodoBaseURL is the Zenodo records API base URL.
	ZenodoBaseURL = "https://zenodo.org"

	// zenodoAuthorFloor is the author-similarity floor for Zenodo.
	zenodoAuthorFloor = 40

	// zenodoTrigger gates the adapter: Zenodo hosts deposits rather than
	// journal articles, so it is only worth querying when the citation
	// itself mentions the repository.
	zenodoTrigger = "zenodo"
)

// Zenodo is the repository/preprint search source. No authentication,
// single attempt, and only eligible for records whose raw text names the
// repository.
type Zenodo struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// ZenodoOption configures a Zenodo source.
type ZenodoOption func(*Zenodo)

// WithZenodoBaseURL sets a custom base URL (for testing).
func WithZenodoBaseURL(u string) ZenodoOption {
	return func(z *Zenodo) { z.baseURL = u }
}

// WithZenodoHTTPClient sets a custom HTTP client.
func WithZenodoHTTPClient(hc *http.Client) ZenodoOption {
	return func(z *Zenodo) { z.httpClient = hc }
}

// NewZenodo creates the Zenodo source.
func NewZenodo(log zerolog.Logger, opts ...ZenodoOption) *Zenodo {
	z := &Zenodo{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    ZenodoBaseURL,
		log:        log,
	}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

// Name returns the source name.
func (z *Zenodo) Name() string { return "zenodo" }

// Eligible reports whether the record's raw text mentions the repository.
func (z *Zenodo) Eligible(rec *reference.Record) bool {
	return strings.Contains(strings.ToLower(rec.RawText), zenodoTrigger)
}

// Verify runs a best-match title search against the deposit repository and
// scores the top hit.
func (z *Zenodo) Verify(ctx context.Context, rec *reference.Record) (bool, error) {
	term, _ := queryTerm(rec)
	if len(term) < minQueryLen {
		return false, nil
	}

	clean := cleanQuery(term)
	u := z.baseURL + "/api/records?q=metadata.title:(" + url.QueryEscape(clean) + ")&sort=bestmatch&size=1"
	z.log.Debug().Int("record", rec.ID).Str("query", clean).Msg("zenodo search")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(z.Name(), resp); err != nil {
		return false, err
	}

	var body struct {
		Hits struct {
			Hits []struct {
				Metadata struct {
					Title    string `json:"title"`
					DOI      string `json:"doi"`
					Creators []struct {
						Name string `json:"name"`
					} `json:"creators"`
				} `json:"metadata"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(body.Hits.Hits) == 0 {
		z.log.Info().Int("record", rec.ID).Msg("no results returned from zenodo")
		return false, nil
	}

	meta := body.Hits.Hits[0].Metadata
	names := make([]string, 0, len(meta.Creators))
	for _, c := range meta.Creators {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}

	cand := candidate{
		Title:      meta.Title,
		Authors:    strings.Join(names, "; "),
		Identifier: meta.DOI,
	}
	return apply(z.log, z.Name(), rec, cand, zenodoAuthorFloor), nil
}
