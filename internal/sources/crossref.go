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
	// CrossrefBaseURL is the Crossref REST API base URL.
	CrossrefBaseURL = "https://api.crossref.org"

	// crossrefAuthorFloor is the author-similarity floor for Crossref
	// scoring. Crossref free-text search is broad, so it keeps the
	// stricter floor.
	crossrefAuthorFloor = 50
)

// Crossref is the authoritative-identifier source: it tries an exact DOI
// lookup first and falls back to a bibliographic free-text search. No
// authentication; a politeness contact goes into the User-Agent header.
// Single attempt, no retries.
type Crossref struct {
	httpClient *http.Client
	baseURL    string
	contact    string
	log        zerolog.Logger
}

// CrossrefOption configures a Crossref source.
type CrossrefOption func(*Crossref)

// WithCrossrefBaseURL sets a custom base URL (for testing).
func WithCrossrefBaseURL(u string) CrossrefOption {
	return func(c *Crossref) { c.baseURL = u }
}

// WithCrossrefHTTPClient sets a custom HTTP client.
func WithCrossrefHTTPClient(hc *http.Client) CrossrefOption {
	return func(c *Crossref) { c.httpClient = hc }
}

// NewCrossref creates the Crossref source. contact is the polite-pool
// email advertised in the User-Agent; it may be empty.
func NewCrossref(contact string, log zerolog.Logger, opts ...CrossrefOption) *Crossref {
	c := &Crossref{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    CrossrefBaseURL,
		contact:    contact,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the source name.
func (c *Crossref) Name() string { return "crossref" }

type crossrefWork struct {
	Title  []string `json:"title"`
	DOI    string   `json:"DOI"`
	Author []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
}

type crossrefEnvelope struct {
	MessageType string          `json:"message-type"`
	Message     json.RawMessage `json:"message"`
}

// Verify tries an exact DOI lookup when the record carries a DOI-like
// identifier, then a bibliographic search, and scores the top result.
func (c *Crossref) Verify(ctx context.Context, rec *reference.Record) (bool, error) {
	var work *crossrefWork

	if doiLike(rec.DetectedDOI) {
		w, err := c.lookupDOI(ctx, rec.DetectedDOI)
		if err != nil {
			// A dead DOI is not fatal; the free-text search may still hit.
			c.log.Debug().Int("record", rec.ID).Str("doi", rec.DetectedDOI).
				Err(err).Msg("crossref DOI lookup failed, falling back to search")
		} else {
			work = w
		}
	}

	if work == nil {
		term, _ := queryTerm(rec)
		if len(term) < minQueryLen {
			return false, nil
		}
		c.log.Debug().Int("record", rec.ID).Str("query", term).Msg("crossref bibliographic search")

		w, err := c.search(ctx, term)
		if err != nil {
			return false, err
		}
		if w == nil {
			c.log.Info().Int("record", rec.ID).Msg("no results returned from crossref")
			return false, nil
		}
		work = w
	}

	cand := candidate{
		Title:      firstOrEmpty(work.Title),
		Authors:    joinCrossrefAuthors(work),
		Identifier: work.DOI,
	}
	return apply(c.log, c.Name(), rec, cand, crossrefAuthorFloor), nil
}

// lookupDOI fetches a single work by its DOI.
func (c *Crossref) lookupDOI(ctx context.Context, doi string) (*crossrefWork, error) {
	env, err := c.get(ctx, c.baseURL+"/works/"+url.PathEscape(doi))
	if err != nil {
		return nil, err
	}

	var work crossrefWork
	if err := json.Unmarshal(env.Message, &work); err != nil {
		return nil, fmt.Errorf("%w: crossref work: %v", ErrInvalidResponse, err)
	}
	return &work, nil
}

// search runs a bibliographic free-text query and returns the top result,
// or nil when there are no results.
func (c *Crossref) search(ctx context.Context, term string) (*crossrefWork, error) {
	u := c.baseURL + "/works?query.bibliographic=" + url.QueryEscape(term) + "&rows=1"
	env, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var list struct {
		Items []crossrefWork `json:"items"`
	}
	if err := json.Unmarshal(env.Message, &list); err != nil {
		return nil, fmt.Errorf("%w: crossref search results: %v", ErrInvalidResponse, err)
	}
	if len(list.Items) == 0 {
		return nil, nil
	}
	return &list.Items[0], nil
}

func (c *Crossref) get(ctx context.Context, u string) (*crossrefEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(c.Name(), resp); err != nil {
		return nil, err
	}

	var env crossrefEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &env, nil
}

func (c *Crossref) userAgent() string {
	if c.contact != "" {
		return fmt.Sprintf("cerca/1.0 (mailto:%s)", c.contact)
	}
	return "cerca/1.0"
}

func joinCrossrefAuthors(w *crossrefWork) string {
	names := make([]string, 0, len(w.Author))
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "; ")
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}
