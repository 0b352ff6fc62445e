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
	// OpenAlexBaseURL is the OpenAlex works endpoint base URL.
	OpenAlexBaseURL = "https://api.openalex.org"

	// openAlexAuthorFloor is the author-similarity floor for OpenAlex.
	openAlexAuthorFloor = 40
)

// OpenAlex is the open-metadata search source. A contact email in the
// mailto query parameter routes requests through the polite pool. Single
// attempt, no retries.
type OpenAlex struct {
	httpClient *http.Client
	baseURL    string
	contact    string
	log        zerolog.Logger
}

// OpenAlexOption configures an OpenAlex source.
type OpenAlexOption func(*OpenAlex)

// WithOpenAlexBaseURL sets a custom base URL (for testing).
func WithOpenAlexBaseURL(u string) OpenAlexOption {
	return func(o *OpenAlex) { o.baseURL = u }
}

// WithOpenAlexHTTPClient sets a custom HTTP client.
func WithOpenAlexHTTPClient(hc *http.Client) OpenAlexOption {
	return func(o *OpenAlex) { o.httpClient = hc }
}

// NewOpenAlex creates the OpenAlex source.
func NewOpenAlex(contact string, log zerolog.Logger, opts ...OpenAlexOption) *OpenAlex {
	o := &OpenAlex{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    OpenAlexBaseURL,
		contact:    contact,
		log:        log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name returns the source name.
func (o *OpenAlex) Name() string { return "openalex" }

type openAlexWork struct {
	Title       string `json:"title"`
	DOI         string `json:"doi"` // full URL form: https://doi.org/10.xxx
	Authorships []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
}

// Verify runs a title search and scores the top-ranked work.
func (o *OpenAlex) Verify(ctx context.Context, rec *reference.Record) (bool, error) {
	term, _ := queryTerm(rec)
	if len(term) < minQueryLen {
		return false, nil
	}

	u := o.baseURL + "/works?search=" + url.QueryEscape(term) + "&per-page=1"
	if o.contact != "" {
		u += "&mailto=" + url.QueryEscape(o.contact)
	}
	o.log.Debug().Int("record", rec.ID).Str("query", term).Msg("openalex search")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(o.Name(), resp); err != nil {
		return false, err
	}

	var body struct {
		Results []openAlexWork `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(body.Results) == 0 {
		o.log.Info().Int("record", rec.ID).Msg("no results returned from openalex")
		return false, nil
	}

	work := body.Results[0]
	names := make([]string, 0, len(work.Authorships))
	for _, a := range work.Authorships {
		if a.Author.DisplayName != "" {
			names = append(names, a.Author.DisplayName)
		}
	}

	cand := candidate{
		Title:      work.Title,
		Authors:    strings.Join(names, "; "),
		Identifier: work.DOI,
	}
	return apply(o.log, o.Name(), rec, cand, openAlexAuthorFloor), nil
}
