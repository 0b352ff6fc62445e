package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lidianycs/cerca/internal/reference"
)

const semanticScholarJSON = `{
	"data": [{
		"title": "Machine Learning in Biology",
		"url": "https://www.semanticscholar.org/paper/abc",
		"externalIds": {"DOI": "10.1234/smith"},
		"authors": [
			{"name": "John Smith"},
			{"name": "Jane Doe"}
		]
	}]
}`

// recordedSleeper captures backoff waits instead of sleeping.
type recordedSleeper struct {
	waits []time.Duration
}

func (rs *recordedSleeper) sleep(ctx context.Context, d time.Duration) error {
	rs.waits = append(rs.waits, d)
	return nil
}

func TestSemanticScholar_SkippedWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := NewSemanticScholar("", testLogger(), WithSemanticScholarBaseURL(srv.URL))
	rec := reference.New(1, "A", "Some Title Here", "raw", "")

	found, err := s.Verify(context.Background(), rec)
	if found || err != nil {
		t.Errorf("missing key: found=%v err=%v, want false,nil", found, err)
	}
	if called {
		t.Error("source must be skipped entirely without a key")
	}
}

func TestSemanticScholar_Search(t *testing.T) {
	var gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, semanticScholarJSON)
	}))
	defer srv.Close()

	s := NewSemanticScholar("secret-key", testLogger(), WithSemanticScholarBaseURL(srv.URL))
	rec := reference.New(1, "John Smith; Jane Doe", "Machine Learning in Biology", "raw", "")

	found, err := s.Verify(context.Background(), rec)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !found {
		t.Fatal("expected found")
	}
	if gotKey != "secret-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotQuery != "Machine Learning in Biology" {
		t.Errorf("query = %q", gotQuery)
	}
	if !rec.Verified || rec.MatchScore != 100 {
		t.Errorf("MatchScore = %d, Verified = %v", rec.MatchScore, rec.Verified)
	}
}

func TestSemanticScholar_RateLimitRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, semanticScholarJSON)
	}))
	defer srv.Close()

	sleeper := &recordedSleeper{}
	s := NewSemanticScholar("key", testLogger(),
		WithSemanticScholarBaseURL(srv.URL),
		WithSemanticScholarBackoff(10*time.Millisecond),
		WithSemanticScholarSleep(sleeper.sleep),
	)
	rec := reference.New(1, "John Smith; Jane Doe", "Machine Learning in Biology", "raw", "")

	found, err := s.Verify(context.Background(), rec)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !found {
		t.Fatal("expected found after retries")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (two rate-limited, one success)", attempts)
	}
	if len(sleeper.waits) != 2 {
		t.Fatalf("backoff waits = %d, want exactly 2", len(sleeper.waits))
	}
	if sleeper.waits[1] <= sleeper.waits[0] {
		t.Errorf("second wait %v must exceed first wait %v", sleeper.waits[1], sleeper.waits[0])
	}
}

func TestSemanticScholar_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sleeper := &recordedSleeper{}
	s := NewSemanticScholar("key", testLogger(),
		WithSemanticScholarBaseURL(srv.URL),
		WithSemanticScholarSleep(sleeper.sleep),
	)
	rec := reference.New(1, "A", "Some Title Here", "raw", "")

	found, err := s.Verify(context.Background(), rec)
	if found {
		t.Error("exhausted retries must resolve to not found")
	}
	if !IsRateLimited(err) {
		t.Errorf("err = %v, want rate-limit classification", err)
	}
	if len(sleeper.waits) != semanticScholarMaxRetries {
		t.Errorf("backoff waits = %d, want %d", len(sleeper.waits), semanticScholarMaxRetries)
	}
}

func TestSemanticScholar_AuthRejectedNoRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sleeper := &recordedSleeper{}
	s := NewSemanticScholar("bad-key", testLogger(),
		WithSemanticScholarBaseURL(srv.URL),
		WithSemanticScholarSleep(sleeper.sleep),
	)
	rec := reference.New(1, "A", "Some Title Here", "raw", "")

	found, err := s.Verify(context.Background(), rec)
	if found {
		t.Error("rejected key must resolve to not found")
	}
	if !IsAuthError(err) {
		t.Errorf("err = %v, want auth classification", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on auth rejection)", attempts)
	}
	if len(sleeper.waits) != 0 {
		t.Errorf("backoff waits = %d, want 0", len(sleeper.waits))
	}
}

func TestSemanticScholar_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	s := NewSemanticScholar("key", testLogger(), WithSemanticScholarBaseURL(srv.URL))
	rec := reference.New(1, "A", "Some Title Here", "raw", "")

	found, err := s.Verify(context.Background(), rec)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if found {
		t.Error("expected not found for empty data")
	}
}
