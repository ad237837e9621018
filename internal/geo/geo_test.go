package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestServer serves canned ipinfo-style responses keyed by IP and
// counts requests per IP.
func newTestServer(t *testing.T, responses map[string]Record, failing map[string]int) (*httptest.Server, *sync.Map) {
	t.Helper()
	var counts sync.Map

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.URL.Path[1 : len(r.URL.Path)-len("/json")]
		if v, loaded := counts.LoadOrStore(ip, 1); loaded {
			counts.Store(ip, v.(int)+1)
		}

		if code, ok := failing[ip]; ok {
			http.Error(w, "nope", code)
			return
		}
		rec, ok := responses[ip]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(rec))
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, &counts
}

func TestLookupPopulatesAllFields(t *testing.T) {
	want := Record{
		IP:       "93.184.216.34",
		City:     "Norwell",
		Region:   "Massachusetts",
		Country:  "US",
		Org:      "AS15133 Edgecast Inc.",
		Postal:   "02061",
		Timezone: "America/New_York",
		Location: "42.1596,-70.8217",
	}
	srv, _ := newTestServer(t, map[string]Record{want.IP: want}, nil)

	c := New("test-token", WithBaseURL(srv.URL))
	got, err := c.Lookup(context.Background(), []string{want.IP})
	require.NoError(t, err)
	require.Equal(t, want, got[want.IP])
}

func TestLookupSendsToken(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"1.1.1.1"}`))
	}))
	t.Cleanup(srv.Close)

	c := New("sekrit", WithBaseURL(srv.URL))
	_, err := c.Lookup(context.Background(), []string{"1.1.1.1"})
	require.NoError(t, err)
	require.Equal(t, "sekrit", gotToken)
}

func TestLookupIsolatesPerIPFailures(t *testing.T) {
	ok := Record{IP: "1.1.1.1", City: "Sydney", Country: "AU"}
	srv, _ := newTestServer(t,
		map[string]Record{ok.IP: ok},
		map[string]int{"2.2.2.2": http.StatusTooManyRequests},
	)

	c := New("", WithBaseURL(srv.URL))
	got, err := c.Lookup(context.Background(), []string{"1.1.1.1", "2.2.2.2"})

	// The aggregate error is advisory; both IPs still have a record.
	require.Error(t, err)
	require.Len(t, got, 2)
	require.Equal(t, ok, got["1.1.1.1"])
	require.NotEmpty(t, got["2.2.2.2"].Err)
	require.Equal(t, "2.2.2.2", got["2.2.2.2"].IP)
	require.Empty(t, got["2.2.2.2"].City)
}

func TestLookupCollapsesDuplicates(t *testing.T) {
	rec := Record{IP: "1.1.1.1", City: "Sydney"}
	srv, counts := newTestServer(t, map[string]Record{rec.IP: rec}, nil)

	c := New("", WithBaseURL(srv.URL))
	got, err := c.Lookup(context.Background(), []string{"1.1.1.1", "1.1.1.1", "1.1.1.1"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	n, _ := counts.Load("1.1.1.1")
	require.Equal(t, 1, n)
}

func TestLookupEmptyInput(t *testing.T) {
	c := New("")
	got, err := c.Lookup(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRecordLines(t *testing.T) {
	rec := Record{
		IP:       "93.184.216.34",
		City:     "Norwell",
		Region:   "Massachusetts",
		Country:  "US",
		Org:      "AS15133 Edgecast Inc.",
		Postal:   "02061",
		Timezone: "America/New_York",
		Location: "42.1596,-70.8217",
	}
	want := []string{
		"Geolocation for 93.184.216.34:",
		"  City: Norwell",
		"  Region: Massachusetts",
		"  Country: US",
		"  Org: AS15133 Edgecast Inc.",
		"  Postal: 02061",
		"  Timezone: America/New_York",
		"  Location: 42.1596,-70.8217",
	}
	require.Equal(t, want, rec.Lines())

	failed := Record{IP: "2.2.2.2", Err: "unexpected status 429 Too Many Requests"}
	require.Equal(t,
		[]string{"Geolocation for 2.2.2.2: unexpected status 429 Too Many Requests"},
		failed.Lines())
}
