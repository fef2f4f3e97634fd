package metadata

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agentscan/registry-indexer/internal/types"
)

func newTestResolver(gateway string) *Resolver {
	return NewResolver(gateway, 2*time.Second, 1, time.Millisecond)
}

func TestResolveBlankURI(t *testing.T) {
	require := require.New(t)

	r := newTestResolver("http://gateway.invalid/ipfs/")
	md := r.Resolve(context.Background(), "   ")
	require.Equal("Unknown Agent", md.Name)
	require.Equal("No metadata URI provided", md.Description)
}

func TestResolveInlineJSON(t *testing.T) {
	require := require.New(t)
	r := newTestResolver("")

	md := r.Resolve(context.Background(),
		`{"name":"Summarizer","description":"Summarizes long documents"}`)
	require.Equal("Summarizer", md.Name)
	require.Equal("Summarizes long documents", md.Description)
}

func TestResolveInlineJSONFallbacks(t *testing.T) {
	require := require.New(t)
	r := newTestResolver("")

	// Missing name falls back to agent_id, missing description to the
	// direct-JSON marker.
	md := r.Resolve(context.Background(), `{"agent_id":"agent-42"}`)
	require.Equal("agent-42", md.Name)
	require.Equal("Agent from direct JSON", md.Description)
}

func TestResolveInlineJSONMalformed(t *testing.T) {
	require := require.New(t)
	r := newTestResolver("")

	// A broken inline document is not a data/ipfs URI either, so it falls
	// through to the HTTP path, which cannot fetch it.
	md := r.Resolve(context.Background(), `{"name": "broken`)
	require.Equal("Unknown Agent", md.Name)
	require.Equal("Metadata fetch failed", md.Description)
}

func TestResolveDataURIBase64(t *testing.T) {
	require := require.New(t)
	r := newTestResolver("")

	doc := `{"name":"Base64 Agent","description":"encoded"}`
	uri := "data:application/json;base64," +
		base64.StdEncoding.EncodeToString([]byte(doc))

	md := r.Resolve(context.Background(), uri)
	require.Equal("Base64 Agent", md.Name)
	require.Equal("encoded", md.Description)
}

func TestResolveDataURIPlain(t *testing.T) {
	require := require.New(t)
	r := newTestResolver("")

	uri := `data:application/json,%7B%22name%22%3A%22Plain%22%7D`
	md := r.Resolve(context.Background(), uri)
	require.Equal("Plain", md.Name)
}

func TestResolveDataURIMalformed(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{name: "no comma", uri: "data:application/json"},
		{name: "bad base64", uri: "data:application/json;base64,!!!"},
		{name: "bad json", uri: "data:application/json,not-json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			r := newTestResolver("")
			md := r.Resolve(context.Background(), tt.uri)
			require.Equal("Unknown Agent", md.Name)
			require.Equal("Data URI parse failed", md.Description)
		})
	}
}

func TestResolveHTTP(t *testing.T) {
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"name":"HTTP Agent","description":"served"}`))
		}))
	defer srv.Close()

	r := newTestResolver("")
	md := r.Resolve(context.Background(), srv.URL)
	require.Equal("HTTP Agent", md.Name)
	require.Equal("served", md.Description)
}

func TestResolveHTTPFailure(t *testing.T) {
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
	defer srv.Close()

	r := newTestResolver("")
	md := r.Resolve(context.Background(), srv.URL)
	require.Equal("Unknown Agent", md.Name)
	require.Equal("Metadata fetch failed", md.Description)
}

func TestResolveHTTPRetries(t *testing.T) {
	require := require.New(t)

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			attempts++
			if attempts == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"name":"Eventually"}`))
		}))
	defer srv.Close()

	r := NewResolver("", 2*time.Second, 2, time.Millisecond)
	md := r.Resolve(context.Background(), srv.URL)
	require.Equal(2, attempts)
	require.Equal("Eventually", md.Name)
}

func TestResolveIPFSGatewayRewrite(t *testing.T) {
	require := require.New(t)

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			gotPath = req.URL.Path
			_, _ = w.Write([]byte(`{"name":"Pinned"}`))
		}))
	defer srv.Close()

	r := newTestResolver(srv.URL + "/ipfs/")
	md := r.Resolve(context.Background(), "ipfs://QmTestCID")
	require.Equal("/ipfs/QmTestCID", gotPath)
	require.Equal("Pinned", md.Name)
}

func TestTaxonomyExtraction(t *testing.T) {
	require := require.New(t)

	md := Metadata{
		Endpoints: []Endpoint{
			{
				URL:     "https://a.example",
				Skills:  []string{"text_summarization", "translation", "text_summarization"},
				Domains: []string{"finance"},
			},
			{
				URL:     "https://b.example",
				Skills:  []string{"question_answering"},
				Domains: []string{"finance", "healthcare"},
			},
		},
	}

	classification, ok := md.Taxonomy()
	require.True(ok)
	require.NotNil(classification.Source)
	require.Equal(types.ClassificationSourceMetadata, *classification.Source)
	// Dedup preserves first-seen order.
	require.Equal(
		[]string{"text_summarization", "translation", "question_answering"},
		classification.Skills,
	)
	require.Equal([]string{"finance", "healthcare"}, classification.Domains)
}

func TestTaxonomyCaps(t *testing.T) {
	require := require.New(t)

	md := Metadata{
		Endpoints: []Endpoint{{
			URL: "https://a.example",
			Skills: []string{
				"s1", "s2", "s3", "s4", "s5", "s6", "s7",
			},
			Domains: []string{"d1", "d2", "d3", "d4"},
		}},
	}

	classification, ok := md.Taxonomy()
	require.True(ok)
	require.Len(classification.Skills, maxSkills)
	require.Len(classification.Domains, maxDomains)
}

func TestTaxonomyAbsent(t *testing.T) {
	require := require.New(t)

	md := Metadata{Name: "Plain", Endpoints: []Endpoint{{URL: "https://a"}}}
	_, ok := md.Taxonomy()
	require.False(ok)
}
