// Package metadata resolves agent metadata URIs into normalized records.
// Resolution is best-effort: malformed or unreachable metadata degrades to a
// fixed placeholder and never propagates an error, because an agent must
// still be created even when its JSON document is unreachable.
package metadata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metrics"
	"agentscan/registry-indexer/internal/types"
)

// Metadata is the normalized agent document. Optional fields stay empty when
// the source omits them; fallback extraction order is documented on Resolve.
type Metadata struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	AgentID     string     `json:"agent_id"`
	Image       string     `json:"image"`
	Endpoints   []Endpoint `json:"endpoints"`
}

// Endpoint is one declared agent endpoint, optionally carrying taxonomy
// labels which take precedence over any downstream classifier.
type Endpoint struct {
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Skills  []string `json:"skills"`
	Domains []string `json:"domains"`
}

const (
	maxSkills  = 5
	maxDomains = 3

	maxBodyBytes = 1 << 20 // 1 MiB metadata documents are already suspicious
)

type Resolver struct {
	httpClient  *http.Client
	ipfsGateway string
	maxRetries  int
	retryDelay  time.Duration
	logger      *zap.SugaredLogger
}

func NewResolver(
	ipfsGateway string,
	timeout time.Duration,
	maxRetries int,
	retryDelay time.Duration,
) *Resolver {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Resolver{
		httpClient:  &http.Client{Timeout: timeout},
		ipfsGateway: ipfsGateway,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		logger:      logging.GetLogger().With("component", "MetadataResolver"),
	}
}

// Resolve dispatches on the URI form, in this precedence: blank, inline JSON,
// data: URI, ipfs://, HTTP(S). It always returns a usable record.
func (r *Resolver) Resolve(ctx context.Context, uri string) Metadata {
	trimmed := strings.TrimSpace(uri)

	if trimmed == "" {
		metrics.RecordMetadataFetch("blank", "placeholder")
		return Metadata{
			Name:        "Unknown Agent",
			Description: "No metadata URI provided",
		}
	}

	if strings.HasPrefix(trimmed, "{") {
		md, err := parseInlineJSON(trimmed)
		if err == nil {
			metrics.RecordMetadataFetch("inline", "ok")
			return md
		}
		// Fall through to the HTTP path like any other unrecognized URI;
		// the fetch will fail and yield the fetch-failed placeholder.
		r.logger.Warnw("inline JSON metadata parse failed",
			"error", err,
			"uri", truncate(trimmed, 100))
	}

	if strings.HasPrefix(trimmed, "data:") {
		md, err := parseDataURI(trimmed)
		if err != nil {
			metrics.RecordMetadataFetch("data", "placeholder")
			r.logger.Warnw("data URI parse failed",
				"error", err,
				"uri", truncate(trimmed, 100))
			return Metadata{
				Name:        "Unknown Agent",
				Description: "Data URI parse failed",
			}
		}
		metrics.RecordMetadataFetch("data", "ok")
		return md
	}

	fetchURL := trimmed
	scheme := "http"
	if strings.HasPrefix(trimmed, "ipfs://") {
		fetchURL = r.ipfsGateway + strings.TrimPrefix(trimmed, "ipfs://")
		scheme = "ipfs"
	}

	md, err := r.fetchHTTP(ctx, fetchURL)
	if err != nil {
		metrics.RecordMetadataFetch(scheme, "placeholder")
		return Metadata{
			Name:        "Unknown Agent",
			Description: "Metadata fetch failed",
		}
	}
	metrics.RecordMetadataFetch(scheme, "ok")
	return md
}

func parseInlineJSON(raw string) (Metadata, error) {
	var md Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return Metadata{}, err
	}
	if md.Name == "" && md.AgentID != "" {
		md.Name = md.AgentID
	}
	if md.Description == "" {
		md.Description = "Agent from direct JSON"
	}
	return md, nil
}

func parseDataURI(uri string) (Metadata, error) {
	var payload []byte
	if idx := strings.Index(uri, "base64,"); idx >= 0 {
		decoded, err := base64.StdEncoding.DecodeString(uri[idx+len("base64,"):])
		if err != nil {
			return Metadata{}, fmt.Errorf("base64 decode: %w", err)
		}
		payload = decoded
	} else if idx := strings.Index(uri, ","); idx >= 0 {
		unescaped, err := url.QueryUnescape(uri[idx+1:])
		if err != nil {
			return Metadata{}, fmt.Errorf("url unescape: %w", err)
		}
		payload = []byte(unescaped)
	} else {
		return Metadata{}, fmt.Errorf("unsupported data URI format")
	}

	var md Metadata
	if err := json.Unmarshal(payload, &md); err != nil {
		return Metadata{}, fmt.Errorf("json parse: %w", err)
	}
	return md, nil
}

func (r *Resolver) fetchHTTP(ctx context.Context, fetchURL string) (Metadata, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		md, err := r.fetchOnce(ctx, fetchURL)
		if err == nil {
			return md, nil
		}
		lastErr = err
		r.logger.Warnw("metadata fetch failed",
			"url", fetchURL,
			"attempt", attempt,
			"max_attempts", r.maxRetries,
			"error", err)
		if attempt < r.maxRetries {
			select {
			case <-time.After(r.retryDelay):
			case <-ctx.Done():
				return Metadata{}, ctx.Err()
			}
		}
	}
	return Metadata{}, lastErr
}

func (r *Resolver) fetchOnce(ctx context.Context, fetchURL string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return Metadata{}, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Metadata{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Metadata{}, err
	}

	var md Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		return Metadata{}, fmt.Errorf("json parse: %w", err)
	}
	return md, nil
}

// Taxonomy extracts skills/domains declared in the metadata's endpoints.
// Labels are deduplicated preserving first-seen order and capped. Returns
// false when the metadata declares no taxonomy, in which case the caller may
// consult the classifier instead.
func (m Metadata) Taxonomy() (types.Classification, bool) {
	var skills, domains []string
	for _, ep := range m.Endpoints {
		skills = append(skills, ep.Skills...)
		domains = append(domains, ep.Domains...)
	}

	skills = dedupCap(skills, maxSkills)
	domains = dedupCap(domains, maxDomains)

	if len(skills) == 0 && len(domains) == 0 {
		return types.Classification{}, false
	}

	source := types.ClassificationSourceMetadata
	return types.Classification{
		Skills:  skills,
		Domains: domains,
		Source:  &source,
	}, true
}

func dedupCap(in []string, cap int) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == cap {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
