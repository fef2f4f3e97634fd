// Package classify assigns taxonomy labels (skills, domains) to agents from
// their name and description. Classification is advisory: callers treat an
// error or empty result as "no classification" and never block ingestion.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/types"
)

const (
	maxSkills  = 5
	maxDomains = 3

	minDescriptionLength = 20
)

// Classifier maps an agent's name and description onto taxonomy labels.
type Classifier interface {
	Classify(ctx context.Context, name, description string) (types.Classification, error)
}

// ValidDescription reports whether a description carries enough real signal
// to be worth classifying. Placeholder and junk text is filtered out so the
// classifier is not fed its own fallbacks back.
func ValidDescription(description string) bool {
	description = strings.TrimSpace(description)
	if len(description) < minDescriptionLength {
		return false
	}

	lower := strings.ToLower(description)
	for _, pattern := range invalidPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	digits := 0
	for _, r := range description {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits)/float64(len(description)) <= 0.5
}

var invalidPatterns = []string{
	"no metadata", "metadata fetch failed", "no description",
	"unknown agent", "agent from direct json", "no metadata uri provided",
	"failed to fetch", "error fetching", "not available", "n/a",
	"test agent", "created at", "updated", "lorem ipsum",
	"todo", "placeholder", "example", "demo agent",
}

// KeywordClassifier matches taxonomy slugs by keyword occurrence in the
// lowercased name+description. It is the always-available fallback.
type KeywordClassifier struct {
	logger *zap.SugaredLogger
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		logger: logging.GetLogger().With("component", "KeywordClassifier"),
	}
}

func (k *KeywordClassifier) Classify(
	_ context.Context,
	name, description string,
) (types.Classification, error) {
	text := strings.ToLower(name + " " + description)

	var skills, domains []string
	for _, rule := range skillRules {
		if len(skills) == maxSkills {
			break
		}
		if matchesAny(text, rule.keywords) {
			skills = append(skills, rule.slug)
		}
	}
	for _, rule := range domainRules {
		if len(domains) == maxDomains {
			break
		}
		if matchesAny(text, rule.keywords) {
			domains = append(domains, rule.slug)
		}
	}

	k.logger.Debugw("keyword classification",
		"name", name,
		"skills_count", len(skills),
		"domains_count", len(domains))

	source := types.ClassificationSourceAI
	return types.Classification{Skills: skills, Domains: domains, Source: &source}, nil
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// LLMClassifier calls a remote completion API to pick taxonomy labels, and
// degrades to keyword matching when the call or the response parse fails.
type LLMClassifier struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	fallback   *KeywordClassifier
	logger     *zap.SugaredLogger
}

// NewClassifier builds the classifier for the configured setup: an LLM-backed
// one when an API key is present, otherwise plain keyword matching.
func NewClassifier(cfg config.ClassifierConfig) Classifier {
	if cfg.APIKey == "" {
		logging.GetLogger().Warnw("classifier API key not set, using keyword matching only")
		return NewKeywordClassifier()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.anthropic.com/v1/messages"
	}
	return &LLMClassifier{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		fallback:   NewKeywordClassifier(),
		logger:     logging.GetLogger().With("component", "LLMClassifier"),
	}
}

func (l *LLMClassifier) Classify(
	ctx context.Context,
	name, description string,
) (types.Classification, error) {
	result, err := l.classifyRemote(ctx, name, description)
	if err != nil {
		l.logger.Warnw("LLM classification failed, falling back to keywords",
			"name", name,
			"error", err)
		return l.fallback.Classify(ctx, name, description)
	}
	return result, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func (l *LLMClassifier) classifyRemote(
	ctx context.Context,
	name, description string,
) (types.Classification, error) {
	prompt := buildPrompt(name, description)

	body, err := json.Marshal(messagesRequest{
		Model:     l.model,
		MaxTokens: 1024,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return types.Classification{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return types.Classification{}, err
	}
	req.Header.Set("x-api-key", l.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("content-type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return types.Classification{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Classification{}, fmt.Errorf("classifier API status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Classification{}, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return types.Classification{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return types.Classification{}, fmt.Errorf("empty response content")
	}

	return parseCompletion(parsed.Content[0].Text)
}

// parseCompletion accepts either a bare JSON object or one embedded in
// surrounding prose, and drops any slugs outside the known taxonomy.
func parseCompletion(text string) (types.Classification, error) {
	var raw struct {
		Skills  []string `json:"skills"`
		Domains []string `json:"domains"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		match := jsonObjectRe.FindString(text)
		if match == "" {
			return types.Classification{}, fmt.Errorf("no JSON object in completion")
		}
		if err := json.Unmarshal([]byte(match), &raw); err != nil {
			return types.Classification{}, fmt.Errorf("parse completion JSON: %w", err)
		}
	}

	var skills, domains []string
	for _, s := range raw.Skills {
		if isKnownSkill(s) && len(skills) < maxSkills {
			skills = append(skills, s)
		}
	}
	for _, d := range raw.Domains {
		if isKnownDomain(d) && len(domains) < maxDomains {
			domains = append(domains, d)
		}
	}

	source := types.ClassificationSourceAI
	return types.Classification{Skills: skills, Domains: domains, Source: &source}, nil
}

func buildPrompt(name, description string) string {
	var skills, domains []string
	for s := range knownSkills {
		skills = append(skills, s)
	}
	for d := range knownDomains {
		domains = append(domains, d)
	}

	return fmt.Sprintf(`Analyze the following AI agent and pick the most fitting skills and domains from the provided taxonomy.

Agent name: %s
Agent description: %s

Available skills:
%s

Available domains:
%s

Pick at most %d skills and at most %d domains. Respond with JSON only, no other text:
{"skills": ["..."], "domains": ["..."]}`,
		name, description,
		strings.Join(skills, "\n"),
		strings.Join(domains, "\n"),
		maxSkills, maxDomains)
}
