package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"golang.org/x/time/rate"

	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// HTTPBackend talks to a remote auditor over its /auditor/match endpoint.
// Responses are normalized before they leave this type: similarities clamped
// into [0, 1], sorted descending, truncated to topK.
type HTTPBackend struct {
	auditorID   id.AuditorID
	reliability float64
	baseURL     string
	topK        int
	client      *http.Client
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
}

// NewHTTPBackend constructs a backend client. rps caps outbound request rate;
// zero or negative disables the limiter.
func NewHTTPBackend(auditorID id.AuditorID, baseURL string, reliability float64, topK int, rps float64, client *http.Client, m *metrics.Metrics) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &HTTPBackend{
		auditorID:   auditorID,
		reliability: reliability,
		baseURL:     baseURL,
		topK:        topK,
		client:      client,
		limiter:     limiter,
		metrics:     m,
	}
}

func (b *HTTPBackend) ID() id.AuditorID     { return b.auditorID }
func (b *HTTPBackend) Reliability() float64 { return b.reliability }

type matchRequest struct {
	Fingerprint string `json:"fingerprint"`
	TopK        int    `json:"top_k"`
}

type matchResponse struct {
	Matches []struct {
		WorkID     string  `json:"work_id"`
		Similarity float64 `json:"similarity"`
	} `json:"matches"`
}

// Match queries the auditor. Transport and non-200 failures surface as
// sentinel.ErrUnavailable so callers can treat them uniformly.
func (b *HTTPBackend) Match(ctx context.Context, fingerprint id.Fingerprint) ([]CandidateMatch, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("auditor %s rate limit: %w", b.auditorID, err)
		}
	}

	body, err := json.Marshal(matchRequest{Fingerprint: string(fingerprint), TopK: b.topK})
	if err != nil {
		return nil, fmt.Errorf("encode match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/auditor/match", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auditor %s: %w: %w", b.auditorID, sentinel.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auditor %s returned status %d: %w", b.auditorID, resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode auditor %s response: %w", b.auditorID, err)
	}

	matches := make([]CandidateMatch, 0, len(decoded.Matches))
	for _, m := range decoded.Matches {
		workID, parseErr := id.ParseWorkID(m.WorkID)
		if parseErr != nil {
			// A single bad row does not invalidate the whole response.
			continue
		}
		matches = append(matches, CandidateMatch{
			WorkID:     workID,
			Similarity: b.clamp(m.Similarity),
		})
	}
	return Normalize(matches, b.topK), nil
}

func (b *HTTPBackend) clamp(similarity float64) float64 {
	if similarity < 0 {
		b.metrics.SimilarityClamped.Inc()
		return 0
	}
	if similarity > 1 {
		b.metrics.SimilarityClamped.Inc()
		return 1
	}
	return similarity
}

// Normalize orders matches by descending similarity (ties by ascending work
// id so output is stable) and truncates to topK. topK <= 0 means unlimited.
func Normalize(matches []CandidateMatch, topK int) []CandidateMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].WorkID < matches[j].WorkID
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
