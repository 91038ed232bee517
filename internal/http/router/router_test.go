package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	cataloghandler "attribune/internal/catalog/handler"
	catalogmodels "attribune/internal/catalog/models"
	catalogservice "attribune/internal/catalog/service"
	catalogstore "attribune/internal/catalog/store"
	certhandler "attribune/internal/certificate/handler"
	certservice "attribune/internal/certificate/service"
	"attribune/internal/certificate/signer"
	certstore "attribune/internal/certificate/store"
	claimshandler "attribune/internal/claims/handler"
	claimsservice "attribune/internal/claims/service"
	claimsstore "attribune/internal/claims/store"
	"attribune/internal/fusion/engine"
	fusionhandler "attribune/internal/fusion/handler"
	fusionservice "attribune/internal/fusion/service"
	fusionstore "attribune/internal/fusion/store"
	ingesthandler "attribune/internal/ingest/handler"
	ingestservice "attribune/internal/ingest/service"
	ingeststore "attribune/internal/ingest/store"
	"attribune/internal/jwtauth"
	"attribune/internal/ledger"
	"attribune/internal/matcher"
	"attribune/internal/mocks"
	partnerhandler "attribune/internal/partner/handler"
	partnerservice "attribune/internal/partner/service"
	partnerstore "attribune/internal/partner/store"
	"attribune/internal/platform/metrics"
	royaltyhandler "attribune/internal/royalty/handler"
	"attribune/internal/royalty/ratecard"
	royaltyservice "attribune/internal/royalty/service"
	royaltystore "attribune/internal/royalty/store"
	id "attribune/pkg/domain"
)

var testMetrics = metrics.New()

const adminToken = "router-test-admin"

func newPipelineRouter(t *testing.T) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := gomock.NewController(t)

	backend := mocks.NewMockMatchBackend(ctrl)
	backend.EXPECT().ID().Return(id.AuditorID("auditor-a")).AnyTimes()
	backend.EXPECT().Reliability().Return(1.0).AnyTimes()
	backend.EXPECT().Match(gomock.Any(), gomock.Any()).Return([]matcher.CandidateMatch{
		{WorkID: "work-1", Similarity: 0.9},
	}, nil).AnyTimes()

	card, err := ratecard.Parse([]byte("default_amount_cents: 1000\n"))
	require.NoError(t, err)
	sgn, err := signer.New("")
	require.NoError(t, err)

	pub := ledger.NewPublisher(ledger.NewInMemoryStore(), nil, "", log, testMetrics)
	tokens := jwtauth.NewService("router-test-signing-key", "attribune", time.Hour)

	partnerSvc := partnerservice.New(partnerstore.NewInMemoryStore(), tokens, log)
	ingestSvc := ingestservice.New(ingeststore.NewInMemoryStore(), partnerSvc, pub, testMetrics, log)
	requester := matcher.NewRequester([]matcher.MatchBackend{backend}, time.Second, testMetrics, log)
	fusionSvc := fusionservice.New(ingestSvc, requester, engine.New(engine.Config{
		MinBackends:        1,
		ConfidenceDiscount: 0.5,
		NoiseFloor:         0.01,
	}), fusionstore.NewInMemoryStore(), pub, testMetrics, log)
	claimsSvc := claimsservice.New(fusionSvc, claimsstore.NewInMemoryStore(), pub, testMetrics, log)
	certSvc := certservice.New(claimsSvc, fusionSvc, ingestSvc, certstore.NewInMemoryStore(), sgn, pub, testMetrics, log)
	catalogSvc := catalogservice.New(catalogstore.NewInMemoryStore(), time.Minute)
	royaltySvc := royaltyservice.New(claimsSvc, certSvc, fusionSvc, ingestSvc, catalogSvc, card, royaltystore.NewInMemoryStore(), pub, testMetrics, log)

	work, err := catalogmodels.NewWork("work-1", "Neon Tide", "The Harbors", "holder-1")
	require.NoError(t, err)
	require.NoError(t, catalogSvc.Register(context.Background(), work))

	return New(log, testMetrics, 10*time.Second, nil,
		partnerhandler.New(partnerSvc, log, adminToken),
		ingesthandler.New(ingestSvc, log, tokens),
		fusionhandler.New(fusionSvc, log),
		claimshandler.New(claimsSvc, log),
		certhandler.New(certSvc, log),
		royaltyhandler.New(royaltySvc, log),
		cataloghandler.New(catalogSvc, log, adminToken),
	)
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body any) (int, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if method == http.MethodPost && path == "/partner/register" {
		req.Header.Set("X-Admin-Token", adminToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), "body: %s", rec.Body.String())
	return rec.Code, envelope
}

// requireUUIDField decodes a string field and checks it is a canonical UUID,
// so the caller can feed it straight into the next endpoint.
func requireUUIDField(t *testing.T, raw json.RawMessage, field string) string {
	t.Helper()

	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &obj))
	var value string
	require.NoError(t, json.Unmarshal(obj[field], &value), "%s must be a JSON string, got %s", field, obj[field])
	_, err := uuid.Parse(value)
	require.NoError(t, err, "%s must be a canonical UUID", field)
	return value
}

// TestPipelineOverHTTP drives the whole chain through the router, feeding
// each response id into the next request exactly as an SDK caller would.
func TestPipelineOverHTTP(t *testing.T) {
	router := newPipelineRouter(t)

	status, body := doJSON(t, router, http.MethodPost, "/partner/register", "", map[string]string{"name": "aria-labs"})
	require.Equal(t, http.StatusCreated, status)
	var partnerID, secret string
	require.NoError(t, json.Unmarshal(body["partner_id"], &partnerID))
	require.NoError(t, json.Unmarshal(body["secret"], &secret))

	status, body = doJSON(t, router, http.MethodPost, "/partner/token", "", map[string]string{
		"partner_id": partnerID,
		"secret":     secret,
	})
	require.Equal(t, http.StatusOK, status)
	var bearer string
	require.NoError(t, json.Unmarshal(body["access_token"], &bearer))

	status, body = doJSON(t, router, http.MethodPost, "/sdk/log", bearer, map[string]string{
		"model_id":          "aria-mini",
		"fingerprint":       "fp-router",
		"idempotency_token": "token-1",
	})
	require.Equal(t, http.StatusCreated, status)
	eventID := requireUUIDField(t, body["event"], "id")

	status, body = doJSON(t, router, http.MethodPost, "/fusion/verify", "", map[string]string{"event_id": eventID})
	require.Equal(t, http.StatusCreated, status)
	resultID := requireUUIDField(t, body["result"], "id")

	status, body = doJSON(t, router, http.MethodPost, "/claims/create", "", map[string]string{"result_id": resultID})
	require.Equal(t, http.StatusCreated, status)
	claimID := requireUUIDField(t, body["claim"], "id")

	status, body = doJSON(t, router, http.MethodPost, fmt.Sprintf("/claims/%s/decision", claimID), "", map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, status)
	var claim struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body["claim"], &claim))
	assert.Equal(t, claimID, claim.ID)
	assert.Equal(t, "approved", claim.Status)

	status, body = doJSON(t, router, http.MethodPost, "/proof/certificate", "", map[string]string{"claim_id": claimID})
	require.Equal(t, http.StatusCreated, status)
	requireUUIDField(t, body["certificate"], "id")
	assert.Equal(t, claimID, requireUUIDField(t, body["certificate"], "claim_id"))

	status, body = doJSON(t, router, http.MethodPost, "/royalties/settle", "", map[string]string{"claim_id": claimID})
	require.Equal(t, http.StatusCreated, status)
	var royalty struct {
		ID               string `json:"id"`
		ClaimID          string `json:"claim_id"`
		TotalAmountCents int64  `json:"total_amount_cents"`
		Splits           []struct {
			RightsHolderID string `json:"rights_holder_id"`
			AmountCents    int64  `json:"amount_cents"`
		} `json:"splits"`
	}
	require.NoError(t, json.Unmarshal(body["royalty_event"], &royalty))
	assert.Equal(t, claimID, royalty.ClaimID)
	assert.Equal(t, int64(1000), royalty.TotalAmountCents)
	require.Len(t, royalty.Splits, 1)
	assert.Equal(t, "holder-1", royalty.Splits[0].RightsHolderID)

	status, body = doJSON(t, router, http.MethodGet, "/royalties/"+claimID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, claimID, requireUUIDField(t, body["royalty_event"], "claim_id"))
}

func TestHealthzReportsDegraded(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := New(log, testMetrics, time.Second, map[string]HealthChecker{
		"postgres": func() error { return nil },
		"redis":    func() error { return fmt.Errorf("connection refused") },
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
}
