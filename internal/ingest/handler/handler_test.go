package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attribune/internal/ingest/service"
	"attribune/internal/ingest/store"
	"attribune/internal/ledger"
	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

type stubValidator struct {
	partnerID id.PartnerID
	token     string
}

func (v *stubValidator) ValidatePartnerToken(tokenString string) (id.PartnerID, error) {
	if tokenString != v.token {
		return id.PartnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return v.partnerID, nil
}

type openDirectory struct{}

func (openDirectory) Exists(_ context.Context, _ id.PartnerID) (bool, error) { return true, nil }

var testMetrics = metrics.New()

func newTestRouter(t *testing.T) (http.Handler, id.PartnerID) {
	t.Helper()
	partnerID := id.NewPartnerID()
	pub := ledger.NewPublisher(ledger.NewInMemoryStore(), nil, "", slog.Default(), nil)
	svc := service.New(store.NewInMemoryStore(), openDirectory{}, pub, testMetrics, slog.Default())
	h := New(svc, slog.Default(), &stubValidator{partnerID: partnerID, token: "good-token"})

	r := chi.NewRouter()
	h.Register(r)
	return r, partnerID
}

func postLog(t *testing.T, router http.Handler, token string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sdk/log", bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleLogCreatesEvent(t *testing.T) {
	router, partnerID := newTestRouter(t)

	rec := postLog(t, router, "good-token", map[string]string{
		"model_id":          "model-x",
		"fingerprint":       "fp-abc",
		"idempotency_token": "token-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Event struct {
			ID             string `json:"id"`
			Seq            int64  `json:"seq"`
			SourceSystemID string `json:"source_system_id"`
		} `json:"event"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Event.ID)
	assert.Equal(t, int64(1), resp.Event.Seq)
	assert.Equal(t, partnerID.String(), resp.Event.SourceSystemID)
}

func TestHandleLogRepeatedTokenReturnsOriginal(t *testing.T) {
	router, _ := newTestRouter(t)

	body := map[string]string{
		"model_id":          "model-x",
		"fingerprint":       "fp-abc",
		"idempotency_token": "token-1",
	}
	first := postLog(t, router, "good-token", body)
	require.Equal(t, http.StatusCreated, first.Code)
	second := postLog(t, router, "good-token", body)
	require.Equal(t, http.StatusCreated, second.Code)

	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestHandleLogRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postLog(t, router, "", map[string]string{
		"model_id":          "model-x",
		"fingerprint":       "fp-abc",
		"idempotency_token": "token-1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleLogRejectsForeignSourceSystem(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postLog(t, router, "good-token", map[string]string{
		"source_system_id":  id.NewPartnerID().String(),
		"model_id":          "model-x",
		"fingerprint":       "fp-abc",
		"idempotency_token": "token-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_input")
}

func TestHandleLogRejectsMissingFingerprint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postLog(t, router, "good-token", map[string]string{
		"model_id":          "model-x",
		"idempotency_token": "token-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
