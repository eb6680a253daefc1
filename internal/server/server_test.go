package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesradar/salesradar/internal/model"
	"github.com/salesradar/salesradar/internal/ranker"
	"github.com/salesradar/salesradar/internal/store"
)

var serverTestNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	r := ranker.New(st, ranker.WithNow(func() time.Time { return serverTestNow }))
	return New(st, r, opts), st
}

func seedLeads(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	recent := serverTestNow.AddDate(0, 0, -3)

	_, err := st.CreateLead(ctx, model.Lead{
		Name:              "Asha Patil",
		Company:           "Patil Fabrication",
		Sector:            model.SectorManufacturing,
		Size:              model.SizeLarge,
		Source:            model.SourceReferral,
		City:              "Pune",
		State:             "Maharashtra",
		InterestedModules: []string{"gst", "inventory", "mis"},
		LastContactDate:   &recent,
		Status:            model.LeadStatusQualified,
	})
	require.NoError(t, err)

	_, err = st.CreateLead(ctx, model.Lead{
		Name:    "Ravi Shah",
		Company: "Shah Services",
		Sector:  model.SectorServices,
		Size:    model.SizeSmall,
		Source:  model.SourceCold,
		City:    "Surat",
		State:   "Gujarat",
		Status:  model.LeadStatusNew,
	})
	require.NoError(t, err)
}

func getJSON(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, Options{})

	code, body := getJSON(t, h, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestRankedLeads(t *testing.T) {
	h, st := newTestServer(t, Options{})
	seedLeads(t, st)

	code, body := getJSON(t, h, "/api/leads/ranked")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["count"])

	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)["lead"].(map[string]any)
	assert.Equal(t, "Patil Fabrication", first["company"])
}

func TestRankedLeads_MinScoreFilter(t *testing.T) {
	h, st := newTestServer(t, Options{})
	seedLeads(t, st)

	code, body := getJSON(t, h, "/api/leads/ranked?min_score=60")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
}

func TestRankedClients(t *testing.T) {
	h, st := newTestServer(t, Options{})

	_, err := st.CreateClient(context.Background(), model.Client{
		Name:             "Owner",
		Company:          "Mehta Traders",
		Sector:           model.SectorTrading,
		Size:             model.SizeMedium,
		City:             "Mumbai",
		State:            "Maharashtra",
		ExistingProducts: []string{"tallyprime"},
	})
	require.NoError(t, err)

	code, body := getJSON(t, h, "/api/clients/ranked")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	results := body["results"].([]any)
	score := results[0].(map[string]any)["score"].(map[string]any)
	assert.Greater(t, score["upsell_score"].(float64), 0.0)
}

func TestGeoSummary(t *testing.T) {
	h, st := newTestServer(t, Options{})
	seedLeads(t, st)

	req := httptest.NewRequest(http.MethodGet, "/api/scoring/geo/summary", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		States map[string]json.RawMessage `json:"states"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.States, "Maharashtra")
	assert.Contains(t, body.States, "Gujarat")
}

func TestTicketStats(t *testing.T) {
	h, st := newTestServer(t, Options{})
	ctx := context.Background()

	client, err := st.CreateClient(ctx, model.Client{
		Name:             "Owner",
		Company:          "Mehta Traders",
		Sector:           model.SectorTrading,
		Size:             model.SizeMedium,
		State:            "Maharashtra",
		ExistingProducts: []string{"tallyprime"},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = st.CreateTicket(ctx, model.Ticket{
			ClientID:  client.ID,
			Subject:   "GST filing mismatch",
			IssueType: model.IssueGST,
			Severity:  model.SeverityMedium,
		})
		require.NoError(t, err)
	}

	code, body := getJSON(t, h, "/api/tickets/stats")
	require.Equal(t, http.StatusOK, code)

	byType := body["by_type"].(map[string]any)
	assert.EqualValues(t, 3, byType["gst"])

	top := body["top_clients"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, "Mehta Traders", top[0].(map[string]any)["company"])
}

func TestWeights_RoundTrip(t *testing.T) {
	h, _ := newTestServer(t, Options{})

	payload := `{"weights":[{"key":"sector_manufacturing","value":0.95,"category":"sector"}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/weights", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	code, body := getJSON(t, h, "/api/admin/weights")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	entry := body["weights"].([]any)[0].(map[string]any)
	assert.Equal(t, "sector_manufacturing", entry["key"])
	assert.InDelta(t, 0.95, entry["value"].(float64), 1e-9)
}

func TestWeights_Validation(t *testing.T) {
	h, _ := newTestServer(t, Options{})

	cases := []struct {
		name string
		body string
	}{
		{"malformed", `{"weights": nope}`},
		{"empty", `{"weights":[]}`},
		{"blank key", `{"weights":[{"key":"  ","value":0.5}]}`},
		{"negative value", `{"weights":[{"key":"sector_retail","value":-1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/admin/weights", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestServer(t, Options{RatePerSecond: 1, RateBurst: 1})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
