package oracle

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"technician-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobs(ids ...string) []domain.JobSummary {
	out := make([]domain.JobSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.JobSummary{ID: id, CustomerName: "c-" + id, Address: id + " St", ScheduledTime: "09:00 AM"})
	}
	return out
}

func ids(js []domain.JobSummary) []string {
	out := make([]string, 0, len(js))
	for _, j := range js {
		out = append(out, j.ID)
	}
	return out
}

func TestNearestNeighborOrdersByDistance(t *testing.T) {
	// A line of points along the equator, submitted out of order.
	loc := StaticLocator{
		"a": {Lon: 0, Lat: 0},
		"b": {Lon: 3, Lat: 0},
		"c": {Lon: 1, Lat: 0},
		"d": {Lon: 2, Lat: 0},
	}

	got, err := NewNearestNeighbor(loc).Reorder(context.Background(), jobs("a", "b", "c", "d"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(got))
}

func TestNearestNeighborTieBreaksByID(t *testing.T) {
	loc := StaticLocator{
		"start": {Lon: 0, Lat: 0},
		"y":     {Lon: 0, Lat: 1},
		"x":     {Lon: 0, Lat: -1},
	}

	got, err := NewNearestNeighbor(loc).Reorder(context.Background(), jobs("start", "y", "x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "x", "y"}, ids(got))
}

func TestNearestNeighborIsPermutation(t *testing.T) {
	loc := StaticLocator{}
	in := jobs("j1", "j2", "j3", "j4", "j5", "j6")
	for i, j := range in {
		loc[j.ID] = domain.Coordinates{Lon: -122.4 + float64(i%3)*0.01, Lat: 37.7 + float64(i*7%5)*0.01}
	}

	got, err := NewNearestNeighbor(loc).Reorder(context.Background(), in)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids(in), ids(got))
	assert.Equal(t, "j1", got[0].ID)
}

func TestNearestNeighborUnknownJob(t *testing.T) {
	_, err := NewNearestNeighbor(StaticLocator{"a": {}}).Reorder(context.Background(), jobs("a", "ghost"))
	assert.ErrorContains(t, err, "ghost")
}

func TestNearestNeighborUnreachableJob(t *testing.T) {
	loc := StaticLocator{
		"a": {Lon: 0, Lat: 0},
		"b": {Lon: math.NaN(), Lat: math.NaN()},
	}

	var got []domain.JobSummary
	var err error
	assert.NotPanics(t, func() {
		got, err = NewNearestNeighbor(loc).Reorder(context.Background(), jobs("a", "b"))
	})
	assert.ErrorContains(t, err, "failed to select next job")
	assert.Nil(t, got)
}

func TestLLMMissingKey(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	_, err := NewLLM("", srv.URL, "m").Reorder(context.Background(), jobs("a", "b"))
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "ORACLE_API_KEY", cfgErr.Setting)
	assert.Zero(t, hits.Load())
}

func TestLLMReorderParsesAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat["type"])
		require.Len(t, req.Messages, 2)

		var sent jobListPayload
		require.NoError(t, json.Unmarshal([]byte(req.Messages[1].Content), &sent))
		assert.Equal(t, []string{"a", "b", "c"}, ids(sent.JobList))

		content, _ := json.Marshal(optimizedPayload{OptimizedJobList: jobs("c", "a", "b")})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": string(content)}}},
		})
	}))
	defer srv.Close()

	got, err := NewLLM("key", srv.URL+"/v1/", "test-model").Reorder(context.Background(), jobs("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(got))
}

func TestLLMErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{name: "http error", status: http.StatusTooManyRequests, body: `{"error":{"message":"Rate limit reached"}}`, msg: "Rate limit reached"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, msg: "no choices"},
		{name: "content not json", status: http.StatusOK, body: `{"choices":[{"message":{"content":"Sure! Here is the order"}}]}`, msg: "not the expected JSON"},
		{name: "missing list", status: http.StatusOK, body: `{"choices":[{"message":{"content":"{\"jobs\":[]}"}}]}`, msg: "missing optimizedJobList"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewLLM("key", srv.URL, "m").Reorder(context.Background(), jobs("a", "b"))
			var pErr *domain.ProviderError
			require.ErrorAs(t, err, &pErr)
			assert.Contains(t, pErr.Message, tc.msg)
		})
	}
}
