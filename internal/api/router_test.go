package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"technician-route-service/internal/adapters/mapbox"
	"technician-route-service/internal/adapters/oracle"
	"technician-route-service/internal/adapters/repositories"
	"technician-route-service/internal/api/dto"
	"technician-route-service/internal/domain"
	"technician-route-service/internal/ports"
	"technician-route-service/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `{
  "A": [
    {"id": "job-1", "customerName": "Alice", "address": "Ferry Building", "scheduledTime": "09:00 AM", "coordinates": [-122.3932, 37.7956]},
    {"id": "job-2", "customerName": "Bob", "address": "Mission District", "scheduledTime": "10:00 AM", "coordinates": [-122.4194, 37.7528]},
    {"id": "job-3", "customerName": "Carol", "address": "Presidio", "scheduledTime": "11:00 AM", "coordinates": [-122.4662, 37.7989]}
  ]
}`

const (
	defaultAddress = "1 Market St, San Francisco, CA 94105"
	ferryAddress   = "1 Ferry Building, San Francisco, CA 94111"
	berkeley       = "University Ave & Shattuck Ave, Berkeley, CA 94704"
)

type fixture struct {
	handler    http.Handler
	directions *mapbox.MockDirections
	geocoder   *mapbox.MockGeocoder
	desk       *services.BookingDesk
}

func newFixture(t *testing.T, directions ports.DirectionsProvider) fixture {
	t.Helper()

	repo, err := repositories.ParseStopSeeds([]byte(seedJSON))
	require.NoError(t, err)

	md, _ := directions.(*mapbox.MockDirections)

	reg, err := services.LoadRegistry(context.Background(), repo, directions, oracle.NewNearestNeighbor(repo))
	require.NoError(t, err)

	geocoder := mapbox.NewMockGeocoder(map[string]domain.GeocodeResult{
		defaultAddress: {Address: defaultAddress, Coordinates: domain.Coordinates{Lon: -122.3951, Lat: 37.7941}},
		ferryAddress:   {Address: ferryAddress, Coordinates: domain.Coordinates{Lon: -122.3932, Lat: 37.7956}},
		berkeley:       {Address: berkeley, Coordinates: domain.Coordinates{Lon: -122.2585, Lat: 37.8715}},
	})
	area := domain.DefaultServiceArea()
	desk := services.NewBookingDesk(geocoder, area, defaultAddress, 20*time.Millisecond)

	h := NewRouter(Deps{
		Registry:             reg,
		Desk:                 desk,
		Geocoder:             geocoder,
		ServiceArea:          area,
		DirectionsConfigured: md != nil,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
		CORSOrigins: []string{"http://localhost:3000"},
	})

	return fixture{handler: h, directions: md, geocoder: geocoder, desk: desk}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections(600, 300))

	rec := do(t, f.handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	res := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", res["status"])
	assert.Equal(t, true, res["directionsConfigured"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())

	rec := do(t, f.handler, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestListAndGetRoute(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections(600, 300))

	rec := do(t, f.handler, http.MethodGet, "/routes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A"}, decode[dto.ListRouteResponse](t, rec).Routes)

	rec = do(t, f.handler, http.MethodGet, "/routes/A", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[dto.RouteResponse](t, rec)
	assert.Equal(t, "A", res.Name)
	assert.Equal(t, "idle", res.Status)
	assert.Nil(t, res.Route)
	require.Len(t, res.Stops, 3)
	assert.Equal(t, "09:00 AM", res.Stops[0].ScheduledTime)
	assert.Empty(t, res.Stops[0].EstimatedArrivalTime)

	rec = do(t, f.handler, http.MethodGet, "/routes/Z", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshRouteComputesETAs(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections(600, 300))

	rec := do(t, f.handler, http.MethodPost, "/routes/A/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.RouteResponse](t, rec)
	require.NotNil(t, res.Route)
	assert.Equal(t, "LineString", res.Route.Geometry.Type)
	assert.Len(t, res.Route.Geometry.Coordinates, 3)
	assert.Len(t, res.Route.Legs, 2)
	assert.Equal(t, 15.0, res.Route.DurationMinutes)
	assert.Equal(t, 2.0, res.Route.DistanceKm)

	var etas []string
	for _, s := range res.Stops {
		etas = append(etas, s.EstimatedArrivalTime)
	}
	assert.Equal(t, []string{"09:00 AM", "09:10 AM", "09:15 AM"}, etas)
}

func TestRefreshWithoutTokenIsServiceUnavailable(t *testing.T) {
	f := newFixture(t, mapbox.NewClient(""))

	rec := do(t, f.handler, http.MethodGet, "/health", nil)
	assert.Equal(t, false, decode[map[string]any](t, rec)["directionsConfigured"])

	rec = do(t, f.handler, http.MethodPost, "/routes/A/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "MAPBOX_ACCESS_TOKEN")
}

func TestRefreshProviderErrorIsBadGateway(t *testing.T) {
	md := mapbox.NewMockDirections(600, 300)
	md.SetErr(&domain.ProviderError{Provider: "mapbox", StatusCode: 422, Message: "Invalid coordinates"})
	f := newFixture(t, md)

	rec := do(t, f.handler, http.MethodPost, "/routes/A/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, f.handler, http.MethodGet, "/routes/A", nil)
	assert.Contains(t, decode[dto.RouteResponse](t, rec).Error, "Invalid coordinates")
}

func TestReorderRoute(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections(600, 300))

	rec := do(t, f.handler, http.MethodPut, "/routes/A/order", dto.ReorderRequest{Order: []string{"job-3", "job-1", "job-2"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.RouteResponse](t, rec)
	assert.Equal(t, []string{"job-3", "job-1", "job-2"}, stopIDs(res))
	assert.NotNil(t, res.Route)
	assert.Equal(t, uint64(1), res.Generation)
}

func TestReorderRouteRejectsBadInput(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections(600, 300))

	cases := []struct {
		name string
		body any
		want int
	}{
		{"not a permutation", dto.ReorderRequest{Order: []string{"job-1", "job-1", "job-2"}}, http.StatusBadRequest},
		{"too short", dto.ReorderRequest{Order: []string{"job-1"}}, http.StatusBadRequest},
		{"empty", dto.ReorderRequest{}, http.StatusBadRequest},
		{"unknown field", `{"order":["job-1"],"extra":true}`, http.StatusBadRequest},
		{"two objects", `{"order":[]}{"order":[]}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, f.handler, http.MethodPut, "/routes/A/order", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, f.handler, http.MethodGet, "/routes/A", nil)
	assert.Equal(t, []string{"job-1", "job-2", "job-3"}, stopIDs(decode[dto.RouteResponse](t, rec)))
}

func TestOptimizeRoute(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections(600, 300))

	rec := do(t, f.handler, http.MethodPost, "/routes/A/optimize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.RouteResponse](t, rec)
	assert.ElementsMatch(t, []string{"job-1", "job-2", "job-3"}, stopIDs(res))
	assert.Equal(t, "job-1", res.Stops[0].ID)
	assert.NotNil(t, res.Route)
}

func TestOptimizeWhileLoadingConflicts(t *testing.T) {
	md := mapbox.NewMockDirections(600, 300)
	md.Gate = make(chan struct{})
	f := newFixture(t, md)

	done := make(chan int)
	go func() {
		done <- do(t, f.handler, http.MethodPost, "/routes/A/refresh", nil).Code
	}()

	require.Eventually(t, func() bool {
		return len(md.Calls()) == 1
	}, time.Second, 5*time.Millisecond)

	rec := do(t, f.handler, http.MethodPost, "/routes/A/optimize", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	md.Gate <- struct{}{}
	assert.Equal(t, http.StatusOK, <-done)
}

func TestBookingOptions(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())

	rec := do(t, f.handler, http.MethodGet, "/booking/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[dto.BookingOptionsResponse](t, rec)
	assert.Len(t, res.Services, 4)
	assert.Equal(t, 15.0, res.ServiceArea.RadiusKm)
	assert.Equal(t, []float64{-122.4194, 37.7749}, res.ServiceArea.Center)

	within := map[string]bool{}
	for _, p := range res.TestPlaces {
		within[p.Name] = p.WithinRadius
	}
	assert.True(t, within["Ferry Building"])
	assert.False(t, within["San Jose"])
}

func TestServiceAreaCheck(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())

	rec := do(t, f.handler, http.MethodPost, "/service-area/check", dto.AreaCheckRequest{Address: berkeley})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[dto.AddressValidationResponse](t, rec)
	assert.Equal(t, "outside", res.Status)
	assert.False(t, res.IsValid)
	require.NotNil(t, res.DistanceKm)
	assert.Greater(t, *res.DistanceKm, 15.0)
	assert.Contains(t, res.Message, "outside our 15 km service radius")

	rec = do(t, f.handler, http.MethodPost, "/service-area/check", dto.AreaCheckRequest{Coordinates: []float64{-122.3932, 37.7956}})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[dto.AddressValidationResponse](t, rec)
	assert.Equal(t, "within", res.Status)
	assert.True(t, res.IsValid)

	rec = do(t, f.handler, http.MethodPost, "/service-area/check", dto.AreaCheckRequest{Address: "Nowhere Lane"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_found", decode[dto.AddressValidationResponse](t, rec).Status)

	rec = do(t, f.handler, http.MethodPost, "/service-area/check", dto.AreaCheckRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, f.handler, http.MethodPost, "/service-area/check", dto.AreaCheckRequest{Coordinates: []float64{1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServiceAreaCheckGeocoderFailure(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())
	f.geocoder.Err = &domain.ProviderError{Provider: "mapbox", StatusCode: 500, Message: "boom"}

	rec := do(t, f.handler, http.MethodPost, "/service-area/check", dto.AreaCheckRequest{Address: berkeley})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func openForm(t *testing.T, f fixture) dto.FormResponse {
	t.Helper()

	rec := do(t, f.handler, http.MethodPost, "/booking/forms", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.FormResponse](t, rec)
}

func TestBookingFlow(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())

	form := openForm(t, f)
	assert.NotEmpty(t, form.ID)
	assert.Equal(t, defaultAddress, form.Address)
	assert.Equal(t, "within", form.Validation.Status)

	rec := do(t, f.handler, http.MethodGet, "/booking/forms/"+form.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, f.handler, http.MethodPost, "/booking/forms/"+form.ID+"/submit", dto.SubmitBookingRequest{
		Service: "premium",
		Date:    "2026-03-03",
		Time:    "10:00 AM",
		Notes:   "gate code 42",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	b := decode[dto.BookingResponse](t, rec)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Premium Service", b.Service.Label)
	assert.Equal(t, "2026-03-03", b.Date)
	assert.Equal(t, "10:00 AM", b.Time)
	assert.Equal(t, defaultAddress, b.Address)
	assert.Equal(t, "Your Premium Service booking for March 3rd, 2026 at 10:00 AM has been received.", b.Confirmation)
}

func TestBookingRejectedOutsideServiceArea(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())
	form := openForm(t, f)

	rec := do(t, f.handler, http.MethodPost, "/booking/forms/"+form.ID+"/test-place", dto.TestPlaceRequest{Name: "Berkeley"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[dto.FormResponse](t, rec)
	assert.Equal(t, berkeley, state.Address)
	assert.Equal(t, "outside", state.Validation.Status)

	rec = do(t, f.handler, http.MethodPost, "/booking/forms/"+form.ID+"/submit", dto.SubmitBookingRequest{
		Service: "standard",
		Date:    "2026-03-03",
		Time:    "10:00 AM",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "outside our 15 km service radius")
}

func TestBookingDebouncedAddressEdit(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())
	form := openForm(t, f)

	rec := do(t, f.handler, http.MethodPut, "/booking/forms/"+form.ID+"/address", dto.SetAddressRequest{Address: ferryAddress})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "checking", decode[dto.FormResponse](t, rec).Validation.Status)

	rec = do(t, f.handler, http.MethodPost, "/booking/forms/"+form.ID+"/submit", dto.SubmitBookingRequest{
		Service: "standard",
		Date:    "2026-03-03",
		Time:    "10:00 AM",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Eventually(t, func() bool {
		rec := do(t, f.handler, http.MethodGet, "/booking/forms/"+form.ID, nil)
		return decode[dto.FormResponse](t, rec).Validation.Status == "within"
	}, time.Second, 10*time.Millisecond)
}

func TestBookingErrors(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())
	form := openForm(t, f)

	rec := do(t, f.handler, http.MethodGet, "/booking/forms/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, f.handler, http.MethodPost, "/booking/forms/"+form.ID+"/test-place", dto.TestPlaceRequest{Name: "Atlantis"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, f.handler, http.MethodPost, "/booking/forms/"+form.ID+"/submit", dto.SubmitBookingRequest{
		Service: "standard",
		Date:    "03/03/2026",
		Time:    "10:00 AM",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, mapbox.NewMockDirections())

	req := httptest.NewRequest(http.MethodOptions, "/routes/A/optimize", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func stopIDs(res dto.RouteResponse) []string {
	ids := make([]string, 0, len(res.Stops))
	for _, s := range res.Stops {
		ids = append(ids, s.ID)
	}
	return ids
}
