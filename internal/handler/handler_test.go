package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/service"
	"github.com/go-chi/chi/v5"
)

// newTestServer wires a memory-backed scheduler behind the same routes
// the binary serves, minus middleware.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	sched := service.NewScheduler(repository.NewMemory())
	h := NewSchedulerHandler(sched)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Get("/stats", h.Stats)
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
		r.Get("/{id}/allocations", h.ListEventAllocations)
	})
	r.Route("/resources", func(r chi.Router) {
		r.Post("/", h.CreateResource)
		r.Get("/", h.ListResources)
		r.Get("/{id}", h.GetResource)
		r.Delete("/{id}", h.DeleteResource)
		r.Get("/{id}/allocations", h.ListResourceAllocations)
		r.Get("/{id}/utilization", h.ResourceUtilization)
	})
	r.Route("/allocations", func(r chi.Router) {
		r.Post("/", h.Allocate)
		r.Delete("/{id}", h.Deallocate)
	})
	r.Route("/conflicts", func(r chi.Router) {
		r.Get("/", h.ListConflicts)
		r.Get("/check", h.CheckConflict)
	})
	r.Get("/reports/utilization", h.UtilizationReport)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createEvent(t *testing.T, srv *httptest.Server, title string, start, end time.Time) model.Event {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/events", model.CreateEventRequest{
		Title: title, StartTime: start, EndTime: end,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event %q: status %d", title, resp.StatusCode)
	}
	var event model.Event
	decodeBody(t, resp, &event)
	return event
}

func createResource(t *testing.T, srv *httptest.Server, name, typ string) model.Resource {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/resources", model.CreateResourceRequest{
		Name: name, Type: typ,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create resource %q: status %d", name, resp.StatusCode)
	}
	var res model.Resource
	decodeBody(t, resp, &res)
	return res
}

var (
	day9  = time.Date(2030, 5, 20, 9, 0, 0, 0, time.UTC)
	day10 = time.Date(2030, 5, 20, 10, 0, 0, 0, time.UTC)
	day11 = time.Date(2030, 5, 20, 11, 0, 0, 0, time.UTC)
)

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateEventValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		req  model.CreateEventRequest
	}{
		{"missing title", model.CreateEventRequest{StartTime: day9, EndTime: day10}},
		{"end before start", model.CreateEventRequest{Title: "Backwards", StartTime: day10, EndTime: day9}},
		{"zero duration", model.CreateEventRequest{Title: "Instant", StartTime: day9, EndTime: day9}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/events", tc.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body model.ErrorResponse
			decodeBody(t, resp, &body)
			if body.Error == "" {
				t.Error("error body is empty")
			}
		})
	}
}

func TestCreateEventRejectsUnknownField(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/events",
		bytes.NewBufferString(`{"title":"X","start_time":"2030-05-20T09:00:00Z","end_time":"2030-05-20T10:00:00Z","bogus":1}`))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetEventNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/events/ghost")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateResourceInvalidType(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/resources", model.CreateResourceRequest{
		Name: "HAL", Type: "mainframe",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAllocateConflictBody(t *testing.T) {
	srv := newTestServer(t)

	room := createResource(t, srv, "Room 101", "room")
	busy := createEvent(t, srv, "Busy", day9, day10)
	late := createEvent(t, srv, "Late", day10, day11)

	resp := doJSON(t, http.MethodPost, srv.URL+"/allocations", model.AllocateRequest{
		EventID: busy.ID, ResourceIDs: []string{room.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first allocation: status %d", resp.StatusCode)
	}

	// Touching windows are fine.
	resp = doJSON(t, http.MethodPost, srv.URL+"/allocations", model.AllocateRequest{
		EventID: late.ID, ResourceIDs: []string{room.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("touching allocation: status %d", resp.StatusCode)
	}

	// An overlapping event gets the structured 409.
	clash := createEvent(t, srv, "Clash", day9.Add(30*time.Minute), day10.Add(30*time.Minute))
	resp = doJSON(t, http.MethodPost, srv.URL+"/allocations", model.AllocateRequest{
		EventID: clash.ID, ResourceIDs: []string{room.ID},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("overlapping allocation: status %d, want 409", resp.StatusCode)
	}
	var body struct {
		Error     string                     `json:"error"`
		Conflicts []service.ResourceConflict `json:"conflicts"`
	}
	decodeBody(t, resp, &body)
	if body.Error == "" {
		t.Error("conflict body has no error message")
	}
	if len(body.Conflicts) != 1 {
		t.Fatalf("conflicts = %+v, want one resource", body.Conflicts)
	}
	if body.Conflicts[0].Resource.ID != room.ID {
		t.Errorf("conflict resource = %s, want %s", body.Conflicts[0].Resource.ID, room.ID)
	}
	if len(body.Conflicts[0].Events) == 0 {
		t.Error("conflict carries no events")
	}
}

func TestCheckConflictParams(t *testing.T) {
	srv := newTestServer(t)

	room := createResource(t, srv, "Room 101", "room")
	event := createEvent(t, srv, "Busy", day9, day10)
	resp := doJSON(t, http.MethodPost, srv.URL+"/allocations", model.AllocateRequest{
		EventID: event.ID, ResourceIDs: []string{room.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("allocate: status %d", resp.StatusCode)
	}

	get := func(query string) (*http.Response, error) {
		return http.Get(srv.URL + "/conflicts/check?" + query)
	}

	// Missing start parameter.
	r, err := get("resource_id=" + room.ID + "&end=2030-05-20T10:00")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusBadRequest {
		t.Errorf("missing start: status %d, want 400", r.StatusCode)
	}

	// Garbage time value.
	r, err = get(fmt.Sprintf("resource_id=%s&start=yesterday&end=2030-05-20T10:00", room.ID))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusBadRequest {
		t.Errorf("bad start: status %d, want 400", r.StatusCode)
	}

	// The short datetime layout parses and finds the overlap.
	r, err = get(fmt.Sprintf("resource_id=%s&start=2030-05-20T09:30&end=2030-05-20T10:30", room.ID))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		t.Fatalf("check: status %d", r.StatusCode)
	}
	var body struct {
		ConflictingEvents []model.Event `json:"conflicting_events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.ConflictingEvents) != 1 || body.ConflictingEvents[0].ID != event.ID {
		t.Errorf("conflicting_events = %+v, want just %s", body.ConflictingEvents, event.ID)
	}

	// Excluding the busy event itself clears the window.
	r, err = get(fmt.Sprintf("resource_id=%s&start=2030-05-20T09:30&end=2030-05-20T10:30&exclude_event_id=%s", room.ID, event.ID))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.ConflictingEvents) != 0 {
		t.Errorf("excluded check returned %+v, want none", body.ConflictingEvents)
	}
}

func TestUpdateEventWindowConflict(t *testing.T) {
	srv := newTestServer(t)

	room := createResource(t, srv, "Room 101", "room")
	first := createEvent(t, srv, "First", day9, day10)
	second := createEvent(t, srv, "Second", day10, day11)
	for _, ev := range []model.Event{first, second} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/allocations", model.AllocateRequest{
			EventID: ev.ID, ResourceIDs: []string{room.ID},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("allocate %s: status %d", ev.Title, resp.StatusCode)
		}
	}

	// Shifting Second into First's window must be rejected.
	resp := doJSON(t, http.MethodPut, srv.URL+"/events/"+second.ID, model.UpdateEventRequest{
		Title: second.Title, StartTime: day9.Add(30 * time.Minute), EndTime: day10,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("window shift: status %d, want 409", resp.StatusCode)
	}

	// A title-only edit with the same window is never conflict-checked.
	resp = doJSON(t, http.MethodPut, srv.URL+"/events/"+second.ID, model.UpdateEventRequest{
		Title: "Renamed", StartTime: second.StartTime, EndTime: second.EndTime,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("title edit: status %d, want 200", resp.StatusCode)
	}
	var updated model.Event
	decodeBody(t, resp, &updated)
	if updated.Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", updated.Title)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	srv := newTestServer(t)

	room := createResource(t, srv, "Room 101", "room")
	event := createEvent(t, srv, "Doomed", day9, day10)
	resp := doJSON(t, http.MethodPost, srv.URL+"/allocations", model.AllocateRequest{
		EventID: event.ID, ResourceIDs: []string{room.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("allocate: status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/events/"+event.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d, want 204", resp.StatusCode)
	}

	r, err := http.Get(srv.URL + "/resources/" + room.ID + "/allocations")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	var allocs []model.Allocation
	if err := json.NewDecoder(r.Body).Decode(&allocs); err != nil {
		t.Fatal(err)
	}
	if len(allocs) != 0 {
		t.Errorf("allocations after delete = %+v, want none", allocs)
	}
}

func TestUtilizationEndpoint(t *testing.T) {
	srv := newTestServer(t)

	room := createResource(t, srv, "Room 101", "room")
	event := createEvent(t, srv, "Busy", day9, day11) // 2 hours
	resp := doJSON(t, http.MethodPost, srv.URL+"/allocations", model.AllocateRequest{
		EventID: event.ID, ResourceIDs: []string{room.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("allocate: status %d", resp.StatusCode)
	}

	url := fmt.Sprintf("%s/resources/%s/utilization?start=2030-05-20T00:00&end=2030-05-21T00:00", srv.URL, room.ID)
	r, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		t.Fatalf("utilization: status %d", r.StatusCode)
	}
	var row struct {
		BookedHours        float64 `json:"booked_hours"`
		UtilizationPercent float64 `json:"utilization_percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		t.Fatal(err)
	}
	if row.BookedHours != 2.0 {
		t.Errorf("booked_hours = %v, want 2", row.BookedHours)
	}
	wantPct := 2.0 / 24.0 * 100
	if diff := row.UtilizationPercent - wantPct; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("utilization_percent = %v, want %v", row.UtilizationPercent, wantPct)
	}

	// Degenerate range is a 400.
	r, err = http.Get(fmt.Sprintf("%s/resources/%s/utilization?start=2030-05-21T00:00&end=2030-05-20T00:00", srv.URL, room.ID))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusBadRequest {
		t.Errorf("degenerate range: status %d, want 400", r.StatusCode)
	}
}

func TestDeallocate(t *testing.T) {
	srv := newTestServer(t)

	room := createResource(t, srv, "Room 101", "room")
	event := createEvent(t, srv, "Busy", day9, day10)
	resp := doJSON(t, http.MethodPost, srv.URL+"/allocations", model.AllocateRequest{
		EventID: event.ID, ResourceIDs: []string{room.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("allocate: status %d", resp.StatusCode)
	}

	r, err := http.Get(srv.URL + "/events/" + event.ID + "/allocations")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	var allocs []model.Allocation
	if err := json.NewDecoder(r.Body).Decode(&allocs); err != nil {
		t.Fatal(err)
	}
	if len(allocs) != 1 {
		t.Fatalf("allocations = %+v, want one", allocs)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/allocations/"+allocs[0].ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("deallocate: status %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/allocations/"+allocs[0].ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("repeat deallocate: status %d, want 404", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	createResource(t, srv, "Room 101", "room")
	createEvent(t, srv, "Only", day9, day10)

	r, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	var stats struct {
		Events    int           `json:"events"`
		Resources int           `json:"resources"`
		Conflicts int           `json:"conflicts"`
		Recent    []model.Event `json:"recent_events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Events != 1 || stats.Resources != 1 || stats.Conflicts != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Recent) != 1 {
		t.Errorf("recent_events = %+v, want one entry", stats.Recent)
	}
}
