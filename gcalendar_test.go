package gcalendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeCalendarService is an in-memory stand-in for the remote calendar
// service, covering the events endpoints the client exercises.
type fakeCalendarService struct {
	mu     sync.Mutex
	events map[string]map[string]any
	order  []string
	nextID int
}

func newFakeCalendarService() *fakeCalendarService {
	return &fakeCalendarService{events: make(map[string]map[string]any)}
}

func (f *fakeCalendarService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// calendars/{calendarID}/events[/{eventID}]
	if len(parts) < 3 || parts[0] != "calendars" || parts[2] != "events" {
		http.NotFound(w, r)
		return
	}
	var eventID string
	if len(parts) == 4 {
		eventID = parts[3]
	}

	switch {
	case r.Method == http.MethodPost && eventID == "":
		body := decodeJSON(r)
		f.nextID++
		id := fmt.Sprintf("ev-%d", f.nextID)
		body["id"] = id
		f.events[id] = body
		f.order = append(f.order, id)
		writeJSONBody(w, body)

	case r.Method == http.MethodGet && eventID == "":
		f.list(w, r)

	case r.Method == http.MethodGet:
		ev, ok := f.events[eventID]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		writeJSONBody(w, ev)

	case r.Method == http.MethodPut:
		if _, ok := f.events[eventID]; !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		body := decodeJSON(r)
		body["id"] = eventID
		f.events[eventID] = body
		writeJSONBody(w, body)

	case r.Method == http.MethodPatch:
		ev, ok := f.events[eventID]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		for k, v := range decodeJSON(r) {
			ev[k] = v
		}
		writeJSONBody(w, ev)

	case r.Method == http.MethodDelete:
		if _, ok := f.events[eventID]; !ok {
			http.Error(w, `{"error":{"code":410,"message":"Resource has been deleted"}}`, http.StatusGone)
			return
		}
		delete(f.events, eventID)
		for i, id := range f.order {
			if id == eventID {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

// list filters by summary substring (q) and pages by maxResults, using the
// numeric offset as the page token.
func (f *fakeCalendarService) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := strings.ToLower(query.Get("q"))

	var matched []map[string]any
	for _, id := range f.order {
		ev := f.events[id]
		summary, _ := ev["summary"].(string)
		if q == "" || strings.Contains(strings.ToLower(summary), q) {
			matched = append(matched, ev)
		}
	}

	offset := 0
	if tok := query.Get("pageToken"); tok != "" {
		offset, _ = strconv.Atoi(tok)
	}
	max := len(matched)
	if mr, err := strconv.Atoi(query.Get("maxResults")); err == nil && mr > 0 {
		max = mr
	}

	end := offset + max
	if end > len(matched) {
		end = len(matched)
	}
	page := map[string]any{"items": matched[offset:end]}
	if end < len(matched) {
		page["nextPageToken"] = strconv.Itoa(end)
	}
	writeJSONBody(w, page)
}

func decodeJSON(r *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func writeJSONBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeCalendarService) {
	t.Helper()
	fake := newFakeCalendarService()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &Config{
		CalendarID: "primary",
		TimeZone:   "America/Los_Angeles",
		TokenParams: &TokenParams{
			Token:        "test-token",
			RefreshToken: "test-refresh",
			ClientID:     "client",
			ClientSecret: "secret",
		},
	}

	client, err := New(context.Background(), cfg,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithServiceOptions(option.WithEndpoint(srv.URL+"/")))
	require.NoError(t, err)
	return client, fake
}

func TestNew_NoCredentialSource(t *testing.T) {
	_, err := New(context.Background(), &Config{CalendarID: "primary"})
	require.Error(t, err)
}

func TestAddEvent_InsertThenReplaceKeepsID(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	inserted, err := client.AddEvent(ctx, EventParams{
		Summary: String("Standup"),
		Start:   Time(Timed("2024-07-15T09:00:00-07:00", "")),
		End:     Time(Timed("2024-07-15T09:15:00-07:00", "")),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "Standup", inserted.Summary)
	assert.NotEmpty(t, inserted.ID)

	// Re-invoking with replace and a changed location overwrites the
	// soft-matched duplicate instead of creating a second event.
	replaced, err := client.AddEvent(ctx, EventParams{
		Summary:  String("Standup"),
		Start:    Time(Timed("2024-07-15T09:00:00-07:00", "")),
		End:      Time(Timed("2024-07-15T09:15:00-07:00", "")),
		Location: String("Room 5"),
	}, true)
	require.NoError(t, err)

	assert.Equal(t, inserted.ID, replaced.ID)
	assert.Equal(t, "Room 5", replaced.Location)
}

func TestAddEvent_ReplaceWithNoMatchInserts(t *testing.T) {
	client, fake := newTestClient(t)

	ev, err := client.AddEvent(context.Background(), EventParams{
		Summary: String("Planning"),
		Start:   Time(Timed("2024-07-16T10:00:00-07:00", "")),
		End:     Time(Timed("2024-07-16T11:00:00-07:00", "")),
	}, true)
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Len(t, fake.events, 1)
}

func TestEvents_ConcatenatesAllPages(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.AddEvent(ctx, EventParams{
			Summary: String(fmt.Sprintf("Event %d", i)),
			Start:   Time(Timed(fmt.Sprintf("2024-07-15T0%d:00:00-07:00", i+1), "")),
			End:     Time(Timed(fmt.Sprintf("2024-07-15T0%d:30:00-07:00", i+1), "")),
		}, false)
		require.NoError(t, err)
	}

	all, err := client.Events(ctx, EventQuery{MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, all, 5)

	// Pages are disjoint: no repeated ids.
	seen := make(map[string]bool)
	for _, ev := range all {
		assert.False(t, seen[ev.ID], "duplicate id %s across pages", ev.ID)
		seen[ev.ID] = true
	}
}

func TestListEvents_SinglePage(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.AddEvent(ctx, EventParams{
			Summary: String(fmt.Sprintf("Event %d", i)),
			Start:   Time(Timed("2024-07-15T09:00:00-07:00", "")),
			End:     Time(Timed("2024-07-15T09:30:00-07:00", "")),
		}, false)
		require.NoError(t, err)
	}

	page, err := client.ListEvents(ctx, EventQuery{MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextPageToken)

	rest, err := client.ListEvents(ctx, EventQuery{MaxResults: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextPageToken)
}

func TestDeleteEvent_Idempotent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	ev, err := client.AddEvent(ctx, EventParams{
		Summary: String("Doomed"),
		Start:   Time(Timed("2024-07-15T09:00:00-07:00", "")),
		End:     Time(Timed("2024-07-15T09:30:00-07:00", "")),
	}, false)
	require.NoError(t, err)

	ok, err := client.DeleteEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Deleting again is not an error.
	ok, err = client.DeleteEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMoveEvent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	ev, err := client.AddEvent(ctx, EventParams{
		Summary: String("Movable"),
		Start:   Time(Timed("2024-07-15T09:00:00-07:00", "")),
		End:     Time(Timed("2024-07-15T09:30:00-07:00", "")),
	}, false)
	require.NoError(t, err)

	moved, err := client.MoveEvent(ctx, ev.ID,
		Timed("2024-07-16T14:00:00-07:00", ""),
		Timed("2024-07-16T14:30:00-07:00", ""), "")
	require.NoError(t, err)

	assert.Equal(t, ev.ID, moved.ID)
	assert.Equal(t, "2024-07-16T14:00:00-07:00", moved.Start.DateTime)
	assert.Equal(t, "Movable", moved.Summary)
}

func TestGetEvent_NotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetEvent(context.Background(), "missing")
	require.Error(t, err)
}

func TestExportICal(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	ev, err := client.AddEvent(ctx, EventParams{
		Summary: String("Standup"),
		Start:   Time(Timed("2024-07-15T09:00:00-07:00", "")),
		End:     Time(Timed("2024-07-15T09:15:00-07:00", "")),
	}, false)
	require.NoError(t, err)

	data, err := client.ExportICal("Team", []Event{*ev})
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Standup")
}
