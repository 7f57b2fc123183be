package zendesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportops/zendesk-shift-report/internal/config"
	"github.com/supportops/zendesk-shift-report/internal/models"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.ZendeskConfig{
		BaseURL:  baseURL,
		Email:    "agent@example.com",
		APIToken: "secret",
		Timeout:  5 * time.Second,
	}, map[string]int64{"handoff_region": 900100, "meeting_required": 900200}, zerolog.Nop())
}

func TestFetchPageDecodesTickets(t *testing.T) {
	var gotAuth string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tickets": []map[string]any{
				{
					"id":          101,
					"subject":     "printer on fire",
					"status":      "new",
					"priority":    "urgent",
					"group_id":    42,
					"assignee_id": 7,
					"created_at":  "2026-08-27T10:00:00Z",
					"via":         map[string]any{"channel": "email"},
					"custom_fields": []map[string]any{
						{"id": 900100, "value": "apac"},
						{"id": 900200, "value": "true"},
						{"id": 999999, "value": "ignored"},
					},
				},
				{
					"id":         102,
					"subject":    "no priority set",
					"status":     "open",
					"created_at": "not-a-timestamp",
					"via":        map[string]any{"channel": "web"},
				},
			},
			"meta": map[string]any{"has_more": true, "after_cursor": "abc123"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.SetPageSize(50)

	page, err := c.FetchPage(context.Background(), "")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("agent@example.com/token", "secret")
	assert.Equal(t, req.Header.Get("Authorization"), gotAuth)

	assert.Equal(t, []string{"-created_at"}, gotQuery["sort"])
	assert.Equal(t, []string{"50"}, gotQuery["page[size]"])
	assert.Empty(t, gotQuery["page[after]"])

	assert.True(t, page.HasMore)
	assert.Equal(t, "abc123", page.AfterCursor)
	require.Len(t, page.Tickets, 2)

	first := page.Tickets[0]
	assert.Equal(t, int64(101), first.ID)
	assert.Equal(t, "new", first.State)
	assert.Equal(t, "urgent", first.SeverityRaw)
	assert.Equal(t, int64(42), *first.GroupID)
	assert.Equal(t, int64(7), *first.AssigneeID)
	assert.Equal(t, "email", first.Channel)
	assert.Equal(t, time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC), first.CreatedAt)
	assert.Equal(t, "apac", first.Attributes["handoff_region"])
	assert.Equal(t, "true", first.Attributes["meeting_required"])
	assert.NotContains(t, first.Attributes, "999999", "unmapped custom fields are dropped")

	second := page.Tickets[1]
	assert.Equal(t, "", second.SeverityRaw)
	assert.True(t, second.CreatedAt.IsZero(), "unparsable timestamps stay zero")
	assert.Equal(t, "not-a-timestamp", second.CreatedRaw)
	assert.Nil(t, second.GroupID)
}

func TestFetchPageSendsCursor(t *testing.T) {
	var gotAfter string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAfter = r.URL.Query().Get("page[after]")
		_ = json.NewEncoder(w).Encode(map[string]any{"tickets": []any{}, "meta": map[string]any{"has_more": false}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), "cursor-7")
	require.NoError(t, err)
	assert.Equal(t, "cursor-7", gotAfter)
}

func TestFetchPageRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "13")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), "")
	var rl *models.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 13*time.Second, rl.RetryAfter)
}

func TestFetchPageRateLimitWithoutHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), "")
	var rl *models.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, time.Duration(0), rl.RetryAfter)
}

func TestFetchPageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestListUsersFollowsCursor(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page[after]") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"users": []map[string]any{{"id": 1, "name": "Alice"}},
				"meta":  map[string]any{"has_more": true, "after_cursor": "u2"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{{"id": 2, "name": "Bob"}},
			"meta":  map[string]any{"has_more": false},
		})
	}))
	defer srv.Close()

	names, err := newTestClient(srv.URL).ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, map[int64]string{1: "Alice", 2: "Bob"}, names)
}
