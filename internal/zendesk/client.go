package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/supportops/zendesk-shift-report/internal/config"
	"github.com/supportops/zendesk-shift-report/internal/models"
)

// Client talks to the Zendesk REST API with cursor pagination. It only
// translates wire concerns; retry and paging policy live in the scanner.
type Client struct {
	baseURL    string
	email      string
	token      string
	pageSize   int
	fieldNames map[int64]string
	http       *http.Client
	log        zerolog.Logger
}

// APIError is any non-success, non-throttle response from Zendesk.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zendesk api status=%d body=%s", e.Status, e.Body)
}

func NewClient(cfg config.ZendeskConfig, customFields map[string]int64, log zerolog.Logger) *Client {
	// Invert name->id so ticket decoding can attach names to raw values
	fieldNames := make(map[int64]string, len(customFields))
	for name, id := range customFields {
		fieldNames[id] = name
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		email:      cfg.Email,
		token:      cfg.APIToken,
		pageSize:   100,
		fieldNames: fieldNames,
		http:       &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// SetPageSize overrides the default page size (1-100 per the API).
func (c *Client) SetPageSize(n int) {
	if n > 0 && n <= 100 {
		c.pageSize = n
	}
}

type apiVia struct {
	Channel string `json:"channel"`
}

type apiCustomField struct {
	ID    int64 `json:"id"`
	Value any   `json:"value"`
}

type apiTicket struct {
	ID           int64            `json:"id"`
	Subject      string           `json:"subject"`
	Status       string           `json:"status"`
	Priority     *string          `json:"priority"`
	GroupID      *int64           `json:"group_id"`
	AssigneeID   *int64           `json:"assignee_id"`
	CreatedAt    string           `json:"created_at"`
	Via          apiVia           `json:"via"`
	CustomFields []apiCustomField `json:"custom_fields"`
}

type ticketsPage struct {
	Tickets []apiTicket `json:"tickets"`
	Meta    struct {
		HasMore     bool   `json:"has_more"`
		AfterCursor string `json:"after_cursor"`
	} `json:"meta"`
}

// FetchPage retrieves one page of tickets, newest first. Satisfies the
// scanner's FetchFunc.
func (c *Client) FetchPage(ctx context.Context, cursor string) (models.Page, error) {
	q := url.Values{}
	q.Set("sort", "-created_at")
	q.Set("page[size]", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("page[after]", cursor)
	}

	var pg ticketsPage
	if err := c.getJSON(ctx, "/api/v2/tickets.json?"+q.Encode(), &pg); err != nil {
		return models.Page{}, err
	}

	out := models.Page{
		HasMore:     pg.Meta.HasMore,
		AfterCursor: pg.Meta.AfterCursor,
		Tickets:     make([]models.Ticket, 0, len(pg.Tickets)),
	}
	for _, at := range pg.Tickets {
		out.Tickets = append(out.Tickets, c.toTicket(at))
	}
	return out, nil
}

func (c *Client) toTicket(at apiTicket) models.Ticket {
	t := models.Ticket{
		ID:         at.ID,
		Number:     at.ID,
		Subject:    at.Subject,
		State:      at.Status,
		GroupID:    at.GroupID,
		AssigneeID: at.AssigneeID,
		Channel:    at.Via.Channel,
		CreatedRaw: at.CreatedAt,
	}
	if at.Priority != nil {
		t.SeverityRaw = *at.Priority
	}
	if ts, err := time.Parse(time.RFC3339, at.CreatedAt); err == nil {
		t.CreatedAt = ts.UTC()
	}
	if len(at.CustomFields) > 0 {
		t.Attributes = make(map[string]any)
		for _, cf := range at.CustomFields {
			if name, ok := c.fieldNames[cf.ID]; ok && cf.Value != nil {
				t.Attributes[name] = cf.Value
			}
		}
	}
	return t
}

type usersPage struct {
	Users []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"users"`
	Meta struct {
		HasMore     bool   `json:"has_more"`
		AfterCursor string `json:"after_cursor"`
	} `json:"meta"`
}

// ListUsers bulk-loads agent display names for the identity directory.
func (c *Client) ListUsers(ctx context.Context) (map[int64]string, error) {
	names := make(map[int64]string)
	cursor := ""
	for page := 0; page < 50; page++ {
		q := url.Values{}
		q.Set("page[size]", "100")
		q.Add("role[]", "agent")
		q.Add("role[]", "admin")
		if cursor != "" {
			q.Set("page[after]", cursor)
		}
		var pg usersPage
		if err := c.getJSON(ctx, "/api/v2/users.json?"+q.Encode(), &pg); err != nil {
			return nil, err
		}
		for _, u := range pg.Users {
			names[u.ID] = u.Name
		}
		if !pg.Meta.HasMore || pg.Meta.AfterCursor == "" {
			break
		}
		cursor = pg.Meta.AfterCursor
	}
	return names, nil
}

// CheckConnection verifies the credentials with a cheap authenticated call.
func (c *Client) CheckConnection(ctx context.Context) error {
	var out map[string]any
	return c.getJSON(ctx, "/api/v2/users/me.json", &out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	// Zendesk API token auth: "email/token" as the basic-auth user
	req.SetBasicAuth(c.email+"/token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zendesk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.Debug().Str("path", path).Msg("zendesk throttled request")
		return &models.RateLimitError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("zendesk response decode failed: %w", err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
