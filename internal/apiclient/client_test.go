package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/callagent/internal/auth"
	"github.com/dukerupert/callagent/internal/cache"
	"github.com/dukerupert/callagent/internal/model"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) {
	if s == "" {
		return "", auth.ErrNotAuthenticated
	}
	return string(s), nil
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClient(server.URL, staticTokens("test-token"), WithHTTPClient(server.Client()))
}

func TestLoginSendsForm(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/super-admin/token", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %q", ct)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send an Authorization header")
		}
		r.ParseForm()
		if r.Form.Get("username") != "admin" || r.Form.Get("password") != "hunter2" {
			t.Errorf("form = %v", r.Form)
		}
		json.NewEncoder(w).Encode(model.TokenResponse{AccessToken: "jwt", TokenType: "bearer"})
	})
	c := newTestClient(t, mux)

	resp, err := c.Login(context.Background(), "admin", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken != "jwt" {
		t.Errorf("access token = %q", resp.AccessToken)
	}
	if resp.User.Role != auth.RoleSuperAdmin {
		t.Errorf("role defaulted to %q, want %s", resp.User.Role, auth.RoleSuperAdmin)
	}
	if resp.User.Username != "admin" {
		t.Errorf("username defaulted to %q, want admin", resp.User.Username)
	}
}

func TestLoginUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/super-admin/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	})
	c := newTestClient(t, mux)

	_, err := c.Login(context.Background(), "admin", "bad")
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("err = %v, want 401 APIError", err)
	}
	var apiErr *APIError
	errors.As(err, &apiErr)
	if apiErr.Message != "Incorrect username or password" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestBearerNullWithoutToken(t *testing.T) {
	var got string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/announcements/", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(server.URL, staticTokens(""))
	_, err := c.ListAnnouncements(context.Background())
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("err = %v, want 401", err)
	}
	if got != "Bearer null" {
		t.Errorf("Authorization = %q, want Bearer null", got)
	}
}

func TestListOrganizationsCached(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/organizations", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		w.Write([]byte(`{"organizations":[{"id":"org-1","name":"Acme","is_active":true}]}`))
	})
	mux.HandleFunc("PUT /api/admin/organizations/org-1", func(w http.ResponseWriter, r *http.Request) {
		var upd model.OrganizationUpdate
		json.NewDecoder(r.Body).Decode(&upd)
		if upd.IsActive == nil || *upd.IsActive {
			t.Errorf("update body = %+v", upd)
		}
		w.Write([]byte(`{"id":"org-1","name":"Acme","is_active":false}`))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	orgs, err := c.ListOrganizations(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orgs) != 1 || orgs[0].Name != "Acme" {
		t.Fatalf("orgs = %+v", orgs)
	}
	c.ListOrganizations(ctx, false)
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}

	inactive := false
	if _, err := c.UpdateOrganization(ctx, "org-1", model.OrganizationUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	c.ListOrganizations(ctx, false)
	if n := hits.Load(); n != 2 {
		t.Errorf("update should invalidate cache; server hit %d times, want 2", n)
	}
}

func TestRequestsLeaveLoggingToTransport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/organizations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organizations":[]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewClient(server.URL, staticTokens("tok"), WithHTTPClient(server.Client()), WithLogger(logger))

	if _, err := c.ListOrganizations(context.Background(), true); err != nil {
		t.Fatalf("list: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("client logged a successful request:\n%s", buf.String())
	}
}

func TestAllocateMinutes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /call-minutes/allocate", func(w http.ResponseWriter, r *http.Request) {
		var a model.MinuteAllocation
		json.NewDecoder(r.Body).Decode(&a)
		if a.OrganizationID != "org-1" || a.Minutes != 120 {
			t.Errorf("allocation = %+v", a)
		}
		w.Write([]byte(`{"balance":{"total_minutes":620,"used_minutes":20,"remaining_minutes":600}}`))
	})
	c := newTestClient(t, mux)

	bal, err := c.AllocateMinutes(context.Background(), model.MinuteAllocation{OrganizationID: "org-1", Minutes: 120})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if bal.OrganizationID != "org-1" || bal.RemainingMinutes != 600 {
		t.Errorf("balance = %+v", bal)
	}

	if _, err := c.AllocateMinutes(context.Background(), model.MinuteAllocation{OrganizationID: "org-1"}); err == nil {
		t.Error("expected error for zero minutes")
	}
}

func TestActivateDeactivateMinutes(t *testing.T) {
	var paths []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /call-minutes/organization/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.PathValue("id")+":"+r.PathValue("action"))
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	if err := c.ActivateMinutes(ctx, "org-1"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := c.DeactivateMinutes(ctx, "org-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if len(paths) != 2 || paths[0] != "org-1:activate" || paths[1] != "org-1:deactivate" {
		t.Errorf("paths = %v", paths)
	}
}

func TestMinuteWritesInvalidateOrganizations(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/organizations", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"organizations":[{"id":"org-1","name":"Acme","is_active":true}]}`))
	})
	mux.HandleFunc("POST /call-minutes/allocate", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":{"total_minutes":100}}`))
	})
	mux.HandleFunc("POST /call-minutes/organization/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	writes := []struct {
		name string
		fn   func() error
	}{
		{"allocate", func() error {
			_, err := c.AllocateMinutes(ctx, model.MinuteAllocation{OrganizationID: "org-1", Minutes: 100})
			return err
		}},
		{"activate", func() error { return c.ActivateMinutes(ctx, "org-1") }},
		{"deactivate", func() error { return c.DeactivateMinutes(ctx, "org-1") }},
	}
	for _, w := range writes {
		before := hits.Load()
		c.ListOrganizations(ctx, false)
		c.ListOrganizations(ctx, false)
		if n := hits.Load() - before; n != 1 {
			t.Fatalf("%s: list fetched %d times before write, want 1", w.name, n)
		}
		if err := w.fn(); err != nil {
			t.Fatalf("%s: %v", w.name, err)
		}
		if _, ok := c.Cache().Get(organizationsKey); ok {
			t.Errorf("%s: organizations still cached", w.name)
		}
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("list fetched %d times, want 3", n)
	}
}

func TestOrganizationMinutesFallsBackToZero(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /call-minutes/organization/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("GET /call-minutes/organization/org-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_minutes":100,"used_minutes":80,"remaining_minutes":20,"is_active":true}`))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	bal, err := c.OrganizationMinutes(ctx, "missing")
	if err != nil {
		t.Fatalf("non-OK response should not error: %v", err)
	}
	if bal.OrganizationID != "missing" || bal.TotalMinutes != 0 || bal.RemainingMinutes != 0 {
		t.Errorf("balance = %+v, want zeroed", bal)
	}

	bal, err = c.OrganizationMinutes(ctx, "org-1")
	if err != nil {
		t.Fatalf("minutes: %v", err)
	}
	if bal.Usage() != 80 {
		t.Errorf("usage = %v, want 80", bal.Usage())
	}
}

func TestOrganizationMinutesTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", staticTokens("t"))
	bal, err := c.OrganizationMinutes(context.Background(), "org-1")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if bal.OrganizationID != "org-1" || bal.TotalMinutes != 0 {
		t.Errorf("balance = %+v, want zeroed", bal)
	}
}

func TestAnnouncementsCRUD(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/announcements/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"a1","title":"Maintenance","is_active":true}]`))
	})
	mux.HandleFunc("POST /api/announcements/", func(w http.ResponseWriter, r *http.Request) {
		var in model.AnnouncementInput
		json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Announcement{ID: "a2", Title: in.Title, Content: in.Content})
	})
	mux.HandleFunc("PUT /api/announcements/a2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"a2","title":"Updated"}`))
	})
	mux.HandleFunc("DELETE /api/announcements/a2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	list, err := c.ListAnnouncements(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = (%v, %v)", list, err)
	}
	created, err := c.CreateAnnouncement(ctx, model.AnnouncementInput{Title: "New", Content: "Body"})
	if err != nil || created.ID != "a2" || created.Title != "New" {
		t.Fatalf("create = (%+v, %v)", created, err)
	}
	updated, err := c.UpdateAnnouncement(ctx, "a2", model.AnnouncementInput{Title: "Updated"})
	if err != nil || updated.Title != "Updated" {
		t.Fatalf("update = (%+v, %v)", updated, err)
	}
	if err := c.DeleteAnnouncement(ctx, "a2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.CreateAnnouncement(ctx, model.AnnouncementInput{}); err == nil {
		t.Error("expected error for missing title")
	}
}

func TestCallsUseCallBaseAndCache(t *testing.T) {
	var listHits, statsHits atomic.Int32
	callMux := http.NewServeMux()
	callMux.HandleFunc("GET /api/calls", func(w http.ResponseWriter, r *http.Request) {
		listHits.Add(1)
		if r.URL.Query().Get("status") != "completed" || r.URL.Query().Get("page") != "2" {
			t.Errorf("query = %v", r.URL.Query())
		}
		w.Write([]byte(`{"calls":[{"id":"c1","status":"completed"}],"total":1,"page":2,"limit":50}`))
	})
	callMux.HandleFunc("GET /api/calls/stats", func(w http.ResponseWriter, r *http.Request) {
		statsHits.Add(1)
		w.Write([]byte(`{"total_calls":10,"completed_calls":8,"success_rate":80}`))
	})
	callMux.HandleFunc("GET /api/calls/filters/options", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"statuses":["completed","failed"],"directions":["inbound"]}`))
	})
	callServer := httptest.NewServer(callMux)
	defer callServer.Close()

	store := cache.NewStore(cache.Options{})
	c := NewClient("http://127.0.0.1:1", staticTokens("t"), WithCallBaseURL(callServer.URL), WithCache(store))
	ctx := context.Background()
	q := CallQuery{Status: "completed", Page: 2, Limit: 50}

	page, err := c.ListCalls(ctx, q, false)
	if err != nil {
		t.Fatalf("list calls: %v", err)
	}
	if len(page.Calls) != 1 || page.Total != 1 {
		t.Errorf("page = %+v", page)
	}
	c.ListCalls(ctx, q, false)
	if n := listHits.Load(); n != 1 {
		t.Errorf("list hits = %d, want 1", n)
	}
	c.ListCalls(ctx, q, true)
	if n := listHits.Load(); n != 2 {
		t.Errorf("refresh should refetch; list hits = %d, want 2", n)
	}

	stats, err := c.CallStats(ctx, "", false)
	if err != nil || stats.TotalCalls != 10 {
		t.Fatalf("stats = (%+v, %v)", stats, err)
	}
	c.CallStats(ctx, "", false)
	if n := statsHits.Load(); n != 1 {
		t.Errorf("stats hits = %d, want 1", n)
	}
	e, ok := store.Get("calls:stats?")
	if !ok || e.TTL != cache.StatsTTL {
		t.Errorf("stats entry ttl = %v (ok=%v), want %v", e.TTL, ok, cache.StatsTTL)
	}

	opts, err := c.CallFilterOptions(ctx, false)
	if err != nil || len(opts.Statuses) != 2 {
		t.Errorf("filter options = (%+v, %v)", opts, err)
	}
}

func TestListLeadsUsesLeadBase(t *testing.T) {
	leadMux := http.NewServeMux()
	leadMux.HandleFunc("GET /api/leads", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"leads":[{"id":"l1","name":"Dana","phone":"+15550100"}]}`))
	})
	leadServer := httptest.NewServer(leadMux)
	defer leadServer.Close()

	c := NewClient("http://127.0.0.1:1", staticTokens("t"), WithLeadBaseURL(leadServer.URL))
	leads, err := c.ListLeads(context.Background(), false)
	if err != nil || len(leads) != 1 {
		t.Fatalf("leads = (%v, %v)", leads, err)
	}
	e, ok := c.Cache().Get("leads")
	if !ok || e.TTL != cache.LeadsTTL {
		t.Errorf("leads ttl = %v (ok=%v), want %v", e.TTL, ok, cache.LeadsTTL)
	}
}

func TestFilterCalls(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	calls := []model.Call{
		{ID: "1", Status: "completed", Direction: "inbound", PhoneNumber: "+15550001", StartedAt: base},
		{ID: "2", Status: "failed", Direction: "outbound", PhoneNumber: "+15550002", StartedAt: base.Add(time.Hour)},
		{ID: "3", Status: "completed", Direction: "outbound", CallerName: "Jordan Lee", StartedAt: base.Add(48 * time.Hour)},
		{ID: "4", Status: "Completed", Direction: "inbound", Summary: "Asked about pricing", Sentiment: "positive", StartedAt: base.Add(72 * time.Hour)},
	}

	tests := []struct {
		name string
		f    CallFilter
		want []string
	}{
		{"no filter", CallFilter{}, []string{"1", "2", "3", "4"}},
		{"status case-insensitive", CallFilter{Status: "completed"}, []string{"1", "3", "4"}},
		{"direction", CallFilter{Direction: "outbound"}, []string{"2", "3"}},
		{"search phone", CallFilter{Search: "0002"}, []string{"2"}},
		{"search name", CallFilter{Search: "jordan"}, []string{"3"}},
		{"search summary", CallFilter{Search: "PRICING"}, []string{"4"}},
		{"sentiment", CallFilter{Sentiment: "positive"}, []string{"4"}},
		{"date range", CallFilter{From: base.Add(time.Minute), To: base.Add(72 * time.Hour)}, []string{"2", "3"}},
		{"combined", CallFilter{Status: "completed", Direction: "inbound"}, []string{"1", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterCalls(calls, tt.f)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d calls, want %d", len(got), len(tt.want))
			}
			for i, c := range got {
				if c.ID != tt.want[i] {
					t.Errorf("call[%d] = %s, want %s", i, c.ID, tt.want[i])
				}
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	var apiErr *APIError
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/announcements/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","title"],"msg":"field required"}]}`))
	})
	c := newTestClient(t, mux)

	_, err := c.ListAnnouncements(context.Background())
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Message == "" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
