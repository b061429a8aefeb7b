package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
	"github.com/vladislavdragonenkov/restaurant/internal/storage/memory"
)

type degradedChecker struct{}

func (degradedChecker) Check(context.Context) Check {
	return Check{Name: "degraded", Status: StatusDegraded, Message: "publisher disabled"}
}

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")

	handler.RegisterChecker("test-healthy", NewCheckerFunc("test", func(context.Context) error {
		return nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}

	if response.Version != "v1.0.0" {
		t.Errorf("expected version v1.0.0, got %s", response.Version)
	}

	if len(response.Checks) != 1 {
		t.Errorf("expected 1 check, got %d", len(response.Checks))
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("v1.0.0")

	handler.RegisterChecker("test-unhealthy", NewCheckerFunc("test", func(context.Context) error {
		return errors.New("service unavailable")
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != StatusUnhealthy {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
	if response.Checks["test-unhealthy"].Message != "service unavailable" {
		t.Errorf("unexpected check message %q", response.Checks["test-unhealthy"].Message)
	}
}

func TestHealthHandler_DegradedStaysAvailable(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("ok", NewCheckerFunc("ok", func(context.Context) error { return nil }))
	handler.RegisterChecker("degraded", degradedChecker{})

	status, checks := handler.Run(context.Background())
	if status != StatusDegraded {
		t.Errorf("expected degraded, got %s", status)
	}
	if len(checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(checks))
	}

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("degraded service must stay ready, got %d", w.Code)
	}
}

func TestLivenessHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()

	LivenessHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %s", w.Body.String())
	}
}

func TestReadinessHandler_NotReady(t *testing.T) {
	handler := NewHandler("v1.0.0")

	handler.RegisterChecker("test", NewCheckerFunc("test", func(context.Context) error {
		return errors.New("not ready")
	}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	handler.ReadinessHandler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	if w.Body.String() != "not ready" {
		t.Errorf("expected body 'not ready', got %s", w.Body.String())
	}
}

func TestCheckerFunc_ReceivesDeadline(t *testing.T) {
	handler := NewHandler("v1.0.0")

	var hasDeadline bool
	handler.RegisterChecker("deadline", NewCheckerFunc("deadline", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}))

	handler.Run(context.Background())
	if !hasDeadline {
		t.Error("checks must run with a deadline")
	}
}

func TestStorageChecker(t *testing.T) {
	tests := []struct {
		name    string
		seed    memory.Seed
		want    Status
		message string
	}{
		{
			name: "seeded",
			seed: memory.Seed{
				Tables:    []domain.TableRecord{domain.NewRecord(domain.TableID(1), domain.Table{})},
				MenuItems: []domain.MenuItemRecord{domain.NewRecord(domain.MenuItemID(1), domain.MenuItem{Name: "Pasta", CookTime: 12})},
			},
			want: StatusHealthy,
		},
		{
			name: "no menu",
			seed: memory.Seed{
				Tables: []domain.TableRecord{domain.NewRecord(domain.TableID(1), domain.Table{})},
			},
			want:    StatusUnhealthy,
			message: "no menu items loaded",
		},
		{
			name:    "empty",
			want:    StatusUnhealthy,
			message: "no tables and no menu items loaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := memory.NewDatabase(tt.seed)
			if err != nil {
				t.Fatalf("new database: %v", err)
			}

			check := NewStorageChecker(db).Check(context.Background())
			if check.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, check.Status)
			}
			if check.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, check.Message)
			}
			if check.Details["tables"] != len(tt.seed.Tables) {
				t.Errorf("expected %d tables in details, got %d", len(tt.seed.Tables), check.Details["tables"])
			}
		})
	}
}

type stubOutboxStats struct {
	stats domain.OutboxStats
	err   error
}

func (s stubOutboxStats) Stats() (domain.OutboxStats, error) {
	return s.stats, s.err
}

func TestOutboxChecker(t *testing.T) {
	tests := []struct {
		name    string
		source  stubOutboxStats
		want    Status
		message string
	}{
		{name: "empty", want: StatusHealthy},
		{name: "small backlog", source: stubOutboxStats{stats: domain.OutboxStats{PendingCount: 3}}, want: StatusHealthy},
		{
			name:    "failed events",
			source:  stubOutboxStats{stats: domain.OutboxStats{PendingCount: 1, FailedCount: 2}},
			want:    StatusDegraded,
			message: "2 order events were not delivered",
		},
		{
			name:    "backlog over limit",
			source:  stubOutboxStats{stats: domain.OutboxStats{PendingCount: 11}},
			want:    StatusDegraded,
			message: "11 order events are waiting for delivery",
		},
		{
			name:    "stats error",
			source:  stubOutboxStats{err: errors.New("outbox unavailable")},
			want:    StatusDegraded,
			message: "outbox unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewOutboxChecker(tt.source, 10).Check(context.Background())
			if check.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, check.Status)
			}
			if check.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, check.Message)
			}
		})
	}
}

func TestOutboxChecker_DefaultLimit(t *testing.T) {
	checker := NewOutboxChecker(stubOutboxStats{}, 0)
	if checker.backlogLimit != DefaultOutboxBacklogLimit {
		t.Errorf("expected default limit %d, got %d", DefaultOutboxBacklogLimit, checker.backlogLimit)
	}
}
