package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/restaurant/internal/health"
	"github.com/vladislavdragonenkov/restaurant/internal/storage/memory"
	"github.com/vladislavdragonenkov/restaurant/internal/version"
)

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")

	port := findFreePort(t)
	addr := fmt.Sprintf(":%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := memory.NewDatabase(DefaultSeedFile(2).Seed())
	if err != nil {
		t.Fatalf("new database: %v", err)
	}
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewStorageChecker(db))

	srv := startMetricsServer(ctx, addr, logger, healthHandler)
	if srv == nil {
		t.Fatal("startMetricsServer should not return nil")
	}
	waitForServer(t, fmt.Sprintf("http://localhost:%d/livez", port))

	tests := []struct {
		path string
		body string
	}{
		{"/metrics", ""},
		{"/healthz", ""},
		{"/livez", "ok"},
		{"/readyz", "ready"},
	}
	for _, tt := range tests {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d%s", port, tt.path))
		if err != nil {
			t.Fatalf("failed to get %s: %v", tt.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", tt.path, resp.StatusCode)
		}
		if tt.body != "" && string(body) != tt.body {
			t.Errorf("expected %q from %s, got %q", tt.body, tt.path, string(body))
		}
		if tt.path == "/healthz" {
			var response healthcheck.Response
			if err := json.Unmarshal(body, &response); err != nil {
				t.Fatalf("failed to decode /healthz: %v", err)
			}
			if response.Checks["storage"].Details["tables"] != 2 {
				t.Errorf("expected 2 tables in storage check, got %+v", response.Checks["storage"])
			}
		}
	}
}

func TestStartMetricsServer_NotReadyWithoutMenu(t *testing.T) {
	logger := log.WithField("test", "http-not-ready")

	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := memory.NewDatabase(memory.Seed{})
	if err != nil {
		t.Fatalf("new database: %v", err)
	}
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewStorageChecker(db))
	startMetricsServer(ctx, fmt.Sprintf(":%d", port), logger, healthHandler)
	waitForServer(t, fmt.Sprintf("http://localhost:%d/livez", port))

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/readyz", port))
	if err != nil {
		t.Fatalf("failed to get /readyz: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 from /readyz, got %d", resp.StatusCode)
	}
}

func TestStartMetricsServer_Shutdown(t *testing.T) {
	logger := log.WithField("test", "http-shutdown")

	port := findFreePort(t)
	addr := fmt.Sprintf(":%d", port)

	ctx, cancel := context.WithCancel(context.Background())

	srv := startMetricsServer(ctx, addr, logger, healthcheck.NewHandler(version.GetVersion()))

	url := fmt.Sprintf("http://localhost:%d/livez", port)
	waitForServer(t, url)

	cancel()

	// Даём время на shutdown
	time.Sleep(200 * time.Millisecond)

	if _, err := http.Get(url); err == nil {
		t.Error("server should be stopped after context cancellation")
	}

	if srv == nil {
		t.Error("startMetricsServer should not return nil")
	}
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	// Не должно паниковать
	shutdownHTTP(nil, time.Second, log.WithField("test", "http-nil"))
}

func TestShutdownHTTP_WithServer(t *testing.T) {
	logger := log.WithField("test", "http-shutdown-func")

	port := findFreePort(t)
	addr := fmt.Sprintf(":%d", port)

	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("test"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		_ = srv.ListenAndServe()
	}()

	url := fmt.Sprintf("http://localhost:%d/test", port)
	waitForServer(t, url)

	shutdownHTTP(srv, 0, logger)

	time.Sleep(100 * time.Millisecond)
	if _, err := http.Get(url); err == nil {
		t.Error("server should be stopped after shutdownHTTP")
	}
}

// waitForServer опрашивает url, пока сервер не начнёт отвечать.
func waitForServer(t *testing.T, url string) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server at %s did not start", url)
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
