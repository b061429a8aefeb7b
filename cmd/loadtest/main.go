package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httptransport "github.com/vladislavdragonenkov/restaurant/internal/transport/http"
)

const (
	apiVersion   = "v1"
	scenarioName = "scenario"
	codeNetwork  = "network_error"
)

type config struct {
	addr       string
	tables     int
	menuItems  int
	duration   time.Duration
	rounds     int
	timeout    time.Duration
	outputPath string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Codes     map[string]int64 `json:"codes"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time               `json:"started_at"`
	DurationSeconds   float64                 `json:"duration_seconds"`
	Tables            int                     `json:"tables"`
	TotalScenarios    int64                   `json:"total_scenarios"`
	SuccessScenarios  int64                   `json:"success_scenarios"`
	FailedScenarios   int64                   `json:"failed_scenarios"`
	ErrorRate         float64                 `json:"error_rate"`
	RPS               float64                 `json:"rps"`
	ScenarioLatencyMs latencySummary          `json:"scenario_latency_ms"`
	Methods           map[string]methodReport `json:"methods"`
	FirstError        string                  `json:"first_error,omitempty"`
}

type methodStats struct {
	calls     int64
	success   int64
	failed    int64
	codes     map[string]int64
	latencies []float64
}

type collector struct {
	mu      sync.Mutex
	methods map[string]*methodStats
}

func newCollector() *collector {
	return &collector{
		methods: make(map[string]*methodStats),
	}
}

func (c *collector) record(method string, latency time.Duration, code string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, exists := c.methods[method]
	if !exists {
		stats = &methodStats{
			codes: make(map[string]int64),
		}
		c.methods[method] = stats
	}

	stats.calls++
	if ok {
		stats.success++
	} else {
		stats.failed++
	}
	stats.codes[code]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Methods:         make(map[string]methodReport, len(c.methods)),
	}

	if scenarioStats := c.methods[scenarioName]; scenarioStats != nil {
		result.TotalScenarios = scenarioStats.calls
		result.SuccessScenarios = scenarioStats.success
		result.FailedScenarios = scenarioStats.failed
		result.ErrorRate = ratio(scenarioStats.failed, scenarioStats.calls)
		result.ScenarioLatencyMs = buildLatencySummary(scenarioStats.latencies)
	}
	if duration > 0 {
		var calls int64
		for name, stats := range c.methods {
			if name != scenarioName {
				calls += stats.calls
			}
		}
		result.RPS = float64(calls) / duration.Seconds()
	}

	for name, stats := range c.methods {
		codesCopy := make(map[string]int64, len(stats.codes))
		for code, count := range stats.codes {
			codesCopy[code] = count
		}
		result.Methods[name] = methodReport{
			Calls:     stats.calls,
			Success:   stats.success,
			Failed:    stats.failed,
			ErrorRate: ratio(stats.failed, stats.calls),
			Codes:     codesCopy,
			LatencyMs: buildLatencySummary(stats.latencies),
		}
	}

	return result
}

func parseConfig(args []string) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.StringVar(&cfg.addr, "addr", "http://localhost:8080", "REST API base URL")
	fs.IntVar(&cfg.tables, "tables", 14, "number of concurrently simulated tables (ids 1..N)")
	fs.IntVar(&cfg.menuItems, "menu-items", 4, "menu item ids to order from (1..N)")
	fs.DurationVar(&cfg.duration, "duration", 30*time.Second, "run duration; 0 runs until -rounds are done")
	fs.IntVar(&cfg.rounds, "rounds", 0, "rounds per table; 0 runs until -duration expires")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.addr = strings.TrimRight(strings.TrimSpace(cfg.addr), "/")
	switch {
	case !strings.HasPrefix(cfg.addr, "http://") && !strings.HasPrefix(cfg.addr, "https://"):
		return cfg, fmt.Errorf("addr must be an http(s) URL: %q", cfg.addr)
	case cfg.tables <= 0:
		return cfg, errors.New("tables must be > 0")
	case cfg.menuItems <= 0:
		return cfg, errors.New("menu-items must be > 0")
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.rounds < 0:
		return cfg, errors.New("rounds must be >= 0")
	case cfg.duration == 0 && cfg.rounds == 0:
		return cfg, errors.New("either duration or rounds must be set")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	}

	return cfg, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := run(ctx, cfg, &http.Client{})

	printReport(result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 || result.FirstError != "" {
		os.Exit(1)
	}
}

// run запускает по симулятору на стол и ждёт, пока все остановятся.
// Первая ошибка останавливает остальные столы.
func run(ctx context.Context, cfg config, httpClient *http.Client) report {
	startedAt := time.Now()
	col := newCollector()
	client := &apiClient{http: httpClient, baseURL: cfg.addr, timeout: cfg.timeout, col: col}

	if cfg.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	for table := 1; table <= cfg.tables; table++ {
		sim := &tableSimulator{
			table:     uint32(table),
			menuItems: cfg.menuItems,
			client:    client,
			col:       col,
			rng:       rand.New(rand.NewPCG(uint64(startedAt.UnixNano()), uint64(table))),
		}
		g.Go(func() error {
			return sim.run(ctx, cfg.rounds)
		})
	}
	err := g.Wait()

	result := col.buildReport(startedAt, time.Since(startedAt))
	result.Tables = cfg.tables
	if err != nil {
		result.FirstError = err.Error()
	}
	return result
}

// tableSimulator ведёт один стол по кругу: заказы, изменения, отмены, расчёт.
type tableSimulator struct {
	table     uint32
	menuItems int
	client    *apiClient
	col       *collector
	rng       *rand.Rand
}

func (s *tableSimulator) run(ctx context.Context, rounds int) error {
	for round := 0; rounds == 0 || round < rounds; round++ {
		if ctx.Err() != nil {
			return nil
		}

		started := time.Now()
		err := s.round(ctx)
		if err != nil && ctx.Err() != nil {
			// остановка посреди круга не считается сбоем
			return nil
		}
		s.col.record(scenarioName, time.Since(started), scenarioCode(err), err == nil)
		if err != nil {
			return fmt.Errorf("table %d: %w", s.table, err)
		}
	}
	return nil
}

func (s *tableSimulator) round(ctx context.Context) error {
	existing, err := s.client.tableOrders(ctx, s.table)
	if err != nil {
		return err
	}
	if len(existing) != 0 {
		return fmt.Errorf("expected a clear table, found %d orders", len(existing))
	}

	count := s.between(5, 10)
	open := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		item := uint32(s.between(1, s.menuItems))
		order, err := s.client.placeOrder(ctx, s.table, item, uint32(s.between(1, 10)))
		if err != nil {
			return err
		}
		if uint32(order.Table.ID) != s.table {
			return fmt.Errorf("order %d placed for table %d", order.ID, order.Table.ID)
		}
		open = append(open, uint32(order.ID))
	}

	for i := s.between(1, 5); i > 0 && len(open) > 0; i-- {
		idx := s.rng.IntN(len(open))
		quantity := uint32(s.between(0, 20))
		order, err := s.client.setQuantity(ctx, open[idx], quantity)
		if err != nil {
			return err
		}
		if order.Quantity != quantity {
			return fmt.Errorf("set quantity to %d, got %d", quantity, order.Quantity)
		}
		if quantity == 0 {
			open = removeAt(open, idx)
		}
	}

	for i := s.between(1, 7); i > 0 && len(open) > 0; i-- {
		idx := s.rng.IntN(len(open))
		if _, err := s.client.cancelOrder(ctx, open[idx]); err != nil {
			return err
		}
		open = removeAt(open, idx)
	}

	cleared, err := s.client.clearTable(ctx, s.table)
	if err != nil {
		return err
	}
	if len(cleared) != len(open) {
		return fmt.Errorf("expected %d orders remaining, got %d", len(open), len(cleared))
	}

	left, err := s.client.tableOrders(ctx, s.table)
	if err != nil {
		return err
	}
	if len(left) != 0 {
		return fmt.Errorf("expected 0 orders after clear, got %d", len(left))
	}
	return nil
}

// between возвращает случайное число из [lo, hi].
func (s *tableSimulator) between(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

func removeAt(ids []uint32, idx int) []uint32 {
	ids[idx] = ids[len(ids)-1]
	return ids[:len(ids)-1]
}

// apiClient — тонкий JSON-клиент REST API ресторана.
type apiClient struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	col     *collector
}

// statusError — ответ API с неуспешным статусом.
type statusError struct {
	Method string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Method, e.Status, e.Body)
}

func (c *apiClient) tableOrders(ctx context.Context, table uint32) ([]httptransport.OrderDetails, error) {
	var out []httptransport.OrderDetails
	err := c.do(ctx, "TableOrders", http.MethodGet, fmt.Sprintf("/api/table/%d/orders", table), nil, &out)
	return out, err
}

func (c *apiClient) placeOrder(ctx context.Context, table, item, quantity uint32) (httptransport.OrderDetails, error) {
	var out httptransport.OrderDetails
	body := map[string]uint32{"table_id": table, "item_id": item, "quantity": quantity}
	err := c.do(ctx, "PlaceOrder", http.MethodPost, "/api/orders", body, &out)
	return out, err
}

func (c *apiClient) setQuantity(ctx context.Context, id, quantity uint32) (httptransport.OrderDetails, error) {
	var out httptransport.OrderDetails
	body := map[string]uint32{"quantity": quantity}
	err := c.do(ctx, "SetQuantity", http.MethodPost, fmt.Sprintf("/api/orders/%d/setquantity", id), body, &out)
	return out, err
}

func (c *apiClient) cancelOrder(ctx context.Context, id uint32) (httptransport.OrderDetails, error) {
	var out httptransport.OrderDetails
	err := c.do(ctx, "CancelOrder", http.MethodDelete, fmt.Sprintf("/api/orders/%d", id), nil, &out)
	return out, err
}

func (c *apiClient) clearTable(ctx context.Context, table uint32) ([]httptransport.OrderDetails, error) {
	var out []httptransport.OrderDetails
	err := c.do(ctx, "ClearTable", http.MethodPost, fmt.Sprintf("/api/table/%d/clear", table), nil, &out)
	return out, err
}

func (c *apiClient) do(ctx context.Context, method, httpMethod, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", method, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set(httptransport.HeaderAPIVersion, apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.col.record(method, time.Since(start), codeNetwork, false)
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300 && readErr == nil
	c.col.record(method, time.Since(start), strconv.Itoa(resp.StatusCode), ok)

	if readErr != nil {
		return fmt.Errorf("%s: read response: %w", method, readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{Method: method, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	return nil
}

func scenarioCode(err error) string {
	if err == nil {
		return "ok"
	}
	var se *statusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Status)
	}
	return "assertion_failed"
}

func writeJSONReport(path string, result report) error {
	cleanPath := filepath.Clean(path)
	if cleanPath == "." || cleanPath == string(filepath.Separator) {
		return errors.New("output path must point to a file")
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output path must be inside current directory: %s", path)
	}

	// #nosec G304 -- path is an explicit CLI output parameter for local load-test reports.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printReport(result report, cfg config) {
	fmt.Println("Load test summary")
	fmt.Printf("target=%s tables=%d run=%s rounds=%d success=%d failed=%d error_rate=%.4f\n",
		cfg.addr,
		result.Tables,
		runTarget(cfg),
		result.TotalScenarios,
		result.SuccessScenarios,
		result.FailedScenarios,
		result.ErrorRate,
	)
	fmt.Printf("duration=%.2fs rps=%.2f\n", result.DurationSeconds, result.RPS)
	fmt.Printf("round latency ms: min=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		result.ScenarioLatencyMs.Min,
		result.ScenarioLatencyMs.Avg,
		result.ScenarioLatencyMs.P50,
		result.ScenarioLatencyMs.P95,
		result.ScenarioLatencyMs.P99,
		result.ScenarioLatencyMs.Max,
	)

	methodNames := make([]string, 0, len(result.Methods))
	for name := range result.Methods {
		if name == scenarioName {
			continue
		}
		methodNames = append(methodNames, name)
	}
	sort.Strings(methodNames)
	for _, name := range methodNames {
		stats := result.Methods[name]
		fmt.Printf(
			"%s: calls=%d success=%d failed=%d error_rate=%.4f p95=%.2fms\n",
			name,
			stats.Calls,
			stats.Success,
			stats.Failed,
			stats.ErrorRate,
			stats.LatencyMs.P95,
		)
	}
	if result.FirstError != "" {
		fmt.Printf("first error: %s\n", result.FirstError)
	}
}

func runTarget(cfg config) string {
	switch {
	case cfg.duration <= 0:
		return fmt.Sprintf("rounds:%d", cfg.rounds)
	case cfg.rounds > 0:
		return fmt.Sprintf("duration:%s,max-rounds:%d", cfg.duration, cfg.rounds)
	default:
		return fmt.Sprintf("duration:%s", cfg.duration)
	}
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, value := range sorted {
		sum += value
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
