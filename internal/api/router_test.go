package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cnquant/internal/api/handlers"
	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/external/sina"
	"github.com/wonny/cnquant/internal/realtime"
	"github.com/wonny/cnquant/internal/realtime/cache"
	"github.com/wonny/cnquant/internal/realtime/feed"
	"github.com/wonny/cnquant/internal/s0_data"
	"github.com/wonny/cnquant/internal/scheduler"
	"github.com/wonny/cnquant/internal/selection"
	"github.com/wonny/cnquant/pkg/database"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/numutil"
)

type fakeQuotes struct {
	quotes map[string]contracts.Quote
	err    error
}

func (f *fakeQuotes) GetQuotes(ctx context.Context, codes []string) (map[string]contracts.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]contracts.Quote)
	for _, code := range codes {
		if q, ok := f.quotes[code]; ok {
			out[code] = q
		}
	}
	if len(out) == 0 {
		return nil, s0_data.ErrNoQuotes
	}
	return out, nil
}

type fakeOverview struct{}

func (fakeOverview) Get(ctx context.Context, code string) (*s0_data.Overview, error) {
	if code == "999999" {
		return nil, errors.New("no data for 999999")
	}
	return &s0_data.Overview{
		Symbol: contracts.ParseSymbol(code),
		Quote:  &contracts.Quote{Code: code, Price: numutil.Ptr(1466.0)},
	}, nil
}

type fakeStore struct {
	report *contracts.ScreenReport
	err    error
}

func (f *fakeStore) GetLatestRun(ctx context.Context) (*contracts.ScreenReport, error) {
	return f.report, f.err
}

type fakeMarket struct {
	err      error
	gotKind  sina.SectorKind
	gotLimit int
}

func (f *fakeMarket) GetIndexQuotes(ctx context.Context, codes []string) ([]contracts.IndexQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []contracts.IndexQuote{
		{Code: "000001", Name: "上证指数", Price: numutil.Ptr(3300.0), ChangePct: numutil.Ptr(-2.5)},
	}, nil
}

func (f *fakeMarket) GetSectorRotation(ctx context.Context, kind sina.SectorKind, limit int) ([]contracts.SectorQuote, error) {
	f.gotKind, f.gotLimit = kind, limit
	if f.err != nil {
		return nil, f.err
	}
	return []contracts.SectorQuote{{Name: "半导体", ChangePct: numutil.Ptr(3.2)}}, nil
}

type fakeJobs struct {
	ran string
}

func (f *fakeJobs) GetJobStats() map[string]scheduler.JobStats {
	return map[string]scheduler.JobStats{"screen": {JobName: "screen", Schedule: "0 40 15 * * 1-5"}}
}

func (f *fakeJobs) RunJob(name string) error {
	if name != "screen" {
		return fmt.Errorf("job %s not found", name)
	}
	f.ran = name
	return nil
}

type fakeHealth struct {
	status database.HealthStatus
}

func (f fakeHealth) HealthCheck(ctx context.Context) *database.HealthStatus {
	status := f.status
	return &status
}

type fakeScorer struct {
	got selection.DeepInputs
}

func (f *fakeScorer) Analyze(ctx context.Context, code string, inputs selection.DeepInputs) (*brain.DeepReport, error) {
	if code == "999999" {
		return nil, errors.New("deep score 999999: no data")
	}
	f.got = inputs
	return &brain.DeepReport{
		Code:   code,
		Inputs: inputs,
		Scores: contracts.DeepScores{Growth: 4, Composite: 3.6},
	}, nil
}

type testEnv struct {
	router http.Handler
	market *fakeMarket
	scorer *fakeScorer
	jobs   *fakeJobs
	store  *fakeStore
	poller *feed.Poller
	output string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()

	quotes := &fakeQuotes{quotes: map[string]contracts.Quote{
		"600519": {Code: "600519", Name: "贵州茅台", Price: numutil.Ptr(1466.0), Source: contracts.SourceTencent},
	}}
	market := &fakeMarket{}
	scorer := &fakeScorer{}
	jobs := &fakeJobs{}
	store := &fakeStore{err: selection.ErrNoRuns}
	poller := feed.NewPoller(quotes, cache.NewQuoteCache(time.Minute, log), time.Hour, log)
	output := filepath.Join(t.TempDir(), "cn_screen_full.json")

	router := NewRouter(Handlers{
		Quotes: handlers.NewQuoteHandler(quotes, fakeOverview{}, log),
		Screen: handlers.NewScreenHandler(store, output, log),
		Market: handlers.NewMarketHandler(market, market, log),
		Score:  handlers.NewScoreHandler(scorer, log),
		Stream: handlers.NewStreamHandler(poller, log),
		Jobs:   handlers.NewJobHandler(jobs, log),
	}, log)

	return &testEnv{router: router, market: market, scorer: scorer, jobs: jobs, store: store, poller: poller, output: output}
}

func (e *testEnv) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, "GET", "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "database")
}

func TestHealth_Database(t *testing.T) {
	log := logger.Nop()

	tests := []struct {
		name   string
		db     fakeHealth
		code   int
		status string
	}{
		{"healthy", fakeHealth{database.HealthStatus{Healthy: true, TotalConns: 3, IdleConns: 2}}, http.StatusOK, "ok"},
		{"unreachable", fakeHealth{database.HealthStatus{Error: "connection refused"}}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(Handlers{DB: tt.db}, log)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.status, body["status"])
			require.Contains(t, body, "database")
			assert.Equal(t, tt.db.status.Healthy, body["database"].(map[string]interface{})["healthy"])
		})
	}
}

func TestGetQuotes(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		target  string
		status  int
		missing []interface{}
	}{
		{"found and missing", "/api/quotes?codes=600519,000858,600519", http.StatusOK, []interface{}{"000858"}},
		{"none found", "/api/quotes?codes=000858", http.StatusOK, []interface{}{"000858"}},
		{"no codes", "/api/quotes?codes=", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := env.do(t, "GET", tt.target)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.missing, body["missing"])
			}
		})
	}
}

func TestGetQuotes_TooMany(t *testing.T) {
	env := newTestEnv(t)
	codes := make([]string, 201)
	for i := range codes {
		codes[i] = fmt.Sprintf("%06d", i)
	}

	rec, _ := env.do(t, "GET", "/api/quotes?codes="+strings.Join(codes, ","))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOverview(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, "GET", "/api/stocks/600519/overview")
	require.Equal(t, http.StatusOK, rec.Code)
	symbol := body["symbol"].(map[string]interface{})
	assert.Equal(t, "sh", symbol["market"])

	rec, _ = env.do(t, "GET", "/api/stocks/60051X/overview")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, "GET", "/api/stocks/999999/overview")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScore(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, "GET", "/api/stocks/600519/score?revenue_growth=35&peg=0.7&days_to_event=5&news=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.6, body["scores"].(map[string]interface{})["composite"])
	require.NotNil(t, env.scorer.got.RevenueGrowthPct)
	assert.Equal(t, 35.0, *env.scorer.got.RevenueGrowthPct)
	assert.Equal(t, 0.7, *env.scorer.got.PEG)
	assert.Equal(t, 5, *env.scorer.got.DaysToEvent)
	assert.Equal(t, 2, env.scorer.got.NewsCount)
	assert.Nil(t, env.scorer.got.NorthNetFlowM)
	assert.Nil(t, env.scorer.got.BullPct)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"bad code", "/api/stocks/60051X/score", http.StatusBadRequest},
		{"bad number", "/api/stocks/600519/score?peg=cheap", http.StatusBadRequest},
		{"negative days", "/api/stocks/600519/score?days_to_event=-1", http.StatusBadRequest},
		{"no data", "/api/stocks/999999/score", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := env.do(t, "GET", tt.target)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestScreenLatest_FileFallback(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, "GET", "/api/screen/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	report := contracts.ScreenReport{Market: "A股", UniverseSize: 3, AfterFilter: 3, Results: []contracts.ScreenResult{}}
	data, err := json.Marshal(report)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(env.output, data, 0o644))

	rec, body := env.do(t, "GET", "/api/screen/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["universe_size"])
}

func TestScreenLatest_FromStore(t *testing.T) {
	env := newTestEnv(t)
	env.store.report = &contracts.ScreenReport{Market: "A股", UniverseSize: 5500, Results: []contracts.ScreenResult{}}
	env.store.err = nil

	rec, body := env.do(t, "GET", "/api/screen/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5500), body["universe_size"])
}

func TestMarketEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, "GET", "/api/market/indices")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["indices"], 1)

	rec, _ = env.do(t, "GET", "/api/market/sectors?kind=concept&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sina.SectorConcept, env.market.gotKind)
	assert.Equal(t, 5, env.market.gotLimit)

	rec, _ = env.do(t, "GET", "/api/market/sectors?kind=region")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = env.do(t, "GET", "/api/market/environment?trend=inflow")
	require.Equal(t, http.StatusOK, rec.Code)
	// inflow is green, but a -2.5% Shanghai day caps it at yellow
	assert.Equal(t, string(selection.SignalYellow), body["signal"])
	assert.Len(t, body["reasons"], 2)
}

func TestMarketEndpoints_UpstreamDown(t *testing.T) {
	env := newTestEnv(t)
	env.market.err = errors.New("timeout")

	rec, _ := env.do(t, "GET", "/api/market/indices")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec, body := env.do(t, "GET", "/api/market/environment")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"数据不足，默认黄灯"}, body["reasons"])
}

func TestJobs(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, "GET", "/api/jobs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["jobs"], "screen")

	rec, _ = env.do(t, "POST", "/api/jobs/screen/run")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "screen", env.jobs.ran)

	rec, _ = env.do(t, "POST", "/api/jobs/unknown/run")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStream_SendsSnapshots(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/quotes?codes=600519,000858&interval=1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var snap realtime.Snapshot
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&snap))
	require.Len(t, snap.Quotes, 1)
	assert.Equal(t, "600519", snap.Quotes[0].Code)
	assert.Equal(t, []string{"000858"}, snap.Missing)
	assert.Equal(t, []string{"000858", "600519"}, env.poller.Tracked())

	require.NoError(t, conn.ReadJSON(&snap), "periodic snapshot")

	conn.Close()
	assert.Eventually(t, func() bool { return len(env.poller.Tracked()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStream_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, "GET", "/ws/quotes?codes=600519&interval=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, "GET", "/ws/quotes")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
