package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"salesdesk/internal/cache"
	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
	"salesdesk/internal/repository"
	"salesdesk/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRemote struct {
	resp *model.AssistantResponse
	err  error
	last *model.AssistantRequest
}

func (f *fakeRemote) Answer(_ context.Context, req *model.AssistantRequest) (*model.AssistantResponse, error) {
	f.last = req
	if f.resp == nil {
		return nil, f.err
	}
	cp := *f.resp
	return &cp, f.err
}

type testServer struct {
	router  *gin.Engine
	repo    *repository.SQLRepository
	queries *service.QueryService
	remote  *fakeRemote
}

// newTestServer wires the real services over a seeded in-memory SQLite
// store. remote nil turns the assistant off.
func newTestServer(t *testing.T, remote *fakeRemote) *testServer {
	t.Helper()
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.Migrate(ctx))
	f, err := catalog.LoadFixture("")
	require.NoError(t, err)
	require.NoError(t, repo.Seed(ctx, f))

	var answerer service.Answerer
	if remote != nil {
		answerer = remote
	}
	assistant := service.NewAssistantService(answerer, cache.NewMemoryClient(100), service.AssistantOptions{}, log)

	var pipelineAssistant pipeline.Assistant
	if assistant.Enabled() {
		pipelineAssistant = assistant
	}
	queries := service.NewQueryService(repo, pipeline.New(pipelineAssistant, pipeline.DefaultOptions(), log), repo, log)

	router := SetupRouter(Services{
		Store:     repo,
		Queries:   queries,
		Search:    service.NewSearchService(repo, nil, log),
		Assistant: assistant,
		Indexer:   service.NewFAQIndexer(repo, nil, nil, log),
	}, RouterConfig{
		AllowOrigins: []string{"*"},
		StoreDriver:  repo.Driver(),
		Build:        BuildInfo{Version: "test", BuildTime: "now", GitCommit: "abc123"},
		Logger:       log,
	})

	return &testServer{router: router, repo: repo, queries: queries, remote: remote}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "" && cur.name != "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func eventNames(events []sseEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.name)
	}
	return out
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, repository.DriverSQLite, health["store"])
	assert.Equal(t, false, health["assistant"])

	w = s.do(t, http.MethodGet, "/version", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", decode[map[string]string](t, w)["git_commit"])
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/listings/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "API endpoint not found", decode[map[string]string](t, w)["error"])
}

func TestQuery(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/query", model.QueryRequest{Query: "Show me properties under 1 crore", ProjectID: "greenfield-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[model.QueryResponse](t, w)
	assert.Equal(t, pipeline.StageKeyword, resp.Stage)
	assert.Contains(t, resp.Result.Text, "No properties found under ₹1 Crore")
	assert.NotEmpty(t, resp.ID)

	// the logged query can take feedback
	s.queries.Wait()
	w = s.do(t, http.MethodPost, "/api/v1/feedback", model.FeedbackRequest{QueryID: resp.ID, Action: service.ActionHelpful})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[model.FeedbackResponse](t, w).Success)

	count, err := s.repo.FeedbackCount(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecentQueries(t *testing.T) {
	s := newTestServer(t, nil)

	var ids []string
	for _, q := range []string{"Sea View", "penthouse"} {
		w := s.do(t, http.MethodPost, "/api/v1/query", model.QueryRequest{Query: q})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		ids = append(ids, decode[model.QueryResponse](t, w).ID)
		// created_at orders the log, keep the writes apart
		s.queries.Wait()
	}
	w := s.do(t, http.MethodPost, "/api/v1/feedback", model.FeedbackRequest{QueryID: ids[1], Action: service.ActionContact})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/queries/recent?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Queries []model.QueryHistoryEntry `json:"queries"`
		Total   int                       `json:"total"`
	}](t, w)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, ids[1], body.Queries[0].ID)
	assert.Equal(t, "penthouse", body.Queries[0].Query)
	assert.Equal(t, 1, body.Queries[0].FeedbackCount)

	w = s.do(t, http.MethodGet, "/api/v1/queries/recent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["total"])

	w = s.do(t, http.MethodGet, "/api/v1/queries/recent?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"missing query", map[string]string{"project_id": "greenfield-1"}, http.StatusBadRequest},
		{"blank query", model.QueryRequest{Query: "   "}, http.StatusBadRequest},
		{"unknown project", model.QueryRequest{Query: "3 BHK", ProjectID: "atlantis-9"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/query", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestQueryStream(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/query/stream", model.QueryRequest{Query: "zzz", ProjectID: "greenfield-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	events := parseSSE(t, w.Body.String())
	assert.Equal(t, []string{"start", "stage", "stage", "stage", "stage", "stage", "result", "done"}, eventNames(events))

	var last pipeline.StageEvent
	require.NoError(t, json.Unmarshal([]byte(events[5].data), &last))
	assert.Equal(t, pipeline.StageDefault, last.Stage)
	assert.Equal(t, pipeline.OutcomeAnswered, last.Outcome)

	var resp model.QueryResponse
	require.NoError(t, json.Unmarshal([]byte(events[6].data), &resp))
	assert.Equal(t, pipeline.StageDefault, resp.Stage)
}

func TestQueryStreamError(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/query/stream", model.QueryRequest{Query: "3 BHK", ProjectID: "atlantis-9"})
	events := parseSSE(t, w.Body.String())
	assert.Equal(t, []string{"start", "error"}, eventNames(events))
	assert.Contains(t, events[1].data, "project not found")
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	projects := decode[struct {
		Projects []model.Project `json:"projects"`
		Total    int             `json:"total"`
	}](t, w)
	assert.Equal(t, 4, projects.Total)

	w = s.do(t, http.MethodGet, "/api/v1/projects/skyview-3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SKYVIEW", decode[model.Project](t, w).Name)

	w = s.do(t, http.MethodGet, "/api/v1/projects/skyview-3/units", nil)
	require.Equal(t, http.StatusOK, w.Code)
	units := decode[struct {
		Units []model.Unit `json:"units"`
	}](t, w)
	require.Len(t, units.Units, 2)
	assert.Equal(t, "unit-5", units.Units[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/projects/skyview-3/faqs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["total"])

	w = s.do(t, http.MethodGet, "/api/v1/projects/atlantis-9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/projects/atlantis-9/units", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Categories []model.CategoryCount `json:"categories"`
		TotalFAQs  int                   `json:"total_faqs"`
	}](t, w)
	assert.Equal(t, 8, body.TotalFAQs)
	assert.Len(t, body.Categories, len(pipeline.Categories()))
	sum := 0
	for _, c := range body.Categories {
		sum += c.Count
	}
	assert.Equal(t, 8, sum)

	w = s.do(t, http.MethodGet, "/api/v1/categories?project_id=skyview-3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["total_faqs"])

	w = s.do(t, http.MethodGet, "/api/v1/categories?project_id=atlantis-9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/categories/"+pipeline.MiscellaneousID+"/faqs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/categories/weather/faqs", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuickFilters(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/quick-filters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	filters := decode[struct {
		Filters []model.QuickFilter `json:"filters"`
	}](t, w)
	require.Len(t, filters.Filters, 6)
	assert.Equal(t, "under-1cr", filters.Filters[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/quick-filters/ready-to-move/units", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[model.UnitSearchResponse](t, w)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "unit-5", resp.Results[0].Unit.ID)

	w = s.do(t, http.MethodGet, "/api/v1/quick-filters/high-floor/units?project_id=greenfield-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[model.UnitSearchResponse](t, w)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, []string{"floor_min"}, resp.Applied.Ignored)

	w = s.do(t, http.MethodGet, "/api/v1/quick-filters/villas/units", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/quick-filters/sea-view/units?project_id=atlantis-9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/feedback", model.FeedbackRequest{QueryID: "q-1", Action: "click"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/feedback", model.FeedbackRequest{QueryID: "q-404", Action: service.ActionContact})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/feedback", map[string]string{"action": service.ActionContact})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssistant(t *testing.T) {
	s := newTestServer(t, &fakeRemote{resp: &model.AssistantResponse{Response: "🏠 SKYVIEW", Confidence: model.ConfidenceHigh}})

	w := s.do(t, http.MethodPost, "/api/v1/assistant", model.AssistantRequest{Query: "tell me about skyview", UnitsData: []model.Unit{}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[model.AssistantResponse](t, w)
	assert.Equal(t, "🏠 SKYVIEW", resp.Response)
	assert.Equal(t, model.ConfidenceHigh, resp.Confidence)

	w = s.do(t, http.MethodPost, "/api/v1/assistant", map[string]string{"context": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.AssistantFallbackText, decode[model.AssistantError](t, w).Fallback)
}

func TestAssistantFailureAnswersLocally(t *testing.T) {
	s := newTestServer(t, &fakeRemote{err: errors.New("upstream timeout")})

	w := s.do(t, http.MethodPost, "/api/v1/assistant", model.AssistantRequest{Query: "anything available?"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[model.AssistantResponse](t, w)
	assert.Equal(t, model.ConfidenceLow, resp.Confidence)
	assert.Equal(t, service.LocalFallbackReason, resp.Fallback)
	assert.Contains(t, resp.Response, "🏠 **Availability Update**")
}

func TestAssistantDisabled(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/assistant", model.AssistantRequest{Query: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[model.AssistantError](t, w)
	assert.Equal(t, service.ErrAssistantDisabled.Error(), body.Error)
	assert.Equal(t, service.AssistantFallbackText, body.Fallback)

	w = s.do(t, http.MethodPost, "/api/v1/assistant/stream", model.AssistantRequest{Query: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/projects/greenfield-1/quick/pricing", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAssistantStream(t *testing.T) {
	s := newTestServer(t, &fakeRemote{resp: &model.AssistantResponse{Response: "🏠 EDGE", Confidence: model.ConfidenceHigh}})

	w := s.do(t, http.MethodPost, "/api/v1/assistant/stream", model.AssistantRequest{Query: "work from home units"})
	require.Equal(t, http.StatusOK, w.Code)

	events := parseSSE(t, w.Body.String())
	assert.Equal(t, []string{"start", "token", "result", "done"}, eventNames(events))
	assert.JSONEq(t, `{"content":"🏠 EDGE"}`, events[1].data)
}

func TestQuickResponse(t *testing.T) {
	remote := &fakeRemote{resp: &model.AssistantResponse{Response: "💰 From ₹2.80 Cr"}}
	s := newTestServer(t, remote)

	w := s.do(t, http.MethodGet, "/api/v1/projects/greenfield-1/quick/pricing", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Kind   string                  `json:"kind"`
		Answer model.AssistantResponse `json:"answer"`
	}](t, w)
	assert.Equal(t, service.QuickPricing, body.Kind)
	assert.Equal(t, "💰 From ₹2.80 Cr", body.Answer.Response)

	require.NotNil(t, remote.last)
	assert.Equal(t, "What is the starting price for Greenfield?", remote.last.Query)
	assert.Equal(t, model.ContextPricing, remote.last.Context)
	assert.Len(t, remote.last.UnitsData, 2)

	w = s.do(t, http.MethodGet, "/api/v1/projects/greenfield-1/quick/weather", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/projects/atlantis-9/quick/pricing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmbeddingsDisabled(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/embeddings/faqs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
