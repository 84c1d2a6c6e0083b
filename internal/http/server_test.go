package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/mentord/internal/learner"
	"github.com/fyrsmithlabs/mentord/internal/logging"
	"github.com/fyrsmithlabs/mentord/internal/memory"
	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"github.com/fyrsmithlabs/mentord/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type MockParser struct {
	mock.Mock
}

func (m *MockParser) Parse(ctx context.Context, in orchestrator.Input) (orchestrator.Problem, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(orchestrator.Problem), args.Error(1)
}

type MockSolver struct {
	mock.Mock
}

func (m *MockSolver) Solve(ctx context.Context, req orchestrator.SolveRequest) (orchestrator.Solution, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(orchestrator.Solution), args.Error(1)
}

type testEnv struct {
	server *Server
	parser *MockParser
	solver *MockSolver
	logger *logging.TestLogger
	reg    *prometheus.Registry
}

// setupTestServer creates a test server backed by a real orchestrator and mock agents.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	profile, err := learner.NewProfile(map[string]int{"Algebra": 85}, nil)
	require.NoError(t, err)
	seed, err := memory.NewItem("Algebra", "Check the discriminant first", 0.9, memory.SourceSystem)
	require.NoError(t, err)

	env := &testEnv{
		parser: &MockParser{},
		solver: &MockSolver{},
		logger: logging.NewTestLogger(),
		reg:    prometheus.NewRegistry(),
	}

	orch, err := orchestrator.New(env.parser, env.solver, memory.NewStore(*seed), profile,
		orchestrator.WithLogger(env.logger.Logger),
		orchestrator.WithMetrics(orchestrator.NewMetrics(env.reg)),
	)
	require.NoError(t, err)

	env.server, err = NewServer(orch, env.logger.Logger, &Config{
		Host:     "localhost",
		Port:     9090,
		Version:  "test",
		Gatherer: env.reg,
		Metrics:  NewHTTPMetrics(env.reg),
		Health: func() telemetry.HealthStatus {
			return telemetry.HealthStatus{Healthy: true}
		},
	})
	require.NoError(t, err)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.server.echo.ServeHTTP(rec, req)
	return rec
}

func algebraProblem(confidence float64) orchestrator.Problem {
	return orchestrator.Problem{
		Text:       "Solve x^2 - 5x + 6 = 0",
		Topic:      orchestrator.TopicAlgebra,
		Confidence: confidence,
		Complexity: orchestrator.ComplexityEasy,
	}
}

func algebraSolution() orchestrator.Solution {
	return orchestrator.Solution{
		FinalAnswer:     "x = 2 or x = 3",
		Steps:           []orchestrator.Step{{Number: 1, Explanation: "Factor as (x-2)(x-3)"}},
		SimilarProblems: []orchestrator.SimilarProblem{{ID: "1", Text: "Solve x^2 - 7x + 12 = 0"}},
		Verification:    orchestrator.VerificationVerified,
	}
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) orchestrator.SessionState {
	t.Helper()
	var st orchestrator.SessionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNewServer(t *testing.T) {
	t.Run("uses defaults when config is nil", func(t *testing.T) {
		env := setupTestServer(t)
		server, err := NewServer(env.server.pipeline, logging.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 9090, server.config.Port)
		assert.NotNil(t, server.config.Gatherer)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		env := setupTestServer(t)
		_, err := NewServer(env.server.pipeline, nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when pipeline is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.NewNop(), nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
	require.NotNil(t, resp.Telemetry)
	assert.True(t, resp.Telemetry.Healthy)
}

func TestHandleSubmit(t *testing.T) {
	t.Run("completes high confidence problem", func(t *testing.T) {
		env := setupTestServer(t)
		env.parser.On("Parse", mock.Anything, mock.Anything).Return(algebraProblem(0.95), nil)
		env.solver.On("Solve", mock.Anything, mock.Anything).Return(algebraSolution(), nil)

		rec := env.do(t, http.MethodPost, "/api/v1/submit", SubmitRequest{Mode: orchestrator.ModeText, Text: "x^2-5x+6=0"})

		require.Equal(t, http.StatusOK, rec.Code)
		st := decodeSession(t, rec)
		assert.Equal(t, orchestrator.StageCompleted, st.Stage)
		require.NotNil(t, st.Solution)
		assert.Equal(t, "x = 2 or x = 3", st.Solution.FinalAnswer)
		assert.Equal(t, 85, st.Progress.Mastery("Algebra"))
	})

	t.Run("decodes base64 media", func(t *testing.T) {
		env := setupTestServer(t)
		env.parser.On("Parse", mock.Anything, orchestrator.Input{
			Mode: orchestrator.ModeImage, Data: []byte("PNGDATA"), MIMEType: "image/png",
		}).Return(algebraProblem(0.5), nil)

		body := `{"mode":"IMAGE","data":"UE5HREFUQQ==","mimeType":"image/png"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/submit", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		env.server.echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, orchestrator.StageAwaitingReview, decodeSession(t, rec).Stage)
		env.parser.AssertExpectations(t)
	})

	t.Run("rejects empty text with 400", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodPost, "/api/v1/submit", SubmitRequest{Mode: orchestrator.ModeText, Text: " "})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "validation", resp.Kind)
		require.NotNil(t, resp.Session)
		assert.Equal(t, orchestrator.StageError, resp.Session.Stage)
		env.parser.AssertNotCalled(t, "Parse", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		env := setupTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/submit", strings.NewReader("{not json"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		env.server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps agent failure to 502", func(t *testing.T) {
		env := setupTestServer(t)
		env.parser.On("Parse", mock.Anything, mock.Anything).Return(orchestrator.Problem{},
			orchestrator.NewAgentError("parser", orchestrator.KindSafety, errors.New("SAFETY")))

		rec := env.do(t, http.MethodPost, "/api/v1/submit", SubmitRequest{Mode: orchestrator.ModeText, Text: "q"})

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "safety", resp.Kind)
		assert.Equal(t, "Content flagged by safety filters.", resp.Error)
		assert.Equal(t, "Content flagged by safety filters.", resp.Session.Error)
	})
}

func TestReviewFlow(t *testing.T) {
	env := setupTestServer(t)
	env.parser.On("Parse", mock.Anything, mock.Anything).Return(algebraProblem(0.6), nil)
	env.solver.On("Solve", mock.Anything, mock.Anything).Return(algebraSolution(), nil)

	rec := env.do(t, http.MethodPost, "/api/v1/review/resolve", ReviewRequest{Text: "early"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "state", decodeError(t, rec).Kind)

	rec = env.do(t, http.MethodPost, "/api/v1/submit", SubmitRequest{Mode: orchestrator.ModeText, Text: "x2-5x+6"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orchestrator.StageAwaitingReview, decodeSession(t, rec).Stage)

	rec = env.do(t, http.MethodPost, "/api/v1/review/resolve", ReviewRequest{Text: "Solve x^2 - 5x + 6 = 0 for real x"})
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeSession(t, rec)
	assert.Equal(t, orchestrator.StageCompleted, st.Stage)
	assert.Equal(t, 2, st.MemorySize)

	rec = env.do(t, http.MethodGet, "/api/v1/memory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mem MemoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mem))
	require.Len(t, mem.Items, 2)
	assert.Equal(t, memory.SourceUserCorrection, mem.Items[0].Source)

	rec = env.do(t, http.MethodGet, "/api/v1/trace", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trace TraceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trace))
	assert.NotEmpty(t, trace.Entries)
	assert.Equal(t, "System", trace.Entries[0].Stage)
}

func TestCancelAndReset(t *testing.T) {
	env := setupTestServer(t)
	env.parser.On("Parse", mock.Anything, mock.Anything).Return(algebraProblem(0.2), nil)

	rec := env.do(t, http.MethodPost, "/api/v1/review/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env.do(t, http.MethodPost, "/api/v1/submit", SubmitRequest{Mode: orchestrator.ModeText, Text: "q"})

	rec = env.do(t, http.MethodPost, "/api/v1/review/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orchestrator.StageIdle, decodeSession(t, rec).Stage)

	rec = env.do(t, http.MethodPost, "/api/v1/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeSession(t, rec)
	assert.Equal(t, orchestrator.StageIdle, st.Stage)
	assert.Empty(t, st.Trace)

	rec = env.do(t, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, st.ID, decodeSession(t, rec).ID)
}

func TestHandleSimilar(t *testing.T) {
	env := setupTestServer(t)
	env.parser.On("Parse", mock.Anything, mock.Anything).Return(algebraProblem(0.95), nil)
	env.solver.On("Solve", mock.Anything, mock.Anything).Return(algebraSolution(), nil)

	env.do(t, http.MethodPost, "/api/v1/submit", SubmitRequest{Mode: orchestrator.ModeText, Text: "q"})

	rec := env.do(t, http.MethodPost, "/api/v1/similar/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/similar/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env.parser.AssertCalled(t, "Parse", mock.Anything, orchestrator.Input{Mode: orchestrator.ModeText, Text: "Solve x^2 - 7x + 12 = 0"})
}

func TestHandlePreferences(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPut, "/api/v1/preferences", PreferencesRequest{ExplanationLevel: "Expert"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/preferences", PreferencesRequest{ExplanationLevel: orchestrator.LevelAdvanced})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, orchestrator.LevelAdvanced, decodeSession(t, rec).ExplanationLevel)
}

func TestHandleMetrics(t *testing.T) {
	env := setupTestServer(t)
	env.parser.On("Parse", mock.Anything, mock.Anything).Return(algebraProblem(0.3), nil)
	env.do(t, http.MethodPost, "/api/v1/submit", SubmitRequest{Mode: orchestrator.ModeText, Text: "q"})

	rec := env.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `mentord_orchestrator_submissions_total{mode="TEXT"} 1`)
	assert.Contains(t, body, `mentord_orchestrator_reviews_total{outcome="requested"} 1`)
	assert.Contains(t, body, "mentord_http_requests_total")
}

func TestServerLifecycle(t *testing.T) {
	t.Run("starts and shuts down gracefully", func(t *testing.T) {
		env := setupTestServer(t)
		env.server.config.Port = 0 // Use random available port

		errChan := make(chan error, 1)
		go func() {
			errChan <- env.server.Start()
		}()

		// Give server time to start
		time.Sleep(100 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := env.server.Shutdown(ctx)
		assert.NoError(t, err)

		select {
		case err := <-errChan:
			assert.True(t, err == nil || errors.Is(err, http.ErrServerClosed))
		case <-time.After(6 * time.Second):
			t.Fatal("server did not shut down in time")
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("adds request ID to response and logs", func(t *testing.T) {
		env := setupTestServer(t)

		rec := env.do(t, http.MethodGet, "/health", nil)

		rid := rec.Header().Get(echo.HeaderXRequestID)
		assert.NotEmpty(t, rid)
		env.logger.AssertLogged(t, zapcore.InfoLevel, "http request")
	})

	t.Run("recovers from panic", func(t *testing.T) {
		env := setupTestServer(t)

		env.server.echo.GET("/panic", func(c echo.Context) error {
			panic("test panic")
		})

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			env.server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
