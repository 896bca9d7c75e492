package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"NiftyImbalance/internal/analyzer"
	"NiftyImbalance/internal/model"
)

// MockPipeline implements Pipeline for testing
type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Run(ctx context.Context, start, end time.Time) (*model.Report, error) {
	args := m.Called(ctx, start, end)
	rep, _ := args.Get(0).(*model.Report)
	return rep, args.Error(1)
}

func setupGinTestMode() {
	gin.SetMode(gin.TestMode)
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newTestServer(t *testing.T, p Pipeline) (*Server, string) {
	t.Helper()
	setupGinTestMode()
	dir := t.TempDir()
	s, err := New(p, Options{
		StaticDir:    dir,
		DefaultStart: "2023-01-01",
		DefaultEnd:   "2023-09-30",
	}, zerolog.Nop())
	require.NoError(t, err)
	return s, dir
}

func postForm(router http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleReport() *model.Report {
	return &model.Report{
		Series: &model.PriceSeries{Symbol: "NIFTY", DailyBars: make([]model.OHLCV, 5)},
		Events: []model.ImbalanceEvent{
			{Left: 0, Right: 2, Top: 18120.5, Bottom: 17856.5},
		},
		ChartFile: "/static/nifty_candlestick_chart.png",
		TableFile: "/static/table.png",
		CreatedAt: time.Unix(1700000000, 0),
	}
}

func TestIndex_Get(t *testing.T) {
	p := &MockPipeline{}
	s, _ := newTestServer(t, p)

	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="fetch_nifty"`)
	assert.Contains(t, body, `value="2023-01-01"`)
	assert.Contains(t, body, `value="2023-09-30"`)
	assert.NotContains(t, body, "<img")
	p.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestIndex_PostWithoutFetch(t *testing.T) {
	p := &MockPipeline{}
	s, _ := newTestServer(t, p)

	w := postForm(s.Routes(), url.Values{"start_date": {"2023-02-01"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<img")
	p.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestIndex_PostFetch(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantStart string
		wantEnd   string
	}{
		{
			name:      "explicit dates",
			form:      url.Values{"fetch_nifty": {"1"}, "start_date": {"2023-03-01"}, "end_date": {"2023-06-30"}},
			wantStart: "2023-03-01",
			wantEnd:   "2023-06-30",
		},
		{
			name:      "blank dates use defaults",
			form:      url.Values{"fetch_nifty": {""}, "start_date": {""}, "end_date": {" "}},
			wantStart: "2023-01-01",
			wantEnd:   "2023-09-30",
		},
		{
			name:      "missing dates use defaults",
			form:      url.Values{"fetch_nifty": {"1"}},
			wantStart: "2023-01-01",
			wantEnd:   "2023-09-30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockPipeline{}
			p.On("Run", mock.Anything, date(tt.wantStart), date(tt.wantEnd)).Return(sampleReport(), nil)
			s, _ := newTestServer(t, p)

			w := postForm(s.Routes(), tt.form)

			assert.Equal(t, http.StatusOK, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, "/static/nifty_candlestick_chart.png?v=")
			assert.Contains(t, body, "/static/table.png?v=")
			assert.Contains(t, body, "17856.50")
			assert.Contains(t, body, "1 bullish volume imbalances")
			p.AssertExpectations(t)
		})
	}
}

func TestIndex_BadDates(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"unparsable start", "01/02/2023", "2023-09-30"},
		{"unparsable end", "2023-01-01", "tomorrow"},
		{"start after end", "2023-09-30", "2023-01-01"},
		{"start equals end", "2023-05-05", "2023-05-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockPipeline{}
			s, _ := newTestServer(t, p)

			w := postForm(s.Routes(), url.Values{"fetch_nifty": {"1"}, "start_date": {tt.start}, "end_date": {tt.end}})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `class="error"`)
			p.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestIndex_PipelineErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"fetch failure", &analyzer.FetchError{Err: errors.New("status 503")}, http.StatusBadGateway},
		{"render failure", errors.New("render chart: disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockPipeline{}
			p.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			s, _ := newTestServer(t, p)

			w := postForm(s.Routes(), url.Values{"fetch_nifty": {"1"}})

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), `class="error"`)
			assert.NotContains(t, w.Body.String(), "<img")
		})
	}
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, &MockPipeline{})
	router := s.Routes()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeaderKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeaderKey, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeaderKey))
}

func TestStaticFiles(t *testing.T) {
	s, dir := newTestServer(t, &MockPipeline{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table.png"), []byte("png"), 0o644))

	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/table.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
}

func TestNoOtherEndpoints(t *testing.T) {
	s, _ := newTestServer(t, &MockPipeline{})

	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNew_TemplateDir(t *testing.T) {
	dir := t.TempDir()
	_, err := New(&MockPipeline{}, Options{TemplateDir: dir}, zerolog.Nop())
	assert.Error(t, err, "empty template dir")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(`custom {{.StartDate}}`), 0o644))
	s, err := New(&MockPipeline{}, Options{TemplateDir: dir, StaticDir: dir, DefaultStart: "2023-01-01"}, zerolog.Nop())
	require.NoError(t, err)

	setupGinTestMode()
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "custom 2023-01-01", w.Body.String())
}
