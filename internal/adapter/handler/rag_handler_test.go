package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-rag/errors"
	"github.com/johnquangdev/meeting-rag/internal/domain/entities"
	domainrepo "github.com/johnquangdev/meeting-rag/internal/domain/repositories"
	"github.com/johnquangdev/meeting-rag/pkg/config"
	"github.com/johnquangdev/meeting-rag/pkg/validator"
)

// stubRAGService scripts the façade for handler tests.
type stubRAGService struct {
	chunkCount int
	processErr error
	queryErr   error
	fragments  []string
	processed  bool
	status     domainrepo.QueueStatusCounts
}

func (s *stubRAGService) ProcessMeeting(_ context.Context, _ string, _ []entities.RawSegment, _ string) (int, error) {
	return s.chunkCount, s.processErr
}

func (s *stubRAGService) ReprocessMeeting(_ context.Context, _ string, _ []entities.RawSegment, _ string) (int, error) {
	return s.chunkCount, s.processErr
}

func (s *stubRAGService) stream() (<-chan string, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := make(chan string, len(s.fragments))
	for _, f := range s.fragments {
		out <- f
	}
	close(out)
	return out, nil
}

func (s *stubRAGService) QueryMeeting(context.Context, string, string) (<-chan string, error) {
	return s.stream()
}

func (s *stubRAGService) QueryGlobal(context.Context, string) (<-chan string, error) {
	return s.stream()
}

func (s *stubRAGService) Query(context.Context, string, string) (<-chan string, error) {
	return s.stream()
}

func (s *stubRAGService) IsReady() bool { return true }

func (s *stubRAGService) IsMeetingProcessed(context.Context, string) (bool, error) {
	return s.processed, nil
}

func (s *stubRAGService) GetQueueStatus(context.Context) (*domainrepo.QueueStatusCounts, error) {
	return &s.status, nil
}

func (s *stubRAGService) RetryPendingEmbeddings(context.Context) error { return nil }

func newTestEcho(svc *stubRAGService) *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()
	cfg := &config.Config{}
	NewRouter(cfg, NewRAG(svc, zap.NewNop())).Setup(e)
	return e
}

func TestProcessMeetingEndpoint(t *testing.T) {
	e := newTestEcho(&stubRAGService{chunkCount: 4})

	body := `{"meeting_id":"m1","transcript":[{"speaker":"Alice","text":"We decided to ship.","timestamp_ms":0}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/meetings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"chunk_count":4`) {
		t.Errorf("response missing chunk count: %s", rec.Body.String())
	}
}

func TestProcessMeetingEndpointRejectsMissingFields(t *testing.T) {
	e := newTestEcho(&stubRAGService{})

	body := `{"transcript":[]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/meetings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}

func TestQueryEndpointStreams(t *testing.T) {
	e := newTestEcho(&stubRAGService{fragments: []string{"The launch", " is Friday."}})

	body := `{"meeting_id":"m1","query":"what did we decide?"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}
	got := rec.Body.String()
	if !strings.Contains(got, "data: The launch\n\n") || !strings.Contains(got, "data: [DONE]\n\n") {
		t.Errorf("unexpected SSE body:\n%s", got)
	}
}

func TestQueryEndpointSurfacesSentinels(t *testing.T) {
	e := newTestEcho(&stubRAGService{queryErr: apperrors.ErrNoMeetingEmbeddings("m1")})

	body := `{"meeting_id":"m1","query":"what did we decide?"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("sentinel should not stream, body %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), string(apperrors.ErrorCode_NO_MEETING_EMBEDDINGS)) {
		t.Errorf("response missing sentinel code: %s", rec.Body.String())
	}
}

func TestQueueStatusEndpoint(t *testing.T) {
	e := newTestEcho(&stubRAGService{status: domainrepo.QueueStatusCounts{Pending: 2, Failed: 1}})

	req := httptest.NewRequest(http.MethodGet, "/v1/rag/queue/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := rec.Body.String()
	if !strings.Contains(got, `"pending":2`) || !strings.Contains(got, `"failed":1`) {
		t.Errorf("unexpected body: %s", got)
	}
}
