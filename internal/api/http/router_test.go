package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/api/http/handlers"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/classifier"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/events"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/observability"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/repository"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/service"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/taxonomy"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/worker"
)

type testServer struct {
	app      *fiber.App
	queue    *worker.MemoryQueue
	tickets  *service.TicketService
	requests *repository.MemoryTriageRequestRepository
	metrics  *observability.Metrics
}

func newTestServer(t *testing.T, queueSize int) *testServer {
	t.Helper()
	metrics := observability.NewMetrics()
	queue := worker.NewMemoryQueue(queueSize)
	requests := repository.NewMemoryTriageRequestRepository()
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repository.NewMemoryTicketRepository(),
		HistoryRepo: repository.NewMemoryTicketHistoryRepository(),
		Dispatcher:  events.NewInMemoryDispatcher(),
	})
	submissions := service.NewSubmissionService(service.SubmissionDependencies{
		RequestRepo:          requests,
		Queue:                queue,
		Recorder:             metrics,
		MinDescriptionLength: 15,
		MaxDescriptionLength: 1000,
	})
	app := NewServer(ServerConfig{AppName: "test", BodyLimit: 4 * 1024, Metrics: metrics}, RouteConfig{
		Health:   handlers.NewHealthHandler("test", "0.0.1", nil, nil),
		System:   handlers.NewSystemHandler("test", "0.0.1", metrics),
		Feedback: handlers.NewFeedbackHandler(submissions),
		Tickets:  handlers.NewTicketsHandler(tickets),
	})
	return &testServer{app: app, queue: queue, tickets: tickets, requests: requests, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestSubmit_AcceptsValidReport(t *testing.T) {
	s := newTestServer(t, 4)

	status, body := s.do(t, "POST", "/api/feedback/submit", map[string]any{
		"description": "Leaking faucet in room 204",
		"location":    "Holland Hall",
		"userEmail":   "student@college.edu",
	})

	require.Equal(t, 200, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "received", body["status"])
	requestID, _ := body["requestId"].(string)
	require.NotEmpty(t, requestID)
	assert.Equal(t, 1, s.queue.Len())

	status, body = s.do(t, "GET", "/api/feedback/requests/"+requestID, nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "received", data["state"])
	assert.Equal(t, []any{}, data["original_ticket_ids"])
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (g generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return g(ctx, prompt)
}

func waitForState(t *testing.T, s *testServer, requestID string, state domain.RequestState) map[string]any {
	t.Helper()
	var data map[string]any
	require.Eventually(t, func() bool {
		status, body := s.do(t, "GET", "/api/feedback/requests/"+requestID, nil)
		if status != 200 {
			return false
		}
		data, _ = body["data"].(map[string]any)
		return data["state"] == string(state)
	}, 2*time.Second, 10*time.Millisecond)
	return data
}

func TestSubmit_ReportIsTriagedInTheBackground(t *testing.T) {
	s := newTestServer(t, 4)
	tax := taxonomy.New([]string{"PLUMBING REPAIR", "DOOR REPAIRS"})
	triage := service.NewTriageService(service.TriageDependencies{
		Classifier: classifier.New(tax, generatorFunc(func(context.Context, string) (string, error) {
			return "PLUMBING REPAIR", nil
		}), nil),
		Tickets:             s.tickets,
		RequestRepo:         s.requests,
		SimilarityThreshold: service.DefaultSimilarityThreshold,
		Outcomes:            s.metrics,
	})
	pool := worker.NewPool(s.queue, triage.HandleTask, 2, nil)
	done := make(chan error, 1)
	go func() { done <- pool.Run(context.Background()) }()
	t.Cleanup(func() {
		_ = s.queue.Close()
		require.NoError(t, <-done)
	})

	status, body := s.do(t, "POST", "/api/feedback/submit", map[string]any{
		"description": "Leaking faucet in room 204",
		"location":    "Holland Hall",
	})
	require.Equal(t, 200, status)
	firstID := body["requestId"].(string)

	first := waitForState(t, s, firstID, domain.RequestStateCompleted)
	assert.Equal(t, string(domain.OutcomeTicketCreated), first["outcome"])
	ticketID, _ := first["ticket_id"].(string)
	require.NotEmpty(t, ticketID)

	status, body = s.do(t, "GET", "/api/feedback/tickets/"+ticketID, nil)
	require.Equal(t, 200, status)
	assert.Equal(t, "high", body["data"].(map[string]any)["priority"])

	status, body = s.do(t, "POST", "/api/feedback/submit", map[string]any{
		"description": "Leaking faucet in room 204 again",
		"location":    "Holland Hall",
	})
	require.Equal(t, 200, status)

	second := waitForState(t, s, body["requestId"].(string), domain.RequestStateCompleted)
	assert.Equal(t, string(domain.OutcomeDuplicate), second["outcome"])
	assert.Equal(t, []any{ticketID}, second["original_ticket_ids"])
	assert.Equal(t, int64(2), s.metrics.Snapshot().TotalProcessed)
}

func TestSubmit_RejectsOverlongLocation(t *testing.T) {
	s := newTestServer(t, 4)

	status, body := s.do(t, "POST", "/api/feedback/submit", map[string]any{
		"description": "Leaking faucet in room 204",
		"location":    strings.Repeat("H", 300),
	})

	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	assert.Equal(t, 0, s.queue.Len())
}

func TestSubmit_ValidationListsEveryProblem(t *testing.T) {
	s := newTestServer(t, 4)

	status, body := s.do(t, "POST", "/api/feedback/submit", map[string]any{
		"description": "  ",
		"location":    "",
		"userEmail":   "nope",
	})

	assert.Equal(t, 400, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Len(t, details["errors"], 3)
	assert.Zero(t, s.queue.Len())
}

func TestSubmit_MalformedJSON(t *testing.T) {
	s := newTestServer(t, 4)
	status, body := s.do(t, "POST", "/api/feedback/submit", "{not json")
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestSubmit_FullQueueIsServiceUnavailable(t *testing.T) {
	s := newTestServer(t, 1)
	report := map[string]any{"description": "Leaking faucet in room 204", "location": "Holland Hall"}

	status, _ := s.do(t, "POST", "/api/feedback/submit", report)
	require.Equal(t, 200, status)
	status, body := s.do(t, "POST", "/api/feedback/submit", report)

	assert.Equal(t, 503, status)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(body))
	assert.Equal(t, int64(1), s.metrics.Snapshot().EnqueueFailed)
}

func TestGetRequest_Unknown(t *testing.T) {
	s := newTestServer(t, 1)
	status, body := s.do(t, "GET", "/api/feedback/requests/req_nope", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func seedTicket(t *testing.T, s *testServer, description, location, category string) *domain.Ticket {
	t.Helper()
	ticket, err := s.tickets.CreateTicket(context.Background(), domain.Report{Description: description, Location: location}, category)
	require.NoError(t, err)
	return ticket
}

func TestListTickets_AllAndByLocation(t *testing.T) {
	s := newTestServer(t, 1)
	seedTicket(t, s, "leaking faucet", "Holland Hall", "PLUMBING REPAIR")
	time.Sleep(time.Millisecond)
	seedTicket(t, s, "door stuck", "Library", "DOOR REPAIRS")

	status, body := s.do(t, "GET", "/api/feedback/tickets", nil)
	require.Equal(t, 200, status)
	all := body["data"].([]any)
	require.Len(t, all, 2)
	assert.Equal(t, "Library", all[0].(map[string]any)["location"])

	status, body = s.do(t, "GET", "/api/feedback/tickets?location=Holland%20Hall", nil)
	require.Equal(t, 200, status)
	filtered := body["data"].([]any)
	require.Len(t, filtered, 1)
	assert.Equal(t, "high", filtered[0].(map[string]any)["priority"])

	status, body = s.do(t, "GET", "/api/feedback/tickets?manual_review=maybe", nil)
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, _ = s.do(t, "GET", "/api/feedback/tickets?status=archived", nil)
	assert.Equal(t, 400, status)
}

func TestListTickets_Pagination(t *testing.T) {
	s := newTestServer(t, 1)
	for i := 0; i < 3; i++ {
		seedTicket(t, s, "leaking faucet", "Holland Hall", "PLUMBING REPAIR")
	}

	status, body := s.do(t, "GET", "/api/feedback/tickets?page=2&page_size=2", nil)
	require.Equal(t, 200, status)
	assert.Len(t, body["data"].([]any), 1)
	assert.Equal(t, float64(2), body["page"])
}

func TestGetTicket_FoundAndMissing(t *testing.T) {
	s := newTestServer(t, 1)
	ticket := seedTicket(t, s, "leaking faucet", "Holland Hall", "PLUMBING REPAIR")

	status, body := s.do(t, "GET", "/api/feedback/tickets/"+ticket.ID, nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, ticket.ID, data["id"])
	assert.Equal(t, "PLUMBING REPAIR", data["category"])
	assert.Len(t, data["history"], 1)

	status, body = s.do(t, "GET", "/api/feedback/tickets/missing", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestUpdateStatus(t *testing.T) {
	s := newTestServer(t, 1)
	ticket := seedTicket(t, s, "leaking faucet", "Holland Hall", "PLUMBING REPAIR")

	status, body := s.do(t, "PATCH", "/api/feedback/tickets/"+ticket.ID+"/status", map[string]any{"status": "resolved"})
	require.Equal(t, 200, status)
	assert.Equal(t, "resolved", body["data"].(map[string]any)["status"])

	status, body = s.do(t, "PATCH", "/api/feedback/tickets/missing/status", map[string]any{"status": "closed"})
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestUpdateStatus_ArchivedRejectedRegardlessOfTicket(t *testing.T) {
	s := newTestServer(t, 1)
	ticket := seedTicket(t, s, "leaking faucet", "Holland Hall", "PLUMBING REPAIR")

	for _, id := range []string{ticket.ID, "missing"} {
		status, body := s.do(t, "PATCH", "/api/feedback/tickets/"+id+"/status", map[string]any{"status": "archived"})
		assert.Equal(t, 400, status, id)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(body), id)
	}
}

func TestUpdateStatus_PaddedValueRejected(t *testing.T) {
	s := newTestServer(t, 1)
	ticket := seedTicket(t, s, "leaking faucet", "Holland Hall", "PLUMBING REPAIR")

	for _, value := range []string{"  resolved  ", "Resolved", "resolved\n"} {
		status, body := s.do(t, "PATCH", "/api/feedback/tickets/"+ticket.ID+"/status", map[string]any{"status": value})
		assert.Equal(t, 400, status, value)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(body), value)
	}

	stored, err := s.tickets.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
}

func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(t, 1)

	status, body := s.do(t, "GET", "/", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, "test", body["service"])
	assert.NotEmpty(t, body["endpoints"])

	status, body = s.do(t, "GET", "/health/live", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, "GET", "/health/ready", nil)
	require.Equal(t, 200, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])

	status, body = s.do(t, "GET", "/metrics", nil)
	require.Equal(t, 200, status)
	assert.NotEmpty(t, body["requests"])
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, 1)
	status, body := s.do(t, "GET", "/api/feedback/nope", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, false, body["success"])
}
