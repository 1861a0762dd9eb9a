package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/clock"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/config"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/drafts"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/evaluation"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/handlers"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/integrity"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/report"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/rounds"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/session"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/testhelpers"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

const testSecret = "test-secret"

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, role, difficulty string, kind models.RoundKind, count int) ([]models.Item, error) {
	items := make([]models.Item, count)
	for i := range items {
		items[i] = models.Item{Prompt: fmt.Sprintf("%s q%d", kind, i+1), Difficulty: difficulty}
		if kind == models.RoundCoding {
			items[i].TestCases = `[{"input":"1","expected":"1"}]`
		}
	}
	return items, nil
}

type stubEnqueuer struct{ count int }

func (s *stubEnqueuer) Enqueue(ctx context.Context, payload *evaluation.SubmissionPayload) (string, error) {
	s.count++
	return fmt.Sprintf("job-%d", s.count), nil
}

type stubStatuser struct {
	view *models.EvaluationView
}

func (s *stubStatuser) Status(ctx context.Context, itemID string) (*models.EvaluationView, error) {
	if s.view != nil {
		return s.view, nil
	}
	return &models.EvaluationView{}, nil
}

func routesConfig() *config.Config {
	return &config.Config{
		Weights: map[models.RoundKind]float64{
			models.RoundTechnical: 0.40,
			models.RoundHR:        0.25,
			models.RoundCoding:    0.35,
		},
		Thresholds: []config.DecisionThreshold{
			{Min: 85, Decision: "strong_hire"},
			{Min: 70, Decision: "hire"},
			{Min: 50, Decision: "consider"},
			{Min: 0, Decision: "reject"},
		},
		IntegrityPenaltyPerSignal: 2.0,
		IntegrityPenaltyCap:       15.0,
		Rounds: map[models.RoundKind]config.RoundPlan{
			models.RoundTechnical: {Kind: models.RoundTechnical, ItemCount: 2},
			models.RoundHR:        {Kind: models.RoundHR, ItemCount: 1},
			models.RoundCoding:    {Kind: models.RoundCoding, ItemCount: 1, TimeLimit: 45 * time.Minute},
		},
	}
}

type testServer struct {
	router   *chi.Mux
	statuser *stubStatuser
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	logger := utils.GetLogger()
	cfg := routesConfig()
	clk := &clock.Fake{Current: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	roundSvc := rounds.NewService(db, clk, stubGenerator{}, &stubEnqueuer{}, cfg.Rounds, logger)
	recorder := integrity.NewRecorder(db)
	reports := report.NewStore(db)
	orchestrator := session.NewOrchestrator(db, roundSvc, recorder, reports, cfg, logger)
	draftStore := drafts.NewStore(redisClient, time.Hour)
	statuser := &stubStatuser{}

	sessions := handlers.NewSessionHandler(orchestrator, logger)
	h := Handlers{
		Sessions:    sessions,
		Rounds:      handlers.NewRoundHandler(orchestrator, sessions, draftStore, logger),
		Evaluations: handlers.NewEvaluationHandler(orchestrator, sessions, statuser, logger),
		Drafts:      handlers.NewDraftHandler(orchestrator, sessions, draftStore, logger),
		Integrity:   handlers.NewIntegrityHandler(sessions, recorder, logger),
		Reports:     handlers.NewReportHandler(sessions, reports, logger),
	}

	router := chi.NewRouter()
	InterviewRoutes(router, h, testSecret)
	return &testServer{router: router, statuser: statuser}
}

func candidateToken(t *testing.T, candidateID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": candidateID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[models.ErrorResponse](t, rec).Code
}

func (s *testServer) createSession(t *testing.T, token string) models.Session {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/sessions", token, models.CreateSessionRequest{
		TargetRole: "backend",
		Difficulty: "medium",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[models.Session](t, rec)
}

func (s *testServer) startRound(t *testing.T, token, sessionID string, kind models.RoundKind) models.RoundSnapshot {
	t.Helper()
	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/sessions/%s/rounds/%s/start", sessionID, kind), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start %s: expected 200, got %d: %s", kind, rec.Code, rec.Body.String())
	}
	return decodeBody[models.RoundSnapshot](t, rec)
}

func (s *testServer) finishRound(t *testing.T, token, sessionID string, kind models.RoundKind) {
	t.Helper()
	snap := s.startRound(t, token, sessionID, kind)
	itemID := snap.CurrentItem.ID
	for {
		rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/sessions/%s/rounds/%s/submit", sessionID, kind), token, models.SubmitRequest{
			ItemID:     itemID,
			Answer:     "an answer",
			TimeSpentS: 10,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("submit %s: expected 200, got %d: %s", kind, rec.Code, rec.Body.String())
		}
		result := decodeBody[models.SubmitResult](t, rec)
		if result.Completed {
			return
		}
		itemID = result.NextItem.ID
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions", "", models.CreateSessionRequest{TargetRole: "backend"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestCreateSession(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")

	sess := srv.createSession(t, token)
	if sess.ID == "" {
		t.Fatal("expected a session id")
	}
	if sess.Status != models.SessionNotStarted {
		t.Fatalf("expected not_started, got %s", sess.Status)
	}
	if sess.CandidateID != "cand-1" {
		t.Fatalf("expected candidate from token, got %s", sess.CandidateID)
	}
}

func TestCreateSessionRejectsMissingRole(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions", candidateToken(t, "cand-1"), models.CreateSessionRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "missing_target_role" {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestSessionScopedToCandidate(t *testing.T) {
	srv := newTestServer(t)
	sess := srv.createSession(t, candidateToken(t, "cand-1"))

	rec := srv.do(t, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/resume", candidateToken(t, "cand-2"), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign session, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "session_not_found" {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestStartRoundReturnsFirstItem(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	snap := srv.startRound(t, token, sess.ID, models.RoundTechnical)
	if snap.Status != models.RoundInProgress {
		t.Fatalf("expected in_progress, got %s", snap.Status)
	}
	if snap.CurrentItem == nil || snap.CurrentItem.Prompt == "" {
		t.Fatalf("expected a current item, got %+v", snap.CurrentItem)
	}
	if snap.TotalItems != 2 {
		t.Fatalf("expected 2 items, got %d", snap.TotalItems)
	}
}

func TestStartRoundOutOfOrder(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/rounds/coding/start", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "invalid_transition" {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestStartRoundUnknownKind(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/rounds/trivia/start", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "unknown_round" {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestSubmitWrongItemConflicts(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)
	srv.startRound(t, token, sess.ID, models.RoundTechnical)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/rounds/technical/submit", token, models.SubmitRequest{
		ItemID: "bogus-item",
		Answer: "answer",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "invalid_item" {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestSubmitAdvancesAndCompletes(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	snap := srv.startRound(t, token, sess.ID, models.RoundTechnical)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/rounds/technical/submit", token, models.SubmitRequest{
		ItemID:     snap.CurrentItem.ID,
		Answer:     "first answer",
		TimeSpentS: 30,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[models.SubmitResult](t, rec)
	if result.Completed {
		t.Fatal("round must not complete after the first of two items")
	}
	if result.NextItem == nil || result.NextItem.ID == snap.CurrentItem.ID {
		t.Fatalf("expected a fresh next item, got %+v", result.NextItem)
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/rounds/technical/submit", token, models.SubmitRequest{
		ItemID: result.NextItem.ID,
		Answer: "second answer",
	})
	result = decodeBody[models.SubmitResult](t, rec)
	if !result.Completed {
		t.Fatal("expected round completion on last item")
	}
	if result.NextItem != nil {
		t.Fatalf("completed round must not offer a next item, got %+v", result.NextItem)
	}
}

func TestResumeView(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)
	srv.finishRound(t, token, sess.ID, models.RoundTechnical)

	rec := srv.do(t, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/resume", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeBody[models.CurrentView](t, rec)
	if view.Status != models.SessionTechnicalCompleted {
		t.Fatalf("expected technical_completed, got %s", view.Status)
	}
	if view.NextRound == nil || *view.NextRound != models.RoundHR {
		t.Fatalf("expected hr suggested next, got %v", view.NextRound)
	}
	if view.RoundStatuses[models.RoundTechnical] != models.RoundCompleted {
		t.Fatalf("unexpected round statuses: %v", view.RoundStatuses)
	}
}

func TestEvaluationStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)
	snap := srv.startRound(t, token, sess.ID, models.RoundTechnical)

	score := 80.0
	srv.statuser.view = &models.EvaluationView{
		Evaluated:  true,
		Evaluation: &models.EvaluationResult{Score: score, Status: models.JobDone},
	}

	rec := srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s/items/%s/evaluation", sess.ID, snap.CurrentItem.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeBody[models.EvaluationView](t, rec)
	if !view.Evaluated || view.Evaluation.Score != score {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestEvaluationStatusForeignItem(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	rec := srv.do(t, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/items/not-mine/evaluation", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "item_not_found" {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)
	snap := srv.startRound(t, token, sess.ID, models.RoundTechnical)
	path := fmt.Sprintf("/api/v1/sessions/%s/items/%s/draft", sess.ID, snap.CurrentItem.ID)

	rec := srv.do(t, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before saving, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPut, path, token, models.DraftRequest{Content: "work in progress"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["content"] != "work in progress" {
		t.Fatalf("unexpected draft content %q", body["content"])
	}
}

func TestSubmitClearsDraft(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)
	snap := srv.startRound(t, token, sess.ID, models.RoundTechnical)
	path := fmt.Sprintf("/api/v1/sessions/%s/items/%s/draft", sess.ID, snap.CurrentItem.ID)

	rec := srv.do(t, http.MethodPut, path, token, models.DraftRequest{Content: "half-written answer"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/rounds/technical/submit", token, models.SubmitRequest{
		ItemID: snap.CurrentItem.ID,
		Answer: "final answer",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected draft cleared after submission, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIntegrityRecordAccepted(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/integrity", token, models.IntegrityRequest{
		Type: models.SignalTabSwitch,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIntegrityRejectsUnknownType(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/integrity", token, map[string]string{"type": "screenshot"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReportNotReadyUntilFinished(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	rec := srv.do(t, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/report", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before completion, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "report_not_ready" {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestReportAfterFullInterview(t *testing.T) {
	srv := newTestServer(t)
	token := candidateToken(t, "cand-1")
	sess := srv.createSession(t, token)

	for _, kind := range models.RoundOrder {
		srv.finishRound(t, token, sess.ID, kind)
	}

	rec := srv.do(t, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/report", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeBody[models.ReportView](t, rec)
	if view.SessionID != sess.ID {
		t.Fatalf("unexpected report session %s", view.SessionID)
	}
	if view.Decision == "" {
		t.Fatal("expected a hiring decision")
	}
}
