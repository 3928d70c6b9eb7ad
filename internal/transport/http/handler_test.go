package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opennotes-gateway/internal/app"
	"opennotes-gateway/internal/domain"
	"opennotes-gateway/internal/infra/memory"
)

const (
	testAdminToken   = "admin-token"
	testSessionToken = "session-token"
	testAppToken     = "app-token"
	testDesktop      = "desktop-secret"
	testFrontend     = "https://front.example.com"
)

func newTestRouter(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()

	store := memory.NewQuizStore()
	seedQuizzes(t, store)
	quizzes := app.NewQuizService(store)

	callers := app.NewTokenValidator([]domain.Caller{
		{ID: "itest", Secret: testAppToken, Active: true, RateLimit: 2},
	})
	authorizer := app.NewAuthorizer(testAdminToken, testSessionToken, callers)
	limiter := app.NewRateLimiter(memory.NewRateStore(), time.Minute, 100)
	broker := app.NewCodeBroker(memory.NewCodeStore(), app.NewOriginPolicy([]string{testFrontend}), testDesktop, 5*time.Minute)
	proxy := NewUpstreamProxy(upstreamURL, "upstream-key", "https://opennotes.example.com", 5*time.Second)

	handler := NewHandler(quizzes, broker, limiter, authorizer, callers, app.NewOriginPolicy([]string{testFrontend}), 5, proxy)
	return handler.Router()
}

func seedQuizzes(t *testing.T, store *memory.QuizStore) {
	t.Helper()
	ctx := context.Background()
	quizzes := []domain.Quiz{
		{
			ID: "quiz-a", Title: "Alpha", Subject: "Physics",
			CreatedAt: time.Unix(1_700_000_100, 0),
			Questions: []domain.Question{
				{ID: "q1", Type: domain.KindTrueFalse, Question: "A1"},
				{ID: "q2", Type: domain.KindTrueFalse, Question: "A2"},
				{ID: "q3", Type: domain.KindTrueFalse, Question: "A3"},
			},
		},
		{
			ID: "quiz-b", Title: "Beta", Subject: "Math",
			CreatedAt: time.Unix(1_700_000_000, 0),
			Questions: []domain.Question{
				{ID: "q1", Type: domain.KindTrueFalse, Question: "B1"},
				{ID: "q2", Type: domain.KindTrueFalse, Question: "B2"},
			},
		},
	}
	for _, quiz := range quizzes {
		if err := store.Save(ctx, quiz); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body interface{}, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func TestHealthAndInfoArePublic(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, body := doJSON(t, server, http.MethodGet, "/api/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "ok") {
		t.Fatalf("health body: %s", body)
	}

	resp, body = doJSON(t, server, http.MethodGet, "/", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("info status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "opennotes-gateway") {
		t.Fatalf("info body: %s", body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("content type %q", resp.Header.Get("Content-Type"))
	}
}

func TestHardeningHeadersOnEveryResponse(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, _ := doJSON(t, server, http.MethodGet, "/api/health", nil, nil)
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing frame-deny header")
	}
	if resp.Header.Get("Referrer-Policy") != "strict-origin-when-cross-origin" {
		t.Fatalf("missing referrer policy header")
	}
}

func TestUnknownPathEchoes404(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, body := doJSON(t, server, http.MethodGet, "/nope/nothing", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "/nope/nothing") {
		t.Fatalf("404 must echo the path: %s", body)
	}
}

func TestQuizReadsArePublic(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, body := doJSON(t, server, http.MethodGet, "/api/quizzes", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", resp.StatusCode)
	}
	var listed struct {
		Quizzes []domain.QuizSummary `json:"quizzes"`
	}
	if err := json.Unmarshal(body, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Quizzes) != 2 || listed.Quizzes[0].ID != "quiz-a" {
		t.Fatalf("unexpected listing: %+v", listed.Quizzes)
	}
	if listed.Quizzes[0].QuestionCount != 3 {
		t.Fatalf("summary question count: %d", listed.Quizzes[0].QuestionCount)
	}

	resp, body = doJSON(t, server, http.MethodGet, "/api/quizzes/quiz-b", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status %d", resp.StatusCode)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(body, &quiz); err != nil {
		t.Fatalf("decode quiz: %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("full quiz must carry questions: %+v", quiz)
	}
}

func TestListFilterPassesThrough(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, body := doJSON(t, server, http.MethodGet, "/api/quizzes?subject=math", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var listed struct {
		Quizzes []domain.QuizSummary `json:"quizzes"`
	}
	if err := json.Unmarshal(body, &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Quizzes) != 1 || listed.Quizzes[0].ID != "quiz-b" {
		t.Fatalf("subject filter failed: %+v", listed.Quizzes)
	}
}

func newQuizBody() domain.Quiz {
	return domain.Quiz{
		Title:   "Created",
		Subject: "Chemistry",
		Questions: []domain.Question{
			{Type: domain.KindMCQ, Question: "Pick one", Options: []string{"a", "b"}, CorrectAnswers: []int{0}},
		},
	}
}

func TestCreateQuizTieredAuth(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, _ := doJSON(t, server, http.MethodPost, "/api/quizzes", newQuizBody(), nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, server, http.MethodPost, "/api/quizzes", newQuizBody(), map[string]string{appTokenHeader: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", resp.StatusCode)
	}

	for _, token := range []string{testAdminToken, testSessionToken, testAppToken} {
		resp, body := doJSON(t, server, http.MethodPost, "/api/quizzes", newQuizBody(), map[string]string{appTokenHeader: token})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("token %q: status %d body %s", token, resp.StatusCode, body)
		}
	}
}

func TestCreateQuizAcceptsBearerHeader(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, _ := doJSON(t, server, http.MethodPost, "/api/quizzes", newQuizBody(), map[string]string{"Authorization": "Bearer " + testAdminToken})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("bearer auth: status %d", resp.StatusCode)
	}
}

func TestCreateQuizValidationErrorsAreItemized(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	quiz := newQuizBody()
	quiz.Questions[0].Options = []string{"only"}
	quiz.Title = ""
	resp, body := doJSON(t, server, http.MethodPost, "/api/quizzes", quiz, map[string]string{appTokenHeader: testAdminToken})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var parsed struct {
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parsed.Details) != 2 {
		t.Fatalf("expected itemized violations, got %v", parsed.Details)
	}
}

func TestDeleteQuizIsAdminOnly(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, _ := doJSON(t, server, http.MethodDelete, "/api/quizzes/quiz-a", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d", resp.StatusCode)
	}

	for _, token := range []string{testSessionToken, testAppToken} {
		resp, _ := doJSON(t, server, http.MethodDelete, "/api/quizzes/quiz-a", nil, map[string]string{appTokenHeader: token})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("token %q: status %d", token, resp.StatusCode)
		}
	}

	resp, _ = doJSON(t, server, http.MethodDelete, "/api/quizzes/quiz-a", nil, map[string]string{appTokenHeader: testAdminToken})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin delete: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, server, http.MethodGet, "/api/quizzes/quiz-a", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted quiz still readable: status %d", resp.StatusCode)
	}
}

func TestCombineEndpoint(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	noShuffle := false
	resp, body := doJSON(t, server, http.MethodPost, "/api/quizzes/shuffle", combineRequest{
		QuizIDs: []string{"quiz-a", "quiz-b"},
		Shuffle: &noShuffle,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d body %s", resp.StatusCode, body)
	}
	var combined domain.CombinedQuiz
	if err := json.Unmarshal(body, &combined); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(combined.Questions) != 5 || combined.Questions[0].Question != "A1" {
		t.Fatalf("unexpected combined quiz: %+v", combined)
	}
	if !combined.IsTemporary {
		t.Fatalf("combined quiz must be temporary")
	}
}

func TestCombineReportsEveryMissingID(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, body := doJSON(t, server, http.MethodPost, "/api/quizzes/shuffle", combineRequest{
		QuizIDs: []string{"quiz-a", "quiz-x", "quiz-y"},
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var parsed struct {
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parsed.Missing) != 2 {
		t.Fatalf("expected both missing ids, got %v", parsed.Missing)
	}
}

func TestAuthCodeIssueAndExchangeFlow(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, body := doJSON(t, server, http.MethodPost, "/auth/code",
		issueCodeRequest{Credential: "notes-credential", User: "alice"},
		map[string]string{"Origin": testFrontend})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("issue status %d body %s", resp.StatusCode, body)
	}
	var issued app.IssueResult
	if err := json.Unmarshal(body, &issued); err != nil {
		t.Fatalf("decode issue: %v", err)
	}
	if len(issued.Code) != 6 || issued.ExpiresIn != 300 {
		t.Fatalf("unexpected issue result: %+v", issued)
	}

	exchange := fmt.Sprintf("/auth/exchange?code=%s", issued.Code)
	resp, body = doJSON(t, server, http.MethodGet, exchange, nil, map[string]string{desktopSecretHeader: testDesktop})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("exchange status %d body %s", resp.StatusCode, body)
	}
	var redeemed app.RedeemResult
	if err := json.Unmarshal(body, &redeemed); err != nil {
		t.Fatalf("decode exchange: %v", err)
	}
	if redeemed.Credential != "notes-credential" || redeemed.User != "alice" {
		t.Fatalf("unexpected redeem result: %+v", redeemed)
	}

	resp, _ = doJSON(t, server, http.MethodGet, exchange, nil, map[string]string{desktopSecretHeader: testDesktop})
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("second exchange must be gone, got %d", resp.StatusCode)
	}
}

func TestAuthCodeIssueRejectsForeignOrigin(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, _ := doJSON(t, server, http.MethodPost, "/auth/code",
		issueCodeRequest{Credential: "notes-credential"},
		map[string]string{"Origin": "https://evil.example.com"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestExchangeRequiresDesktopSecret(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "http://upstream.invalid"))
	defer server.Close()

	resp, _ := doJSON(t, server, http.MethodGet, "/auth/exchange?code=123456", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
