package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	"opennotes-gateway/internal/app"
	"opennotes-gateway/internal/domain"
)

// Handler wires the gateway's use cases into HTTP routes.
type Handler struct {
	quizzes         *app.QuizService
	broker          *app.CodeBroker
	limiter         *app.RateLimiter
	authorizer      *app.Authorizer
	callers         *app.TokenValidator
	frontendOrigins *app.OriginPolicy
	frontendLimit   int
	proxy           *UpstreamProxy
}

func NewHandler(
	quizzes *app.QuizService,
	broker *app.CodeBroker,
	limiter *app.RateLimiter,
	authorizer *app.Authorizer,
	callers *app.TokenValidator,
	frontendOrigins *app.OriginPolicy,
	frontendLimit int,
	proxy *UpstreamProxy,
) *Handler {
	if frontendLimit <= 0 {
		frontendLimit = 1000
	}
	return &Handler{
		quizzes:         quizzes,
		broker:          broker,
		limiter:         limiter,
		authorizer:      authorizer,
		callers:         callers,
		frontendOrigins: frontendOrigins,
		frontendLimit:   frontendLimit,
		proxy:           proxy,
	}
}

// Router builds the route table. Public reads are unauthenticated; writes
// go through the tiered authorizer; everything else under /api proxies
// upstream behind caller validation and rate limiting.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", appTokenHeader, desktopSecretHeader},
		MaxAge:         300,
	}))
	r.Use(securityHeaders)

	r.Get("/", h.serviceInfo)
	r.Get("/api/health", h.health)

	r.Post("/auth/code", h.issueCode)
	r.Get("/auth/exchange", h.exchangeCode)

	r.Route("/api/quizzes", func(r chi.Router) {
		r.Get("/", h.listQuizzes)
		r.Post("/", h.createQuiz)
		r.Post("/shuffle", h.combineQuizzes)
		r.Get("/{id}", h.getQuiz)
		r.Delete("/{id}", h.deleteQuiz)
	})

	r.With(h.requireCaller).HandleFunc("/api/*", h.proxy.Forward)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown path: " + r.URL.Path})
	})

	return r
}

func (h *Handler) serviceInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":      "opennotes-gateway",
		"capabilities": []string{"proxy", "quizzes", "quiz-combine", "auth-codes"},
		"endpoints": map[string]string{
			"health":   "GET /api/health",
			"quizzes":  "GET|POST /api/quizzes",
			"quiz":     "GET|DELETE /api/quizzes/{id}",
			"shuffle":  "POST /api/quizzes/shuffle",
			"authCode": "POST /auth/code",
			"exchange": "GET /auth/exchange?code=NNNNNN",
			"proxy":    "ANY /api/*",
		},
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type issueCodeRequest struct {
	Credential string `json:"credential"`
	User       string `json:"user,omitempty"`
}

func (h *Handler) issueCode(w http.ResponseWriter, r *http.Request) {
	var req issueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, &domain.ValidationError{Issues: []string{"invalid JSON body"}})
		return
	}
	result, err := h.broker.Issue(r.Context(), r.Header.Get("Origin"), r.Header.Get("Referer"), req.Credential, req.User)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) exchangeCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	secret := r.Header.Get(desktopSecretHeader)
	result, err := h.broker.Redeem(r.Context(), code, secret)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{
		Subject: r.URL.Query().Get("subject"),
		Topic:   r.URL.Query().Get("topic"),
		Search:  r.URL.Query().Get("q"),
	}
	summaries, err := h.quizzes.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": summaries})
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// createQuiz accepts admin, user-session, and app credentials alike; the
// authorizer's chain decides which one is speaking.
func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authorizer.Identify(extractToken(r))
	if !ok {
		respondError(w, domain.ErrInvalidToken)
		return
	}

	var quiz domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		respondError(w, &domain.ValidationError{Issues: []string{"invalid JSON body"}})
		return
	}
	if quiz.Author == "" {
		quiz.Author = principal.CallerID
	}

	created, err := h.quizzes.Create(r.Context(), quiz)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// deleteQuiz is admin-only.
func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authorizer.Identify(extractToken(r))
	if !ok {
		respondError(w, domain.ErrInvalidToken)
		return
	}
	if principal.Role != domain.RoleAdmin {
		respondError(w, domain.ErrForbidden)
		return
	}
	if err := h.quizzes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type combineRequest struct {
	QuizIDs       []string `json:"quizIds"`
	QuestionCount int      `json:"questionCount,omitempty"`
	Shuffle       *bool    `json:"shuffle,omitempty"`
}

func (h *Handler) combineQuizzes(w http.ResponseWriter, r *http.Request) {
	var req combineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, &domain.ValidationError{Issues: []string{"invalid JSON body"}})
		return
	}
	combined, err := h.quizzes.Combine(r.Context(), app.CombineRequest{
		QuizIDs:       req.QuizIDs,
		QuestionCount: req.QuestionCount,
		Shuffle:       req.Shuffle,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, combined)
}
