package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// Handler exposes the game service over JSON HTTP and websockets.
type Handler struct {
	service  *app.GameService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(service *app.GameService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /games", h.startGame)
	mux.HandleFunc("GET /games/{id}", h.getGame)
	mux.HandleFunc("GET /games/{id}/question", h.nextQuestion)
	mux.HandleFunc("POST /games/{id}/answers", h.submitAnswer)
	mux.HandleFunc("GET /games/{id}/score", h.score)
	mux.HandleFunc("GET /games/{id}/board", h.board)
	mux.HandleFunc("POST /admin/replenish", h.replenish)
	mux.HandleFunc("DELETE /admin/questions", h.purge)
	mux.HandleFunc("GET /ws", h.ServeWS)
	return h.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type homeResponse struct {
	Service       string `json:"service"`
	QuestionCount int    `json:"questionCount"`
	ScoringPolicy string `json:"scoringPolicy"`
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.PoolSize(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, homeResponse{
		Service:       "trivia-quiz-service",
		QuestionCount: count,
		ScoringPolicy: h.service.Policy().Name(),
	})
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request) {
	var req app.StartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	game, err := h.service.Start(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.service.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	turn, err := h.service.Advance(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

type answerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Choice     string `json:"choice" validate:"required"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.service.RecordAnswer(r.Context(), r.PathValue("id"), req.QuestionID, req.Choice)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) score(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Finalize(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Board(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

type replenishResponse struct {
	QuestionCount int `json:"questionCount"`
}

func (h *Handler) replenish(w http.ResponseWriter, r *http.Request) {
	var req app.PoolRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	count, err := h.service.Replenish(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replenishResponse{QuestionCount: count})
}

type purgeResponse struct {
	Deleted int `json:"deleted"`
}

func (h *Handler) purge(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.PurgeQuestions(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{Deleted: n})
}

// scoreMessage is what the websocket "finished" and "score" messages carry.
type scoreMessage struct {
	Game  domain.Game       `json:"game"`
	Stats domain.FinalStats `json:"stats"`
}
