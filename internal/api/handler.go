// Package api serves the habitpal JSON API over net/http.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/httpmw"
	"github.com/julianstephens/habitpal/internal/logger"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes returns the API wrapped in request id, access log and panic recovery middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /api/accounts", h.createAccount)
	mux.HandleFunc("GET /api/store", h.catalog)

	mux.HandleFunc("GET /api/account", h.authed(h.getAccount))
	mux.HandleFunc("GET /api/goals", h.authed(h.listGoals))
	mux.HandleFunc("POST /api/goals", h.authed(h.createGoal))
	mux.HandleFunc("GET /api/goals/{id}", h.authed(h.getGoal))
	mux.HandleFunc("PATCH /api/goals/{id}", h.authed(h.editGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", h.authed(h.deleteGoal))
	mux.HandleFunc("POST /api/goals/{id}/steps", h.authed(h.addStep))
	mux.HandleFunc("POST /api/goals/{id}/steps/{index}/complete", h.authed(h.completeStep))
	mux.HandleFunc("POST /api/goals/{id}/toggle", h.authed(h.toggle))
	mux.HandleFunc("GET /api/pet", h.authed(h.petStatus))
	mux.HandleFunc("POST /api/pet/feed", h.authed(h.feed))
	mux.HandleFunc("POST /api/store/purchase", h.authed(h.purchase))

	log := logger.With("component", "http")
	return httpmw.Chain(mux,
		httpmw.WithRequestID,
		httpmw.WithAccessLog(log),
		httpmw.WithRecover(log),
	)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// writeServiceErr maps the error taxonomy to status codes.
func writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrInsufficientFunds):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		writeErr(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErr(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		logger.Error("Request failed", "request_id", httpmw.RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		writeErr(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into out. An empty body leaves out untouched.
func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Invalid("body", "%v", err)
	}
	return nil
}

type authedHandler func(w http.ResponseWriter, r *http.Request, account models.Account)

// authed resolves the bearer token before calling next.
func (h *Handler) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		account, err := h.svc.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		next(w, r, account)
	}
}

// GET /healthz
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		logger.Warn("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/accounts
func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
		PetName  string `json:"pet_name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeServiceErr(w, r, err)
		return
	}

	account, err := h.svc.CreateAccount(r.Context(), service.CreateAccountInput{
		Name:     in.Name,
		Timezone: in.Timezone,
		PetName:  in.PetName,
	})
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": account, "token": account.Token})
}

// GET /api/account
func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request, account models.Account) {
	writeJSON(w, http.StatusOK, account)
}

// GET /api/goals
func (h *Handler) listGoals(w http.ResponseWriter, r *http.Request, account models.Account) {
	goals, err := h.svc.ListGoals(r.Context(), account.ID)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

// POST /api/goals
func (h *Handler) createGoal(w http.ResponseWriter, r *http.Request, account models.Account) {
	var in struct {
		Title       string                   `json:"title"`
		Description string                   `json:"description"`
		Steps       []string                 `json:"steps"`
		Frequency   progress.FrequencyPolicy `json:"frequency"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeServiceErr(w, r, err)
		return
	}

	goal, err := h.svc.CreateGoal(r.Context(), account.ID, service.GoalInput{
		Title:       in.Title,
		Description: in.Description,
		Steps:       in.Steps,
		Frequency:   in.Frequency,
	})
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// GET /api/goals/{id}
func (h *Handler) getGoal(w http.ResponseWriter, r *http.Request, account models.Account) {
	goal, err := h.svc.GetGoal(r.Context(), account.ID, r.PathValue("id"))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// PATCH /api/goals/{id}
func (h *Handler) editGoal(w http.ResponseWriter, r *http.Request, account models.Account) {
	var in struct {
		Title       *string                   `json:"title"`
		Description *string                   `json:"description"`
		Frequency   *progress.FrequencyPolicy `json:"frequency"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeServiceErr(w, r, err)
		return
	}

	goal, err := h.svc.EditGoal(r.Context(), account.ID, r.PathValue("id"), service.GoalPatch{
		Title:       in.Title,
		Description: in.Description,
		Frequency:   in.Frequency,
	})
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// DELETE /api/goals/{id}
func (h *Handler) deleteGoal(w http.ResponseWriter, r *http.Request, account models.Account) {
	if err := h.svc.DeleteGoal(r.Context(), account.ID, r.PathValue("id")); err != nil {
		writeServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/goals/{id}/steps
func (h *Handler) addStep(w http.ResponseWriter, r *http.Request, account models.Account) {
	var in struct {
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeServiceErr(w, r, err)
		return
	}

	goal, err := h.svc.AddStep(r.Context(), account.ID, r.PathValue("id"), in.Description)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// POST /api/goals/{id}/steps/{index}/complete
func (h *Handler) completeStep(w http.ResponseWriter, r *http.Request, account models.Account) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "index: must be a number")
		return
	}

	goal, err := h.svc.CompleteStep(r.Context(), account.ID, r.PathValue("id"), index)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// POST /api/goals/{id}/toggle
func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, account models.Account) {
	var in struct {
		Day string `json:"day"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeServiceErr(w, r, err)
		return
	}

	result, err := h.svc.ToggleGoalDay(r.Context(), account.ID, r.PathValue("id"), in.Day)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /api/pet
func (h *Handler) petStatus(w http.ResponseWriter, r *http.Request, account models.Account) {
	status, err := h.svc.PetStatus(r.Context(), account.ID)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// POST /api/pet/feed
func (h *Handler) feed(w http.ResponseWriter, r *http.Request, account models.Account) {
	var in struct {
		Food string `json:"food"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeServiceErr(w, r, err)
		return
	}

	status, err := h.svc.Feed(r.Context(), account.ID, in.Food)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GET /api/store
func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": h.svc.Catalog()})
}

// POST /api/store/purchase
func (h *Handler) purchase(w http.ResponseWriter, r *http.Request, account models.Account) {
	in := struct {
		Food     string `json:"food"`
		Quantity int    `json:"quantity"`
	}{Quantity: 1}
	if err := decodeJSON(r, &in); err != nil {
		writeServiceErr(w, r, err)
		return
	}

	result, err := h.svc.Purchase(r.Context(), account.ID, in.Food, in.Quantity)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
