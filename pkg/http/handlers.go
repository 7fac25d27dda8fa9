package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"shortlink/pkg/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Handler struct {
	linkService  *service.LinkService
	clickService *service.ClickService
}

func NewHandler(linkService *service.LinkService, clickService *service.ClickService) *Handler {
	return &Handler{linkService: linkService, clickService: clickService}
}

type shortenResponse struct {
	ShortID string `json:"shortId"`
}

type resolveRequest struct {
	ShortID string `json:"shortId"`
}

type resolveResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type disableRequest struct {
	Disabled bool `json:"disabled"`
}

func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.linkService.CreateLink(r.Context(), &req)
	if err != nil {
		if service.IsIssuanceError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create short link")
		return
	}

	writeJSON(w, http.StatusOK, shortenResponse{ShortID: link.Code})
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShortID == "" {
		writeError(w, http.StatusBadRequest, "shortId required")
		return
	}

	link, err := h.linkService.Resolve(r.Context(), req.ShortID)
	if err != nil {
		if service.IsResolutionError(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve short link")
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{URL: link.LongURL})
}

// Redirect resolves a code, records the visit and issues a 302. Click
// recording is best-effort and never delays or fails the redirect.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	link, err := h.linkService.Resolve(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, service.ErrDisabled), errors.Is(err, service.ErrExpired):
			http.Error(w, "gone", http.StatusGone)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	h.clickService.RecordClick(r.Context(), link.ID, clientIP(r), r.Referer(), r.UserAgent())

	http.Redirect(w, r, link.LongURL, http.StatusFound)
}

func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	link, err := h.linkService.GetLink(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load link")
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	link, err := h.linkService.GetLink(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load link")
		return
	}

	stats, err := h.clickService.Stats(r.Context(), link.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.linkService.ListLinks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list links")
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req disableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.linkService.SetDisabled(r.Context(), code, req.Disabled)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update link")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	err := h.linkService.DeleteLink(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete link")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// CORSMiddleware returns the permissive CORS layer both servers share.
// Preflight OPTIONS requests get an empty 200 with the same headers.
func CORSMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Client-Info"},
	})
}

func SetupRoutes(r *chi.Mux, handler *Handler) {
	r.Use(CORSMiddleware())
	r.Get("/health", handler.HealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Post("/shorten", handler.Shorten)
		r.Post("/resolve", handler.Resolve)
		r.Get("/links", handler.ListLinks)
		r.Get("/links/{code}", handler.GetLink)
		r.Get("/links/{code}/stats", handler.GetStats)
		r.Patch("/links/{code}", handler.UpdateLink)
		r.Delete("/links/{code}", handler.DeleteLink)
	})
}

func SetupRedirectRoutes(r *chi.Mux, handler *Handler) {
	r.Use(CORSMiddleware())
	r.Get("/health", handler.HealthCheck)
	r.Get("/{code}", handler.Redirect)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
