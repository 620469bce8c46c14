package tocsync

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/pagetoc/kit"
	"github.com/hazyhaar/pagetoc/shield"
)

// Routes returns the local control API.
//
//	GET  /health
//	GET  /toc                        State as JSON
//	GET  /toc.html                   sanitized overlay fragment
//	GET  /toc.md                     entries as a markdown list
//	POST /toc/entries/{id}/navigate  scroll to a heading
//	POST /toc/corner                 cycle the overlay corner
//	POST /toc/collapse               toggle the entry list
func (e *Engine) Routes() chi.Router {
	ep := e.endpoints()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "live": e.State().Live})
	})
	r.Get("/toc", e.serve(ep.list, nil))
	r.Get("/toc.html", func(w http.ResponseWriter, _ *http.Request) {
		frag, err := e.State().Fragment()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(frag))
	})
	r.Get("/toc.md", func(w http.ResponseWriter, r *http.Request) {
		md, err := ep.markdown(r.Context(), nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(md.(string)))
	})
	r.Post("/toc/entries/{id}/navigate", e.serve(ep.navigate, func(r *http.Request) any {
		return &NavigateRequest{ID: chi.URLParam(r, "id")}
	}))
	r.Post("/toc/corner", e.serve(ep.corner, nil))
	r.Post("/toc/collapse", e.serve(ep.collapse, nil))
	return r
}

// serve adapts an endpoint to HTTP. decode may be nil for endpoints that
// take no request.
func (e *Engine) serve(ep kit.Endpoint, decode func(*http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req any
		if decode != nil {
			req = decode(r)
		}
		resp, err := ep(ctx, req)
		switch {
		case errors.Is(err, ErrEmptyID):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrStopped):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case err != nil:
			shield.GetLogger(ctx).Warn("tocsync: request failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			writeJSON(w, http.StatusOK, resp)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
