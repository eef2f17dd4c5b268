package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/buildwatch/buildwatch/internal/dashboard"
	"github.com/buildwatch/buildwatch/internal/fleet"
	"github.com/buildwatch/buildwatch/internal/render"
)

// Handler is the HTTP handler for the dashboard page and all /api/v1/*
// endpoints.
type Handler struct {
	svc      *dashboard.Service
	renderer *render.Renderer
	mux      *http.ServeMux
}

// New creates a Handler reading through the given result cache service and
// registers all routes.
func New(svc *dashboard.Service, renderer *render.Renderer) http.Handler {
	h := &Handler{svc: svc, renderer: renderer, mux: http.NewServeMux()}

	h.mux.HandleFunc("/", h.page)
	h.mux.HandleFunc("/index.html", h.page)
	h.mux.HandleFunc("/api/v1/status", h.status)
	h.mux.HandleFunc("/api/v1/builders", h.builders)
	h.mux.HandleFunc("/api/v1/health", h.health)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ForceRefresh reports whether the request asks to bypass the result cache:
// a refresh parameter whose lowercase value is "1", "yes" or "true".
func ForceRefresh(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("refresh")) {
	case "1", "yes", "true":
		return true
	}
	return false
}

// --- route handlers ---------------------------------------------------------

// page serves GET / - the rendered HTML dashboard.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	page, err := h.svc.Page(r.Context(), ForceRefresh(r))
	if err != nil {
		http.Error(w, "upstream refresh failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Dashboard(w, page); err != nil {
		// Headers are already gone; all we can do is log.
		slog.Error("api: render dashboard", "err", err)
	}
}

// status serves GET /api/v1/status - per-branch summary with featured problems.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	page, err := h.svc.Page(r.Context(), ForceRefresh(r))
	if err != nil {
		jsonErr(w, http.StatusBadGateway, "upstream refresh failed: "+err.Error())
		return
	}
	jsonResp(w, http.StatusOK, BuildStatus(page))
}

// builders serves GET /api/v1/builders - per-builder classification detail.
func (h *Handler) builders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	page, err := h.svc.Page(r.Context(), ForceRefresh(r))
	if err != nil {
		jsonErr(w, http.StatusBadGateway, "upstream refresh failed: "+err.Error())
		return
	}

	out := make([]BuilderResponse, 0, len(page.State.Builders))
	for _, b := range page.State.Builders {
		out = append(out, toBuilderResponse(b))
	}
	jsonResp(w, http.StatusOK, out)
}

// health serves GET /api/v1/health - serving-layer liveness plus cache state.
// It never touches the upstream.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{Status: "ok"}
	if page, ok := h.svc.Cached(); ok {
		resp.CacheFilled = true
		resp.GeneratedAt = page.GeneratedAt.Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- response mapping -------------------------------------------------------

// BuildStatus maps a dashboard page to the branch-summary payload. The
// websocket hub reuses it for every broadcast.
func BuildStatus(page *dashboard.Page) StatusResponse {
	branches := page.State.Branches()
	out := StatusResponse{
		GeneratedAt: page.GeneratedAt.Format(time.RFC3339),
		Branches:    make([]BranchStatus, 0, len(branches)),
	}
	for _, br := range branches {
		featured := br.Featured()
		st := BranchStatus{
			Tag:      br.Tag,
			Band:     featured.Severity.Band().String(),
			Featured: toProblemResponse(featured),
		}
		for _, p := range br.Problems() {
			st.Problems = append(st.Problems, toProblemResponse(p))
		}
		out.Branches = append(out.Branches, st)
	}
	return out
}

func toBuilderResponse(b *fleet.Builder) BuilderResponse {
	resp := BuilderResponse{
		ID:        b.ID(),
		Name:      b.Name(),
		Branch:    b.Branch.Tag,
		Tier:      b.Tier.Tag,
		Stable:    b.Stable,
		Connected: b.Connected(),
		Problems:  make([]ProblemResponse, 0, len(b.Problems)),
	}
	for _, p := range b.Problems {
		resp.Problems = append(resp.Problems, toProblemResponse(p))
	}
	return resp
}

func toProblemResponse(p fleet.Problem) ProblemResponse {
	resp := ProblemResponse{
		Kind:        string(p.Kind),
		Severity:    p.Severity.String(),
		Band:        p.Severity.Band().String(),
		Description: p.Description,
	}
	for _, lb := range p.LabeledBuilds() {
		resp.Builds = append(resp.Builds, BuildRef{
			Label:     lb.Label,
			BuildID:   lb.Build.ID(),
			Number:    lb.Build.Number(),
			Builder:   lb.Build.Builder().Name(),
			Result:    lb.Build.Result().String(),
			StartedAt: lb.Build.StartedAt().Format(time.RFC3339),
		})
	}
	return resp
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
