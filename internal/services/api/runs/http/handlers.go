// Package http provides http transport for the run archive
package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cibscope/internal/modkit/httpkit"
	perr "cibscope/internal/platform/errors"
	runsdom "cibscope/internal/services/runs/domain"
)

// Register mounts run archive endpoints on the given router
func Register(r httpkit.Router, archive runsdom.ArchivePort) {
	h := &handlers{archive: archive}

	// recent runs, newest first; ?limit= caps the page
	httpkit.Get(r, "/", h.list)

	// one archived report
	httpkit.Get(r, "/{id}", h.get)
}

type handlers struct{ archive runsdom.ArchivePort }

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "bad limit %q", s)
		}
		limit = n
	}
	return h.archive.List(r.Context(), limit)
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "missing run id")
	}
	return h.archive.Get(r.Context(), id)
}
