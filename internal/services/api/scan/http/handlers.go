// Package http provides http transport for scan
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"cibscope/internal/modkit/httpkit"
	perr "cibscope/internal/platform/errors"
	"cibscope/internal/services/api/scan/domain"
	svc "cibscope/internal/services/api/scan/service"
)

// Register mounts scan endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// run the full pipeline over an inline dataset
	httpkit.PostJSON[domain.ScanInput](r, "/", h.scan)

	// fetch a previously archived report
	httpkit.Get(r, "/{id}", h.get)
}

type handlers struct{ svc svc.Service }

func (h *handlers) scan(r *stdhttp.Request, in domain.ScanInput) (any, error) {
	return h.svc.Scan(r.Context(), in)
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "missing run id")
	}
	return h.svc.Get(r.Context(), id)
}
