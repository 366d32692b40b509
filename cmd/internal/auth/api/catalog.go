package api

import (
	"errors"
	"log/slog"
	"net/http"

	"campus/cmd/internal/catalog"
)

// CatalogHandler serves faculty and study program reference data. The routes are
// unauthenticated.
type CatalogHandler struct {
	log *slog.Logger
	cfg Config
	svc *catalog.Service
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(log *slog.Logger, cfg Config, svc *catalog.Service) (*CatalogHandler, error) {
	if log == nil {
		log = slog.Default()
	}
	if svc == nil {
		return nil, errors.New("api: nil catalog service")
	}
	return &CatalogHandler{log: log, cfg: cfg.withDefaults(), svc: svc}, nil
}

// Register wires catalog routes onto the provided mux.
func (h *CatalogHandler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /fakultas", h.handleCreateFaculty)
	mux.HandleFunc("GET /fakultas", h.handleListFaculties)
	mux.HandleFunc("GET /fakultas/{id}", h.handleGetFaculty)
	mux.HandleFunc("PUT /fakultas/{id}", h.handleUpdateFaculty)
	mux.HandleFunc("DELETE /fakultas/{id}", h.handleDeleteFaculty)

	mux.HandleFunc("POST /prodi", h.handleCreateProgram)
	mux.HandleFunc("GET /prodi", h.handleListPrograms)
	mux.HandleFunc("GET /prodi/{id}", h.handleGetProgram)
	mux.HandleFunc("PUT /prodi/{id}", h.handleUpdateProgram)
	mux.HandleFunc("DELETE /prodi/{id}", h.handleDeleteProgram)
}

func (h *CatalogHandler) writeCatalogError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrFacultyInUse):
		writeError(w, http.StatusConflict, "conflict", "faculty still has programs")
	case errors.Is(err, catalog.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "conflict")
	case errors.Is(err, catalog.ErrFacultyNotFound):
		writeError(w, http.StatusNotFound, "not_found", "faculty not found")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	default:
		h.log.Error(op+".fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

// ---- faculties ----

func (h *CatalogHandler) handleCreateFaculty(w http.ResponseWriter, r *http.Request) {
	var req facultyRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	if req.Name == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "nama is required")
		return
	}

	f, err := h.svc.CreateFaculty(r.Context(), *req.Name)
	if err != nil {
		h.writeCatalogError(w, "catalog.faculty.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFacultyResponse(f))
}

func (h *CatalogHandler) handleListFaculties(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListFaculties(r.Context())
	if err != nil {
		h.writeCatalogError(w, "catalog.faculty.list", err)
		return
	}
	out := make([]facultyResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFacultyResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) handleGetFaculty(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.GetFaculty(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeCatalogError(w, "catalog.faculty.get", err)
		return
	}
	writeJSON(w, http.StatusOK, toFacultyResponse(f))
}

func (h *CatalogHandler) handleUpdateFaculty(w http.ResponseWriter, r *http.Request) {
	var req facultyRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	if req.Name == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}

	f, err := h.svc.RenameFaculty(r.Context(), r.PathValue("id"), *req.Name)
	if err != nil {
		h.writeCatalogError(w, "catalog.faculty.update", err)
		return
	}
	writeJSON(w, http.StatusOK, toFacultyResponse(f))
}

func (h *CatalogHandler) handleDeleteFaculty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.DeleteFaculty(r.Context(), id); err != nil {
		h.writeCatalogError(w, "catalog.faculty.delete", err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Message: "faculty deleted", ID: id})
}

// ---- programs ----

func (h *CatalogHandler) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req programRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	if req.Name == nil || req.FacultyID == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "nama_prodi and fakultas_id are required")
		return
	}

	p, err := h.svc.CreateProgram(r.Context(), *req.Name, *req.FacultyID)
	if err != nil {
		h.writeCatalogError(w, "catalog.program.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProgramResponse(p))
}

func (h *CatalogHandler) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListPrograms(r.Context())
	if err != nil {
		h.writeCatalogError(w, "catalog.program.list", err)
		return
	}
	out := make([]programResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProgramResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProgram(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeCatalogError(w, "catalog.program.get", err)
		return
	}
	writeJSON(w, http.StatusOK, toProgramResponse(p))
}

func (h *CatalogHandler) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	var req programRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}

	p, err := h.svc.UpdateProgram(r.Context(), r.PathValue("id"), catalog.ProgramPatch{
		Name:      req.Name,
		FacultyID: req.FacultyID,
	})
	if err != nil {
		h.writeCatalogError(w, "catalog.program.update", err)
		return
	}
	writeJSON(w, http.StatusOK, toProgramResponse(p))
}

func (h *CatalogHandler) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.DeleteProgram(r.Context(), id); err != nil {
		h.writeCatalogError(w, "catalog.program.delete", err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Message: "program deleted", ID: id})
}
