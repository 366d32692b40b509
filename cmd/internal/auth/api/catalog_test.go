package api

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"campus/cmd/internal/catalog"
)

func newCatalogEnv(t *testing.T) *testEnv {
	t.Helper()

	svc, err := catalog.NewService(catalog.NewMemoryStore())
	if err != nil {
		t.Fatalf("catalog.NewService: %v", err)
	}
	h, err := NewCatalogHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), Config{}, svc)
	if err != nil {
		t.Fatalf("NewCatalogHandler: %v", err)
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return &testEnv{mux: mux}
}

func strPtr(s string) *string { return &s }

func TestCatalog_FacultyCRUD(t *testing.T) {
	e := newCatalogEnv(t)

	rec := e.do(t, http.MethodPost, "/fakultas", "", facultyRequest{Name: strPtr("Teknik")})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	f := decodeBody[facultyResponse](t, rec)
	if f.ID == "" || f.Name != "Teknik" {
		t.Fatalf("unexpected faculty %+v", f)
	}

	rec = e.do(t, http.MethodGet, "/fakultas", "", nil)
	if list := decodeBody[[]facultyResponse](t, rec); len(list) != 1 || list[0] != f {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = e.do(t, http.MethodPut, "/fakultas/"+f.ID, "", facultyRequest{Name: strPtr("Teknik Sipil")})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[facultyResponse](t, rec); got.Name != "Teknik Sipil" {
		t.Fatalf("rename not applied: %+v", got)
	}

	rec = e.do(t, http.MethodGet, "/fakultas/"+f.ID, "", nil)
	if got := decodeBody[facultyResponse](t, rec); got.Name != "Teknik Sipil" {
		t.Fatalf("get after rename: %+v", got)
	}

	if rec := e.do(t, http.MethodDelete, "/fakultas/"+f.ID, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	expectError(t, e.do(t, http.MethodGet, "/fakultas/"+f.ID, "", nil), http.StatusNotFound, "not_found")
}

func TestCatalog_FacultyErrors(t *testing.T) {
	e := newCatalogEnv(t)

	expectError(t, e.do(t, http.MethodPost, "/fakultas", "", `{}`), http.StatusBadRequest, "invalid_request")
	expectError(t, e.do(t, http.MethodPost, "/fakultas", "", facultyRequest{Name: strPtr("   ")}), http.StatusBadRequest, "invalid_request")
	expectError(t, e.do(t, http.MethodPost, "/fakultas", "", `{"name":"x"}`), http.StatusBadRequest, "invalid_json")
	expectError(t, e.do(t, http.MethodGet, "/fakultas/not-an-id", "", nil), http.StatusNotFound, "not_found")
	expectError(t, e.do(t, http.MethodGet, "/fakultas/"+unknownID(t), "", nil), http.StatusNotFound, "not_found")
	expectError(t, e.do(t, http.MethodPut, "/fakultas/"+unknownID(t), "", `{}`), http.StatusBadRequest, "invalid_request")
}

func TestCatalog_Programs(t *testing.T) {
	e := newCatalogEnv(t)

	f := decodeBody[facultyResponse](t, e.do(t, http.MethodPost, "/fakultas", "", facultyRequest{Name: strPtr("MIPA")}))
	other := decodeBody[facultyResponse](t, e.do(t, http.MethodPost, "/fakultas", "", facultyRequest{Name: strPtr("Hukum")}))

	expectError(t, e.do(t, http.MethodPost, "/prodi", "", programRequest{Name: strPtr("Fisika"), FacultyID: strPtr("bogus")}),
		http.StatusBadRequest, "invalid_request")
	expectError(t, e.do(t, http.MethodPost, "/prodi", "", programRequest{Name: strPtr("Fisika"), FacultyID: strPtr(unknownID(t))}),
		http.StatusNotFound, "not_found")
	expectError(t, e.do(t, http.MethodPost, "/prodi", "", programRequest{Name: strPtr("Fisika")}),
		http.StatusBadRequest, "invalid_request")

	rec := e.do(t, http.MethodPost, "/prodi", "", programRequest{Name: strPtr("Fisika"), FacultyID: strPtr(f.ID)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	p := decodeBody[programResponse](t, rec)
	if p.ID == "" || p.Name != "Fisika" || p.FacultyID != f.ID {
		t.Fatalf("unexpected program %+v", p)
	}

	expectError(t, e.do(t, http.MethodDelete, "/fakultas/"+f.ID, "", nil), http.StatusConflict, "conflict")

	rec = e.do(t, http.MethodPut, "/prodi/"+p.ID, "", programRequest{FacultyID: strPtr(other.ID)})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[programResponse](t, rec); got.FacultyID != other.ID || got.Name != "Fisika" {
		t.Fatalf("update not applied: %+v", got)
	}
	expectError(t, e.do(t, http.MethodPut, "/prodi/"+p.ID, "", `{}`), http.StatusBadRequest, "invalid_request")

	rec = e.do(t, http.MethodGet, "/prodi", "", nil)
	if list := decodeBody[[]programResponse](t, rec); len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	if rec := e.do(t, http.MethodDelete, "/prodi/"+p.ID, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	expectError(t, e.do(t, http.MethodGet, "/prodi/"+p.ID, "", nil), http.StatusNotFound, "not_found")

	if rec := e.do(t, http.MethodDelete, "/fakultas/"+f.ID, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete emptied faculty: expected 200, got %d", rec.Code)
	}
}
