package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, err := NewService(NewMemoryStore(), WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewService_RejectsBadOptions(t *testing.T) {
	if _, err := NewService(nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil store, got %v", err)
	}
	if _, err := NewService(NewMemoryStore(), WithMaxNameLen(0)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero name length, got %v", err)
	}
	if _, err := NewService(NewMemoryStore(), WithClock(nil)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil clock, got %v", err)
	}
}

func TestFaculty_CRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	teknik, err := svc.CreateFaculty(ctx, "  Fakultas Teknik ")
	if err != nil {
		t.Fatalf("CreateFaculty: %v", err)
	}
	if teknik.Name != "Fakultas Teknik" || len(teknik.ID) != 26 {
		t.Fatalf("unexpected faculty: %+v", teknik)
	}
	hukum, err := svc.CreateFaculty(ctx, "Fakultas Hukum")
	if err != nil {
		t.Fatalf("CreateFaculty: %v", err)
	}

	all, err := svc.ListFaculties(ctx)
	if err != nil {
		t.Fatalf("ListFaculties: %v", err)
	}
	if len(all) != 2 || all[0].ID != teknik.ID || all[1].ID != hukum.ID {
		t.Fatalf("unexpected list order: %+v", all)
	}

	renamed, err := svc.RenameFaculty(ctx, teknik.ID, "Fakultas Kedokteran")
	if err != nil {
		t.Fatalf("RenameFaculty: %v", err)
	}
	if renamed.Name != "Fakultas Kedokteran" {
		t.Fatalf("rename failed: %+v", renamed)
	}

	got, err := svc.GetFaculty(ctx, teknik.ID)
	if err != nil || got.Name != "Fakultas Kedokteran" {
		t.Fatalf("GetFaculty=%+v,%v", got, err)
	}

	if err := svc.DeleteFaculty(ctx, teknik.ID); err != nil {
		t.Fatalf("DeleteFaculty: %v", err)
	}
	if _, err := svc.GetFaculty(ctx, teknik.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteFaculty(ctx, teknik.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFaculty_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", strings.Repeat("x", 201)} {
		if _, err := svc.CreateFaculty(ctx, name); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("CreateFaculty(%q): expected ErrInvalidInput, got %v", name, err)
		}
	}
	for _, id := range []string{"", "nope", "64b7f0c2a1b2c3d4e5f60718"} {
		if _, err := svc.GetFaculty(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetFaculty(%q): expected ErrNotFound, got %v", id, err)
		}
	}
	if _, err := svc.RenameFaculty(ctx, "01HZY7K2Q5J7T3V9W8X6Y4Z2AB", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown faculty, got %v", err)
	}
}

func TestProgram_CRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	teknik, err := svc.CreateFaculty(ctx, "Fakultas Teknik")
	if err != nil {
		t.Fatalf("CreateFaculty: %v", err)
	}
	hukum, err := svc.CreateFaculty(ctx, "Fakultas Hukum")
	if err != nil {
		t.Fatalf("CreateFaculty: %v", err)
	}

	ti, err := svc.CreateProgram(ctx, "Teknik Informatika", teknik.ID)
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if ti.FacultyID != teknik.ID || ti.Name != "Teknik Informatika" {
		t.Fatalf("unexpected program: %+v", ti)
	}

	name := "Ilmu Hukum"
	moved, err := svc.UpdateProgram(ctx, ti.ID, ProgramPatch{Name: &name, FacultyID: &hukum.ID})
	if err != nil {
		t.Fatalf("UpdateProgram: %v", err)
	}
	if moved.Name != "Ilmu Hukum" || moved.FacultyID != hukum.ID {
		t.Fatalf("unexpected program after update: %+v", moved)
	}

	all, err := svc.ListPrograms(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListPrograms=%+v,%v", all, err)
	}

	if err := svc.DeleteFaculty(ctx, hukum.ID); !errors.Is(err, ErrFacultyInUse) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrFacultyInUse, got %v", err)
	}

	if err := svc.DeleteProgram(ctx, ti.ID); err != nil {
		t.Fatalf("DeleteProgram: %v", err)
	}
	if _, err := svc.GetProgram(ctx, ti.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteFaculty(ctx, hukum.ID); err != nil {
		t.Fatalf("DeleteFaculty after program removal: %v", err)
	}
}

func TestProgram_FacultyReference(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProgram(ctx, "Teknik Informatika", "not-an-id"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("malformed faculty id: expected ErrInvalidInput, got %v", err)
	}

	_, err := svc.CreateProgram(ctx, "Teknik Informatika", "01HZY7K2Q5J7T3V9W8X6Y4Z2AB")
	if !errors.Is(err, ErrFacultyNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown faculty: expected ErrFacultyNotFound, got %v", err)
	}

	f, err := svc.CreateFaculty(ctx, "Fakultas Teknik")
	if err != nil {
		t.Fatalf("CreateFaculty: %v", err)
	}
	p, err := svc.CreateProgram(ctx, "Teknik Informatika", f.ID)
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}

	bad := "garbage"
	if _, err := svc.UpdateProgram(ctx, p.ID, ProgramPatch{FacultyID: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	missing := "01HZY7K2Q5J7T3V9W8X6Y4Z2AB"
	if _, err := svc.UpdateProgram(ctx, p.ID, ProgramPatch{FacultyID: &missing}); !errors.Is(err, ErrFacultyNotFound) {
		t.Fatalf("expected ErrFacultyNotFound, got %v", err)
	}
	if _, err := svc.UpdateProgram(ctx, p.ID, ProgramPatch{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty patch, got %v", err)
	}
	name := "x"
	if _, err := svc.UpdateProgram(ctx, "nope", ProgramPatch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}
