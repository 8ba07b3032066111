package patient

import (
	"context"
	"errors"
	"testing"
)

// -- Mock Source --

type stubSource struct {
	res   *LoadResult
	err   error
	calls int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(_ context.Context) (*LoadResult, error) {
	s.calls++
	return s.res, s.err
}

func sampleRoster() []Record {
	return []Record{
		{ID: "KL-1", Classification: "Pulmonary", ResistanceStatus: "Drug-sensitive", OutcomeStatus: "Cured", DiagnosisDate: "2023-01-10"},
		{ID: "KL-2", Classification: "Extrapulmonary", ResistanceStatus: "MDR", OutcomeStatus: "On treatment", DiagnosisDate: "2023-11-05"},
	}
}

func TestStore_EmptyBeforeReload(t *testing.T) {
	s := NewStore(&stubSource{})
	snap := s.Snapshot()
	if snap == nil || snap.Records == nil || len(snap.Records) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if snap.Source != "stub" {
		t.Errorf("expected source stub, got %s", snap.Source)
	}
}

func TestStore_Reload(t *testing.T) {
	src := &stubSource{res: &LoadResult{Records: sampleRoster()}}
	s := NewStore(src)

	snap, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(snap.Records))
	}
	if snap.LoadedAt.IsZero() {
		t.Error("expected LoadedAt to be set")
	}
	if s.Snapshot() != snap {
		t.Error("expected Snapshot to return the reloaded snapshot")
	}
}

func TestStore_ReloadFailureKeepsPrevious(t *testing.T) {
	src := &stubSource{res: &LoadResult{Records: sampleRoster()}}
	s := NewStore(src)
	first, _ := s.Reload(context.Background())

	src.err = errors.New("disk gone")
	if _, err := s.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if s.Snapshot() != first {
		t.Error("expected previous snapshot to survive a failed reload")
	}
}

func TestStore_SwapDoesNotTouchOldSnapshot(t *testing.T) {
	s := NewStore(&stubSource{})
	old := s.replace(sampleRoster(), nil)

	s.replace([]Record{{ID: "KL-9"}}, nil)

	if len(old.Records) != 2 || old.Records[0].ID != "KL-1" {
		t.Errorf("old snapshot changed after swap: %+v", old.Records)
	}
	if len(s.Snapshot().Records) != 1 {
		t.Errorf("expected new snapshot with 1 record, got %d", len(s.Snapshot().Records))
	}
}

func TestStore_SwapCopiesInput(t *testing.T) {
	s := NewStore(&stubSource{})
	in := sampleRoster()
	s.replace(in, nil)
	in[0].ID = "mutated"

	if s.Snapshot().Records[0].ID != "KL-1" {
		t.Error("replace must not alias the caller's slice")
	}
}

func TestStore_SwapChecksUncheckedRecords(t *testing.T) {
	s := NewStore(&stubSource{})
	snap := s.replace([]Record{{ID: "KL-1"}}, nil)
	if len(snap.Issues) == 0 {
		t.Error("expected issues for incomplete record")
	}
}

func TestStore_Find(t *testing.T) {
	s := NewStore(&stubSource{})
	s.replace(sampleRoster(), nil)

	r, err := s.Find("KL-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ResistanceStatus != "MDR" {
		t.Errorf("unexpected record %+v", r)
	}

	if _, err := s.Find("KL-404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// -- Mock Repository --

type mockPatientRepo struct {
	store []Record
	err   error
}

func (m *mockPatientRepo) ListAll(_ context.Context) ([]Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.store, nil
}

func (m *mockPatientRepo) Upsert(_ context.Context, records []Record) (int, error) {
	m.store = append(m.store, records...)
	return len(records), nil
}

func TestRepoSource_Load(t *testing.T) {
	repo := &mockPatientRepo{store: []Record{{ID: "KL-1", DiagnosisDate: "2023-01-01"}}}
	src := RepoSource{Repo: repo}
	if src.Name() != "postgres" {
		t.Errorf("expected name postgres, got %s", src.Name())
	}
	res, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 {
		t.Errorf("expected 1 record, got %d", len(res.Records))
	}
	if len(res.Issues) == 0 {
		t.Error("expected issues for missing categories")
	}
}

func TestRepoSource_LoadError(t *testing.T) {
	src := RepoSource{Repo: &mockPatientRepo{err: errors.New("connection refused")}}
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
