package main

import (
	"path/filepath"
	"testing"

	"github.com/gary322/flashbets-ledger/internal/domain"
)

func TestLoadStateReturnsDefaultWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	state, err := loadState(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("loadState returned error: %v", err)
	}
	if state.Safety.PauseLevel != domain.PauseNone {
		t.Fatalf("PauseLevel = %v, want PauseNone", state.Safety.PauseLevel)
	}
	if state.Ingestion == nil {
		t.Fatalf("expected a non-nil default Ingestion cursor")
	}
}

func TestSaveStateThenLoadStateRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	state := defaultState()
	state.Safety.PauseLevel = domain.PauseFull

	if err := saveState(path, state); err != nil {
		t.Fatalf("saveState returned error: %v", err)
	}

	loaded, err := loadState(path)
	if err != nil {
		t.Fatalf("loadState returned error: %v", err)
	}
	if loaded.Safety.PauseLevel != domain.PauseFull {
		t.Fatalf("PauseLevel = %v, want PauseFull", loaded.Safety.PauseLevel)
	}
}
