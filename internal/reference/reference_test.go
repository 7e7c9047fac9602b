package reference

import (
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	store, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(store.Swarasthanas) != 12 {
		t.Errorf("Expected 12 swarasthanas, got %d", len(store.Swarasthanas))
	}
	if len(store.Ragas) != 72 {
		t.Errorf("Expected 72 ragas, got %d", len(store.Ragas))
	}
	if len(store.Tuning) == 0 {
		t.Error("Expected at least one tuning preset")
	}
}

func TestSwarasthanaTable(t *testing.T) {
	store, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sa := store.SwarasthanaByID("Sa")
	if sa == nil {
		t.Fatal("Sa not found in swarasthana table")
	}
	if sa.Cents != 0 {
		t.Errorf("Expected Sa at 0 cents, got %g", sa.Cents)
	}
	if !sa.IsFixed {
		t.Error("Expected Sa to be a fixed swara")
	}

	ri2 := store.SwarasthanaByID("Ri2")
	if ri2 == nil {
		t.Fatal("Ri2 not found in swarasthana table")
	}
	if ri2.Cents != 200 {
		t.Errorf("Expected Ri2 at 200 cents, got %g", ri2.Cents)
	}
	found := false
	for _, alias := range ri2.Aliases {
		if alias == "Ga1" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected Ri2 to carry enharmonic alias Ga1, got %v", ri2.Aliases)
	}

	if store.SwarasthanaByID("Xx") != nil {
		t.Error("Expected nil for unknown swara id")
	}
}

func TestMelakartaTable(t *testing.T) {
	store, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	raga29 := store.Ragas[28]
	if raga29.Number != 29 {
		t.Fatalf("Expected raga number 29 at index 28, got %d", raga29.Number)
	}
	if raga29.Name != "Dheerasankarabharanam" {
		t.Errorf("Expected raga 29 to be Dheerasankarabharanam, got %s", raga29.Name)
	}

	wantArohana := []string{"Sa", "Ri2", "Ga3", "Ma1", "Pa", "Dha2", "Ni3", "Sa"}
	if len(raga29.Arohana) != len(wantArohana) {
		t.Fatalf("Expected arohana of %d swaras, got %d", len(wantArohana), len(raga29.Arohana))
	}
	for i, s := range wantArohana {
		if raga29.Arohana[i] != s {
			t.Errorf("Arohana[%d]: expected %s, got %s", i, s, raga29.Arohana[i])
		}
	}

	// Ragas 1-36 use shuddha Ma, 37-72 prati Ma.
	if store.Ragas[0].MaType != "shuddha" {
		t.Errorf("Expected raga 1 to use shuddha Ma, got %s", store.Ragas[0].MaType)
	}
	if store.Ragas[71].MaType != "prati" {
		t.Errorf("Expected raga 72 to use prati Ma, got %s", store.Ragas[71].MaType)
	}
}

func TestTuningPresets(t *testing.T) {
	store, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	c4, ok := store.Tuning["c4"]
	if !ok {
		t.Fatal("Expected c4 tuning preset")
	}
	if c4.ReferenceSaHz != 261.63 {
		t.Errorf("Expected c4 preset at 261.63 Hz, got %g", c4.ReferenceSaHz)
	}
}
