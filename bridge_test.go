package deskrt

import "testing"

type point struct {
	X, Y int
	Name string `js:"label"`
}

func TestToRecordReflectsExportedFields(t *testing.T) {
	b := NewBridge(NewWeakHandleTable())
	rec, err := b.ToRecord(point{X: 1, Y: 2, Name: "origin"})
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	if rec["X"] != 1 || rec["Y"] != 2 {
		t.Fatalf("got %v", rec)
	}
	if rec["label"] != "origin" {
		t.Fatalf("expected js tag to rename field, got %v", rec)
	}
}

func TestFromRecordRoundTrips(t *testing.T) {
	b := NewBridge(NewWeakHandleTable())
	var p point
	err := b.FromRecord(map[string]any{"X": 3, "Y": 4, "label": "here"}, &p, nil)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if p.X != 3 || p.Y != 4 || p.Name != "here" {
		t.Fatalf("got %+v", p)
	}
}

func TestFromRecordAllOptionalSkipsMissingKeys(t *testing.T) {
	b := NewBridge(NewWeakHandleTable())
	var p point
	err := b.FromRecord(map[string]any{"X": 9}, &p, map[string]bool{"X": true, "Y": true, "label": true})
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if p.X != 9 || p.Y != 0 {
		t.Fatalf("got %+v", p)
	}
}

func TestFromRecordMissingRequiredFieldFails(t *testing.T) {
	b := NewBridge(NewWeakHandleTable())
	var p point
	if err := b.FromRecord(map[string]any{"X": 1}, &p, nil); err == nil {
		t.Fatal("expected CantConvert for a missing non-optional field")
	}
}

func TestStringSumEnumCaseInsensitive(t *testing.T) {
	got, err := StringSumEnum("RED", []string{"red", "green", "blue"}, "")
	if err != nil {
		t.Fatalf("StringSumEnum: %v", err)
	}
	if got != "red" {
		t.Fatalf("got %q, want %q", got, "red")
	}
}

func TestStringSumEnumFallsBackToDefault(t *testing.T) {
	got, err := StringSumEnum("purple", []string{"red", "green"}, "red")
	if err != nil {
		t.Fatalf("StringSumEnum: %v", err)
	}
	if got != "red" {
		t.Fatalf("got %q, want default %q", got, "red")
	}
}

func TestResolveHandleReturnsExpiredAfterDestroy(t *testing.T) {
	handles := NewWeakHandleTable()
	b := NewBridge(handles)
	id := handles.Create("v", nil)
	handles.Destroy(id)

	if _, err := b.ResolveHandle(id); err == nil {
		t.Fatal("expected HandleExpired")
	}
}
