package deskrt

import "testing"

func TestWeakHandleExpiredAfterDestroy(t *testing.T) {
	table := NewWeakHandleTable()
	var deinited bool
	id := table.Create("native", func(any) { deinited = true })

	if v, err := table.Get(id); err != nil || v != "native" {
		t.Fatalf("Get(%d) = %v, %v; want native, nil", id, v, err)
	}

	if err := table.Destroy(id); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if !deinited {
		t.Fatal("expected deinit callback to run")
	}

	if _, err := table.Get(id); err == nil {
		t.Fatal("expected HandleExpired after explicit deinit")
	}
	if _, ok := asHandleExpired(errFrom(table, id)); !ok {
		t.Fatal("expected error to be HandleExpired")
	}
}

func TestWeakHandleUnknownIDIsExpired(t *testing.T) {
	table := NewWeakHandleTable()
	if _, err := table.Get(999); err == nil {
		t.Fatal("expected error for an id that was never created")
	}
}

func errFrom(table *WeakHandleTable, id int32) error {
	_, err := table.Get(id)
	return err
}

func asHandleExpired(err error) (HandleExpired, bool) {
	he, ok := err.(HandleExpired)
	return he, ok
}
