package ringmap

import "testing"

func TestInsertGetOverwrite(t *testing.T) {
	m := New[string, int](2)
	if err := m.Insert("a", 1); err != nil {
		t.Fatal(err)
	}
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("got %d, %v", v, ok)
	}
	if err := m.Insert("a", 2); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Get("a"); v != 2 {
		t.Fatalf("overwrite failed, got %d", v)
	}
	if m.Len() != 1 {
		t.Fatalf("len=%d, want 1", m.Len())
	}
}

func TestInsertErrFullAtCapacity(t *testing.T) {
	m := New[int, int](2)
	if err := m.Insert(1, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert(2, 2); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert(3, 3); err != ErrFull {
		t.Fatalf("got %v, want ErrFull", err)
	}
	// Overwriting an existing key at capacity must still succeed.
	if err := m.Insert(1, 10); err != nil {
		t.Fatalf("overwrite at capacity: %v", err)
	}
}

func TestDeleteSwapsWithLast(t *testing.T) {
	m := New[int, int](3)
	m.Insert(1, 1)
	m.Insert(2, 2)
	m.Insert(3, 3)
	if !m.Delete(1) {
		t.Fatal("expected delete to report true")
	}
	if m.Len() != 2 {
		t.Fatalf("len=%d, want 2", m.Len())
	}
	if _, ok := m.Get(1); ok {
		t.Fatal("deleted key still present")
	}
	if v, ok := m.Get(2); !ok || v != 2 {
		t.Fatal("surviving entry corrupted")
	}
	if v, ok := m.Get(3); !ok || v != 3 {
		t.Fatal("surviving entry corrupted")
	}
	if m.Delete(1) {
		t.Fatal("deleting absent key should report false")
	}
}

func TestCap(t *testing.T) {
	m := New[int, int](5)
	if m.Cap() != 5 {
		t.Fatalf("cap=%d, want 5", m.Cap())
	}
}

func TestNewPanicsOnNonPositiveCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for capacity<=0")
		}
	}()
	New[int, int](0)
}
