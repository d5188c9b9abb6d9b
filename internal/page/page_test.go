package page

import "testing"

func TestSlottedPageInsertGetDelete(t *testing.T) {
	var frame Frame
	sp := NewSlottedPage(frame.Data[:])
	sp.Init(ID(7))

	if got := sp.PageID(); got != ID(7) {
		t.Fatalf("PageID() = %d, want 7", got)
	}

	slot, gen, ok := sp.InsertRecord([]byte("hello"))
	if !ok {
		t.Fatalf("InsertRecord failed")
	}
	if gen != 0 {
		t.Fatalf("first insert generation = %d, want 0", gen)
	}

	data, ok := sp.GetRecord(slot)
	if !ok || string(data) != "hello" {
		t.Fatalf("GetRecord = %q, %v, want hello, true", data, ok)
	}

	if !sp.DeleteRecord(slot) {
		t.Fatalf("DeleteRecord failed")
	}
	if _, ok := sp.GetRecord(slot); ok {
		t.Fatalf("GetRecord after delete should fail")
	}

	slot2, gen2, ok := sp.InsertRecord([]byte("ab"))
	if !ok {
		t.Fatalf("reuse InsertRecord failed")
	}
	if slot2 != slot {
		t.Fatalf("tombstone slot not reused: got %d, want %d", slot2, slot)
	}
	if gen2 != gen+1 {
		t.Fatalf("generation not bumped on reuse: got %d, want %d", gen2, gen+1)
	}
}

func TestSlottedPageUpdateRecord(t *testing.T) {
	var frame Frame
	sp := NewSlottedPage(frame.Data[:])
	sp.Init(ID(1))

	slot, _, ok := sp.InsertRecord([]byte("abcd"))
	if !ok {
		t.Fatalf("InsertRecord failed")
	}
	if !sp.UpdateRecord(slot, []byte("xy")) {
		t.Fatalf("UpdateRecord failed")
	}
	data, _ := sp.GetRecord(slot)
	if string(data) != "xy" {
		t.Fatalf("GetRecord after update = %q, want xy", data)
	}
	if sp.UpdateRecord(slot, []byte("too-long-for-the-slot")) {
		t.Fatalf("UpdateRecord should fail when new record is larger")
	}
}

func TestSlottedPageFreeSpaceExhausted(t *testing.T) {
	var frame Frame
	sp := NewSlottedPage(frame.Data[:])
	sp.Init(ID(1))

	big := make([]byte, Size)
	if _, _, ok := sp.InsertRecord(big); ok {
		t.Fatalf("InsertRecord should fail when record does not fit")
	}
}
