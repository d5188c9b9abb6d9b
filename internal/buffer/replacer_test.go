package buffer

import "testing"

func TestReplacerVictimOrder(t *testing.T) {
	r := NewReplacer(3)
	r.Unpin(0)
	r.Unpin(1)
	r.Unpin(2)

	// Touching 0 again should move it to the front, leaving 1 as LRU.
	r.Unpin(0)

	victim, ok := r.Victim()
	if !ok || victim != 1 {
		t.Fatalf("Victim() = %d, %v, want 1, true", victim, ok)
	}
	victim, ok = r.Victim()
	if !ok || victim != 2 {
		t.Fatalf("Victim() = %d, %v, want 2, true", victim, ok)
	}
	victim, ok = r.Victim()
	if !ok || victim != 0 {
		t.Fatalf("Victim() = %d, %v, want 0, true", victim, ok)
	}
	if _, ok := r.Victim(); ok {
		t.Fatalf("Victim() on empty replacer should return ok=false")
	}
}

func TestReplacerPinRemovesCandidacy(t *testing.T) {
	r := NewReplacer(2)
	r.Unpin(0)
	r.Unpin(1)
	r.Pin(0)

	if r.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", r.Size())
	}
	victim, ok := r.Victim()
	if !ok || victim != 1 {
		t.Fatalf("Victim() = %d, %v, want 1, true", victim, ok)
	}
}

func TestReplacerPinUntrackedIsNoop(t *testing.T) {
	r := NewReplacer(1)
	r.Pin(5)
	if r.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", r.Size())
	}
}

func TestReplacerAllPinnedVictimFails(t *testing.T) {
	r := NewReplacer(2)
	r.Unpin(0)
	r.Pin(0)
	if _, ok := r.Victim(); ok {
		t.Fatalf("Victim() should fail when all frames are pinned")
	}
}
