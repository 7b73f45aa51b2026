package checksum

import "testing"

func TestSum_KnownDigest(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestNote_TitleContentBoundary(t *testing.T) {
	if Note("ab", "c") == Note("a", "bc") {
		t.Error("moving text between title and content must change the checksum")
	}
	if Note("a", "b") != Note("a", "b") {
		t.Error("checksum must be deterministic")
	}
}
