package playererr

import (
	"errors"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(StackUnderflow, "stack empty on %s", "pop")
	if !Is(err, StackUnderflow) {
		t.Error("Is() should match the error's own kind")
	}
	if Is(err, TypeMismatch) {
		t.Error("Is() should not match a different kind")
	}
}

func TestIsRejectsPlainErrors(t *testing.T) {
	if Is(errors.New("plain"), ParseError) {
		t.Error("Is() should return false for a non-RuntimeError")
	}
}

func TestWithFramePrependsOutermostFirst(t *testing.T) {
	err := New(UndefinedHandler, "no handler")
	err = err.WithFrame(Frame{Script: "Engine", Handler: "start", Offset: 10})
	err = err.WithFrame(Frame{Script: "Vehicle", Handler: "go", Offset: 3})

	if len(err.Frames) != 2 {
		t.Fatalf("len(Frames) = %d, want 2", len(err.Frames))
	}
	if err.Frames[0].Script != "Vehicle" || err.Frames[1].Script != "Engine" {
		t.Errorf("Frames order = %+v, want the last-added (outermost) frame first", err.Frames)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(NetError, cause, "fetch %q", "cast.cct")
	if !errors.Is(err, cause) {
		t.Error("Wrap() should preserve the cause for errors.Is")
	}
}

func TestErrorStringIncludesFrameTrail(t *testing.T) {
	err := New(IndexOutOfBounds, "index 5 out of range")
	err = err.WithFrame(Frame{Script: "Player", Handler: "render", Offset: 42})
	got := err.Error()
	want := "IndexOutOfBounds: index 5 out of range\n  at Player/render+42"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
