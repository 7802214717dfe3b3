package gpio

import (
	"errors"
	"testing"
)

var _ Writer = (*FakeWriter)(nil)
var _ Writer = (*RealWriter)(nil)

func TestFakeWriterRecordsValues(t *testing.T) {
	w := NewFakeWriter()
	if w.On() {
		t.Error("fresh writer should report off")
	}

	for _, v := range []bool{true, false, true} {
		if err := w.Set(v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(w.Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(w.Values))
	}
	if !w.On() {
		t.Error("expected last value on")
	}
}

func TestFakeWriterError(t *testing.T) {
	w := NewFakeWriter()
	w.SetError = errors.New("line busy")

	if err := w.Set(true); err == nil {
		t.Error("expected error")
	}
	if len(w.Values) != 0 {
		t.Errorf("failed writes should not be recorded, got %v", w.Values)
	}
}

func TestFakeWriterCloseReleases(t *testing.T) {
	w := NewFakeWriter()
	_ = w.Set(true)

	if err := w.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Closed {
		t.Error("expected Closed to be true")
	}
	if w.On() {
		t.Error("close should leave the relay released")
	}
}
