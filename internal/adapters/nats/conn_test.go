package natsadapter

import "testing"

func TestSubjects(t *testing.T) {
	id := "0b6f2a8e-8d7c-4a51-9a0e-3f1f0d1c2b3a"
	if got := FrameSubject(id); got != "overlay.frame."+id {
		t.Errorf("FrameSubject = %q", got)
	}
	if got := sessionFromSubject(LocationSubject(id)); got != id {
		t.Errorf("sessionFromSubject = %q, want %q", got, id)
	}
	if got := sessionFromSubject("nodots"); got != "" {
		t.Errorf("expected empty session, got %q", got)
	}
}
