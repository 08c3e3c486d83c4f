package groq

import "testing"

func TestNewUsesGroqDefaults(t *testing.T) {
	p, err := New("gsk-test", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "groq" || p.Model() != DefaultModel {
		t.Fatalf("unexpected provider %q %q", p.Name(), p.Model())
	}
	if _, err := New("", ""); err == nil {
		t.Fatalf("expected error without key")
	}
}
