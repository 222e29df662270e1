package logging

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		logger := New(level)
		if logger == nil || logger.Logger == nil {
			t.Fatalf("New(%q) returned nil logger", level)
		}
	}
}

func TestComponent(t *testing.T) {
	logger := Default().Component("conversation")
	if logger == nil || logger.Logger == nil {
		t.Fatal("Component returned nil logger")
	}

	var nilLogger *Logger
	if got := nilLogger.Component("x"); got == nil || got.Logger == nil {
		t.Fatal("Component on nil logger should fall back to default")
	}
}
