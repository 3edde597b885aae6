package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewFallsBackToInfo(t *testing.T) {
	logger := New("verbose")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("invalid level should fall back to info")
	}
	if !New("debug").Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be enabled")
	}
}

func TestComponentNilLogger(t *testing.T) {
	if Component(nil, "events") == nil {
		t.Fatal("expected a logger")
	}
}
