package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerShowsStageMessages(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerWithContext(context.Background(), "capturing pages...")
	s.w = &buf

	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.SetMessage("assembling pdf...")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "capturing pages...") {
		t.Error("initial message never drawn")
	}
	if !strings.Contains(out, "assembling pdf...") {
		t.Error("updated message never drawn")
	}
}

func TestSpinnerStopIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerWithContext(context.Background(), "working...")
	s.w = &buf

	s.Start()
	s.Stop()
	s.Stop() // second Stop must not panic or block
}

func TestSpinnerStopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "working...")
	s.w = &buf

	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop on context cancellation")
	}
}
