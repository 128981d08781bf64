package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func Test_Run_FailsOnInvalidConfig(t *testing.T) {
	// Deliberately don't set the required env variables.
	var buf bytes.Buffer
	got := run(context.Background(), &buf)
	if got != 1 {
		t.Errorf("got exit code %d, want 1", got)
	}

	if !strings.Contains(buf.String(), "EMAIL_FROM") {
		t.Errorf("expected log output to mention the missing env variable, got %s", buf.String())
	}
}
