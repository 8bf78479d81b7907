package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestJSONLoggerStampsAppAndFields(t *testing.T) {
	l, err := NewLogger(&Config{Level: DebugLevel, Format: "json", AppName: "pricing", Version: "1.2.3"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	var buf bytes.Buffer
	l.SetOutput(&buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
	l.WithContext(ctx).WithField("rule_name", "night").Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	want := map[string]string{
		"message":    "hello",
		"level":      "info",
		"app":        "pricing",
		"version":    "1.2.3",
		"request_id": "req-42",
		"rule_name":  "night",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %q", k, entry[k], v)
		}
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	parent := NewNop()
	child := parent.WithField("a", 1)
	if _, ok := parent.fields["a"]; ok {
		t.Fatal("parent logger picked up child field")
	}
	if child.fields["a"] != 1 {
		t.Fatalf("child field = %v, want 1", child.fields["a"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, err := NewLogger(&Config{Level: WarnLevel, Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	l.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn not written at warn level")
	}
}
