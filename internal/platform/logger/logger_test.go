package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

// Init is once-per-process, so all assertions share a single buffered root.
var buf bytes.Buffer

func initOnce() {
	Init(Options{Level: "debug", Format: "json", Service: "test", Writer: &buf})
}

func lastLine(t *testing.T) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var m map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &m); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	return m
}

func TestRootCarriesService(t *testing.T) {
	initOnce()
	buf.Reset()

	Get().Info().Msg("hello")
	m := lastLine(t)
	if m["service"] != "test" || m["message"] != "hello" {
		t.Fatalf("unexpected line %v", m)
	}
	if _, ok := m["time"]; !ok {
		t.Fatal("missing timestamp")
	}
}

func TestNamedAddsComponent(t *testing.T) {
	initOnce()
	buf.Reset()

	Named("feed").Info().Msg("tick")
	if m := lastLine(t); m["component"] != "feed" {
		t.Fatalf("component = %v", m["component"])
	}

	if Named("") != Get() {
		t.Fatal("empty component should return the root")
	}
}

func TestCRequestScoped(t *testing.T) {
	initOnce()
	buf.Reset()

	ctx := WithRequest(context.Background(), "req-1")
	C(ctx).Info().Msg("scoped")
	if m := lastLine(t); m["request_id"] != "req-1" {
		t.Fatalf("request_id = %v", m["request_id"])
	}

	if C(context.Background()) != Get() {
		t.Fatal("bare ctx should return the root")
	}
	if WithRequest(context.Background(), "") != context.Background() {
		t.Fatal("empty req id should not annotate ctx")
	}
}
