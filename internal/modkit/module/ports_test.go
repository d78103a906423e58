package module

import (
	"testing"

	phttp "quotary/internal/platform/net/http"
)

type pinger interface{ Ping() string }

type pingImpl struct{}

func (pingImpl) Ping() string { return "pong" }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) MountRoutes(phttp.Router) {}
func (m fakeModule) Ports() any               { return m.ports }
func (m fakeModule) Name() string             { return m.name }

func TestPortsOfDirect(t *testing.T) {
	m := fakeModule{name: "quotes", ports: pingImpl{}}
	v, ok := PortsOf[pinger](m)
	if !ok || v.Ping() != "pong" {
		t.Fatalf("PortsOf = %v, %v", v, ok)
	}
}

func TestPortsOfStructField(t *testing.T) {
	type bundle struct {
		Other int
		P     pinger
	}
	m := fakeModule{name: "quotes", ports: bundle{P: pingImpl{}}}
	v, ok := PortsOf[pinger](m)
	if !ok || v.Ping() != "pong" {
		t.Fatalf("PortsOf = %v, %v", v, ok)
	}
}

func TestPortsOfMisses(t *testing.T) {
	if _, ok := PortsOf[pinger](fakeModule{name: "quotes"}); ok {
		t.Fatal("nil bundle should miss")
	}
	if _, ok := PortsOf[pinger](fakeModule{name: "quotes", ports: struct{ N int }{1}}); ok {
		t.Fatal("bundle without the port should miss")
	}
}

func TestMustPortsOfPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing port")
		}
	}()
	MustPortsOf[pinger](fakeModule{name: "quotes"})
}
