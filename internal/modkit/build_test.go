package modkit

import (
	"net/http"
	"testing"

	"zeroshot/internal/modkit/httpkit"
)

func TestBuildDefaultsAndOptions(t *testing.T) {
	mw := func(next http.Handler) http.Handler { return next }

	b := Build(
		WithName("records"),
		WithPrefix("/records"),
		WithMiddlewares(mw),
		WithSwagger(true),
	)

	if b.Name != "records" || b.Prefix != "/records" || !b.SwaggerOn {
		t.Fatalf("built = %+v", b)
	}
	if len(b.Mw) != 1 {
		t.Fatalf("mw len = %d", len(b.Mw))
	}
	// default hooks must be non-nil and safe to call
	if b.Subrouter == nil || b.Register == nil {
		t.Fatal("default hooks missing")
	}
	var r httpkit.Router
	if got := b.Subrouter(r); got != r {
		t.Fatal("default subrouter should be identity")
	}
	b.Register(r) // must not panic
}

func TestWithPorts(t *testing.T) {
	type ports struct{ N int }
	b := Build(WithPorts(ports{N: 3}))
	p, ok := b.Ports.(ports)
	if !ok || p.N != 3 {
		t.Fatalf("ports = %#v", b.Ports)
	}
}
