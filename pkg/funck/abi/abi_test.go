package abi_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/boson-project/funck/pkg/funck/abi"
)

func TestNewRequest(t *testing.T) {
	want := abi.Request{Body: []byte("hi"), Metadata: []abi.KV{{Name: "x", Value: "1"}}}
	got := abi.NewRequest([]byte("hi"), []abi.KV{{Name: "x", Value: "1"}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected request (-want +got):\n%s", diff)
	}
}

func TestRequestGet(t *testing.T) {
	req := abi.NewRequest(nil, []abi.KV{
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "X-Trace", Value: "abc"},
	})

	v, ok := req.Get("X-Trace")
	if !ok || v != "abc" {
		t.Fatalf("expected (abc, true), got (%q, %v)", v, ok)
	}

	_, ok = req.Get("missing")
	if ok {
		t.Fatal("expected missing key to report false")
	}
}
