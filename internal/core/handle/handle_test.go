package handle

import (
	"testing"

	perr "tidepool/internal/platform/errors"
)

func TestParse_LocalAndRemote(t *testing.T) {
	h, err := Parse("alice")
	if err != nil {
		t.Fatalf("parse local: %v", err)
	}
	if !h.IsLocal() || h.Username != "alice" {
		t.Fatalf("unexpected: %+v", h)
	}

	h, err = Parse("@bob@remote.example")
	if err != nil {
		t.Fatalf("parse remote: %v", err)
	}
	if h.IsLocal() || h.Username != "bob" || h.Domain != "remote.example" {
		t.Fatalf("unexpected: %+v", h)
	}
	if h.String() != "bob@remote.example" {
		t.Fatalf("string: %q", h.String())
	}
}

func TestParse_CanonicalizesCase(t *testing.T) {
	a, err := Parse("Alice@Remote.Example")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := Parse("alice@remote.example")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a != b {
		t.Fatalf("case variants did not converge: %+v vs %+v", a, b)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "@", "not-a-handle!!", "a@b@c", "alice@", "alice@.example", "al ice"} {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("expected error for %q", in)
		}
		if !perr.IsCode(err, perr.ErrorCodeMalformedHandle) {
			t.Fatalf("wrong code for %q: %v", in, err)
		}
	}
}
