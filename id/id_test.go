package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/vidqueue/id"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() string
		prefix id.Prefix
	}{
		{"message", id.NewMessage, id.PrefixMessage},
		{"lease", id.NewLease, id.PrefixLease},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn()
			if !strings.HasPrefix(got, string(tt.prefix)+"_") {
				t.Fatalf("got %q, want prefix %q", got, tt.prefix)
			}
			p, err := id.PrefixOf(got)
			if err != nil {
				t.Fatalf("PrefixOf: %v", err)
			}
			if p != tt.prefix {
				t.Errorf("PrefixOf = %q, want %q", p, tt.prefix)
			}
			if got == tt.newFn() {
				t.Error("two calls returned the same handle")
			}
		})
	}
}

func TestIsLease(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{id.NewLease(), true},
		{id.NewMessage(), false},
		{"", false},
		{"lease_not-a-typeid", false},
		{"0b1e3c6a-cloudflare-lease", false},
	}
	for _, tt := range tests {
		if got := id.IsLease(tt.in); got != tt.want {
			t.Errorf("IsLease(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrefixOf_Invalid(t *testing.T) {
	for _, s := range []string{"", "not a typeid", "msg_!!!"} {
		if _, err := id.PrefixOf(s); err == nil {
			t.Errorf("PrefixOf(%q): expected error", s)
		}
	}
}
