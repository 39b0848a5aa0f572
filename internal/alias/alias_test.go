package alias

import (
	"reflect"
	"testing"
)

func TestRegistrySetLookupDelete(t *testing.T) {
	reg := NewRegistry()

	if _, ok := reg.Lookup("ll"); ok {
		t.Fatal("expected empty registry to miss")
	}

	reg.Set("ll", Command("ls -l"))
	target, ok := reg.Lookup("ll")
	if !ok {
		t.Fatal("expected lookup to succeed")
	}
	if cmd, ok := target.(Command); !ok || cmd != "ls -l" {
		t.Fatalf("unexpected target %#v", target)
	}

	reg.Set("ll", Tokens{"ls", "-la"})
	target, _ = reg.Lookup("ll")
	if tokens, ok := target.(Tokens); !ok || !reflect.DeepEqual([]string(tokens), []string{"ls", "-la"}) {
		t.Fatalf("expected replaced binding, got %#v", target)
	}

	reg.Delete("ll")
	if _, ok := reg.Lookup("ll"); ok {
		t.Fatal("expected deleted binding to miss")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Set("zeta", Command("true"))
	reg.Set("alpha", Modifier{Threadable: Bool(false)})
	reg.Set("mid", Tokens{"echo"})

	got := reg.Names()
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
