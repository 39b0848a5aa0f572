package events

import (
	"reflect"
	"testing"
)

func TestBusEmitCommandNotFound(t *testing.T) {
	bus := NewBus()

	var first, second [][]string
	bus.OnCommandNotFound(func(cmd []string) { first = append(first, cmd) })
	bus.OnCommandNotFound(func(cmd []string) { second = append(second, cmd) })

	bus.EmitCommandNotFound([]string{"nosuchcmd", "arg"})

	want := [][]string{{"nosuchcmd", "arg"}}
	if !reflect.DeepEqual(first, want) || !reflect.DeepEqual(second, want) {
		t.Fatalf("expected both handlers to fire once, got %v and %v", first, second)
	}
}

func TestBusNoHandlers(t *testing.T) {
	bus := NewBus()
	// Emitting with no handlers registered must not panic.
	bus.EmitCommandNotFound([]string{"x"})
	bus.OnCommandNotFound(nil)
	bus.EmitCommandNotFound([]string{"x"})
}
