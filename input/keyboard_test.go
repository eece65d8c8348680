package input

import (
	"testing"
)

func TestKeyboard_PressRelease(t *testing.T) {
	k := NewKeyboard()

	if !k.Press(KeyW) {
		t.Fatal("first press should register")
	}
	if k.Press(KeyW) {
		t.Error("a repeated press is ignored")
	}
	if !k.Pressed(KeyW) || !k.Any(ArrowUp, KeyW) {
		t.Error("KeyW should be held")
	}

	if !k.Release(KeyW) {
		t.Error("release of a held key should register")
	}
	if k.Release(KeyW) {
		t.Error("release of a free key is a no-op")
	}
	if k.Pressed(KeyW) || k.Any(ArrowUp, KeyW) {
		t.Error("KeyW should be free")
	}
}

func TestKeyboard_Listeners(t *testing.T) {
	k := NewKeyboard()

	var edges []string
	first := k.On(func(code string, pressed bool) {
		if pressed {
			edges = append(edges, "down:"+code)
		} else {
			edges = append(edges, "up:"+code)
		}
	})
	k.On(func(code string, pressed bool) {
		edges = append(edges, "second")
	})

	k.Press(KeyH)
	k.Press(KeyH)
	k.Release(KeyH)

	want := []string{"down:KeyH", "second", "up:KeyH", "second"}
	if len(edges) != len(want) {
		t.Fatalf("got edges %v, want %v", edges, want)
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d = %q, want %q", i, edges[i], want[i])
		}
	}

	k.Off(first)
	k.Off(first)
	if k.NumListeners() != 1 {
		t.Errorf("expected 1 listener left, got %d", k.NumListeners())
	}
}

func TestKeyboard_Reset(t *testing.T) {
	k := NewKeyboard()
	called := false
	k.On(func(string, bool) { called = true })
	k.Press(Space)
	called = false

	k.Reset()

	if k.Pressed(Space) || called {
		t.Error("reset clears keys silently")
	}
}
