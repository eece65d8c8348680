// Package input tracks which keys are held, keyed by the browser KeyboardEvent.code.
package input

import "sync"

// Key codes used by the sandbox
const (
	ArrowUp    = "ArrowUp"
	ArrowDown  = "ArrowDown"
	ArrowLeft  = "ArrowLeft"
	ArrowRight = "ArrowRight"
	KeyW       = "KeyW"
	KeyA       = "KeyA"
	KeyS       = "KeyS"
	KeyD       = "KeyD"
	KeyB       = "KeyB"
	Space      = "Space"
	KeyP       = "KeyP"
	KeyO       = "KeyO"
	KeyV       = "KeyV"
	KeyR       = "KeyR"
	KeyH       = "KeyH"
	Escape     = "Escape"
)

// Listener is called on a key edge; pressed is false on release
type Listener func(code string, pressed bool)

// ListenerID removes a listener with Keyboard.Off
type ListenerID uint64

// Keyboard is a flat code to pressed-state map. Presses come from the
// transport goroutines while the tick loop reads, hence the lock.
type Keyboard struct {
	mu        sync.RWMutex
	pressed   map[string]bool
	listeners map[ListenerID]Listener
	order     []ListenerID
	nextID    ListenerID
}

func NewKeyboard() *Keyboard {
	return &Keyboard{
		pressed:   make(map[string]bool),
		listeners: make(map[ListenerID]Listener),
	}
}

// Press marks code as held. A repeated press of a held key is ignored and
// reports false.
func (k *Keyboard) Press(code string) bool {
	k.mu.Lock()
	if k.pressed[code] {
		k.mu.Unlock()
		return false
	}
	k.pressed[code] = true
	listeners := k.snapshotLocked()
	k.mu.Unlock()

	for _, l := range listeners {
		l(code, true)
	}
	return true
}

// Release clears code; releasing a key that is not held is a no-op
func (k *Keyboard) Release(code string) bool {
	k.mu.Lock()
	if !k.pressed[code] {
		k.mu.Unlock()
		return false
	}
	delete(k.pressed, code)
	listeners := k.snapshotLocked()
	k.mu.Unlock()

	for _, l := range listeners {
		l(code, false)
	}
	return true
}

func (k *Keyboard) Pressed(code string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.pressed[code]
}

// Any reports whether one of codes is held
func (k *Keyboard) Any(codes ...string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, code := range codes {
		if k.pressed[code] {
			return true
		}
	}
	return false
}

// Reset releases every key without notifying listeners
func (k *Keyboard) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	clear(k.pressed)
}

// On registers l for every key edge, in registration order
func (k *Keyboard) On(l Listener) ListenerID {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextID++
	k.listeners[k.nextID] = l
	k.order = append(k.order, k.nextID)
	return k.nextID
}

func (k *Keyboard) Off(id ListenerID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.listeners[id]; !ok {
		return
	}
	delete(k.listeners, id)
	for i, other := range k.order {
		if other == id {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}
}

// NumListeners returns the number of registered listeners
func (k *Keyboard) NumListeners() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.listeners)
}

func (k *Keyboard) snapshotLocked() []Listener {
	listeners := make([]Listener, 0, len(k.order))
	for _, id := range k.order {
		listeners = append(listeners, k.listeners[id])
	}
	return listeners
}
