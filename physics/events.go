package physics

import (
	"sort"

	"github.com/akmonengine/farmtruck/physics/actor"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// CollisionEvent reports that two colliders started or stopped touching.
// ColliderA always has the lower handle.
type CollisionEvent struct {
	ColliderA actor.ColliderHandle
	ColliderB actor.ColliderHandle
	Started   bool
}

func (e CollisionEvent) Type() EventType {
	if e.Started {
		return COLLISION_ENTER
	}
	return COLLISION_EXIT
}

// Involves reports whether handle is one side of the event, and returns the other side
func (e CollisionEvent) Involves(handle actor.ColliderHandle) (actor.ColliderHandle, bool) {
	switch handle {
	case e.ColliderA:
		return e.ColliderB, true
	case e.ColliderB:
		return e.ColliderA, true
	}
	return 0, false
}

type SleepEvent struct {
	Body actor.BodyHandle
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body actor.BodyHandle
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

type pairKey struct {
	a, b actor.ColliderHandle
}

type activePair struct {
	colliderA *actor.Collider
	colliderB *actor.Collider
}

func makePair(a, b *actor.Collider) (pairKey, activePair) {
	if b.Handle < a.Handle {
		a, b = b, a
	}
	return pairKey{a: a.Handle, b: b.Handle}, activePair{colliderA: a, colliderB: b}
}

// Events tracks touching pairs across steps and queues the resulting events
// until they are drained
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event
	queue  []Event

	previousActivePairs map[pairKey]activePair
	currentActivePairs  map[pairKey]activePair

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 64),
		previousActivePairs: make(map[pairKey]activePair),
		currentActivePairs:  make(map[pairKey]activePair),
		sleepStates:         make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener called at the end of each step
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContact marks a pair as touching during the current step. Only pairs
// with at least one collider reporting events are tracked.
func (e *Events) recordContact(a, b *actor.Collider) {
	if !a.ActiveEvents && !b.ActiveEvents {
		return
	}
	key, pair := makePair(a, b)
	e.currentActivePairs[key] = pair
}

// forget drops every tracked pair involving the collider, without events
func (e *Events) forget(collider *actor.Collider) {
	for key := range e.previousActivePairs {
		if key.a == collider.Handle || key.b == collider.Handle {
			delete(e.previousActivePairs, key)
		}
	}
	for key := range e.currentActivePairs {
		if key.a == collider.Handle || key.b == collider.Handle {
			delete(e.currentActivePairs, key)
		}
	}
}

func (e *Events) forgetBody(body *actor.RigidBody) {
	delete(e.sleepStates, body)
	for _, collider := range body.Colliders {
		e.forget(collider)
	}
}

// processCollisionEvents compares current and previous pairs to emit Enter and Exit
func (e *Events) processCollisionEvents() {
	for key, pair := range e.previousActivePairs {
		if _, ok := e.currentActivePairs[key]; ok {
			continue
		}
		// the broad phase skips pairs with no awake body: they still touch
		if !isAwakeDynamic(pair.colliderA.Body) && !isAwakeDynamic(pair.colliderB.Body) {
			e.currentActivePairs[key] = pair
			continue
		}
		e.buffer = append(e.buffer, CollisionEvent{ColliderA: key.a, ColliderB: key.b, Started: false})
	}

	for key := range e.currentActivePairs {
		if _, ok := e.previousActivePairs[key]; !ok {
			e.buffer = append(e.buffer, CollisionEvent{ColliderA: key.a, ColliderB: key.b, Started: true})
		}
	}

	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		if !trackedState && body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body.Handle})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body.Handle})
			e.sleepStates[body] = false
		}
	}
}

// flush notifies listeners and moves the step's events to the drain queue
func (e *Events) flush() {
	e.processCollisionEvents()
	sortEvents(e.buffer)

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.queue = append(e.queue, e.buffer...)
	e.buffer = e.buffer[:0]
}

// drain hands every queued event to fn in order, then empties the queue
func (e *Events) drain(fn func(Event)) {
	queue := e.queue
	e.queue = nil
	for _, event := range queue {
		fn(event)
	}
}

// sortEvents puts collision events first, ordered by handles, since pairs
// come out of a map
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, okA := events[i].(CollisionEvent)
		b, okB := events[j].(CollisionEvent)
		if !okA || !okB {
			return okA && !okB
		}
		if a.ColliderA != b.ColliderA {
			return a.ColliderA < b.ColliderA
		}
		if a.ColliderB != b.ColliderB {
			return a.ColliderB < b.ColliderB
		}
		return !a.Started && b.Started
	})
}
