// Package ready provides a one-shot readiness latch with a pending-callback
// queue.
//
// A Gate moves from not ready to ready exactly once. Observers either block
// on it (Wait, Done) or register callbacks (OnReady). Callbacks registered
// before the transition are queued and delivered in registration order with
// the fired payload; callbacks registered afterwards run immediately, so late
// observers never miss the event.
//
// # Drain semantics
//
// Fire sets the ready flag, runs the optional before-drain hook, then drains
// the queue in passes:
//
//	pass 1: every callback queued before Fire
//	pass 2: every callback queued while pass 1 ran
//	...      until a pass finds the queue empty
//
// While a drain is running OnReady always queues, even though the gate is
// already ready. This keeps delivery in registration order and guarantees a
// callback registered from inside another callback runs exactly once.
//
// A panicking callback is recovered and logged; the rest of the pass still
// runs.
package ready
