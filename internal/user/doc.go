// Package user coordinates a launch: it counts it, waits for the selected
// backend, loads what the user needs and announces when everything is ready.
//
// # Launch
//
// Initialize increments the persisted launch count on every call, then
// branches on whether a backend has been selected:
//
//	Initialize
//	  ├─ launch count +1 (persisted)
//	  ├─ first-date lookup queued for when storage opens
//	  ├─ no backend:  SignedIn=false, LaunchCount=0 (onboarding)
//	  └─ backend:     bootstrap queued, backend Init
//
// # Bootstrap
//
// Bootstrap runs when the backend is usable. Metadata loads alongside the
// tracker collection; boards load after trackers because they are pruned
// against them.
//
//	loadMeta ─────────────────────┐
//	trackers ──> boards ──────────┴─> join ──> publish ──> FireReady
//
// A metadata failure is logged and the defaults stay. A tracker or board
// failure is reported once to the OnFailure handlers, nothing is published
// and the ready signal does not fire. Retry runs it again.
//
// # Ready
//
// OnReady callbacks registered before bootstrap completes run once, in
// order, with the snapshot taken at completion. Callbacks registered later
// run immediately with the current snapshot. UserState.Ready is set before
// any queued callback runs and never reverts.
package user
