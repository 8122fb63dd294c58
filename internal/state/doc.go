// Package state owns the user snapshot shared by the lifecycle, the storage
// selector, the bootstrap coordinator and the UI.
//
// # Overview
//
// Store holds a single UserState. Nothing else keeps a mutable reference to
// it: Read hands out deep copies and Mutate replaces the snapshot with the
// value its callback returns.
//
//	Writers (lifecycle, bootstrap):      Readers (UI, headless):
//	┌────────────────────┐              ┌────────────────────┐
//	│ store.Mutate(fn)   │──────────────│ store.Subscribe(f) │
//	│   fn(copy) → next  │  (ordered)   │ store.Read()       │
//	└────────────────────┘              └────────────────────┘
//
// # Ordering
//
// Mutations are serialized by a write lock held while the callback runs, so
// two goroutines that both read-modify-write never lose an update. The order
// of application is the order in which callers acquire that lock.
//
// Every mutation produces one notification. Notifications are queued in
// mutation order and delivered by a single flushing goroutine:
//
//	Mutate A ─┐
//	Mutate B ─┼─> outbox [A, B, C] ─> flush ─> sub1(A) sub2(A) sub1(B) ...
//	Mutate C ─┘
//
// The goroutine whose mutation finds no flush in progress becomes the
// flusher. Others enqueue and return. This is what makes Mutate safe to call
// from inside a subscriber: the nested snapshot is queued behind the one being
// delivered instead of deadlocking or jumping the queue.
//
// # Copies
//
// UserState carries pointers (SignedIn, Meta.Pin, Meta.LastBackup,
// Location). Clone copies their targets, so subscribers and Read callers may
// modify what they receive without affecting the store.
//
// # Usage Example
//
//	store := state.NewStore(state.NewUserState(), logger)
//	unsubscribe := store.Subscribe(func(u state.UserState) {
//		render(u)
//	})
//	defer unsubscribe()
//
//	store.Mutate(func(u state.UserState) state.UserState {
//		u.LaunchCount++
//		return u
//	})
package state
