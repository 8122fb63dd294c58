// Package storage selects the active backend and reports when it is usable.
//
// The selection is one of backend.Kinds and lives in the local cache under
// prefs.KeyStorageType. Unknown names resolve to backend.Default rather than
// failing. Init opens the selected driver on a background goroutine; once
// the open (including any remote handshake) succeeds, callbacks registered
// with AwaitReady run with the opened storage.
//
//	sel := storage.New(local, store, drivers, storage.WithLogger(logger))
//	sel.AwaitReady(func(s backend.Storage) { bootstrap(s) })
//	sel.Init(ctx)
//
// There is no timeout on the open. A backend that never answers leaves
// AwaitReady callbacks queued until ctx is cancelled and Init is retried.
package storage
