// Package app is the composition root of tally.
//
// Run loads the config, opens the log file and the local cache, builds the
// storage selector with its three drivers, the tracker, board and ledger
// collections, the location client and the session, and hands them to a
// user.Store. The store is then driven by either the terminal UI or the
// headless waiter.
//
//	Run()
//	 ├─> config.Load()        ~/.config/tally/config.toml
//	 ├─> logging.New()        <data_dir>/tally.log
//	 ├─> prefs.Open()         <data_dir>/local.toml
//	 ├─> storage.New()        badger | s3 | sqlite
//	 ├─> user.New()
//	 └─> ui.Run() or runHeadless()
//
// # Headless mode
//
// runHeadless calls Initialize and waits for the first of: the ready signal
// (a summary is printed), the onboarding state (ErrOnboarding, since there is
// nobody to pick a backend), or a fatal failure. Failures are retried
// Options.Retries times with doubling delays capped at 30 seconds before the
// error is returned.
package app
