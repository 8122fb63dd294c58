// Package ui is the Bubble Tea status view for tally.
//
// # Phases
//
// The body follows the user lifecycle, derived from the latest snapshot and
// the last fatal failure:
//
//	failed      fatal bootstrap or backend error; r retries
//	onboarding  no backend selected; pick one of backend.Kinds
//	starting    backend opening or bootstrap running (spinner)
//	locked      metadata lock on; enter the pin
//	ready       summary of the loaded user data
//
// # Data Flow
//
// Run subscribes to the controller and forwards every snapshot and failure
// into the program with Program.Send, then starts the controller. Update
// never calls a controller method that mutates state; those run as tea.Cmd
// so the resulting notification can reach Send without blocking the loop.
//
// # Theme
//
// T cycles the stored theme setting (auto, light, dark). light uses the
// Paper palette; auto and dark use the dark palette chosen with P, which is
// kept in the local cache under prefs.KeyUITheme.
//
// # Logs
//
// l toggles a pane with the tail of the tally log, re-read every LogTick
// through logtail.
package ui
