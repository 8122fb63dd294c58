// Package logtail reads the end of the tally log file and parses its lines
// for display in the TUI.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) regardless of file size:
//
//  1. Store each line at the current index
//  2. Advance the index, wrapping at maxLines
//  3. Once the file ends, return the buffer from the oldest line onward
//
// A non-positive maxLines returns the whole file. A missing file returns
// nil, nil.
//
// # Parsing
//
// Parse understands the slog text handler format:
//
//	time=2025-10-08T21:01:05Z level=INFO msg="bootstrap complete" component=user trackers=3
//
// time, level, msg and component become Entry fields; every other pair is
// kept in order in Attrs. Lines that are not key=value pairs (panics,
// stack traces) are returned with only Raw and Message set. Format turns an
// Entry into a compact single line.
//
// Nothing here colours output; the UI owns styling.
package logtail
