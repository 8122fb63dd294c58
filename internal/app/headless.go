package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/user"
)

// ErrOnboarding is returned by a headless run when no backend is selected.
var ErrOnboarding = errors.New("no backend selected: run the terminal UI once or pass -backend")

const (
	defaultRetryDelay = 2 * time.Second
	maxBackoff        = 30 * time.Second
)

func runHeadless(ctx context.Context, store *user.Store, logger *slog.Logger, out io.Writer, opts Options) error {
	failures := make(chan error, 1)
	store.OnFailure(func(err error) {
		select {
		case failures <- err:
		default:
		}
	})

	onboarding := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func(u state.UserState) {
		if u.NeedsOnboarding() {
			select {
			case onboarding <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ready := make(chan state.UserState, 1)
	go func() {
		if u, err := store.WaitReady(waitCtx); err == nil {
			ready <- u
		}
	}()

	store.Initialize(ctx)

	base := opts.RetryDelay
	if base <= 0 {
		base = defaultRetryDelay
	}
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-onboarding:
			return ErrOnboarding
		case u := <-ready:
			return printSummary(ctx, out, store, u, opts.ListFiles)
		case err := <-failures:
			if attempt >= opts.Retries {
				return fmt.Errorf("startup failed: %w", err)
			}
			delay := calculateBackoff(attempt, base)
			attempt++
			logger.Warn("startup failed, retrying",
				"attempt", attempt,
				"delay", delay.String(),
				"error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			store.Retry(ctx)
		}
	}
}

// calculateBackoff doubles base per prior failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

func printSummary(ctx context.Context, out io.Writer, store *user.Store, u state.UserState, listFiles bool) error {
	layouts := store.DateTimeFormat()

	pairs := [][2]string{
		{"backend", u.StorageType.String()},
		{"user", store.Session().Profile().Username},
		{"launches", strconv.Itoa(u.LaunchCount)},
	}
	if trackers, ok := store.Trackers(); ok {
		pairs = append(pairs, [2]string{"trackers", strconv.Itoa(len(trackers))})
	}
	if boards, ok := store.Boards(); ok {
		pairs = append(pairs, [2]string{"boards", strconv.Itoa(len(boards))})
	}
	if first, ok := store.FirstDate(); ok {
		pairs = append(pairs, [2]string{"since", first.Format(layouts.Date)})
	}
	if u.Meta.LastBackup != nil {
		pairs = append(pairs, [2]string{"last backup", u.Meta.LastBackup.Format(layouts.Date + " " + layouts.Time)})
	}

	if _, err := fmt.Fprintln(out, "tally ready"); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	keyValueTable(out, pairs)

	if !listFiles {
		return nil
	}
	files, err := store.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	return nil
}

// keyValueTable prints pairs as a borderless two-column table.
func keyValueTable(w io.Writer, pairs [][2]string) {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}
	table.Render()
}
