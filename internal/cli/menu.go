package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"srank/internal/log"
	"srank/internal/services"
)

// Menu prompts.
const (
	MenuPrompt     = "Choose an option (1 - Fetch funds, 2 - Clear cache, 0 - Exit): "
	MenuInvalid    = "Invalid option. Try again."
	MenuExiting    = "Exiting..."
	MenuCleared    = "Cache cleared."
	MenuRunFailed  = "Error fetching fund data:"
	MenuGenerated  = "JSON and XLSX files generated successfully."
	MenuClearError = "Error clearing cache:"
)

// Actions are the operations reachable from the menu.
type Actions interface {
	Run(ctx context.Context) (*services.RunResult, error)
	ClearCache(ctx context.Context) error
}

// Menu is the interactive control loop.
type Menu struct {
	in      io.Reader
	out     io.Writer
	actions Actions
	logger  *log.Logger
}

func NewMenu(in io.Reader, out io.Writer, actions Actions, logger *log.Logger) *Menu {
	if logger == nil {
		logger = log.Discard()
	}
	return &Menu{in: in, out: out, actions: actions, logger: logger.WithComponent(log.ComponentCLI)}
}

// Loop reads one option per line until 0, end of input or ctx cancellation.
// Cancellation is noticed while waiting at the prompt. Action failures are
// reported and the menu continues.
func (m *Menu) Loop(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines, readErr := m.readLines(done)

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(m.out, MenuExiting)
			return nil
		}
		fmt.Fprint(m.out, MenuPrompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(m.out)
			fmt.Fprintln(m.out, MenuExiting)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(m.out)
				fmt.Fprintln(m.out, MenuExiting)
				return <-readErr
			}
			line = l
		}

		switch strings.TrimSpace(line) {
		case "1":
			m.run(ctx)
		case "2":
			m.clear(ctx)
		case "0":
			fmt.Fprintln(m.out, MenuExiting)
			return nil
		default:
			fmt.Fprintln(m.out, MenuInvalid)
		}
	}
}

// readLines scans m.in on its own goroutine. lines is closed at end of input,
// after the scan error has been sent on the returned error channel. A reader
// blocked on a terminal stays blocked until the next line or process exit.
func (m *Menu) readLines(done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(m.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
		close(lines)
	}()
	return lines, errc
}

func (m *Menu) run(ctx context.Context) {
	res, err := m.actions.Run(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Ranking run failed", log.FieldError, err)
		fmt.Fprintln(m.out, MenuRunFailed, err)
		return
	}
	PrintSummary(m.out, res)
	fmt.Fprintln(m.out, MenuGenerated)
}

func (m *Menu) clear(ctx context.Context) {
	if err := m.actions.ClearCache(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Cache clear failed", log.FieldError, err)
		fmt.Fprintln(m.out, MenuClearError, err)
		return
	}
	fmt.Fprintln(m.out, MenuCleared)
}
