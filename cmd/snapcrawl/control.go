package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/rs/zerolog"
)

// Controller is the control surface the CLI drives
type Controller interface {
	Pause() error
	Stop() error
	Status() models.Status
	AddAllowlistEntry(entry string) error
	RemoveAllowlistEntry(entry string) error
	AllowlistEntries() []string
}

const controlHelp = `commands:
  pause | resume     toggle pause
  stop               stop the session
  status             print session status
  allow <entry>      add an allowlist entry (hostname or /regex/)
  disallow <entry>   remove an allowlist entry
  allowlist          list allowlist entries`

// executeCommand applies one control line to ctrl
func executeCommand(ctrl Controller, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	command := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch command {
	case "pause", "resume":
		if err := ctrl.Pause(); err != nil {
			return err
		}
		fmt.Fprintln(out, formatStatus(ctrl.Status()))
	case "stop":
		return ctrl.Stop()
	case "status":
		fmt.Fprintln(out, formatStatus(ctrl.Status()))
	case "allow":
		if arg == "" {
			return fmt.Errorf("usage: allow <entry>")
		}
		return ctrl.AddAllowlistEntry(arg)
	case "disallow":
		if arg == "" {
			return fmt.Errorf("usage: disallow <entry>")
		}
		return ctrl.RemoveAllowlistEntry(arg)
	case "allowlist":
		for _, entry := range ctrl.AllowlistEntries() {
			fmt.Fprintln(out, entry)
		}
	case "help", "?":
		fmt.Fprintln(out, controlHelp)
	default:
		return fmt.Errorf("unknown command %q (try help)", command)
	}
	return nil
}

// readCommands executes control lines from r until EOF or ctx is done
func readCommands(ctx context.Context, r io.Reader, ctrl Controller, out io.Writer, logger zerolog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := executeCommand(ctrl, scanner.Text(), out); err != nil {
			logger.Warn().Err(err).Msg("Control command failed")
		}
	}
}

// formatStatus renders the one-line status shown to the operator
func formatStatus(status models.Status) string {
	line := fmt.Sprintf("state=%s visited=%d queued=%d elapsed=%s",
		status.State, status.Visited, status.Queued, status.Elapsed.Truncate(time.Second))
	if status.CurrentPage != "" {
		line += " current=" + status.CurrentPage
	}
	return line
}
