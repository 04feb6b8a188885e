package trainer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

const maxLineSize = 1 << 20

// Launcher runs the delegated trainer process.
type Launcher struct {
	// Command is split on whitespace; "--plan <path>" is appended.
	Command string
	Stderr  io.Writer
	Logger  *slog.Logger
}

// event is one JSON line on the trainer's stdout.
type event struct {
	Event string         `json:"event"`
	Step  int            `json:"step"`
	Logs  map[string]any `json:"logs"`
}

// Run starts the trainer, dispatches its log events to cb and waits for
// it to exit. Lines that are not events are passed to the logger.
func (l *Launcher) Run(ctx context.Context, planPath string, cb Callback) error {
	fields := strings.Fields(l.Command)
	if len(fields) == 0 {
		return fmt.Errorf("trainer command is empty")
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	args := append(fields[1:], "--plan", planPath)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stderr = l.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("trainer stdout: %w", err)
	}

	logger.Info("starting trainer", "command", l.Command, "plan", planPath)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start trainer: %w", err)
	}

	scanErr := scanEvents(stdout, cb, logger)
	if scanErr != nil {
		// The child blocks on a full pipe unless someone keeps reading.
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("trainer exited: %w", err)
	}
	if scanErr != nil {
		return fmt.Errorf("read trainer output: %w", scanErr)
	}
	return nil
}

func scanEvents(r io.Reader, cb Callback, logger *slog.Logger) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, skipped, err := readLine(br)
		if skipped > 0 {
			logger.Warn("skipping oversized trainer output line", "bytes", skipped, "limit", maxLineSize)
		} else if line != "" {
			handleLine(line, cb, logger)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// readLine returns the next line without its newline. Lines longer than
// maxLineSize are consumed and reported through skipped instead.
func readLine(br *bufio.Reader) (line string, skipped int, err error) {
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if skipped > 0 || len(buf)+len(chunk) > maxLineSize {
			skipped += len(buf) + len(chunk)
			buf = nil
		} else {
			buf = append(buf, chunk...)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if skipped > 0 {
			return "", skipped, err
		}
		return strings.TrimRight(string(buf), "\r\n"), 0, err
	}
}

func handleLine(line string, cb Callback, logger *slog.Logger) {
	ev, ok := parseEvent(line)
	if !ok {
		if strings.TrimSpace(line) != "" {
			logger.Info(line, "source", "trainer")
		}
		return
	}
	if ev.Event != "log" {
		logger.Debug("ignoring trainer event", "event", ev.Event)
		return
	}
	cb.OnLog(ev.Step, numericLogs(ev.Logs))
}

func parseEvent(line string) (event, bool) {
	var ev event
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return ev, false
	}
	if err := json.Unmarshal([]byte(trimmed), &ev); err != nil || ev.Event == "" {
		return ev, false
	}
	return ev, true
}

// numericLogs keeps the values that are numbers or booleans.
func numericLogs(logs map[string]any) map[string]float64 {
	out := make(map[string]float64, len(logs))
	for k, v := range logs {
		switch v := v.(type) {
		case float64:
			out[k] = v
		case bool:
			if v {
				out[k] = 1
			} else {
				out[k] = 0
			}
		}
	}
	return out
}
