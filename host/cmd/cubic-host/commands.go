package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"cubicdrive/host/board"
	"cubicdrive/protocol"
)

var (
	errQuit  = errors.New("quit")
	errUsage = errors.New("usage")
)

// shell interprets bench commands against a board
type shell struct {
	b     *board.Board
	out   io.Writer
	depth int // script nesting

	rampStep   int16
	rampPeriod time.Duration
}

func newShell(b *board.Board, out io.Writer) *shell {
	return &shell{
		b:          b,
		out:        out,
		rampStep:   500,
		rampPeriod: 20 * time.Millisecond,
	}
}

// exec runs one command line. Comments start with '#'.
func (s *shell) exec(ctx context.Context, line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		printHelp(s.out)
		return nil

	case "set":
		ch, duty, err := chanDuty(args)
		if err != nil {
			return err
		}
		return s.b.SetMain(ch, duty)

	case "sub":
		ch, duty, err := chanDuty(args)
		if err != nil {
			return err
		}
		return s.b.SetSub(ch, duty)

	case "sol":
		if len(args) != 2 {
			return fmt.Errorf("%w: sol <ch> on|off", errUsage)
		}
		ch, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad channel %q: %w", args[0], err)
		}
		on, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		return s.b.SetSolenoid(ch, on)

	case "stop":
		return s.b.Stop()

	case "send":
		duties := make([]int16, len(args))
		for i, a := range args {
			v, err := strconv.ParseInt(a, 0, 16)
			if err != nil {
				return fmt.Errorf("bad duty %q: %w", a, err)
			}
			duties[i] = int16(v)
		}
		return s.b.SendDuties(duties)

	case "ramp":
		return s.ramp(ctx, args)

	case "show":
		s.show()
		return nil

	case "sleep":
		if len(args) != 1 {
			return fmt.Errorf("%w: sleep <ms>", errUsage)
		}
		ms, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad duration %q: %w", args[0], err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(ms) * time.Millisecond):
		}
		return nil

	case "script":
		if len(args) != 1 {
			return fmt.Errorf("%w: script <file>", errUsage)
		}
		return s.runFile(ctx, args[0])

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ramp main|sub <ch> <target> [step] [period_ms]
func (s *shell) ramp(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 5 {
		return fmt.Errorf("%w: ramp main|sub <ch> <target> [step] [period_ms]", errUsage)
	}
	ch, target, err := chanDuty(args[1:3])
	if err != nil {
		return err
	}

	step, period := s.rampStep, s.rampPeriod
	if len(args) >= 4 {
		v, err := strconv.ParseInt(args[3], 0, 16)
		if err != nil {
			return fmt.Errorf("bad step %q: %w", args[3], err)
		}
		step = int16(v)
	}
	if len(args) == 5 {
		ms, err := strconv.Atoi(args[4])
		if err != nil {
			return fmt.Errorf("bad period %q: %w", args[4], err)
		}
		period = time.Duration(ms) * time.Millisecond
	}

	f := s.b.Frame()
	switch args[0] {
	case "main":
		if ch < 0 || ch >= len(f.Main) {
			return fmt.Errorf("%w: main %d", board.ErrChannel, ch)
		}
		return s.b.Ramp(ctx, s.b.SetMain, ch, f.Main[ch], target, step, period)
	case "sub":
		if ch < 0 || ch >= len(f.Sub) {
			return fmt.Errorf("%w: sub %d", board.ErrChannel, ch)
		}
		// A solenoid channel ramps from rest
		return s.b.Ramp(ctx, s.b.SetSub, ch, f.Sub[ch].Duty, target, step, period)
	default:
		return fmt.Errorf("%w: ramp main|sub ...", errUsage)
	}
}

func (s *shell) show() {
	f := s.b.Frame()
	for i, d := range f.Main {
		fmt.Fprintf(s.out, "  main[%d] %6d\n", i, d)
	}
	for i, c := range f.Sub {
		if c.Kind == protocol.SubSolenoid {
			fmt.Fprintf(s.out, "  sub[%d]  solenoid %s\n", i, onOff(c.On))
		} else {
			fmt.Fprintf(s.out, "  sub[%d]  %6d\n", i, c.Duty)
		}
	}
	fmt.Fprintf(s.out, "  frames sent: %d\n", s.b.Sent())
}

// runFile executes a script, stopping at the first error
func (s *shell) runFile(ctx context.Context, path string) error {
	if s.depth >= 8 {
		return fmt.Errorf("script %s: nesting too deep", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	s.depth++
	defer func() { s.depth-- }()
	return s.run(ctx, f, path, false)
}

// run executes lines from r. Interactive mode prints a prompt and keeps
// going after errors.
func (s *shell) run(ctx context.Context, r io.Reader, name string, interactive bool) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for {
		if interactive {
			fmt.Fprint(s.out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		lineNo++

		err := s.exec(ctx, scanner.Text())
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return err
		case interactive:
			fmt.Fprintf(s.out, "Error: %v\n", err)
		default:
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	return scanner.Err()
}

func chanDuty(args []string) (int, int16, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%w: <ch> <duty>", errUsage)
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad channel %q: %w", args[0], err)
	}
	v, err := strconv.ParseInt(args[1], 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad duty %q: %w", args[1], err)
	}
	return ch, int16(v), nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "\nAvailable commands:")
	fmt.Fprintln(w, "  set <ch> <duty>              - Set main channel duty")
	fmt.Fprintln(w, "  sub <ch> <duty>              - Set sub channel motor duty")
	fmt.Fprintln(w, "  sol <ch> on|off              - Switch sub channel solenoid")
	fmt.Fprintln(w, "  stop                         - Zero every motor")
	fmt.Fprintln(w, "  ramp main|sub <ch> <target> [step] [period_ms]")
	fmt.Fprintln(w, "                               - Ramp a channel to target")
	fmt.Fprintln(w, "  send <d0> <d1> ...           - Send raw values for all channels")
	fmt.Fprintln(w, "  show                         - Print the commanded frame")
	fmt.Fprintln(w, "  sleep <ms>                   - Pause")
	fmt.Fprintln(w, "  script <file>                - Run commands from a file")
	fmt.Fprintln(w, "  quit/exit/q                  - Exit the program")
	fmt.Fprintln(w)
}
