package fsck

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/logex"
	"github.com/moby/term"
)

// terminalState tracks the raw-mode switch for interactive repairs. The
// original terminal settings must come back on every exit, including fatal
// signals: the handler restores, resets the disposition and re-raises so the
// parent still sees the real cause of death.
type terminalState struct {
	fd    uintptr
	state *term.State
	sig   chan os.Signal
}

func rawTerminal() (*terminalState, error) {
	fd := os.Stdin.Fd()
	state, err := term.SetRawTerminal(fd)
	if err != nil {
		return nil, logex.Trace(err)
	}
	ts := &terminalState{
		fd:    fd,
		state: state,
		sig:   make(chan os.Signal, 1),
	}
	signal.Notify(ts.sig, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	go func() {
		s, ok := <-ts.sig
		if !ok {
			return
		}
		term.RestoreTerminal(ts.fd, ts.state)
		signal.Reset(s)
		if num, ok := s.(syscall.Signal); ok {
			syscall.Kill(syscall.Getpid(), num)
		}
	}()
	return ts, nil
}

func (t *terminalState) Restore() {
	signal.Stop(t.sig)
	close(t.sig)
	term.RestoreTerminal(t.fd, t.state)
}

// crlfWriter keeps output readable while the terminal is raw: with OPOST off
// a bare newline no longer returns the carriage.
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(b []byte) (int, error) {
	start := 0
	for i, ch := range b {
		if ch != '\n' {
			continue
		}
		if _, err := c.w.Write(b[start:i]); err != nil {
			return start, err
		}
		if _, err := c.w.Write([]byte("\r\n")); err != nil {
			return i, err
		}
		start = i + 1
	}
	if _, err := c.w.Write(b[start:]); err != nil {
		return start, err
	}
	return len(b), nil
}
