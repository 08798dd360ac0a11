package fsck

import (
	"fmt"
	"io"
)

// Asker decides one proposed fix: "approve this mutation, default def". The
// interactive implementation prompts the operator; tests substitute a
// scripted decision table.
type Asker interface {
	Ask(question string, def bool) bool
}

// ask routes a proposed fix through the repair policy. Read-only runs refuse
// everything; automatic runs take the default; interactive runs delegate to
// the terminal. Any refusal leaves the error uncorrected.
func (f *Fsck) ask(question string, def bool) bool {
	var ans bool
	switch {
	case !f.opt.Repair:
		fmt.Fprintln(f.out)
		ans = false
	case f.opt.Automatic:
		fmt.Fprintln(f.out)
		ans = def
	default:
		ans = f.asker.Ask(question, def)
	}
	if !ans {
		f.uncorrected = true
	}
	return ans
}

// TermAsker prompts on the terminal and reads a single keystroke: y/n decide,
// space or newline takes the default, EOF takes the default silently.
type TermAsker struct {
	In  io.Reader
	Out io.Writer
}

func (a *TermAsker) Ask(question string, def bool) bool {
	if def {
		fmt.Fprintf(a.Out, "%s (y/n)? ", question)
	} else {
		fmt.Fprintf(a.Out, "%s (n/y)? ", question)
	}
	ans := def
	var buf [1]byte
	for {
		n, err := a.In.Read(buf[:])
		if err != nil || n == 0 {
			return def
		}
		c := buf[0]
		if c == 'Y' || c == 'y' {
			ans = true
			break
		}
		if c == 'N' || c == 'n' {
			ans = false
			break
		}
		if c == ' ' || c == '\n' || c == '\r' {
			break
		}
	}
	if ans {
		fmt.Fprintf(a.Out, "y\n")
	} else {
		fmt.Fprintf(a.Out, "n\n")
	}
	return ans
}
