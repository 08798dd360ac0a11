package fsck

import (
	"fmt"
	"io"
	"os"

	"github.com/allmad/mfsck/go/disk"
	"github.com/chzyer/flow"
	"github.com/chzyer/logex"
	"github.com/moby/term"
)

var ErrRootNotDir = logex.Define("root inode isn't a directory")

// Config is the command-line surface. Flags match the historical tool;
// verbose and force are on by default and the flags are kept for
// compatibility.
type Config struct {
	List     bool   `name:"l" desc:"list all filenames"`
	Auto     bool   `name:"a" desc:"automatic repair"`
	Repair   bool   `name:"r" desc:"interactive repair"`
	Verbose  bool   `name:"v" desc:"verbose (default)"`
	Show     bool   `name:"s" desc:"output super-block information"`
	WarnMode bool   `name:"m" desc:"warn about inodes with mode not cleared"`
	Force    bool   `name:"f" desc:"force filesystem check (default)"`
	Browse   bool   `name:"b" desc:"open the interactive image browser"`
	Device   string `type:"[0]" desc:"device or image file holding the filesystem"`

	browser func(d disk.Disk, device string) error
	status  int
}

func (c *Config) FlaglyDesc() string {
	return "check the consistency of a Minix filesystem"
}

func (c *Config) FlaglyHandle(f *flow.Flow) error {
	defer f.Close()
	c.status = c.main()
	return nil
}

// Status is the process exit code decided by the last run.
func (c *Config) Status() int {
	return c.status
}

// SetBrowser installs the -b shell. Wired from main so this package stays
// free of the browser's dependencies.
func (c *Config) SetBrowser(fn func(d disk.Disk, device string) error) {
	c.browser = fn
}

func (c *Config) main() int {
	if c.Device == "" {
		fmt.Fprintln(os.Stderr, "Usage: mfsck [-larvsmfb] device")
		return 16
	}

	if c.Browse {
		return c.browse()
	}

	opt := Options{
		List:     c.List,
		Verbose:  true,
		Show:     c.Show,
		WarnMode: c.WarnMode,
		Force:    true,
	}
	if c.Auto {
		opt.Repair, opt.Automatic = true, true
	}
	if c.Repair {
		opt.Repair, opt.Automatic = true, false
	}

	if deviceMounted(c.Device) {
		fmt.Printf("%s is mounted.\t ", c.Device)
		cont := false
		if term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd()) {
			asker := &TermAsker{In: os.Stdin, Out: os.Stdout}
			cont = asker.Ask("Do you really want to continue", false)
		}
		if !cont {
			fmt.Printf("check aborted.\n")
			return 0
		}
	}

	if opt.Repair && !opt.Automatic {
		if !term.IsTerminal(os.Stdin.Fd()) || !term.IsTerminal(os.Stdout.Fd()) {
			fmt.Fprintln(os.Stderr, "mfsck: need terminal for interactive repairs")
			return 8
		}
	}

	d, err := disk.Open(c.Device, opt.Repair)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mfsck: unable to open '%s': %v\n", c.Device, err)
		return 8
	}
	defer d.Close()

	ck := New(d, c.Device, opt)
	if err := ck.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mfsck: %v\n", err)
		return 8
	}
	return ck.Status()
}

func (c *Config) browse() int {
	if c.browser == nil {
		fmt.Fprintln(os.Stderr, "mfsck: browser not available")
		return 8
	}
	d, err := disk.Open(c.Device, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mfsck: unable to open '%s': %v\n", c.Device, err)
		return 8
	}
	defer d.Close()
	if err := c.browser(d, c.Device); err != nil {
		fmt.Fprintf(os.Stderr, "mfsck: %v\n", err)
		return 8
	}
	return 0
}

// Options control one checker run, independent of flag parsing.
type Options struct {
	List      bool
	Verbose   bool
	Show      bool
	WarnMode  bool
	Force     bool
	Repair    bool
	Automatic bool
}

// Fsck owns everything one run mutates: the device, the decoded layout, both
// bitmaps, the raw inode table, the reconstructed count tables and the sticky
// changed/uncorrected flags.
type Fsck struct {
	dev    disk.Disk
	device string
	opt    Options

	super *SuperBlock
	geo   *Geometry

	imap   Bitmap
	zmap   Bitmap
	inodes []byte

	inodeCount []uint8
	zoneCount  []uint8

	asker Asker
	out   io.Writer

	changed     bool
	uncorrected bool

	names []string
	depth int

	sum summary
}

func New(d disk.Disk, device string, opt Options) *Fsck {
	return &Fsck{
		dev:    d,
		device: device,
		opt:    opt,
		out:    os.Stdout,
	}
}

// Run drives the whole check: superblock, tables, walk, reconciliation,
// flush. Fatal conditions come back as errors; everything else lands in
// Status.
func (f *Fsck) Run() error {
	sup, err := ReadSuperBlock(f.dev)
	if err != nil {
		return logex.Trace(err)
	}
	geo, err := sup.Geometry()
	if err != nil {
		return logex.Trace(err)
	}
	if err := sup.Validate(geo); err != nil {
		return logex.Trace(err)
	}
	f.super, f.geo = sup, geo

	clean := sup.State&StateValid != 0 && sup.State&StateError == 0
	if clean && !f.opt.Force {
		if f.opt.Repair {
			fmt.Fprintf(f.out, "%s is clean, no check.\n", f.device)
		}
		return nil
	} else if f.opt.Force {
		fmt.Fprintf(f.out, "Forcing filesystem check on %s.\n", f.device)
	} else if f.opt.Repair {
		fmt.Fprintf(f.out, "Filesystem on %s is dirty, needs checking.\n", f.device)
	}

	if err := f.readTables(); err != nil {
		return logex.Trace(err)
	}

	// Interactive runs flip the terminal to raw mode for single-keystroke
	// answers; the terminal is restored on every exit path, fatal signals
	// included. A caller-supplied asker brings its own input and skips all
	// of it.
	if f.asker == nil && f.opt.Repair && !f.opt.Automatic {
		ts, err := rawTerminal()
		if err != nil {
			return logex.Trace(err)
		}
		defer ts.Restore()
		f.out = &crlfWriter{w: f.out}
		f.asker = &TermAsker{In: os.Stdin, Out: f.out}
	}

	root := f.inodeAt(RootIno)
	if root == nil || !root.IsDir() {
		return ErrRootNotDir.Trace()
	}

	f.check()

	if f.opt.Verbose {
		f.printSummary()
	}

	if f.changed {
		if err := f.writeTables(); err != nil {
			return logex.Trace(err)
		}
		fmt.Fprintf(f.out, "----------------------------\n"+
			"FILE SYSTEM HAS BEEN CHANGED\n"+
			"----------------------------\n")
	} else if f.opt.Repair {
		if err := f.flushSuper(); err != nil {
			return logex.Trace(err)
		}
	}
	return nil
}

// check reconstructs the reference counts from the directory tree, then
// reconciles them against the bitmaps and link counts.
func (f *Fsck) check() {
	for i := range f.inodeCount {
		f.inodeCount[i] = 0
	}
	for i := range f.zoneCount {
		f.zoneCount[i] = 0
	}
	f.checkZones(RootIno)
	f.recursiveCheck(RootIno)
	f.checkCounts()
}

// Status composes the exit code: +3 if the image was changed, +4 if errors
// remain uncorrected.
func (f *Fsck) Status() int {
	st := 0
	if f.changed {
		st += 3
	}
	if f.uncorrected {
		st += 4
	}
	return st
}
