package main

import (
	"fmt"
	"os"

	"github.com/allmad/mfsck/go/debug"
	"github.com/allmad/mfsck/go/fsck"
	"github.com/chzyer/flagly"
	"github.com/chzyer/flow"
	"github.com/chzyer/logex"
)

const version = "1.0"

func main() {
	if len(os.Args) == 2 && (os.Args[1] == "-V" || os.Args[1] == "--version") {
		fmt.Printf("mfsck (%s)\n", version)
		return
	}

	cfg := new(fsck.Config)
	cfg.SetBrowser(debug.Browse)

	f := flow.New()
	flagly.Run(cfg, f)

	if err := f.Wait(); err != nil {
		logex.Fatal(err)
	}
	os.Exit(cfg.Status())
}
