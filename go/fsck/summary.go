package fsck

import "fmt"

// summary collects the per-type file counts shown after a verbose run.
type summary struct {
	regular   int
	directory int
	chardev   int
	blockdev  int
	links     int
	symlinks  int
	total     int
}

// printSummary reports usage percentages and the file census. The links and
// files figures discount the "." and ".." entries every directory carries.
func (f *Fsck) printSummary() {
	inodes := int(f.super.Ninodes)
	free := 0
	for i := 1; i <= inodes; i++ {
		if !f.inodeInUse(i) {
			free++
		}
	}
	fmt.Fprintf(f.out, "\n%6d inodes used (%2d%%) %6d total\n",
		inodes-free, 100*(inodes-free)/inodes, inodes)

	zones := f.super.Zones()
	first := int(f.super.FirstDataZone)
	free = 0
	for z := first; z < zones; z++ {
		if !f.zoneInUse(z) {
			free++
		}
	}
	fmt.Fprintf(f.out, "%6d  zones used (%2d%%) %6d total\n",
		zones-free, 100*(zones-free)/zones, zones)

	s := &f.sum
	fmt.Fprintf(f.out, "\n%6d regular files\n"+
		"%6d directories\n"+
		"%6d character device files\n"+
		"%6d block device files\n"+
		"%6d links\n"+
		"%6d symbolic links\n"+
		"------\n"+
		"%6d files\n",
		s.regular, s.directory, s.chardev, s.blockdev,
		s.links-2*s.directory+1, s.symlinks, s.total-2*s.directory+1)
}
