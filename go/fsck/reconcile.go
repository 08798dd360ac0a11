package fsck

import "fmt"

// checkCounts is the reconciliation pass: the counts rebuilt by the walk are
// compared against the bitmaps and the stored link counts, and every
// discrepancy is routed through the arbiter.
func (f *Fsck) checkCounts() {
	for i := 1; i <= int(f.super.Ninodes); i++ {
		ino := f.inodeAt(i)
		if !f.inodeInUse(i) && ino.Mode != 0 && f.opt.WarnMode {
			fmt.Fprintf(f.out, "Inode %d mode not cleared.", i)
			if f.ask("Clear", true) {
				ino.SetMode(0)
				f.changed = true
			}
		}
		if f.inodeCount[i] == 0 {
			if !f.inodeInUse(i) {
				continue
			}
			fmt.Fprintf(f.out, "Inode %d not used, marked used in the bitmap.", i)
			if f.ask("Clear", true) {
				f.unmarkInode(i)
			}
			continue
		}
		if !f.inodeInUse(i) {
			fmt.Fprintf(f.out, "Inode %d used, marked unused in the bitmap.", i)
			if f.ask("Set", true) {
				f.markInode(i)
			}
		}
		if ino.Nlinks != int(f.inodeCount[i]) {
			fmt.Fprintf(f.out, "Inode %d (mode = %07o), i_nlinks=%d, counted=%d.",
				i, ino.Mode, ino.Nlinks, f.inodeCount[i])
			if f.ask("Set i_nlinks to count", true) {
				ino.SetNlinks(int(f.inodeCount[i]))
				f.changed = true
			}
		}
	}

	for z := int(f.super.FirstDataZone); z < f.super.Zones(); z++ {
		if f.zoneInUse(z) == (f.zoneCount[z] > 0) {
			continue
		}
		if f.zoneCount[z] == 0 {
			// marked allocated but unreferenced; an unreadable zone is
			// assumed media-bad and left alone
			if f.badZone(z) {
				continue
			}
			fmt.Fprintf(f.out, "Zone %d: marked in use, no file uses it.", z)
			if f.ask("Unmark", true) {
				f.unmarkZone(z)
			}
			continue
		}
		// the accountant already offered to fix the bit at first touch, so
		// only report what is left
		fmt.Fprintf(f.out, "Zone %d: not in use, counted=%d\n", z, f.zoneCount[z])
	}
}
