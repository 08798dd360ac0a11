package fsck

import "fmt"

// addZone records that the current file claims the zone behind ref. A zone
// claimed twice is offered for removal from this file; a zone missing from
// the bitmap is offered for marking. The per-zone count saturates at 255
// rather than wrapping.
func (f *Fsck) addZone(ref zoneRef, corrected *bool) uint32 {
	block := f.checkZoneNr(ref, corrected)
	if block == 0 {
		return 0
	}
	if f.zoneCount[block] > 0 {
		fmt.Fprintf(f.out, "Block has been used before. Now in file `%s'.", f.currentName())
		if f.ask("Clear", true) {
			ref.clear()
			*corrected = true
			return 0
		}
	}
	if !f.zoneInUse(int(block)) {
		fmt.Fprintf(f.out, "Block %d in file `%s' is marked not in use.", block, f.currentName())
		if f.ask("Correct", true) {
			f.markZone(int(block))
		}
	}
	if f.zoneCount[block] < 255 {
		f.zoneCount[block]++
	}
	return block
}

// addZoneLevel accounts an indirect pointer and everything below it: the
// indirect block's own zone first, then each contained pointer, recursing
// down to the data zones. A repaired slot flags the containing block for
// write-back.
func (f *Fsck) addZoneLevel(ref zoneRef, level int, corrected *bool) {
	block := f.addZone(ref, corrected)
	if block == 0 || level == 0 {
		return
	}
	buf := make([]byte, BlockSize)
	f.readBlock(block, buf)
	chg := false
	for i := 0; i < f.geo.Fanout; i++ {
		f.addZoneLevel(blockZone{buf, i, f.geo.SlotWidth}, level-1, &chg)
	}
	if chg {
		f.writeBlock(block, buf)
	}
}

// checkZones walks the whole data map of inode nr through the accountant.
// Only the first reference to a file does this; hard links just bump the
// inode count.
func (f *Fsck) checkZones(nr int) {
	if nr < 1 || nr > int(f.super.Ninodes) {
		return
	}
	if f.inodeCount[nr] > 1 { // counted this file already
		return
	}
	ino := f.inodeAt(nr)
	if !ino.IsDir() && !ino.IsRegular() && !ino.IsSymlink() {
		return
	}
	for i := 0; i < f.geo.Direct; i++ {
		f.addZone(inodeZone{ino, i}, &f.changed)
	}
	for level := 1; level <= f.geo.Levels; level++ {
		f.addZoneLevel(inodeZone{ino, f.geo.Direct + level - 1}, level, &f.changed)
	}
}
