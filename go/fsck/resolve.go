package fsck

import (
	"encoding/binary"
	"fmt"

	"github.com/allmad/mfsck/go/disk"
)

// zoneRef addresses one zone pointer, either a slot in an inode or a slot in
// an indirect block buffer, so validation and repair are written once.
type zoneRef interface {
	zone() uint32
	clear()
}

type inodeZone struct {
	ino *Inode
	idx int
}

func (z inodeZone) zone() uint32 { return z.ino.Zone[z.idx] }
func (z inodeZone) clear()       { z.ino.SetZone(z.idx, 0) }

type blockZone struct {
	buf   []byte
	idx   int
	width int
}

func (z blockZone) zone() uint32 {
	if z.width == 2 {
		return uint32(binary.LittleEndian.Uint16(z.buf[z.idx*2:]))
	}
	return binary.LittleEndian.Uint32(z.buf[z.idx*4:])
}

func (z blockZone) clear() {
	if z.width == 2 {
		binary.LittleEndian.PutUint16(z.buf[z.idx*2:], 0)
	} else {
		binary.LittleEndian.PutUint32(z.buf[z.idx*4:], 0)
	}
}

// checkZoneNr validates one zone pointer. In-range and empty slots pass
// through; anything else is offered for removal. corrected records that the
// slot's container has to be written back.
func (f *Fsck) checkZoneNr(ref zoneRef, corrected *bool) uint32 {
	nr := ref.zone()
	if nr == 0 {
		return 0
	}
	if nr < uint32(f.super.FirstDataZone) {
		fmt.Fprintf(f.out, "Zone nr < FIRSTZONE in file `%s'.", f.currentName())
	} else if nr >= uint32(f.super.Zones()) {
		fmt.Fprintf(f.out, "Zone nr >= ZONES in file `%s'.", f.currentName())
	} else {
		return nr
	}
	if f.ask("Remove block", true) {
		ref.clear()
		*corrected = true
	}
	return 0
}

// mapBlock resolves the logical block index blk of the file held by ino to
// its physical zone. Every pointer on the way is validated, and an indirect
// block that had a slot repaired is rewritten before descending further.
func (f *Fsck) mapBlock(ino *Inode, blk int) uint32 {
	g := f.geo
	if blk < g.Direct {
		return f.checkZoneNr(inodeZone{ino, blk}, &f.changed)
	}
	blk -= g.Direct
	span := 1
	for level := 1; level <= g.Levels; level++ {
		span *= g.Fanout
		if blk >= span {
			blk -= span
			continue
		}
		cur := f.checkZoneNr(inodeZone{ino, g.Direct + level - 1}, &f.changed)
		for div := span / g.Fanout; div >= 1; div /= g.Fanout {
			buf := make([]byte, BlockSize)
			f.readBlock(cur, buf)
			chg := false
			next := f.checkZoneNr(blockZone{buf, (blk / div) % g.Fanout, g.SlotWidth}, &chg)
			if chg {
				f.writeBlock(cur, buf)
			}
			cur = next
		}
		return cur
	}
	return 0
}

// DataBlock is the read-only flavor of mapBlock for callers outside a repair
// run: out-of-range pointers resolve to 0 instead of being offered for
// repair.
func DataBlock(d disk.Disk, sup *SuperBlock, g *Geometry, ino *Inode, blk int) uint32 {
	valid := func(nr uint32) uint32 {
		if nr < uint32(sup.FirstDataZone) || nr >= uint32(sup.Zones()) {
			return 0
		}
		return nr
	}
	if blk < g.Direct {
		return valid(ino.Zone[blk])
	}
	blk -= g.Direct
	span := 1
	for level := 1; level <= g.Levels; level++ {
		span *= g.Fanout
		if blk >= span {
			blk -= span
			continue
		}
		cur := valid(ino.Zone[g.Direct+level-1])
		for div := span / g.Fanout; div >= 1 && cur != 0; div /= g.Fanout {
			buf := make([]byte, BlockSize)
			if n, err := d.ReadAt(buf, int64(cur)*BlockSize); err != nil && n < BlockSize {
				return 0
			}
			cur = valid(blockZone{buf, (blk / div) % g.Fanout, g.SlotWidth}.zone())
		}
		return cur
	}
	return 0
}
