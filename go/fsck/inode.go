package fsck

import (
	"fmt"

	"github.com/allmad/mfsck/go/disk"
	"github.com/chzyer/logex"
)

var ErrBadInodeNr = logex.Define("inode number out of range")

// Inode is a decoded view of one table entry. The raw bytes it was decoded
// from stay attached; every mutation goes through a setter so the table
// flushed at exit matches what the checker decided.
//
// v1 layout: mode, uid, size, mtime, gid, nlinks, 9 16-bit zone slots.
// v2 layout: mode, nlinks, uid, gid, size, three times, 10 32-bit slots.
type Inode struct {
	Mode   uint16
	Nlinks int
	Uid    uint16
	Gid    uint16
	Size   uint32
	Atime  uint32
	Mtime  uint32
	Ctime  uint32
	Zone   [10]uint32

	nr  int
	geo *Geometry
	raw []byte
}

func decodeInode(g *Geometry, raw []byte, nr int) *Inode {
	ino := &Inode{nr: nr, geo: g, raw: raw}
	dr := NewDiskReader(raw)
	if g.Version2 {
		ino.Mode = dr.Uint16()
		ino.Nlinks = int(dr.Uint16())
		ino.Uid = dr.Uint16()
		ino.Gid = dr.Uint16()
		ino.Size = dr.Uint32()
		ino.Atime = dr.Uint32()
		ino.Mtime = dr.Uint32()
		ino.Ctime = dr.Uint32()
		for i := 0; i < g.ZoneSlots; i++ {
			ino.Zone[i] = dr.Uint32()
		}
	} else {
		ino.Mode = dr.Uint16()
		ino.Uid = dr.Uint16()
		ino.Size = dr.Uint32()
		ino.Mtime = dr.Uint32()
		ino.Gid = uint16(dr.Byte())
		ino.Nlinks = int(dr.Byte())
		for i := 0; i < g.ZoneSlots; i++ {
			ino.Zone[i] = uint32(dr.Uint16())
		}
	}
	return ino
}

// zoneOffset is the byte position of zone slot idx inside the raw inode.
func (i *Inode) zoneOffset(idx int) int {
	if i.geo.Version2 {
		return 24 + 4*idx
	}
	return 14 + 2*idx
}

func (i *Inode) SetZone(idx int, v uint32) {
	i.Zone[idx] = v
	dw := NewDiskWriter(i.raw[i.zoneOffset(idx):])
	if i.geo.Version2 {
		dw.Uint32(v)
	} else {
		dw.Uint16(uint16(v))
	}
}

func (i *Inode) SetNlinks(n int) {
	i.Nlinks = n
	if i.geo.Version2 {
		NewDiskWriter(i.raw[2:]).Uint16(uint16(n))
	} else {
		i.raw[13] = uint8(n)
	}
}

func (i *Inode) SetMode(m uint16) {
	i.Mode = m
	NewDiskWriter(i.raw).Uint16(m)
}

func (i *Inode) IsDir() bool     { return i.Mode&modeTypeMask == modeDir }
func (i *Inode) IsRegular() bool { return i.Mode&modeTypeMask == modeRegular }
func (i *Inode) IsSymlink() bool { return i.Mode&modeTypeMask == modeSymlink }

func (i *Inode) Type() string {
	switch i.Mode & modeTypeMask {
	case modeRegular:
		return "regular"
	case modeDir:
		return "directory"
	case modeChar:
		return "character device"
	case modeBlock:
		return "block device"
	case modeSymlink:
		return "symbolic link"
	case modeSocket:
		return "socket"
	case modeFifo:
		return "fifo"
	}
	return fmt.Sprintf("unknown (%05o)", i.Mode)
}

// ReadInode fetches a single inode straight from the device, without loading
// the whole table. The browser uses this; the checker works on its loaded
// table instead.
func ReadInode(d disk.Disk, sup *SuperBlock, g *Geometry, nr int) (*Inode, error) {
	if nr < 1 || nr > int(sup.Ninodes) {
		return nil, ErrBadInodeNr.Trace(nr)
	}
	block := 2 + int(sup.ImapBlocks) + int(sup.ZmapBlocks) + (nr-1)/g.PerBlock
	buf := make([]byte, BlockSize)
	if n, err := d.ReadAt(buf, int64(block)*BlockSize); err != nil && n < BlockSize {
		return nil, logex.Trace(err)
	}
	off := ((nr - 1) % g.PerBlock) * g.InodeSize
	return decodeInode(g, buf[off:off+g.InodeSize], nr), nil
}
