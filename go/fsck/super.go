package fsck

import (
	"github.com/allmad/mfsck/go/disk"
	"github.com/chzyer/logex"
)

var (
	ErrBadMagic    = logex.Define("bad magic number in super-block")
	ErrZoneSize    = logex.Define("only 1k blocks/zones supported")
	ErrBadImapSize = logex.Define("bad s_imap_blocks field in super-block")
	ErrBadZmapSize = logex.Define("bad s_zmap_blocks field in super-block")
	ErrReadSuper   = logex.Define("unable to read super-block")
	ErrWriteSuper  = logex.Define("unable to write super-block")
)

// SuperBlock is the decoded view of block 1. The raw block is kept around so
// a flush preserves every field the checker does not interpret.
type SuperBlock struct {
	Ninodes       uint16
	Nzones        uint16
	ImapBlocks    uint16
	ZmapBlocks    uint16
	FirstDataZone uint16
	LogZoneSize   uint16
	MaxSize       uint32
	Magic         uint16
	State         uint16
	ZonesV2       uint32

	block []byte
}

func ReadSuperBlock(d disk.Disk) (*SuperBlock, error) {
	blk := make([]byte, BlockSize)
	if n, err := d.ReadAt(blk, superOffset); err != nil && n < BlockSize {
		return nil, ErrReadSuper.Trace(err)
	}
	s := new(SuperBlock)
	s.ReadDisk(blk)
	return s, nil
}

func (s *SuperBlock) ReadDisk(b []byte) {
	dr := NewDiskReader(b)
	s.Ninodes = dr.Uint16()
	s.Nzones = dr.Uint16()
	s.ImapBlocks = dr.Uint16()
	s.ZmapBlocks = dr.Uint16()
	s.FirstDataZone = dr.Uint16()
	s.LogZoneSize = dr.Uint16()
	s.MaxSize = dr.Uint32()
	s.Magic = dr.Uint16()
	s.State = dr.Uint16()
	s.ZonesV2 = dr.Uint32()
	s.block = b
}

func (s *SuperBlock) WriteDisk(b []byte) {
	dw := NewDiskWriter(b)
	dw.Uint16(s.Ninodes)
	dw.Uint16(s.Nzones)
	dw.Uint16(s.ImapBlocks)
	dw.Uint16(s.ZmapBlocks)
	dw.Uint16(s.FirstDataZone)
	dw.Uint16(s.LogZoneSize)
	dw.Uint32(s.MaxSize)
	dw.Uint16(s.Magic)
	dw.Uint16(s.State)
	dw.Uint32(s.ZonesV2)
}

// Flush writes the superblock back to disk, preserving the bytes past the
// decoded fields.
func (s *SuperBlock) Flush(d disk.Disk) error {
	s.WriteDisk(s.block)
	if n, err := d.WriteAt(s.block, superOffset); err != nil || n < len(s.block) {
		return ErrWriteSuper.Trace(err)
	}
	return nil
}

// Zones is the total zone count; v2 moved it to a 32-bit field.
func (s *SuperBlock) Zones() int {
	if s.version2() {
		return int(s.ZonesV2)
	}
	return int(s.Nzones)
}

func (s *SuperBlock) version2() bool {
	return s.Magic == MagicV2 || s.Magic == MagicV2L
}

// Geometry captures everything that differs between the two inode variants,
// so the resolver and walker are written once.
type Geometry struct {
	Version2  bool
	NameLen   int
	DirSize   int
	InodeSize int
	PerBlock  int // inodes per table block
	ZoneSlots int // zone slots in the inode
	Direct    int // leading direct slots
	Fanout    int // zone pointers per indirect block
	SlotWidth int // bytes per zone pointer
	Levels    int // indirect levels past the direct slots
}

func (s *SuperBlock) Geometry() (*Geometry, error) {
	g := &Geometry{Direct: 7}
	switch s.Magic {
	case MagicV1:
		g.NameLen, g.DirSize = 14, 16
	case MagicV1L:
		g.NameLen, g.DirSize = 30, 32
	case MagicV2:
		g.Version2 = true
		g.NameLen, g.DirSize = 14, 16
	case MagicV2L:
		g.Version2 = true
		g.NameLen, g.DirSize = 30, 32
	default:
		return nil, ErrBadMagic.Trace(s.Magic)
	}
	if g.Version2 {
		g.InodeSize, g.PerBlock = 64, 16
		g.ZoneSlots, g.Fanout, g.SlotWidth, g.Levels = 10, 256, 4, 3
	} else {
		g.InodeSize, g.PerBlock = 32, 32
		g.ZoneSlots, g.Fanout, g.SlotWidth, g.Levels = 9, 512, 2, 2
	}
	return g, nil
}

// Validate enforces the layout invariants that make the rest of the check
// meaningful. Failing any of them is fatal.
func (s *SuperBlock) Validate(g *Geometry) error {
	if s.LogZoneSize != 0 {
		return ErrZoneSize.Trace()
	}
	if int(s.ImapBlocks)*BlockSize*8 < int(s.Ninodes)+1 {
		return ErrBadImapSize.Trace()
	}
	if int(s.ZmapBlocks)*BlockSize*8 < s.Zones()-int(s.FirstDataZone)+1 {
		return ErrBadZmapSize.Trace()
	}
	return nil
}

func (s *SuperBlock) InodeBlocks(g *Geometry) int {
	return (int(s.Ninodes) + g.PerBlock - 1) / g.PerBlock
}

// NormFirstZone is where the first data zone lands when the on-disk layout
// is packed: boot block, superblock, both maps, then the inode table.
func (s *SuperBlock) NormFirstZone(g *Geometry) int {
	return 2 + int(s.ImapBlocks) + int(s.ZmapBlocks) + s.InodeBlocks(g)
}
