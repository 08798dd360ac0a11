package fsck

import (
	"bytes"
	"encoding/binary"

	"github.com/allmad/mfsck/go/disk"
	"github.com/chzyer/test"
)

// imageBuilder assembles a small filesystem image in memory, one block
// region at a time, so each test can corrupt exactly what it wants.
type imageBuilder struct {
	version2 bool
	namelen  int
	dirsize  int
	ninodes  int
	nzones   int

	imaps       int
	zmaps       int
	inodeBlocks int
	firstZone   int
	magicVal    uint16

	buf []byte
}

func newImage(version2 bool, namelen, ninodes, nzones int) *imageBuilder {
	b := &imageBuilder{
		version2: version2,
		namelen:  namelen,
		dirsize:  namelen + 2,
		ninodes:  ninodes,
		nzones:   nzones,
		imaps:    1,
		zmaps:    1,
	}
	per := 32
	if version2 {
		per = 16
	}
	b.inodeBlocks = (ninodes + per - 1) / per
	b.firstZone = 2 + b.imaps + b.zmaps + b.inodeBlocks

	switch {
	case !version2 && namelen == 14:
		b.magicVal = MagicV1
	case !version2 && namelen == 30:
		b.magicVal = MagicV1L
	case version2 && namelen == 14:
		b.magicVal = MagicV2
	default:
		b.magicVal = MagicV2L
	}

	b.buf = make([]byte, nzones*BlockSize)
	b.writeSuper()
	Bitmap(b.imapBytes()).Set(0)
	Bitmap(b.zmapBytes()).Set(0)
	return b
}

func (b *imageBuilder) writeSuper() {
	dw := NewDiskWriter(b.buf[superOffset:])
	dw.Uint16(uint16(b.ninodes))
	if b.version2 {
		dw.Uint16(0)
	} else {
		dw.Uint16(uint16(b.nzones))
	}
	dw.Uint16(uint16(b.imaps))
	dw.Uint16(uint16(b.zmaps))
	dw.Uint16(uint16(b.firstZone))
	dw.Uint16(0) // log_zone_size
	dw.Uint32((7 + 512 + 512*512) * BlockSize)
	dw.Uint16(b.magicVal)
	dw.Uint16(StateValid)
	dw.Uint32(uint32(b.nzones))
}

func (b *imageBuilder) imapBytes() []byte {
	return b.buf[2*BlockSize : (2+b.imaps)*BlockSize]
}

func (b *imageBuilder) zmapBytes() []byte {
	off := (2 + b.imaps) * BlockSize
	return b.buf[off : off+b.zmaps*BlockSize]
}

func (b *imageBuilder) markInode(nr int) {
	Bitmap(b.imapBytes()).Set(nr)
}

func (b *imageBuilder) markZone(z int) {
	Bitmap(b.zmapBytes()).Set(z - b.firstZone + 1)
}

func (b *imageBuilder) inodeRaw(nr int) []byte {
	isize := 32
	if b.version2 {
		isize = 64
	}
	off := (2+b.imaps+b.zmaps)*BlockSize + (nr-1)*isize
	return b.buf[off : off+isize]
}

// setInode writes inode nr and marks it allocated.
func (b *imageBuilder) setInode(nr int, mode uint16, nlinks int, size uint32, zones ...uint32) {
	dw := NewDiskWriter(b.inodeRaw(nr))
	if b.version2 {
		dw.Uint16(mode)
		dw.Uint16(uint16(nlinks))
		dw.Uint16(0) // uid
		dw.Uint16(0) // gid
		dw.Uint32(size)
		dw.Uint32(0) // atime
		dw.Uint32(0) // mtime
		dw.Uint32(0) // ctime
		for i := 0; i < 10; i++ {
			var z uint32
			if i < len(zones) {
				z = zones[i]
			}
			dw.Uint32(z)
		}
	} else {
		dw.Uint16(mode)
		dw.Uint16(0) // uid
		dw.Uint32(size)
		dw.Uint32(0) // mtime
		dw.Byte(0)   // gid
		dw.Byte(uint8(nlinks))
		for i := 0; i < 9; i++ {
			var z uint32
			if i < len(zones) {
				z = zones[i]
			}
			dw.Uint16(uint16(z))
		}
	}
	b.markInode(nr)
}

func (b *imageBuilder) inodeZone(nr, idx int) uint32 {
	raw := b.inodeRaw(nr)
	if b.version2 {
		return binary.LittleEndian.Uint32(raw[24+4*idx:])
	}
	return uint32(binary.LittleEndian.Uint16(raw[14+2*idx:]))
}

func (b *imageBuilder) setInodeZone(nr, idx int, z uint32) {
	raw := b.inodeRaw(nr)
	if b.version2 {
		binary.LittleEndian.PutUint32(raw[24+4*idx:], z)
	} else {
		binary.LittleEndian.PutUint16(raw[14+2*idx:], uint16(z))
	}
}

func (b *imageBuilder) inodeSize(nr int) uint32 {
	raw := b.inodeRaw(nr)
	if b.version2 {
		return binary.LittleEndian.Uint32(raw[8:])
	}
	return binary.LittleEndian.Uint32(raw[4:])
}

func (b *imageBuilder) setInodeSize(nr int, size uint32) {
	raw := b.inodeRaw(nr)
	if b.version2 {
		binary.LittleEndian.PutUint32(raw[8:], size)
	} else {
		binary.LittleEndian.PutUint32(raw[4:], size)
	}
}

func (b *imageBuilder) setNlinks(nr, n int) {
	raw := b.inodeRaw(nr)
	if b.version2 {
		binary.LittleEndian.PutUint16(raw[2:], uint16(n))
	} else {
		raw[13] = uint8(n)
	}
}

// setDirEntry writes one packed directory entry into a data zone.
func (b *imageBuilder) setDirEntry(zone uint32, idx, ino int, name string) {
	off := int(zone)*BlockSize + idx*b.dirsize
	binary.LittleEndian.PutUint16(b.buf[off:], uint16(ino))
	nameb := b.buf[off+2 : off+b.dirsize]
	for i := range nameb {
		nameb[i] = 0
	}
	copy(nameb, name)
}

// putSlot writes a zone pointer into an indirect block.
func (b *imageBuilder) putSlot(block uint32, idx int, val uint32) {
	off := int(block) * BlockSize
	if b.version2 {
		binary.LittleEndian.PutUint32(b.buf[off+idx*4:], val)
	} else {
		binary.LittleEndian.PutUint16(b.buf[off+idx*2:], uint16(val))
	}
}

// addRoot creates the root directory in the first data zone.
func (b *imageBuilder) addRoot() uint32 {
	zone := uint32(b.firstZone)
	b.setInode(RootIno, modeDir|0755, 2, uint32(2*b.dirsize), zone)
	b.markZone(int(zone))
	b.setDirEntry(zone, 0, RootIno, ".")
	b.setDirEntry(zone, 1, RootIno, "..")
	return zone
}

// addEntry appends one name to a directory whose data fits in its direct
// zones, growing the stored size.
func (b *imageBuilder) addEntry(dirIno, ino int, name string) {
	size := int(b.inodeSize(dirIno))
	zone := b.inodeZone(dirIno, size/BlockSize)
	b.setDirEntry(zone, (size%BlockSize)/b.dirsize, ino, name)
	b.setInodeSize(dirIno, uint32(size+b.dirsize))
}

func (b *imageBuilder) disk() disk.Disk {
	d := test.NewMemDisk()
	if _, err := d.WriteAt(b.buf, 0); err != nil {
		panic(err)
	}
	return d
}

// newTestFsck loads the image the way Run does, stopping short of the walk.
func newTestFsck(b *imageBuilder, opt Options) *Fsck {
	return newTestFsckDisk(b.disk(), opt)
}

func newTestFsckDisk(d disk.Disk, opt Options) *Fsck {
	f := New(d, "test.img", opt)
	f.out = new(bytes.Buffer)
	sup, err := ReadSuperBlock(d)
	test.Nil(err)
	g, err := sup.Geometry()
	test.Nil(err)
	f.super, f.geo = sup, g
	test.Nil(sup.Validate(g))
	test.Nil(f.readTables())
	return f
}

// runCheck runs a full check over the built image.
func runCheck(b *imageBuilder, opt Options) *Fsck {
	return runCheckDisk(b.disk(), opt)
}

func runCheckDisk(d disk.Disk, opt Options) *Fsck {
	f := New(d, "test.img", opt)
	f.out = new(bytes.Buffer)
	test.Nil(f.Run())
	return f
}

func (f *Fsck) output() string {
	return f.out.(*bytes.Buffer).String()
}

func readImage(d disk.Disk, size int) []byte {
	out := make([]byte, size)
	if n, err := d.ReadAt(out, 0); err != nil && n < size {
		panic(err)
	}
	return out
}
