package fsck

import (
	"fmt"

	"github.com/chzyer/logex"
)

var (
	ErrReadImap   = logex.Define("unable to read inode map")
	ErrReadZmap   = logex.Define("unable to read zone map")
	ErrReadInodes = logex.Define("unable to read inodes")
	ErrWriteImap  = logex.Define("unable to write inode map")
	ErrWriteZmap  = logex.Define("unable to write zone map")
	ErrWriteInode = logex.Define("unable to write inodes")
)

// readTables loads both bitmaps and the raw inode table, allocates the count
// tables, and settles the directory entry size.
func (f *Fsck) readTables() error {
	sup, g := f.super, f.geo

	imapSize := int(sup.ImapBlocks) * BlockSize
	zmapSize := int(sup.ZmapBlocks) * BlockSize
	tableSize := sup.InodeBlocks(g) * BlockSize

	f.imap = make(Bitmap, imapSize)
	f.zmap = make(Bitmap, zmapSize)
	f.inodes = make([]byte, tableSize)
	f.inodeCount = make([]uint8, int(sup.Ninodes)+1)
	f.zoneCount = make([]uint8, sup.Zones())

	off := int64(2 * BlockSize)
	if n, err := f.dev.ReadAt(f.imap, off); err != nil && n < imapSize {
		return ErrReadImap.Trace(err)
	}
	off += int64(imapSize)
	if n, err := f.dev.ReadAt(f.zmap, off); err != nil && n < zmapSize {
		return ErrReadZmap.Trace(err)
	}
	off += int64(zmapSize)
	if n, err := f.dev.ReadAt(f.inodes, off); err != nil && n < tableSize {
		return ErrReadInodes.Trace(err)
	}

	if sup.NormFirstZone(g) != int(sup.FirstDataZone) {
		fmt.Fprintf(f.out, "Warning: Firstzone != Norm_firstzone\n")
		f.uncorrected = true
	}
	f.probeDirSize()

	if f.opt.Show {
		fmt.Fprintf(f.out, "%d inodes\n", sup.Ninodes)
		fmt.Fprintf(f.out, "%d blocks\n", sup.Zones())
		fmt.Fprintf(f.out, "Firstdatazone=%d (%d)\n", sup.FirstDataZone, sup.NormFirstZone(g))
		fmt.Fprintf(f.out, "Zonesize=%d\n", BlockSize<<sup.LogZoneSize)
		fmt.Fprintf(f.out, "Maxsize=%d\n", sup.MaxSize)
		fmt.Fprintf(f.out, "Filesystem state=%d\n", sup.State)
		fmt.Fprintf(f.out, "namelen=%d\n\n", g.NameLen)
	}
	return nil
}

// probeDirSize double-checks the entry size against the root directory: ".."
// sits at offset dirsize, so the first power-of-two offset whose name reads
// ".." wins. No match keeps the magic's default.
func (f *Fsck) probeDirSize() {
	root := f.inodeAt(RootIno)
	if root == nil {
		return
	}
	blk := make([]byte, BlockSize)
	f.readBlock(root.Zone[0], blk)
	for size := 16; size < BlockSize; size <<= 1 {
		if blk[size+2] == '.' && blk[size+3] == '.' && blk[size+4] == 0 {
			f.geo.DirSize = size
			f.geo.NameLen = size - 2
			return
		}
	}
}

// inodeAt returns the decoded inode nr backed by the loaded table, or nil
// when nr is out of range.
func (f *Fsck) inodeAt(nr int) *Inode {
	if nr < 1 || nr > int(f.super.Ninodes) {
		return nil
	}
	off := (nr - 1) * f.geo.InodeSize
	return decodeInode(f.geo, f.inodes[off:off+f.geo.InodeSize], nr)
}

// writeTables flushes everything the checker may have mutated: superblock,
// both bitmaps, the whole inode table.
func (f *Fsck) writeTables() error {
	if err := f.flushSuper(); err != nil {
		return logex.Trace(err)
	}
	off := int64(2 * BlockSize)
	if n, err := f.dev.WriteAt(f.imap, off); err != nil || n < len(f.imap) {
		return ErrWriteImap.Trace(err)
	}
	off += int64(len(f.imap))
	if n, err := f.dev.WriteAt(f.zmap, off); err != nil || n < len(f.zmap) {
		return ErrWriteZmap.Trace(err)
	}
	off += int64(len(f.zmap))
	if n, err := f.dev.WriteAt(f.inodes, off); err != nil || n < len(f.inodes) {
		return ErrWriteInode.Trace(err)
	}
	return nil
}

// flushSuper persists the filesystem state: VALID is set unconditionally at
// this point, ERROR reflects whether anything was left uncorrected.
func (f *Fsck) flushSuper() error {
	f.super.State |= StateValid
	if f.uncorrected {
		f.super.State |= StateError
	} else {
		f.super.State &^= StateError
	}
	return f.super.Flush(f.dev)
}

func (f *Fsck) inodeInUse(i int) bool {
	return f.imap.Bit(i)
}

func (f *Fsck) zoneInUse(z int) bool {
	return f.zmap.Bit(z - int(f.super.FirstDataZone) + 1)
}

func (f *Fsck) markInode(i int) {
	f.imap.Set(i)
	f.changed = true
}

func (f *Fsck) unmarkInode(i int) {
	f.imap.Clear(i)
	f.changed = true
}

func (f *Fsck) markZone(z int) {
	f.zmap.Set(z - int(f.super.FirstDataZone) + 1)
	f.changed = true
}

func (f *Fsck) unmarkZone(z int) {
	f.zmap.Clear(z - int(f.super.FirstDataZone) + 1)
	f.changed = true
}
