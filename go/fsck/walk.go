package fsck

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

func entryName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// The name stack mirrors the directory recursion for error reporting. Only
// the first MaxDepth components are retained; deeper files are still checked.
func (f *Fsck) pushName(name []byte) {
	if f.depth < MaxDepth {
		f.names = append(f.names, entryName(name))
	}
	f.depth++
}

func (f *Fsck) popName() {
	f.depth--
	if f.depth < MaxDepth {
		f.names = f.names[:len(f.names)-1]
	}
}

func (f *Fsck) currentName() string {
	if len(f.names) == 0 {
		return "/"
	}
	return "/" + strings.Join(f.names, "/")
}

// getInode counts one directory reference to inode nr and returns its view.
// The first reference classifies the file and cross-checks the inode bitmap;
// later ones only count the link. The per-inode count saturates at 255.
func (f *Fsck) getInode(nr int) *Inode {
	if nr < 1 || nr > int(f.super.Ninodes) {
		return nil
	}
	f.sum.total++
	ino := f.inodeAt(nr)
	if f.inodeCount[nr] == 0 {
		if !f.inodeInUse(nr) {
			fmt.Fprintf(f.out, "Inode %d marked unused, but used for file '%s'\n",
				nr, f.currentName())
			if f.opt.Repair {
				if f.ask("Mark in use", true) {
					f.markInode(nr)
				}
			} else {
				f.uncorrected = true
			}
		}
		switch ino.Mode & modeTypeMask {
		case modeDir:
			f.sum.directory++
		case modeRegular:
			f.sum.regular++
		case modeChar:
			f.sum.chardev++
		case modeBlock:
			f.sum.blockdev++
		case modeSymlink:
			f.sum.symlinks++
		case modeSocket, modeFifo:
		default:
			fmt.Fprintf(f.out, "The file `%s' has mode %05o\n",
				f.currentName(), ino.Mode)
		}
	} else {
		f.sum.links++
	}
	if f.inodeCount[nr] == 255 {
		fmt.Fprintf(f.out, "Warning: inode count too big.\n")
		f.uncorrected = true
	} else {
		f.inodeCount[nr]++
	}
	return ino
}

// checkFile verifies one directory entry of dir: decode it, validate the
// inode number, enforce the "." and ".." conventions, then account the
// file's zones and recurse into it if this was its first reference. The
// first-reference guard is what breaks cycles built out of corrupt entries.
func (f *Fsck) checkFile(dir *Inode, offset int) {
	g := f.geo
	blk := make([]byte, BlockSize)
	block := f.mapBlock(dir, offset/BlockSize)
	f.readBlock(block, blk)

	pos := offset % BlockSize
	if pos+2+g.NameLen > BlockSize {
		// entries never straddle a block; a size that implies one is bogus
		return
	}
	ino := int(binary.LittleEndian.Uint16(blk[pos:]))
	name := blk[pos+2 : pos+2+g.NameLen]

	if ino > int(f.super.Ninodes) {
		fmt.Fprintf(f.out, "The directory '%s' contains a bad inode number for file '%.*s'.",
			f.currentName(), g.NameLen, name)
		if f.ask(" Remove", true) {
			binary.LittleEndian.PutUint16(blk[pos:], 0)
			f.writeBlock(block, blk)
		}
		ino = 0
	}

	f.pushName(name)
	inode := f.getInode(ino)
	f.popName()

	if offset == 0 {
		if inode == nil || entryName(name) != "." {
			fmt.Fprintf(f.out, "%s: bad directory: '.' isn't first\n", f.currentName())
			f.uncorrected = true
		} else {
			return
		}
	}
	if offset == g.DirSize {
		if inode == nil || entryName(name) != ".." {
			fmt.Fprintf(f.out, "%s: bad directory: '..' isn't second\n", f.currentName())
			f.uncorrected = true
		} else {
			return
		}
	}
	if inode == nil {
		return
	}

	first := f.inodeCount[ino] == 1

	f.pushName(name)
	if f.opt.List {
		if f.opt.Verbose {
			fmt.Fprintf(f.out, "%6d %07o %3d ", ino, inode.Mode, inode.Nlinks)
		}
		fmt.Fprintf(f.out, "%s", f.currentName())
		if inode.IsDir() {
			fmt.Fprintf(f.out, ":\n")
		} else {
			fmt.Fprintf(f.out, "\n")
		}
	}
	f.checkZones(ino)
	if inode.IsDir() && first {
		f.recursiveCheck(ino)
	}
	f.popName()
}

// recursiveCheck walks every entry of the directory at inode nr.
func (f *Fsck) recursiveCheck(nr int) {
	dir := f.inodeAt(nr)
	if dir == nil || !dir.IsDir() {
		fmt.Fprintf(f.out, "Internal error: walking a non-directory inode\n")
		f.uncorrected = true
		return
	}
	if int(dir.Size) < 2*f.geo.DirSize {
		fmt.Fprintf(f.out, "%s: bad directory: size < %d", f.currentName(), 2*f.geo.DirSize)
		f.uncorrected = true
	}
	for offset := 0; offset < int(dir.Size); offset += f.geo.DirSize {
		f.checkFile(dir, offset)
	}
}
