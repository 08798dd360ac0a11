package debug

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/allmad/mfsck/go/disk"
	"github.com/allmad/mfsck/go/fsck"
	"github.com/chzyer/readline"
	"github.com/docker/go-units"
)

// Browse opens a read-only shell over an unmounted filesystem image:
// inspect the superblock, list directories, dump inodes and raw blocks.
func Browse(d disk.Disk, device string) error {
	sup, err := fsck.ReadSuperBlock(d)
	if err != nil {
		return err
	}
	geo, err := sup.Geometry()
	if err != nil {
		return err
	}

	b := &browser{d: d, sup: sup, geo: geo}

	rl, err := readline.New(filepath.Base(device) + "> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line := rl.Line()
		if line.CanBreak() {
			break
		} else if line.CanContinue() {
			continue
		}
		sp := strings.Fields(line.Line)
		if len(sp) == 0 {
			continue
		}
		switch sp[0] {
		case "super":
			b.super()
		case "inode":
			b.inode(sp[1:])
		case "block":
			b.block(sp[1:])
		case "ls":
			b.ls(sp[1:])
		case "help":
			println("commands: super, ls [ino], inode <nr>, block <nr>, exit")
		case "exit", "quit":
			return nil
		default:
			println("unknown command:", line.Line)
		}
	}
	return nil
}

type browser struct {
	d   disk.Disk
	sup *fsck.SuperBlock
	geo *fsck.Geometry
}

func (b *browser) super() {
	version := 1
	if b.geo.Version2 {
		version = 2
	}
	fmt.Printf("magic: %#x (v%d, %d-byte names)\n", b.sup.Magic, version, b.geo.NameLen)
	fmt.Printf("inodes: %d\n", b.sup.Ninodes)
	fmt.Printf("zones: %d\n", b.sup.Zones())
	fmt.Printf("imap blocks: %d\n", b.sup.ImapBlocks)
	fmt.Printf("zmap blocks: %d\n", b.sup.ZmapBlocks)
	fmt.Printf("first data zone: %d (%d)\n", b.sup.FirstDataZone, b.sup.NormFirstZone(b.geo))
	fmt.Printf("max file size: %v (%d)\n",
		units.HumanSize(float64(b.sup.MaxSize)), b.sup.MaxSize)
	fmt.Printf("state: %d\n", b.sup.State)
}

func (b *browser) inode(args []string) {
	if len(args) != 1 {
		println("usage: inode <nr>")
		return
	}
	nr, err := strconv.Atoi(args[0])
	if err != nil {
		println(err.Error())
		return
	}
	ino, err := fsck.ReadInode(b.d, b.sup, b.geo, nr)
	if err != nil {
		println(err.Error())
		return
	}
	fmt.Printf("inode: %d\n", nr)
	fmt.Printf("type: %s\n", ino.Type())
	fmt.Printf("mode: %05o\n", ino.Mode)
	fmt.Printf("nlinks: %d\n", ino.Nlinks)
	fmt.Printf("uid/gid: %d/%d\n", ino.Uid, ino.Gid)
	fmt.Printf("size: %v (%d)\n", units.HumanSize(float64(ino.Size)), ino.Size)
	fmt.Printf("zones: %v\n", ino.Zone[:b.geo.ZoneSlots])
}

func (b *browser) block(args []string) {
	if len(args) != 1 {
		println("usage: block <nr>")
		return
	}
	nr, err := strconv.Atoi(args[0])
	if err != nil {
		println(err.Error())
		return
	}
	buf := make([]byte, fsck.BlockSize)
	if n, err := b.d.ReadAt(buf, int64(nr)*fsck.BlockSize); err != nil && n < len(buf) {
		println(err.Error())
		return
	}
	fmt.Println(hex.Dump(buf))
}

func (b *browser) ls(args []string) {
	nr := fsck.RootIno
	if len(args) == 1 {
		var err error
		nr, err = strconv.Atoi(args[0])
		if err != nil {
			println(err.Error())
			return
		}
	}
	ino, err := fsck.ReadInode(b.d, b.sup, b.geo, nr)
	if err != nil {
		println(err.Error())
		return
	}
	if !ino.IsDir() {
		println("not a directory")
		return
	}
	buf := make([]byte, fsck.BlockSize)
	for offset := 0; offset+b.geo.DirSize <= int(ino.Size); offset += b.geo.DirSize {
		if offset%fsck.BlockSize == 0 {
			zone := fsck.DataBlock(b.d, b.sup, b.geo, ino, offset/fsck.BlockSize)
			if zone == 0 {
				for i := range buf {
					buf[i] = 0
				}
			} else if n, err := b.d.ReadAt(buf, int64(zone)*fsck.BlockSize); err != nil && n < len(buf) {
				println(err.Error())
				return
			}
		}
		pos := offset % fsck.BlockSize
		entIno := binary.LittleEndian.Uint16(buf[pos:])
		name := buf[pos+2 : pos+2+b.geo.NameLen]
		if entIno == 0 {
			continue
		}
		end := len(name)
		for end > 0 && name[end-1] == 0 {
			end--
		}
		fmt.Printf("%6d  %s\n", entIno, name[:end])
	}
}
