package fsck

import (
	"strings"
	"testing"

	"github.com/chzyer/test"
)

func TestReconcileSpuriousInodeBit(t *testing.T) {
	defer test.New(t)

	b := cleanImage()
	b.markInode(9)

	d := b.disk()
	f := runCheckDisk(d, Options{Force: true, Repair: true, Automatic: true})
	test.True(strings.Contains(f.output(), "Inode 9 not used, marked used"))
	test.Equal(f.Status(), 3)

	imap := Bitmap(readImage(d, len(b.buf))[2*BlockSize : 3*BlockSize])
	test.True(!imap.Bit(9))
}

func TestReconcileSpuriousZoneBit(t *testing.T) {
	defer test.New(t)

	b := cleanImage()
	spare := b.firstZone + 5
	b.markZone(spare)

	d := b.disk()
	f := runCheckDisk(d, Options{Force: true, Repair: true, Automatic: true})
	test.True(strings.Contains(f.output(), "marked in use, no file uses it"))
	test.Equal(f.Status(), 3)

	again := runCheckDisk(d, Options{Force: true})
	test.Equal(again.Status(), 0)
	test.True(!again.zoneInUse(spare))
}

func TestReconcileZoneBitMissing(t *testing.T) {
	defer test.New(t)

	// the accountant fixes the bit the moment the zone is first claimed
	b := cleanImage()
	fz := b.firstZone + 1
	Bitmap(b.zmapBytes()).Clear(fz - b.firstZone + 1)

	d := b.disk()
	f := runCheckDisk(d, Options{Force: true, Repair: true, Automatic: true})
	test.True(strings.Contains(f.output(), "is marked not in use"))
	test.Equal(f.Status(), 3)
	test.True(f.zoneInUse(fz))
}

func TestReconcileModeNotCleared(t *testing.T) {
	defer test.New(t)

	b := cleanImage()
	// allocated-looking mode on a free inode
	dw := NewDiskWriter(b.inodeRaw(9))
	dw.Uint16(modeRegular | 0644)

	// without -m this only passes silently
	f := runCheck(b, Options{Force: true})
	test.Equal(f.Status(), 0)

	d := b.disk()
	f = runCheckDisk(d, Options{Force: true, WarnMode: true, Repair: true, Automatic: true})
	test.True(strings.Contains(f.output(), "Inode 9 mode not cleared"))
	test.Equal(f.Status(), 3)

	sup, _ := ReadSuperBlock(d)
	g, _ := sup.Geometry()
	ino, err := ReadInode(d, sup, g, 9)
	test.Nil(err)
	test.Equal(ino.Mode, uint16(0))
}

func TestDeclinedFixFlagsErrorState(t *testing.T) {
	defer test.New(t)

	// declining a fix in interactive mode leaves the error uncorrected and
	// the ERROR state bit set on flush
	b := newImage(false, 14, 32, 64)
	b.addRoot()
	fz := uint32(b.firstZone + 1)
	b.setInode(2, modeRegular|0644, 1, 512, fz)
	b.markZone(int(fz))
	b.addEntry(RootIno, 2, "a")
	b.addEntry(RootIno, 2, "b")

	d := b.disk()
	f := New(d, "test.img", Options{Force: true, Repair: true})
	f.out = newOutput()
	f.asker = &scriptAsker{}
	test.Nil(f.Run())
	test.True(f.uncorrected)
	test.True(!f.changed)
	test.Equal(f.Status(), 4)

	sup, err := ReadSuperBlock(d)
	test.Nil(err)
	test.Equal(sup.State, uint16(StateValid|StateError))
}
