package fsck

import "fmt"

// readBlock fills buf with block nr. Block 0 always reads as zeros. A read
// failure is reported, leaves a zero buffer and marks the run uncorrected,
// but never aborts the walk.
func (f *Fsck) readBlock(nr uint32, buf []byte) {
	if nr == 0 {
		zero(buf)
		return
	}
	if n, err := f.dev.ReadAt(buf, int64(nr)*BlockSize); err != nil && n < len(buf) {
		fmt.Fprintf(f.out, "Read error: bad block in file '%s'\n", f.currentName())
		zero(buf)
		f.uncorrected = true
	}
}

// writeBlock writes block nr back. Writes outside the data-zone range are a
// checker bug, so they are refused loudly instead of corrupting the layout.
func (f *Fsck) writeBlock(nr uint32, buf []byte) {
	if nr == 0 {
		return
	}
	if nr < uint32(f.super.FirstDataZone) || nr >= uint32(f.super.Zones()) {
		fmt.Fprintf(f.out, "Internal error: trying to write bad block\n"+
			"Write request ignored\n")
		f.uncorrected = true
		return
	}
	if n, err := f.dev.WriteAt(buf, int64(nr)*BlockSize); err != nil || n < len(buf) {
		fmt.Fprintf(f.out, "Write error: bad block in file '%s'\n", f.currentName())
		f.uncorrected = true
	}
}

// badZone probes whether zone nr is readable at all, distinguishing media
// errors from zones that are merely marked allocated.
func (f *Fsck) badZone(nr int) bool {
	buf := make([]byte, BlockSize)
	n, err := f.dev.ReadAt(buf, int64(nr)*BlockSize)
	return err != nil && n < BlockSize
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
