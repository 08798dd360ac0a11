package fsck

import "encoding/binary"

// DiskReader decodes little-endian on-disk structures out of a block buffer.
type DiskReader struct {
	b      []byte
	offset int
}

func NewDiskReader(b []byte) *DiskReader {
	return &DiskReader{b: b}
}

func (r *DiskReader) Uint16() uint16 {
	v := binary.LittleEndian.Uint16(r.b[r.offset:])
	r.offset += 2
	return v
}

func (r *DiskReader) Uint32() uint32 {
	v := binary.LittleEndian.Uint32(r.b[r.offset:])
	r.offset += 4
	return v
}

func (r *DiskReader) Byte() uint8 {
	v := r.b[r.offset]
	r.offset++
	return v
}

func (r *DiskReader) ReadBytes(n int) []byte {
	buf := r.b[r.offset : r.offset+n]
	r.offset += n
	return buf
}

func (r *DiskReader) Skip(n int) {
	r.offset += n
}

// DiskWriter is the encoding side, writing in place over a block buffer.
type DiskWriter struct {
	b      []byte
	offset int
}

func NewDiskWriter(b []byte) *DiskWriter {
	return &DiskWriter{b: b}
}

func (w *DiskWriter) Uint16(v uint16) {
	binary.LittleEndian.PutUint16(w.b[w.offset:], v)
	w.offset += 2
}

func (w *DiskWriter) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.b[w.offset:], v)
	w.offset += 4
}

func (w *DiskWriter) Byte(v uint8) {
	w.b[w.offset] = v
	w.offset++
}

func (w *DiskWriter) WriteBytes(b []byte) {
	copy(w.b[w.offset:], b)
	w.offset += len(b)
}

func (w *DiskWriter) Skip(n int) {
	w.offset += n
}
