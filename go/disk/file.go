package disk

import (
	"os"
	"sync/atomic"

	"github.com/chzyer/logex"
)

var (
	ErrFileClosed   = logex.Define("file is closed")
	ErrFileReadOnly = logex.Define("file is opened read-only")
)

// File is a Disk backed by a single device node or image file.
type File struct {
	fd       *os.File
	writable bool
	closed   int32
}

// Open opens the device at path. Writes are refused unless writable is set,
// so a read-only run can never touch the image even by mistake.
func Open(path string, writable bool) (*File, error) {
	oflag := os.O_RDONLY
	if writable {
		oflag = os.O_RDWR
	}
	fd, err := os.OpenFile(path, oflag, 0)
	if err != nil {
		return nil, logex.Trace(err)
	}
	return &File{fd: fd, writable: writable}, nil
}

func (f *File) Close() error {
	if !atomic.CompareAndSwapInt32(&f.closed, 0, 1) {
		return nil
	}
	return f.fd.Close()
}

func (f *File) ReadAt(b []byte, off int64) (int, error) {
	if atomic.LoadInt32(&f.closed) != 0 {
		return 0, ErrFileClosed.Trace()
	}
	return f.fd.ReadAt(b, off)
}

func (f *File) WriteAt(b []byte, off int64) (int, error) {
	if atomic.LoadInt32(&f.closed) != 0 {
		return 0, ErrFileClosed.Trace()
	}
	if !f.writable {
		return 0, ErrFileReadOnly.Trace()
	}
	return f.fd.WriteAt(b, off)
}

func (f *File) Sync() error {
	return f.fd.Sync()
}
