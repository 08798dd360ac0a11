package fsck

const (
	// BlockSize is fixed for this filesystem family; log_zone_size must be
	// zero so one zone is exactly one block.
	BlockSize = 1024

	// RootIno is the root directory. Inode 0 is the null inode.
	RootIno = 1

	// MaxDepth bounds the path kept for reporting. Deeper entries are still
	// walked, their names just fall off the printed path.
	MaxDepth = 50

	superOffset = 1 * BlockSize
)

// The four recognized superblock magics. The pair (version, name length) is
// derived from which one matches.
const (
	MagicV1  = 0x137F // v1, 14-byte names
	MagicV1L = 0x138F // v1, 30-byte names
	MagicV2  = 0x2468 // v2, 14-byte names
	MagicV2L = 0x2478 // v2, 30-byte names
)

// Superblock state bits.
const (
	StateValid = 1
	StateError = 2
)

// File mode classification, kernel bit layout.
const (
	modeTypeMask = 0170000
	modeFifo     = 0010000
	modeChar     = 0020000
	modeDir      = 0040000
	modeBlock    = 0060000
	modeRegular  = 0100000
	modeSymlink  = 0120000
	modeSocket   = 0140000
)
