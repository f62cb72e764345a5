// Package fs holds the small pieces shared by the two concrete backing
// filesystems (internal/fs/fat, internal/fs/ext4): an io.ReadSeeker
// adapter over hal.BlockDevice, since both third-party libraries this
// kernel wires in (tinygo.org/x/tinyfs/fat, github.com/dsoprea/go-ext4)
// expect a standard-library stream rather than this kernel's own
// sector-oriented BlockDevice contract.
package fs

import (
	"io"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/hal"
)

// DeviceReader adapts a hal.BlockDevice to io.ReadSeeker/io.ReaderAt by
// buffering whole-sector reads, since BlockDevice only speaks in
// SectorSize-aligned transfers (§6 "BlockDevice").
type DeviceReader struct {
	Dev hal.BlockDevice
	pos int64
}

// NewDeviceReader wraps dev for sequential or random-access byte reads.
func NewDeviceReader(dev hal.BlockDevice) *DeviceReader {
	return &DeviceReader{Dev: dev}
}

func (r *DeviceReader) size() int64 {
	return int64(r.Dev.SectorCount()) * hal.SectorSize
}

// ReadAt implements io.ReaderAt, the interface go-ext4's superblock and
// directory-walk readers are built against.
func (r *DeviceReader) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.size() {
		return 0, io.EOF
	}
	firstSector := uint64(off) / hal.SectorSize
	sectorOff := int(uint64(off) % hal.SectorSize)
	n := 0
	for n < len(p) {
		buf := make([]byte, hal.SectorSize)
		if err := r.Dev.ReadSectors(firstSector, buf); err != nil {
			return n, errno.Wrap(errno.EIO, "ext4 block read")
		}
		copied := copy(p[n:], buf[sectorOff:])
		n += copied
		sectorOff = 0
		firstSector++
		if copied == 0 {
			break
		}
	}
	return n, nil
}

// Read implements io.Reader over the adapter's internal cursor.
func (r *DeviceReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (r *DeviceReader) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = r.pos
	case io.SeekEnd:
		base = r.size()
	default:
		return 0, errno.Wrap(errno.EINVAL, "ext4 block seek")
	}
	r.pos = base + offset
	return r.pos, nil
}

// WriteAt writes through to the underlying sectors, read-modify-write on
// partial sectors at either end of the span.
func (r *DeviceReader) WriteAt(p []byte, off int64) (int, error) {
	firstSector := uint64(off) / hal.SectorSize
	sectorOff := int(uint64(off) % hal.SectorSize)
	n := 0
	for n < len(p) {
		buf := make([]byte, hal.SectorSize)
		if err := r.Dev.ReadSectors(firstSector, buf); err != nil {
			return n, errno.Wrap(errno.EIO, "ext4 block read-modify-write")
		}
		copied := copy(buf[sectorOff:], p[n:])
		if err := r.Dev.WriteSectors(firstSector, buf); err != nil {
			return n, errno.Wrap(errno.EIO, "ext4 block write")
		}
		n += copied
		sectorOff = 0
		firstSector++
	}
	return n, nil
}
