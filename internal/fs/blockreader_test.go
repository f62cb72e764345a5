package fs

import (
	"bytes"
	"io"
	"testing"

	"github.com/rvkernel/core/internal/hal"
)

// memDevice is an in-memory hal.BlockDevice backed by a flat byte
// slice, used to exercise DeviceReader without a real disk image.
type memDevice struct {
	sectors [][hal.SectorSize]byte
}

func newMemDevice(sectorCount int) *memDevice {
	return &memDevice{sectors: make([][hal.SectorSize]byte, sectorCount)}
}

func (d *memDevice) ReadSectors(sector uint64, buf []byte) error {
	n := len(buf) / hal.SectorSize
	for i := 0; i < n; i++ {
		copy(buf[i*hal.SectorSize:], d.sectors[sector+uint64(i)][:])
	}
	return nil
}

func (d *memDevice) WriteSectors(sector uint64, buf []byte) error {
	n := len(buf) / hal.SectorSize
	for i := 0; i < n; i++ {
		copy(d.sectors[sector+uint64(i)][:], buf[i*hal.SectorSize:(i+1)*hal.SectorSize])
	}
	return nil
}

func (d *memDevice) SectorCount() uint64 { return uint64(len(d.sectors)) }

func TestDeviceReaderReadAtCrossesSectorBoundary(t *testing.T) {
	dev := newMemDevice(2)
	payload := bytes.Repeat([]byte{0xAB}, hal.SectorSize)
	dev.WriteSectors(0, payload)
	payload2 := bytes.Repeat([]byte{0xCD}, hal.SectorSize)
	dev.WriteSectors(1, payload2)

	r := NewDeviceReader(dev)
	buf := make([]byte, 16)
	n, err := r.ReadAt(buf, hal.SectorSize-8)
	if err != nil {
		t.Fatalf("ReadAt returned error: %v", err)
	}
	if n != 16 {
		t.Fatalf("ReadAt() = %d, want 16", n)
	}
	want := append(bytes.Repeat([]byte{0xAB}, 8), bytes.Repeat([]byte{0xCD}, 8)...)
	if !bytes.Equal(buf, want) {
		t.Fatalf("ReadAt() = % x, want % x", buf, want)
	}
}

func TestDeviceReaderReadAtPastEndIsEOF(t *testing.T) {
	dev := newMemDevice(1)
	r := NewDeviceReader(dev)

	if _, err := r.ReadAt(make([]byte, 4), hal.SectorSize); err != io.EOF {
		t.Fatalf("ReadAt past end = %v, want io.EOF", err)
	}
}

func TestDeviceReaderSeekAndSequentialRead(t *testing.T) {
	dev := newMemDevice(1)
	payload := make([]byte, hal.SectorSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	dev.WriteSectors(0, payload)

	r := NewDeviceReader(dev)
	if _, err := r.Seek(10, io.SeekStart); err != nil {
		t.Fatalf("Seek returned error: %v", err)
	}
	buf := make([]byte, 4)
	n, err := r.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read() = %d, %v, want 4, nil", n, err)
	}
	if !bytes.Equal(buf, []byte{10, 11, 12, 13}) {
		t.Fatalf("Read() = % x, want % x", buf, []byte{10, 11, 12, 13})
	}
}

func TestDeviceReaderWriteAtPreservesSurroundingBytes(t *testing.T) {
	dev := newMemDevice(1)
	initial := bytes.Repeat([]byte{0xFF}, hal.SectorSize)
	dev.WriteSectors(0, initial)

	r := NewDeviceReader(dev)
	n, err := r.WriteAt([]byte{0x01, 0x02}, 10)
	if err != nil || n != 2 {
		t.Fatalf("WriteAt() = %d, %v, want 2, nil", n, err)
	}

	readBack := make([]byte, hal.SectorSize)
	r.ReadAt(readBack, 0)
	if readBack[9] != 0xFF || readBack[10] != 0x01 || readBack[11] != 0x02 || readBack[12] != 0xFF {
		t.Fatalf("WriteAt clobbered surrounding bytes: % x", readBack[8:13])
	}
}
