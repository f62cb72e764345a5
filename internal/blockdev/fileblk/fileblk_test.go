package fileblk

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rvkernel/core/internal/hal"
)

func TestUnwrittenSectorsReadAsZero(t *testing.T) {
	dev, err := Open(filepath.Join(t.TempDir(), "disk.img"), 16)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer dev.Close()

	buf := make([]byte, hal.SectorSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	if err := dev.ReadSectors(3, buf); err != nil {
		t.Fatalf("ReadSectors returned error: %v", err)
	}
	if !bytes.Equal(buf, make([]byte, hal.SectorSize)) {
		t.Fatal("an unwritten sector should read back as all zeros")
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	dev, err := Open(filepath.Join(t.TempDir(), "disk.img"), 16)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer dev.Close()

	want := bytes.Repeat([]byte{0x42}, hal.SectorSize*2)
	if err := dev.WriteSectors(5, want); err != nil {
		t.Fatalf("WriteSectors returned error: %v", err)
	}

	got := make([]byte, hal.SectorSize*2)
	if err := dev.ReadSectors(5, got); err != nil {
		t.Fatalf("ReadSectors returned error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("read back data does not match what was written")
	}
}

func TestReadWriteRejectUnalignedBuffers(t *testing.T) {
	dev, err := Open(filepath.Join(t.TempDir(), "disk.img"), 16)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer dev.Close()

	if err := dev.ReadSectors(0, make([]byte, 10)); err == nil {
		t.Fatal("ReadSectors with an unaligned buffer should fail")
	}
	if err := dev.WriteSectors(0, make([]byte, 10)); err == nil {
		t.Fatal("WriteSectors with an unaligned buffer should fail")
	}
}

func TestSectorCountReflectsConstructorArgument(t *testing.T) {
	dev, err := Open(filepath.Join(t.TempDir(), "disk.img"), 42)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer dev.Close()

	if got := dev.SectorCount(); got != 42 {
		t.Fatalf("SectorCount() = %d, want 42", got)
	}
}

func TestReopenPreservesPreviouslyWrittenData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	dev, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	want := bytes.Repeat([]byte{0x7A}, hal.SectorSize)
	dev.WriteSectors(1, want)
	dev.Close()

	dev2, err := Open(path, 4)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer dev2.Close()

	got := make([]byte, hal.SectorSize)
	dev2.ReadSectors(1, got)
	if !bytes.Equal(got, want) {
		t.Fatal("data written before close was not preserved across reopen")
	}
}
