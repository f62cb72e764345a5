// Package fileblk implements a loopback hal.BlockDevice backed by a
// single-file key-value store, for development and testing without a
// real disk (§6 "BlockDevice" collaborator contract).
//
// Grounded on github.com/fingon/go-tfhfs/storage/bolt's boltBackend:
// open one bbolt.DB file, keep one bucket, store fixed-size records
// keyed by their integer index: here a bucket of 512-byte sectors
// keyed by their big-endian sector number, rather than tfhfs's
// content-addressed block store, since a BlockDevice's contract is
// "sector number in, bytes out" rather than "content hash in, bytes
// out."
package fileblk

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/hal"
)

var sectorsBucket = []byte("sectors")

// Device is a hal.BlockDevice backed by a bbolt database file.
type Device struct {
	db      *bolt.DB
	sectors uint64
}

// Open opens (creating if necessary) a loopback block device of
// sectorCount sectors backed by the bbolt file at path.
func Open(path string, sectorCount uint64) (*Device, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("fileblk: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sectorsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("fileblk: init bucket: %w", err)
	}
	return &Device{db: db, sectors: sectorCount}, nil
}

// Close releases the backing bbolt file.
func (d *Device) Close() error {
	return d.db.Close()
}

func sectorKey(sector uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, sector)
	return k
}

// ReadSectors implements hal.BlockDevice. Sectors never written read as
// zero, matching a freshly-initialized disk image.
func (d *Device) ReadSectors(sector uint64, buf []byte) error {
	if len(buf)%hal.SectorSize != 0 {
		return errno.Wrap(errno.EINVAL, "fileblk: buf not sector-aligned")
	}
	n := len(buf) / hal.SectorSize
	return d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sectorsBucket)
		for i := 0; i < n; i++ {
			v := b.Get(sectorKey(sector + uint64(i)))
			dst := buf[i*hal.SectorSize : (i+1)*hal.SectorSize]
			if v == nil {
				for j := range dst {
					dst[j] = 0
				}
				continue
			}
			copy(dst, v)
		}
		return nil
	})
}

// WriteSectors implements hal.BlockDevice.
func (d *Device) WriteSectors(sector uint64, buf []byte) error {
	if len(buf)%hal.SectorSize != 0 {
		return errno.Wrap(errno.EINVAL, "fileblk: buf not sector-aligned")
	}
	n := len(buf) / hal.SectorSize
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sectorsBucket)
		for i := 0; i < n; i++ {
			src := buf[i*hal.SectorSize : (i+1)*hal.SectorSize]
			cp := make([]byte, hal.SectorSize)
			copy(cp, src)
			if err := b.Put(sectorKey(sector+uint64(i)), cp); err != nil {
				return err
			}
		}
		return nil
	})
}

// SectorCount implements hal.BlockDevice.
func (d *Device) SectorCount() uint64 { return d.sectors }
