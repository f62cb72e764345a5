// Package bootcfg loads the kernel's boot-time configuration: which
// block devices to mount, where, with which backing filesystem, a pipe
// buffer size, and a log level.
//
// Grounded on cmd/gvisor-containerd-shim/config.go's
// toml.DecodeFile(path, &c) pattern, generalized from a single flat
// struct to the mount-list shape this kernel's boot config needs. The
// pipe buffer size is parsed with github.com/docker/go-units, the same
// library docker/cli uses for "64MB"-style human-readable size strings.
package bootcfg

import (
	"fmt"

	"github.com/BurntSushi/toml"
	units "github.com/docker/go-units"
)

// Mount describes one filesystem to mount at boot.
type Mount struct {
	// Path is where this filesystem is mounted, e.g. "/" or "/mnt/data".
	Path string `toml:"path"`
	// Type is the backing filesystem: "fat" or "ext4".
	Type string `toml:"type"`
	// Device names the block device to mount, resolved by the caller
	// (e.g. "/dev/loop0" for a real disk, or a fileblk path for testing).
	Device string `toml:"device"`
}

// Config is the top-level boot configuration (§5 "Global mutable
// state... explicit init-once lifecycle").
type Config struct {
	Mounts []Mount `toml:"mount"`

	// PipeBufferSize is a human-readable size string ("64KiB", "1MB")
	// parsed via go-units. cmd/kernel parses and logs it; pipe2 does not
	// read it and always creates pipes with internal/pipe's own default
	// capacity.
	PipeBufferSize string `toml:"pipe_buffer_size"`

	// LogLevel is one of logrus's level names ("debug", "info", "warn").
	LogLevel string `toml:"log_level"`
}

// PipeBufferBytes parses PipeBufferSize, defaulting to 64KiB if unset.
func (c *Config) PipeBufferBytes() (int, error) {
	if c.PipeBufferSize == "" {
		return 64 * 1024, nil
	}
	n, err := units.RAMInBytes(c.PipeBufferSize)
	if err != nil {
		return 0, fmt.Errorf("bootcfg: pipe_buffer_size %q: %w", c.PipeBufferSize, err)
	}
	return int(n), nil
}

// Load reads and decodes the TOML boot configuration at path.
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("bootcfg: load %s: %w", path, err)
	}
	return &c, nil
}
