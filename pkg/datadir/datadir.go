// Package datadir manages the node's on-disk data directory: the logos
// folder GeoNetwork-style deployments expect and the disk usage numbers the
// startup report logs.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
)

const logosDirName = "logos"

// defaultLogo is a 1x1 transparent PNG used until an operator uploads a real
// site logo.
var defaultLogo = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xcf, 0xc0, 0xf0,
	0x1f, 0x00, 0x05, 0x05, 0x02, 0x00, 0x5e, 0x1f, 0x28, 0xb8, 0x00, 0x00,
	0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// Dir is a resolved, existing data directory.
type Dir struct {
	Root string
}

// Resolve makes the data directory absolute and creates it, along with the
// logos folder, when missing.
func Resolve(path string) (Dir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Dir{}, fmt.Errorf("failed to resolve data directory %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Join(abs, logosDirName), 0755); err != nil {
		return Dir{}, fmt.Errorf("failed to create data directory %s: %w", abs, err)
	}
	return Dir{Root: abs}, nil
}

// LogosDir returns the directory holding site logos.
func (d Dir) LogosDir() string {
	return filepath.Join(d.Root, logosDirName)
}

// LogoPath returns the logo file for a site id.
func (d Dir) LogoPath(siteID string) string {
	return filepath.Join(d.LogosDir(), siteID+".png")
}

// EnsureSiteLogo writes the default logo for the site when none exists yet.
// An existing logo is never overwritten.
func (d Dir) EnsureSiteLogo(siteID string) error {
	path := d.LogoPath(siteID)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat logo %s: %w", path, err)
	}

	if err := os.WriteFile(path, defaultLogo, 0644); err != nil {
		return fmt.Errorf("failed to write default logo %s: %w", path, err)
	}
	return nil
}

// DiskUsage reports usage of the filesystem holding the data directory.
func (d Dir) DiskUsage() (*disk.UsageStat, error) {
	usage, err := disk.Usage(d.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage for %s: %w", d.Root, err)
	}
	return usage, nil
}
