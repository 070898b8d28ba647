//go:build windows

package configpaths

// SystemConfigDir returns the directory used by the autorun instance.
func SystemConfigDir() (string, error) {
	return DefaultConfigDir()
}
