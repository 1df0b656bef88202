//go:build !windows

package filestate

import "os"

// syncDir best-effort fsyncs the parent directory so the rename is durable.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
