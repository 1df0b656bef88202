//go:build darwin

package tactile

import "syscall"

// maxRSSBytes: ru_maxrss is reported in bytes on macOS.
func maxRSSBytes(r *syscall.Rusage) int64 {
	return int64(r.Maxrss)
}
