//go:build !linux

package attrs

import "os"

// Only the portable facts are reported off Linux.
func factsFromSys(os.FileInfo) (*Facts, bool) {
	return nil, false
}
