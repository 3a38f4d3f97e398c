//go:build !unix

package runner

import "os"

func dirWritable(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
