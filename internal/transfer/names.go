package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CollisionFreeName returns name unchanged when dir has no entry of that
// name, otherwise the first "stem (n)ext" variant absent from dir, with n
// the smallest positive integer. The destination is never overwritten.
func CollisionFreeName(dir, name string) string {
	if !exists(filepath.Join(dir, name)) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// dotfiles: ".bashrc" keeps its name whole
		stem, ext = name, ""
	}
	for n := 1; ; n++ {
		cand := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !exists(filepath.Join(dir, cand)) {
			return cand
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
