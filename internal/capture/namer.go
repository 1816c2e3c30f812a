package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DeriveOutputPath returns the output file path for a capture:
// <dir>/<SHORTCODE>_<showID>_<N>h.mp4. If that path already exists a numeric
// suffix is inserted before the extension (_1, _2, ...) until an unused path
// is found. The detect-and-increment loop is not atomic against a concurrent
// run; the tool is operated serially.
func DeriveOutputPath(dir, shortcode, showID string, hours int) string {
	base := filepath.Join(dir, fmt.Sprintf("%s_%s_%dh.mp4", shortcode, showID, hours))
	if !exists(base) {
		return base
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
