package pipeline

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// LoadLinks reads candidate URLs from the given files, one URL per line.
// Blank lines, comment lines and anything that is not an absolute http(s)
// URL are skipped. Files are merged first-seen-wins with exact-string
// deduplication; a missing file contributes nothing rather than failing the
// run.
func LoadLinks(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var links []string

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
				continue
			}
			if seen[line] {
				continue
			}
			seen[line] = true
			links = append(links, line)
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return links, nil
}
