package scan

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// WalkFiles expands the given paths into a flat list of regular files.
// Directories are walked recursively in lexical order. The pseudo path
// "-" for stdin is passed through unchanged.
func WalkFiles(paths []string) ([]string, error) {
	var files []string

	for _, p := range paths {
		if p == "-" {
			files = append(files, p)
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to stat path", goerr.V("path", p))
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to walk directory", goerr.V("dir", p))
		}
	}

	return files, nil
}
