// Package workspace manages the on-disk directories a pipeline run
// works in: extraction of release zipballs and staging of per-run
// copies of the source tree.
package workspace

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// vcsDirs are skipped when staging a local source tree
var vcsDirs = map[string]struct{}{
	".git": {},
	".hg":  {},
	".svn": {},
}

// ExtractZip extracts zipball data into a fresh temporary directory
func ExtractZip(ctx context.Context, zipData []byte) (*model.SourceTree, error) {
	logger := ctxlog.From(ctx)

	tempDir, err := os.MkdirTemp("", "drover-release-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary directory")
	}

	if err := os.Chmod(tempDir, 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to set directory permissions", goerr.V("dir", tempDir))
	}

	logger.Debug("Created temporary directory", "temp_dir", tempDir)

	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create zip reader")
	}

	var extractedFiles []string
	var totalSize int64

	for _, file := range zipReader.File {
		if err := extractFile(file, tempDir); err != nil {
			return nil, goerr.Wrap(err, "failed to extract file", goerr.V("name", file.Name))
		}

		extractedFiles = append(extractedFiles, file.Name)
		totalSize += int64(file.UncompressedSize64)
	}

	return &model.SourceTree{
		Dir:   tempDir,
		Files: extractedFiles,
		Size:  totalSize,
	}, nil
}

// extractFile extracts a single file from ZIP to the destination directory
func extractFile(file *zip.File, destDir string) error {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return goerr.New("invalid file path detected", goerr.V("file", file.Name), goerr.V("dest", destPath))
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open file in zip", goerr.V("file", file.Name))
	}
	defer rc.Close()

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, file.FileInfo().Mode())
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories", goerr.V("dir", filepath.Dir(destPath)))
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.FileInfo().Mode())
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return goerr.Wrap(err, "failed to copy file content", goerr.V("path", destPath))
	}

	return nil
}

// SourceRoot resolves the directory the pipeline definition lives in.
// GitHub zipballs nest everything under a single "owner-repo-sha"
// directory; when the tree has exactly one top level entry and it is a
// directory, that entry is the root.
func SourceRoot(tree *model.SourceTree) (string, error) {
	entries, err := os.ReadDir(tree.Dir)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read source tree", goerr.V("dir", tree.Dir))
	}

	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(tree.Dir, entries[0].Name()), nil
	}
	return tree.Dir, nil
}

// Stage copies the source tree into a fresh directory under parent so
// a run can modify it freely. VCS metadata directories are skipped.
// With an empty parent the system temporary directory is used.
func Stage(srcDir, parent string) (string, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return "", goerr.Wrap(err, "failed to create workspace parent", goerr.V("dir", parent))
		}
	}

	workDir, err := os.MkdirTemp(parent, "drover-run-*")
	if err != nil {
		return "", goerr.Wrap(err, "failed to create run workspace")
	}

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if _, skip := vcsDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(filepath.Join(workDir, rel), info.Mode().Perm())
		}

		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, filepath.Join(workDir, rel))
	})
	if err != nil {
		_ = os.RemoveAll(workDir)
		return "", goerr.Wrap(err, "failed to stage source tree", goerr.V("src", srcDir))
	}

	return workDir, nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Cleanup removes a workspace directory, logging instead of failing
// when removal does not succeed
func Cleanup(ctx context.Context, dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		ctxlog.From(ctx).Warn("Failed to clean up workspace", "dir", dir, "error", err)
	}
}
