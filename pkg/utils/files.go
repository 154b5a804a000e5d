package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// AudioExtensions lists the file extensions treated as songs when scanning
// directories.
var AudioExtensions = map[string]bool{
	".wav":  true,
	".wave": true,
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".aif":  true,
	".aiff": true,
}

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// MoveFile moves or renames a file
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file from %s to %s: %w", src, dst, err)
	}
	return nil
}

// CollectAudioFiles expands paths into a sorted, de-duplicated list of
// absolute audio file paths. Directories are walked recursively; files
// named explicitly are kept whatever their extension.
func CollectAudioFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) error {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !AudioExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
	}

	sort.Strings(out)
	return out, nil
}
