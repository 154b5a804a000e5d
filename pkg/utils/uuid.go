package utils

import (
	"path/filepath"

	"github.com/google/uuid"
)

// songNamespace scopes song ids derived from file paths.
var songNamespace = uuid.MustParse("6f1c1f5e-52a4-4c55-9d0e-2b8a47c2a3d1")

// SongIDFromPath derives a stable song id from the absolute path of an
// audio file, so re-analyzing the same file finds its stored segments.
func SongIDFromPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(songNamespace, []byte(path)).String()
}
