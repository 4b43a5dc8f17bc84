// Package outfile derives collision-free output paths for recordings.
package outfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Ext is the container extension for recorded streams.
const Ext = ".ts"

// Generate returns a path under dir that does not exist at call time,
// built from now (YYYYMMDD_HHMMSS) and the stream name with spaces
// replaced by underscores. On collision an incrementing _0, _1, ...
// suffix is appended. Not safe against concurrent writers; the scheduler
// is the only producer in dir.
func Generate(streamName, dir string, now time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", dir, err)
	}

	existing := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), Ext) {
			existing[e.Name()] = struct{}{}
		}
	}

	base := now.Format("20060102_150405") + "_" + strings.ReplaceAll(streamName, " ", "_")
	name := base + Ext
	for n := 0; ; n++ {
		if _, taken := existing[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d%s", base, n, Ext)
	}
	return filepath.Join(dir, name), nil
}
