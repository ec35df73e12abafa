package files

import (
	"path/filepath"
	"strings"
)

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tcx", ".xml":
		return "application/vnd.garmin.tcx+xml"
	case ".fit":
		return "application/vnd.ant.fit"
	default:
		return "application/octet-stream"
	}
}
