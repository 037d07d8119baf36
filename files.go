package quartermaster

import (
	"path/filepath"
	"strings"
)

const (
	InventoryExt = ".qm"
	ReportExt    = ".rpt"
	SnapshotExt  = ".qmx"
)

// EnsureExtension appends ext to name unless it already ends with it.
func EnsureExtension(name, ext string) string {
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}
