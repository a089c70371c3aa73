package cast

import "github.com/jward/bonsai/internal/pyast"

// Category labels shared by several source kinds.
const (
	GroupImport = "Import"
	GroupLoop   = "Loop"
	GroupName   = "Name"
)

// GroupOf maps a source kind to its reduced-tree category. Import kinds,
// loop kinds and name-reference kinds merge; every other kind keeps its own
// name.
func GroupOf(kind pyast.Kind) string {
	switch kind {
	case pyast.Import, pyast.ImportFrom:
		return GroupImport
	case pyast.For, pyast.While:
		return GroupLoop
	case pyast.Name, pyast.NameConstant:
		return GroupName
	}
	return string(kind)
}
