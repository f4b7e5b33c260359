package source

import (
	"path"
	"path/filepath"
	"strings"
)

// Separator joins namespace segments and unit names.
const Separator = "::"

// NamespaceOf derives a namespace from a file path relative to root:
// "util/math.rv" becomes "util::math". Paths outside root keep only their
// base name.
func NamespaceOf(root, file string) string {
	rel := file
	if root != "" {
		if r, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		} else {
			rel = filepath.Base(file)
		}
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	rel = strings.Trim(rel, "/")
	return strings.ReplaceAll(rel, "/", Separator)
}

// Qualify joins a namespace and a name.
func Qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + Separator + name
}

// SplitQualified splits "a::b::c" into namespace "a::b" and name "c".
func SplitQualified(full string) (namespace, name string) {
	idx := strings.LastIndex(full, Separator)
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+len(Separator):]
}

// PreludeNamespace holds the operator traits and builtin impls.
const PreludeNamespace = "core"
