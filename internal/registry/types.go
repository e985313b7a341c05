package registry

import (
	"regexp"
	"time"
)

// TagID identifies a tag within one registry.
type TagID int64

// FileID identifies a tagged file within one registry.
type FileID int64

// Tag is a named label with a display color. Names are unique within a
// registry and compare case-sensitively.
type Tag struct {
	ID    TagID  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// FileEntry records one tagged file. Path is canonical (absolute, cleaned)
// and unique within a registry. Hash is the hex SHA-256 of the file's
// content, computed lazily on first tagging and refreshed by repair; empty
// means not yet computed.
type FileEntry struct {
	ID    FileID    `json:"id"`
	Path  string    `json:"path"`
	Hash  string    `json:"hash,omitempty"`
	Size  int64     `json:"size"`
	MTime time.Time `json:"mtime"`
}

// Association links a file to a tag, optionally carrying a value. A nil
// Value is a bare tag. The (File, Tag, Value) triple is unique.
type Association struct {
	File  FileID  `json:"file"`
	Tag   TagID   `json:"tag"`
	Value *string `json:"value,omitempty"`
}

// assocKey is the dedup key for an association triple.
type assocKey struct {
	file     FileID
	tag      TagID
	value    string
	hasValue bool
}

func keyOf(a Association) assocKey {
	k := assocKey{file: a.File, tag: a.Tag}
	if a.Value != nil {
		k.value = *a.Value
		k.hasValue = true
	}
	return k
}

// hexColor validates the stored color form: #RRGGBB.
var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidColor reports whether color is a well-formed hex RGB value.
// Comparison is case-insensitive; storage preserves the given case.
func ValidColor(color string) bool {
	return hexColor.MatchString(color)
}
