// Package registry owns the durable tag/file/association tables.
//
// A command loads the registry once, performs all reads and mutations
// against the in-memory copy, and commits once at the end. Mutations are
// invariant-checked and leave the registry unchanged on rejection; nothing
// reaches disk before Commit.
package registry

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/wutag/wutag/internal/errors"
)

// Registry is the full in-memory tag/file/association dataset.
type Registry struct {
	path   string
	cipher Cipher

	tags   map[TagID]Tag
	files  map[FileID]FileEntry
	assocs map[assocKey]Association

	byTagName map[string]TagID
	byPath    map[string]FileID

	nextTagID  TagID
	nextFileID FileID

	// created counts tags ever created, for palette assignment.
	created int
}

// NewEmpty creates an empty registry bound to a snapshot path.
func NewEmpty(path string, cipher Cipher) *Registry {
	return &Registry{
		path:       path,
		cipher:     cipher,
		tags:       make(map[TagID]Tag),
		files:      make(map[FileID]FileEntry),
		assocs:     make(map[assocKey]Association),
		byTagName:  make(map[string]TagID),
		byPath:     make(map[string]FileID),
		nextTagID:  1,
		nextFileID: 1,
	}
}

// Path returns the snapshot path this registry persists to.
func (r *Registry) Path() string { return r.path }

// Canonicalize resolves a path to its stored form: absolute and cleaned.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err)
	}
	return filepath.Clean(abs), nil
}

// --- Tags ---

// AddTag creates a tag with the given name and color. Rejects duplicate
// names and malformed colors, leaving the registry unchanged.
func (r *Registry) AddTag(name, color string) (Tag, error) {
	if name == "" {
		return Tag{}, errors.Newf(errors.ErrCodeDuplicateTag, "tag name must not be empty")
	}
	if _, exists := r.byTagName[name]; exists {
		return Tag{}, errors.DuplicateTagError(name)
	}
	if !ValidColor(color) {
		return Tag{}, errors.Newf(errors.ErrCodeInvalidColor, "invalid color %q", color)
	}

	tag := Tag{ID: r.nextTagID, Name: name, Color: color}
	r.tags[tag.ID] = tag
	r.byTagName[name] = tag.ID
	r.nextTagID++
	r.created++
	return tag, nil
}

// EnsureTag returns the existing tag with the given name, or creates it with
// the supplied palette color. The second result reports whether it was
// created.
func (r *Registry) EnsureTag(name, paletteColor string) (Tag, bool, error) {
	if id, ok := r.byTagName[name]; ok {
		return r.tags[id], false, nil
	}
	tag, err := r.AddTag(name, paletteColor)
	if err != nil {
		return Tag{}, false, err
	}
	return tag, true, nil
}

// TagByName looks a tag up by exact (case-sensitive) name.
func (r *Registry) TagByName(name string) (Tag, bool) {
	id, ok := r.byTagName[name]
	if !ok {
		return Tag{}, false
	}
	return r.tags[id], true
}

// Tag looks a tag up by id.
func (r *Registry) Tag(id TagID) (Tag, bool) {
	t, ok := r.tags[id]
	return t, ok
}

// RenameTag changes a tag's name, preserving its color and associations.
func (r *Registry) RenameTag(oldName, newName string) (Tag, error) {
	id, ok := r.byTagName[oldName]
	if !ok {
		return Tag{}, errors.UnknownTagError(oldName)
	}
	if _, taken := r.byTagName[newName]; taken {
		return Tag{}, errors.DuplicateTagError(newName)
	}

	tag := r.tags[id]
	tag.Name = newName
	r.tags[id] = tag
	delete(r.byTagName, oldName)
	r.byTagName[newName] = id
	return tag, nil
}

// SetTagColor updates a tag's color.
func (r *Registry) SetTagColor(name, color string) (Tag, error) {
	id, ok := r.byTagName[name]
	if !ok {
		return Tag{}, errors.UnknownTagError(name)
	}
	if !ValidColor(color) {
		return Tag{}, errors.Newf(errors.ErrCodeInvalidColor, "invalid color %q", color)
	}

	tag := r.tags[id]
	tag.Color = color
	r.tags[id] = tag
	return tag, nil
}

// DeleteTag removes a tag and every association referencing it. Files whose
// last association goes away are removed too.
func (r *Registry) DeleteTag(name string) error {
	id, ok := r.byTagName[name]
	if !ok {
		return errors.UnknownTagError(name)
	}

	var touched []FileID
	for k, a := range r.assocs {
		if a.Tag == id {
			delete(r.assocs, k)
			touched = append(touched, a.File)
		}
	}
	delete(r.tags, id)
	delete(r.byTagName, name)

	for _, fid := range touched {
		r.removeFileIfUntagged(fid)
	}
	return nil
}

// Tags returns all tags sorted by name.
func (r *Registry) Tags() []Tag {
	out := make([]Tag, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TagCreatedCount returns how many tags were ever created in this registry,
// used to pick the next palette color.
func (r *Registry) TagCreatedCount() int { return r.created }

// PruneUnusedTags removes tags with zero associations and returns their
// names. Policy-gated by the keep_unused_tags config option.
func (r *Registry) PruneUnusedTags() []string {
	used := make(map[TagID]struct{})
	for _, a := range r.assocs {
		used[a.Tag] = struct{}{}
	}

	var pruned []string
	for id, t := range r.tags {
		if _, ok := used[id]; !ok {
			delete(r.tags, id)
			delete(r.byTagName, t.Name)
			pruned = append(pruned, t.Name)
		}
	}
	sort.Strings(pruned)
	return pruned
}

// --- Files ---

// EnsureFile returns the entry for path, creating it if absent. The path is
// canonicalized before lookup or storage.
func (r *Registry) EnsureFile(path string, size int64, mtime time.Time) (FileEntry, error) {
	canon, err := Canonicalize(path)
	if err != nil {
		return FileEntry{}, err
	}

	if id, ok := r.byPath[canon]; ok {
		return r.files[id], nil
	}

	entry := FileEntry{ID: r.nextFileID, Path: canon, Size: size, MTime: mtime}
	r.files[entry.ID] = entry
	r.byPath[canon] = entry.ID
	r.nextFileID++
	return entry, nil
}

// FileByPath looks an entry up by canonical path.
func (r *Registry) FileByPath(path string) (FileEntry, bool) {
	canon, err := Canonicalize(path)
	if err != nil {
		return FileEntry{}, false
	}
	id, ok := r.byPath[canon]
	if !ok {
		return FileEntry{}, false
	}
	return r.files[id], true
}

// File returns the entry with the given id.
func (r *Registry) File(id FileID) (FileEntry, bool) {
	e, ok := r.files[id]
	return e, ok
}

// UpdateFilePath moves an entry to a new canonical path, preserving its id
// and associations. Rejects paths already registered to another entry.
func (r *Registry) UpdateFilePath(id FileID, newPath string) (FileEntry, error) {
	entry, ok := r.files[id]
	if !ok {
		return FileEntry{}, errors.Newf(errors.ErrCodeUnknownFile, "no file entry with id %d", id)
	}
	canon, err := Canonicalize(newPath)
	if err != nil {
		return FileEntry{}, err
	}
	if other, taken := r.byPath[canon]; taken && other != id {
		return FileEntry{}, errors.DuplicatePathError(canon)
	}

	delete(r.byPath, entry.Path)
	entry.Path = canon
	r.files[id] = entry
	r.byPath[canon] = id
	return entry, nil
}

// UpdateFileStat refreshes an entry's content hash, size, and mtime.
func (r *Registry) UpdateFileStat(id FileID, hash string, size int64, mtime time.Time) (FileEntry, error) {
	entry, ok := r.files[id]
	if !ok {
		return FileEntry{}, errors.Newf(errors.ErrCodeUnknownFile, "no file entry with id %d", id)
	}
	entry.Hash = hash
	entry.Size = size
	entry.MTime = mtime
	r.files[id] = entry
	return entry, nil
}

// DeleteFile removes an entry and all its associations.
func (r *Registry) DeleteFile(id FileID) {
	entry, ok := r.files[id]
	if !ok {
		return
	}
	for k, a := range r.assocs {
		if a.File == id {
			delete(r.assocs, k)
		}
	}
	delete(r.byPath, entry.Path)
	delete(r.files, id)
}

// Files returns all entries sorted ascending by canonical path.
func (r *Registry) Files() []FileEntry {
	out := make([]FileEntry, 0, len(r.files))
	for _, f := range r.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// --- Associations ---

// AddAssociation links a file to a tag with an optional value. Idempotent:
// adding an existing triple is a no-op. Both endpoints must exist.
func (r *Registry) AddAssociation(file FileID, tag TagID, value *string) error {
	if _, ok := r.files[file]; !ok {
		return errors.Newf(errors.ErrCodeUnknownFile, "no file entry with id %d", file)
	}
	if _, ok := r.tags[tag]; !ok {
		return errors.Newf(errors.ErrCodeUnknownTag, "no tag with id %d", tag)
	}

	a := Association{File: file, Tag: tag, Value: cloneValue(value)}
	r.assocs[keyOf(a)] = a
	return nil
}

// RemoveAssociation removes one exact (file, tag, value) triple. Returns
// true when something was removed. The file entry is removed once its last
// association goes away.
func (r *Registry) RemoveAssociation(file FileID, tag TagID, value *string) bool {
	k := keyOf(Association{File: file, Tag: tag, Value: value})
	if _, ok := r.assocs[k]; !ok {
		return false
	}
	delete(r.assocs, k)
	r.removeFileIfUntagged(file)
	return true
}

// RemoveTagFrom removes every association of the tag on the file,
// regardless of value. Returns the number removed.
func (r *Registry) RemoveTagFrom(file FileID, tag TagID) int {
	removed := 0
	for k, a := range r.assocs {
		if a.File == file && a.Tag == tag {
			delete(r.assocs, k)
			removed++
		}
	}
	if removed > 0 {
		r.removeFileIfUntagged(file)
	}
	return removed
}

// ClearFile removes every association of the file, and the file entry
// itself.
func (r *Registry) ClearFile(file FileID) int {
	removed := 0
	for k, a := range r.assocs {
		if a.File == file {
			delete(r.assocs, k)
			removed++
		}
	}
	r.removeFileIfUntagged(file)
	return removed
}

// AssociationsOf returns the file's associations sorted by tag name then
// value.
func (r *Registry) AssociationsOf(file FileID) []Association {
	var out []Association
	for _, a := range r.assocs {
		if a.File == file {
			out = append(out, a)
		}
	}
	r.sortAssociations(out)
	return out
}

// TagsOf returns the distinct tags on a file, sorted by name.
func (r *Registry) TagsOf(file FileID) []Tag {
	seen := make(map[TagID]struct{})
	var out []Tag
	for _, a := range r.assocs {
		if a.File != file {
			continue
		}
		if _, dup := seen[a.Tag]; dup {
			continue
		}
		seen[a.Tag] = struct{}{}
		out = append(out, r.tags[a.Tag])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FilesWith returns the distinct files carrying the tag, sorted by path.
func (r *Registry) FilesWith(tag TagID) []FileEntry {
	seen := make(map[FileID]struct{})
	var out []FileEntry
	for _, a := range r.assocs {
		if a.Tag != tag {
			continue
		}
		if _, dup := seen[a.File]; dup {
			continue
		}
		seen[a.File] = struct{}{}
		out = append(out, r.files[a.File])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Associations returns all associations in deterministic order.
func (r *Registry) Associations() []Association {
	out := make([]Association, 0, len(r.assocs))
	for _, a := range r.assocs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Tag != out[j].Tag {
			return out[i].Tag < out[j].Tag
		}
		return valueString(out[i].Value) < valueString(out[j].Value)
	})
	return out
}

// Stats summarizes registry contents for the info command.
type Stats struct {
	Tags         int
	Files        int
	Associations int
}

// Stats returns the current table sizes.
func (r *Registry) Stats() Stats {
	return Stats{Tags: len(r.tags), Files: len(r.files), Associations: len(r.assocs)}
}

func (r *Registry) sortAssociations(out []Association) {
	sort.Slice(out, func(i, j int) bool {
		ni, nj := r.tags[out[i].Tag].Name, r.tags[out[j].Tag].Name
		if ni != nj {
			return ni < nj
		}
		return valueString(out[i].Value) < valueString(out[j].Value)
	})
}

// removeFileIfUntagged drops the entry once its last association is gone.
func (r *Registry) removeFileIfUntagged(id FileID) {
	for _, a := range r.assocs {
		if a.File == id {
			return
		}
	}
	if entry, ok := r.files[id]; ok {
		delete(r.byPath, entry.Path)
		delete(r.files, id)
	}
}

func cloneValue(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func valueString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
