package registry

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/wutag/wutag/internal/errors"
)

// snapshotVersion is the persisted format version.
const snapshotVersion = 1

// EnvRegistry overrides the registry file location.
const EnvRegistry = "WUTAG_REGISTRY"

// registryFileName is the default snapshot file name.
const registryFileName = "wutag.registry"

// snapshot is the persisted image of a Registry. It is a complete,
// independently-deserializable document.
type snapshot struct {
	Version      int           `json:"version"`
	NextTagID    TagID         `json:"next_tag_id"`
	NextFileID   FileID        `json:"next_file_id"`
	CreatedTags  int           `json:"created_tags"`
	Tags         []Tag         `json:"tags"`
	Files        []FileEntry   `json:"files"`
	Associations []Association `json:"associations"`
}

// ResolvePath picks the registry location: explicit flag, WUTAG_REGISTRY,
// then the platform cache directory.
func ResolvePath(flagValue string) (string, error) {
	if flagValue != "" {
		return Canonicalize(flagValue)
	}
	if env := os.Getenv(EnvRegistry); env != "" {
		return Canonicalize(env)
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err)
	}
	return filepath.Join(dir, "wutag", registryFileName), nil
}

// Open loads the registry at path, decrypting with cipher when configured.
// A missing file yields a fresh empty registry; undecodable bytes are a
// fatal corruption error directing the user at clean-cache.
func Open(path string, cipher Cipher) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewEmpty(path, cipher), nil
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err)
	}

	if cipher != nil {
		data, err = cipher.Open(data)
		if err != nil {
			return nil, errors.EncryptionError("failed to decrypt registry", err)
		}
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.CorruptError(path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, errors.CorruptError(path, errors.Newf(errors.ErrCodeRegistryCorrupt,
			"unsupported snapshot version %d", snap.Version))
	}

	r := NewEmpty(path, cipher)
	r.nextTagID = snap.NextTagID
	r.nextFileID = snap.NextFileID
	r.created = snap.CreatedTags
	for _, t := range snap.Tags {
		r.tags[t.ID] = t
		r.byTagName[t.Name] = t.ID
	}
	for _, f := range snap.Files {
		r.files[f.ID] = f
		r.byPath[f.Path] = f.ID
	}
	for _, a := range snap.Associations {
		// Invariant 1: associations must reference existing rows.
		if _, ok := r.tags[a.Tag]; !ok {
			return nil, errors.CorruptError(path, errors.Newf(errors.ErrCodeRegistryCorrupt,
				"association references unknown tag %d", a.Tag))
		}
		if _, ok := r.files[a.File]; !ok {
			return nil, errors.CorruptError(path, errors.Newf(errors.ErrCodeRegistryCorrupt,
				"association references unknown file %d", a.File))
		}
		r.assocs[keyOf(a)] = a
	}
	return r, nil
}

// Serialize marshals the registry snapshot (before encryption).
func (r *Registry) Serialize() ([]byte, error) {
	snap := snapshot{
		Version:      snapshotVersion,
		NextTagID:    r.nextTagID,
		NextFileID:   r.nextFileID,
		CreatedTags:  r.created,
		Tags:         r.Tags(),
		Files:        r.Files(),
		Associations: r.Associations(),
	}
	data, err := json.Marshal(&snap)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}
	return data, nil
}

// Commit atomically persists the registry: serialize, optionally encrypt,
// write to a temp file in the same directory, sync, then rename over the
// target. A reader never observes a half-written snapshot. An advisory lock
// beside the registry enforces one commit in flight per path; writers from
// other processes racing outside this lock are not coordinated.
func (r *Registry) Commit() error {
	data, err := r.Serialize()
	if err != nil {
		return errors.CommitError(err)
	}
	if r.cipher != nil {
		data, err = r.cipher.Seal(data)
		if err != nil {
			return errors.EncryptionError("failed to encrypt registry", err)
		}
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.CommitError(err)
	}

	lock := flock.New(r.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return errors.CommitError(err)
	}
	if !locked {
		return errors.New(errors.ErrCodeRegistryLocked,
			"another process is committing to this registry", nil)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".wutag-*.tmp")
	if err != nil {
		return errors.CommitError(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.CommitError(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.CommitError(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.CommitError(err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.CommitError(err)
	}
	return nil
}
