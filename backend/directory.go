package backend

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/symmetree-labs/infinitree/object"
)

// Directory stores one file per object.ID under root, sharded by the
// first byte of the hex id (two characters) to avoid a single huge flat
// directory, mirroring the teacher's two-hex-character shard layout for
// chunk files.
type Directory struct {
	root string
}

// NewDirectory opens (creating if necessary) a Directory backend rooted
// at path.
func NewDirectory(path string) (*Directory, error) {
	if err := os.MkdirAll(path, 0o777); err != nil {
		return nil, fmt.Errorf("backend: failed to create directory root %q: %w", path, err)
	}
	return &Directory{root: path}, nil
}

func (d *Directory) pathFor(id object.ID) string {
	hexID := id.String()
	return filepath.Join(d.root, hexID[:2], hexID)
}

// WriteObject writes o's full buffer to its shard file, creating the
// shard directory on demand.
func (d *Directory) WriteObject(o *object.WriteObject) error {
	return d.WriteRaw(o.ID(), o.Bytes())
}

// WriteRaw writes buf verbatim to id's shard file, creating the shard
// directory on demand. Used directly by WriteObject, and by Cache to
// admit bytes already fetched from an upstream backend without routing
// them back through an object.WriteObject.
func (d *Directory) WriteRaw(id object.ID, buf []byte) error {
	p := d.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(p), 0o777); err != nil {
		return cannotCreate("WriteObject", id, err)
	}

	tmp := p + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return cannotCreate("WriteObject", id, err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		os.Remove(tmp)
		return ioFailure("WriteObject", id, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return ioFailure("WriteObject", id, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ioFailure("WriteObject", id, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return ioFailure("WriteObject", id, err)
	}
	return nil
}

// ReadObject reads the object addressed by id. Directory has no cache of
// its own, so this is identical to ReadFresh.
func (d *Directory) ReadObject(id object.ID) (*object.ReadObject, error) {
	return d.ReadFresh(id)
}

// ReadFresh reads id's file directly off disk.
func (d *Directory) ReadFresh(id object.ID) (*object.ReadObject, error) {
	f, err := os.Open(d.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound("ReadObject", id)
		}
		return nil, ioFailure("ReadObject", id, err)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, ioFailure("ReadObject", id, err)
	}
	return object.NewReadObject(id, buf), nil
}

// Preload is a no-op: Directory has no separate cache tier to warm.
func (d *Directory) Preload(ids []object.ID) {}

// KeepWarm is a no-op: every object on a Directory is already "warm".
func (d *Directory) KeepWarm(ids []object.ID) error { return nil }

// Delete removes id's file. It is not an error to delete an id that was
// never written.
func (d *Directory) Delete(id object.ID) error {
	if err := os.Remove(d.pathFor(id)); err != nil && !os.IsNotExist(err) {
		return ioFailure("Delete", id, err)
	}
	return nil
}

// Sync is a no-op: every write above is already fsynced and renamed into
// place by the time WriteObject returns.
func (d *Directory) Sync() error { return nil }

// ListIDs walks every shard subdirectory and returns the id of every
// object currently stored, in no particular order. Used by garbage
// collection to find objects no tree's live set references; Backend
// itself has no such method, since most implementations (S3, Cache's
// upstream) have no cheap way to enumerate their full contents.
func (d *Directory) ListIDs() ([]object.ID, error) {
	var out []object.ID
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backend: failed to list directory root %q: %w", d.root, err)
	}

	for _, shard := range entries {
		if !shard.IsDir() {
			continue
		}
		shardPath := filepath.Join(d.root, shard.Name())
		files, err := os.ReadDir(shardPath)
		if err != nil {
			return nil, fmt.Errorf("backend: failed to list shard %q: %w", shardPath, err)
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) == ".tmp" {
				continue
			}
			id, err := object.ParseID(f.Name())
			if err != nil {
				continue
			}
			out = append(out, id)
		}
	}
	return out, nil
}
