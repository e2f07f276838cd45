// Package fsops implements the filesystem verbs (mkdir, write, read,
// delete, rename, move) as thin, guarded wrappers over the standard
// library. Spec §1 names these verbs as collaborators out of scope
// "beyond their error-mapping contract" — every verb here does exactly
// the os/io/fs operation its name implies, nothing more, and every
// failure is classified through errors.MapFileError before it reaches a
// caller.
package fsops

import (
	"os"
	"path/filepath"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/guard"
)

func validate(operation, path string) error {
	return guard.ValidatePath(operation, path)
}

// Mkdir creates path and any missing parents.
func Mkdir(path string) error {
	if err := validate("mkdir", path); err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return sberrors.MapFileError("mkdir", path, err)
	}
	return nil
}

// Write writes data to path, creating or truncating it, and creating any
// missing parent directories first (spec treats write as idempotent
// whole-file replacement, matching the source's filesystem verb).
func Write(path string, data []byte) error {
	if err := validate("write", path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return sberrors.MapFileError("write", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return sberrors.MapFileError("write", path, err)
	}
	return nil
}

// Read returns the full contents of path.
func Read(path string) ([]byte, error) {
	if err := validate("read", path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sberrors.MapFileError("read", path, err)
	}
	return data, nil
}

// Delete removes path. A directory is removed recursively.
func Delete(path string) error {
	if err := validate("delete", path); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return sberrors.MapFileError("delete", path, err)
	}
	return nil
}

// Rename renames from to to with os.Rename; both paths are guarded
// independently. It does not check that the two paths share a parent
// directory, and unlike Move it does not create the target's parent.
func Rename(from, to string) error {
	if err := validate("rename", from); err != nil {
		return err
	}
	if err := validate("rename", to); err != nil {
		return err
	}
	if err := os.Rename(from, to); err != nil {
		return sberrors.MapFileError("rename", to, err)
	}
	return nil
}

// Move relocates from to to, potentially across directories; both paths
// are guarded independently. Identical to Rename at the os.Rename level,
// kept as a distinct verb because the HTTP surface exposes both.
func Move(from, to string) error {
	if err := validate("move", from); err != nil {
		return err
	}
	if err := validate("move", to); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return sberrors.MapFileError("move", to, err)
	}
	if err := os.Rename(from, to); err != nil {
		return sberrors.MapFileError("move", to, err)
	}
	return nil
}
