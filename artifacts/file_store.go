package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	manifestFile = "manifest.yaml"
	aliasesFile  = "aliases.yaml"
)

// FileStore keeps artifacts on a local or mounted filesystem:
//
//	<root>/<name>/aliases.yaml
//	<root>/<name>/v<N>/manifest.yaml
//	<root>/<name>/v<N>/<file>
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at root. The directory is created on first write.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) artifactDir(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *FileStore) versionDir(name string, version int) string {
	return filepath.Join(s.artifactDir(name), "v"+strconv.Itoa(version))
}

// Resolve looks up ref. Named aliases and "latest" are read from aliases.yaml.
func (s *FileStore) Resolve(ctx context.Context, ref Reference) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	version, ok := ref.Version()
	if !ok {
		aliases, err := s.readAliases(ref.Name)
		if err != nil {
			return nil, err
		}
		v, found := aliases[ref.Alias]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		version = v
	}

	m, err := s.readManifest(ref.Name, version)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return m, err
}

// Download copies the version's file into dir/<name>/v<N>/ and checks its digest.
func (s *FileStore) Download(ctx context.Context, v *Version, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(filepath.Join(s.versionDir(v.Name, v.Version), v.File))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", v.ID(), err)
	}
	defer src.Close()

	destDir := filepath.Join(dir, filepath.FromSlash(v.Name), "v"+strconv.Itoa(v.Version))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(destDir, v.File)

	digest, _, err := copyFile(dest, src)
	if err != nil {
		return "", err
	}
	if v.Digest != "" && digest != v.Digest {
		_ = os.Remove(dest)
		return "", fmt.Errorf("digest mismatch for %s: manifest %s, downloaded %s", v.ID(), v.Digest, digest)
	}
	return dest, nil
}

// Create stores the file at path as the next version of meta.Name. Aliases are
// left alone; callers promote the version with SetAlias.
func (s *FileStore) Create(ctx context.Context, meta Metadata, path string, runID string) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer src.Close()

	version, dir, err := s.claimVersion(meta.Name)
	if err != nil {
		return nil, err
	}

	v := &Version{
		Name:        meta.Name,
		Version:     version,
		Type:        meta.Type,
		Description: meta.Description,
		File:        filepath.Base(path),
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   runID,
	}

	v.Digest, v.Size, err = copyFile(filepath.Join(dir, v.File), src)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if err := writeYAML(filepath.Join(dir, manifestFile), v); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return v, nil
}

// SetAlias points alias at an existing version of name.
func (s *FileStore) SetAlias(name, alias string, version int) error {
	if versionAlias.MatchString(alias) {
		return fmt.Errorf("alias %q is reserved for explicit versions", alias)
	}
	if _, err := s.readManifest(name, version); err != nil {
		return err
	}
	aliases, err := s.readAliases(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if aliases == nil {
		aliases = make(map[string]int)
	}
	aliases[alias] = version
	return writeYAML(filepath.Join(s.artifactDir(name), aliasesFile), aliases)
}

// claimVersion creates the directory of the next free version. Mkdir fails when the
// directory exists, so two writers never share a version.
func (s *FileStore) claimVersion(name string) (int, string, error) {
	base := s.artifactDir(name)
	if err := os.MkdirAll(base, 0755); err != nil {
		return 0, "", fmt.Errorf("create artifact dir: %w", err)
	}

	next, err := s.nextVersion(base)
	if err != nil {
		return 0, "", err
	}
	for ; ; next++ {
		dir := s.versionDir(name, next)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return next, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return 0, "", fmt.Errorf("create version dir: %w", err)
		}
	}
}

func (s *FileStore) nextVersion(base string) (int, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return 0, fmt.Errorf("list versions: %w", err)
	}
	next := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := versionAlias.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
			next = n + 1
		}
	}
	return next, nil
}

func (s *FileStore) readManifest(name string, version int) (*Version, error) {
	var v Version
	if err := readYAML(filepath.Join(s.versionDir(name, version), manifestFile), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *FileStore) readAliases(name string) (map[string]int, error) {
	aliases := make(map[string]int)
	err := readYAML(filepath.Join(s.artifactDir(name), aliasesFile), &aliases)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return aliases, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeYAML replaces path atomically.
func writeYAML(path string, in any) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// copyFile writes src to dest and returns the sha256 hex digest and byte count.
func copyFile(dest string, src io.Reader) (string, int64, error) {
	out, err := os.Create(dest)
	if err != nil {
		return "", 0, fmt.Errorf("create %q: %w", dest, err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), src)
	if err != nil {
		_ = out.Close()
		return "", 0, fmt.Errorf("copy to %q: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return "", 0, fmt.Errorf("close %q: %w", dest, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
