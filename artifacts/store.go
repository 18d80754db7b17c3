package artifacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by a Store when a reference does not resolve.
var ErrNotFound = errors.New("artifact not found")

// Metadata is attached to a new artifact version.
type Metadata struct {
	Name        string
	Type        string
	Description string
}

// Validate checks that every field is set and the name is usable.
func (m Metadata) Validate() error {
	var missing []string
	if strings.TrimSpace(m.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(m.Type) == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(m.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("artifact metadata missing %s", strings.Join(missing, ", "))
	}
	return ValidateName(m.Name)
}

// Version describes one stored artifact version.
type Version struct {
	Name        string    `yaml:"name"`
	Version     int       `yaml:"version"`
	Type        string    `yaml:"type"`
	Description string    `yaml:"description"`
	File        string    `yaml:"file"`
	Digest      string    `yaml:"digest"`
	Size        int64     `yaml:"size"`
	CreatedAt   time.Time `yaml:"created_at"`
	CreatedBy   string    `yaml:"created_by,omitempty"`
}

// ID is the opaque identifier handed back to callers, e.g. "clean_sample.csv:v2".
func (v *Version) ID() string {
	return fmt.Sprintf("%s:v%d", v.Name, v.Version)
}

// Store is a versioned artifact backend.
type Store interface {
	// Resolve maps a reference to a stored version, or ErrNotFound.
	Resolve(ctx context.Context, ref Reference) (*Version, error)
	// Download materializes the version's file under dir and returns its path.
	Download(ctx context.Context, v *Version, dir string) (string, error)
	// Create stores the file at path as a new version carrying meta.
	Create(ctx context.Context, meta Metadata, path string, runID string) (*Version, error)
	// SetAlias points alias at an existing version.
	SetAlias(name, alias string, version int) error
}
