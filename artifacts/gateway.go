package artifacts

import (
	"context"
	"errors"
	"os"
	"strconv"

	"basic-cleaning/errs"
	"basic-cleaning/metrics"
	"basic-cleaning/tracking"
	"basic-cleaning/utils"
)

// Gateway moves artifacts between a Store and local files and records provenance
// on the run that asked for them. Failures are never retried here.
type Gateway struct {
	store    Store
	cacheDir string
	logger   *utils.Logger
	stages   *metrics.Stages
}

// NewGateway creates a Gateway that materializes downloads under cacheDir.
func NewGateway(store Store, cacheDir string, logger *utils.Logger, stages *metrics.Stages) *Gateway {
	return &Gateway{store: store, cacheDir: cacheDir, logger: logger, stages: stages}
}

// Fetch resolves reference, downloads the file it points to and records on run that
// this exact version was used. It returns the local path of the file.
func (g *Gateway) Fetch(ctx context.Context, run *tracking.Run, reference string) (string, error) {
	const op = "artifacts.Fetch"

	ref, err := ParseReference(reference)
	if err != nil {
		return "", errs.Usage(op, "%w", err)
	}

	v, err := g.store.Resolve(ctx, ref)
	if errors.Is(err, ErrNotFound) {
		return "", errs.ArtifactNotFound(op, "%w", err)
	}
	if err != nil {
		return "", errs.Transfer(op, "resolve %s: %w", ref, err)
	}

	path, err := g.store.Download(ctx, v, g.cacheDir)
	if err != nil {
		return "", errs.Transfer(op, "download %s: %w", v.ID(), err)
	}

	if err := run.UseArtifact(ctx, record(v)); err != nil {
		return "", errs.Transfer(op, "%w", err)
	}
	if g.stages != nil {
		g.stages.AddArtifactBytes("in", v.Size)
	}

	g.logger.Info("[gateway] Fetched %s (%d bytes, sha256 %.12s) → %s", v.ID(), v.Size, v.Digest, path)
	return path, nil
}

// Publish stores the file at path as a new version of meta.Name, records it on run
// and returns the new version id. "latest" moves only after the run has recorded
// the version.
func (g *Gateway) Publish(ctx context.Context, run *tracking.Run, path string, meta Metadata) (string, error) {
	const op = "artifacts.Publish"

	if err := meta.Validate(); err != nil {
		return "", errs.Usage(op, "%w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", errs.Publish(op, "%w", err)
	}
	if info.IsDir() {
		return "", errs.Publish(op, "%q is a directory", path)
	}

	v, err := g.store.Create(ctx, meta, path, run.ID())
	if err != nil {
		return "", errs.Publish(op, "create %s: %w", meta.Name, err)
	}

	if err := run.LogArtifact(ctx, record(v)); err != nil {
		return "", errs.Publish(op, "%w", err)
	}
	if err := g.store.SetAlias(v.Name, AliasLatest, v.Version); err != nil {
		return "", errs.Publish(op, "promote %s: %w", v.ID(), err)
	}
	if g.stages != nil {
		g.stages.AddArtifactBytes("out", v.Size)
	}

	g.logger.Info("[gateway] Published %s (%s, %d bytes)", v.ID(), v.Type, v.Size)
	return v.ID(), nil
}

func record(v *Version) tracking.ArtifactRecord {
	return tracking.ArtifactRecord{
		Name:    v.Name,
		Version: "v" + strconv.Itoa(v.Version),
		Type:    v.Type,
		Digest:  v.Digest,
		Size:    v.Size,
	}
}
