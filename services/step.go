package services

import (
	"context"

	"basic-cleaning/artifacts"
	"basic-cleaning/config"
	"basic-cleaning/models"
	"basic-cleaning/tracking"
	"basic-cleaning/utils"
)

// StepResult is what a successful run of the step produced.
type StepResult struct {
	VersionID string
	Summary   *models.CleaningSummary
}

// Step is the basic cleaning pipeline stage: fetch the raw artifact, clean it,
// publish the result.
type Step struct {
	gateway    *artifacts.Gateway
	cleaner    *Cleaner
	logger     *utils.Logger
	outputFile string
}

// NewStep wires the step. outputFile is the local intermediate file the cleaned
// data is written to before publication.
func NewStep(gateway *artifacts.Gateway, cleaner *Cleaner, logger *utils.Logger, outputFile string) *Step {
	return &Step{gateway: gateway, cleaner: cleaner, logger: logger, outputFile: outputFile}
}

// Run executes the step within run. Nothing is published unless every stage succeeds.
func (s *Step) Run(ctx context.Context, run *tracking.Run, args *config.Args) (*StepResult, error) {
	prices := PriceRange{Min: args.MinPrice, Max: args.MaxPrice}
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	inPath, err := s.gateway.Fetch(ctx, run, args.InputArtifact)
	if err != nil {
		return nil, err
	}
	s.logger.Event("input_artifact_received", "artifact=%s path=%s", args.InputArtifact, inPath)

	summary, err := s.cleaner.Apply(ctx, inPath, s.outputFile, prices)
	if err != nil {
		return nil, err
	}
	if err := run.LogSummary(ctx, summary.Values()); err != nil {
		return nil, err
	}

	id, err := s.gateway.Publish(ctx, run, s.outputFile, artifacts.Metadata{
		Name:        args.OutputArtifact,
		Type:        args.OutputType,
		Description: args.OutputDescription,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Event("output_artifact_uploaded", "version=%s", id)
	return &StepResult{VersionID: id, Summary: summary}, nil
}
