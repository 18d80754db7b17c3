package config

import (
	"flag"
	"io"
	"math"
	"strconv"
	"strings"

	"basic-cleaning/errs"
)

// Args are the per-invocation parameters. All of them are required.
type Args struct {
	InputArtifact     string
	OutputArtifact    string
	OutputType        string
	OutputDescription string
	MinPrice          float64
	MaxPrice          float64
}

// ParseArgs parses the command line. Missing, empty, non-numeric or infinite values are
// usage errors; nothing else is checked here.
func ParseArgs(args []string, usage io.Writer) (*Args, error) {
	fs := flag.NewFlagSet("basic_cleaning", flag.ContinueOnError)
	fs.SetOutput(usage)

	var (
		a              Args
		minRaw, maxRaw string
	)
	fs.StringVar(&a.InputArtifact, "input_artifact", "", "the input artifact")
	fs.StringVar(&a.OutputArtifact, "output_artifact", "", "the name for the output artifact")
	fs.StringVar(&a.OutputType, "output_type", "", "the type for the output artifact")
	fs.StringVar(&a.OutputDescription, "output_description", "", "a description for the output artifact")
	fs.StringVar(&minRaw, "min_price", "", "the minimum price to consider")
	fs.StringVar(&maxRaw, "max_price", "", "the maximum price to consider")

	if err := fs.Parse(args); err != nil {
		return nil, errs.Usage("config.ParseArgs", "%w", err)
	}
	if fs.NArg() > 0 {
		return nil, errs.Usage("config.ParseArgs", "unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	var missing []string
	for _, req := range []struct {
		name  string
		value string
	}{
		{"input_artifact", a.InputArtifact},
		{"output_artifact", a.OutputArtifact},
		{"output_type", a.OutputType},
		{"output_description", a.OutputDescription},
		{"min_price", minRaw},
		{"max_price", maxRaw},
	} {
		if strings.TrimSpace(req.value) == "" {
			missing = append(missing, "--"+req.name)
		}
	}
	if len(missing) > 0 {
		return nil, errs.Usage("config.ParseArgs", "missing required arguments: %s", strings.Join(missing, ", "))
	}

	var err error
	if a.MinPrice, err = parsePrice("min_price", minRaw); err != nil {
		return nil, err
	}
	if a.MaxPrice, err = parsePrice("max_price", maxRaw); err != nil {
		return nil, err
	}
	return &a, nil
}

func parsePrice(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errs.Usage("config.ParseArgs", "--%s must be a finite number, got %q", name, raw)
	}
	return v, nil
}

// Values returns the arguments as run configuration.
func (a *Args) Values() map[string]any {
	return map[string]any{
		"input_artifact":     a.InputArtifact,
		"output_artifact":    a.OutputArtifact,
		"output_type":        a.OutputType,
		"output_description": a.OutputDescription,
		"min_price":          a.MinPrice,
		"max_price":          a.MaxPrice,
	}
}
