package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/ductrouter/pkg/render"
)

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string // write order
	input     string   // file the artifacts were derived from
	output    string   // -o flag, may be empty
	suffix    string   // appended to the input stem when output is empty
}

// writeArtifacts writes one file per format and reports them. With a single
// format and an explicit output, the output is used verbatim; otherwise the
// output (or input stem) is a base path and each file gets its format's
// extension. The input file is never overwritten.
func writeArtifacts(p artifactWriteParams) error {
	paths := artifactPaths(p)
	written := 0
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			return fmt.Errorf("no %s artifact was rendered", format)
		}
		path := paths[format]
		if sameFile(path, p.input) {
			printWarning("Skipping %s: it would overwrite the input", path)
			continue
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if written == 0 {
			printSuccess("Wrote %d artifact(s)", len(p.formats))
		}
		printFile(path)
		written++
	}
	return nil
}

// artifactPaths maps each format to the file it is written to.
func artifactPaths(p artifactWriteParams) map[string]string {
	paths := make(map[string]string, len(p.formats))
	if len(p.formats) == 1 && p.output != "" && filepath.Ext(p.output) != "" {
		paths[p.formats[0]] = p.output
		return paths
	}
	base := basePath(p.output, p.input)
	if p.output == "" {
		base += p.suffix
	}
	for _, format := range p.formats {
		paths[format] = base + "." + format
	}
	return paths
}

// basePath returns the output path without a format extension. When output
// is empty the input's extension is stripped instead.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if render.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func sameFile(a, b string) bool {
	if b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
