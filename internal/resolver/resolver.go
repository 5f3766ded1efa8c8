// Package resolver turns an artifact identifier into its concrete remote
// address and local staging path by expanding the source's templates.
package resolver

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/floodcast/hydrofetch/internal/sources"
)

// ResolutionError reports that an address could not be built for one
// artifact. It fails that artifact only; the rest of the run proceeds.
type ResolutionError struct {
	Artifact sources.ArtifactID
	Reason   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %s", e.Artifact, e.Reason)
}

// Resolver expands source templates against a staging directory root.
type Resolver struct {
	// OutputDir is the root of the local staging tree. Artifacts land in
	// OutputDir/<source name>/<filename>.
	OutputDir string
}

// New creates a Resolver rooted at outputDir.
func New(outputDir string) *Resolver {
	return &Resolver{OutputDir: outputDir}
}

// Resolve produces the remote URL and local destination path for id. Both
// are fully determined by the identifier, so re-running a plan targets the
// same destinations; that is the basis of idempotent re-downloads. A
// template referencing a component the identifier cannot supply yields a
// ResolutionError rather than a malformed address.
func (r *Resolver) Resolve(d *sources.Descriptor, id sources.ArtifactID) (remoteURL, localPath string, err error) {
	filename, err := r.expand(d.FilenameTemplate, d, id, "")
	if err != nil {
		return "", "", err
	}

	remoteURL, err = r.expand(d.URLTemplate, d, id, filename)
	if err != nil {
		return "", "", err
	}
	if _, perr := url.ParseRequestURI(remoteURL); perr != nil {
		return "", "", &ResolutionError{Artifact: id, Reason: fmt.Sprintf("malformed address %q", remoteURL)}
	}

	localPath = filepath.Join(r.OutputDir, d.Name, filename)
	return remoteURL, localPath, nil
}

func (r *Resolver) expand(tmpl string, d *sources.Descriptor, id sources.ArtifactID, filename string) (string, error) {
	cycle := id.Cycle.UTC()

	if strings.Contains(tmpl, "{param}") && id.Parameter == "" {
		return "", &ResolutionError{Artifact: id, Reason: "template requires a parameter code"}
	}

	rep := strings.NewReplacer(
		"{yyyymmdd}", cycle.Format("20060102"),
		"{yyyy}", cycle.Format("2006"),
		"{mm}", cycle.Format("01"),
		"{dd}", cycle.Format("02"),
		"{HH}", fmt.Sprintf("%02d", cycle.Hour()),
		"{LLL}", fmt.Sprintf("%03d", id.LeadHours),
		"{LL}", fmt.Sprintf("%02d", id.LeadHours),
		"{L}", fmt.Sprintf("%d", id.LeadHours),
		"{param}", id.Parameter,
		"{filename}", filename,
	)
	out := rep.Replace(tmpl)

	// Anything still in braces is a placeholder we do not understand.
	if i := strings.IndexByte(out, '{'); i >= 0 {
		j := strings.IndexByte(out[i:], '}')
		leftover := out[i:]
		if j >= 0 {
			leftover = out[i : i+j+1]
		}
		return "", &ResolutionError{Artifact: id, Reason: fmt.Sprintf("unknown placeholder %s in template %q", leftover, tmpl)}
	}
	return out, nil
}
