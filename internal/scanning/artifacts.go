package scanning

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
)

// ArtifactPair is the output of one external scan invocation: the
// greppable and XML files nmap writes side by side. Degraded marks
// results produced by a fallback path (phase-two failure in a verified
// scan) so reporting can flag reduced confidence.
type ArtifactPair struct {
	GnmapPath string
	XMLPath   string
	Network   string
	Tier      MethodTier
	Degraded  bool
}

// Exists reports whether both artifact files are present on disk.
func (a ArtifactPair) Exists() bool {
	if _, err := os.Stat(a.GnmapPath); err != nil {
		return false
	}
	_, err := os.Stat(a.XMLPath)
	return err == nil
}

// Markers that distinguish a completed scan from a truncated one.
const (
	gnmapDoneMarker = "Nmap done"
	xmlRunMarker    = "<nmaprun"
)

// Validate checks that both artifacts exist and carry their completion
// markers. Truncated or missing artifacts are a retryable condition.
func (a ArtifactPair) Validate() error {
	gnmap, err := os.ReadFile(a.GnmapPath)
	if err != nil {
		return errors.WrapScanErrorWithTarget(errors.CodeArtifactInvalid,
			"cannot read gnmap artifact", a.Network, err)
	}
	if !strings.Contains(string(gnmap), gnmapDoneMarker) {
		return errors.NewScanErrorWithTarget(errors.CodeArtifactInvalid,
			"gnmap artifact is incomplete", a.Network)
	}

	xml, err := os.ReadFile(a.XMLPath)
	if err != nil {
		return errors.WrapScanErrorWithTarget(errors.CodeArtifactInvalid,
			"cannot read xml artifact", a.Network, err)
	}
	if !strings.Contains(string(xml), xmlRunMarker) {
		return errors.NewScanErrorWithTarget(errors.CodeArtifactInvalid,
			"xml artifact is incomplete", a.Network)
	}
	return nil
}

// ArtifactRegistry tracks every temporary file a run creates so cleanup
// happens exactly once, even when scans fail partway through.
type ArtifactRegistry struct {
	mu    sync.Mutex
	dir   string
	paths []string
}

// NewArtifactRegistry creates a registry rooted at a fresh temp
// directory for this run.
func NewArtifactRegistry() (*ArtifactRegistry, error) {
	dir, err := os.MkdirTemp("", "segmenta-")
	if err != nil {
		return nil, errors.WrapScanError(errors.CodeScanFailed,
			"cannot create artifact directory", err)
	}
	return &ArtifactRegistry{dir: dir}, nil
}

// NewPair reserves a fresh artifact pair for one scan invocation. The
// label becomes part of the file names to keep artifacts attributable.
func (r *ArtifactRegistry) NewPair(network string, tier MethodTier) ArtifactPair {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()[:8]
	base := filepath.Join(r.dir, fmt.Sprintf("scan_%s_%s", sanitizeLabel(network), id))
	pair := ArtifactPair{
		GnmapPath: base + ".gnmap",
		XMLPath:   base + ".xml",
		Network:   network,
		Tier:      tier,
	}
	r.paths = append(r.paths, pair.GnmapPath, pair.XMLPath)
	return pair
}

// TrackFile registers an extra temporary file (e.g. a target list) for
// cleanup.
func (r *ArtifactRegistry) TrackFile(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Dir returns the registry's temp directory.
func (r *ArtifactRegistry) Dir() string {
	return r.dir
}

// Cleanup removes all tracked files and the run directory. Errors are
// logged, not returned: cleanup never masks the scan outcome.
func (r *ArtifactRegistry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, path := range r.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove scan artifact", "path", path, "error", err)
		}
	}
	r.paths = nil

	if r.dir != "" {
		if err := os.RemoveAll(r.dir); err != nil {
			logging.Warn("failed to remove artifact directory", "dir", r.dir, "error", err)
		}
		r.dir = ""
	}
}

// sanitizeLabel makes a network spec safe for use in a file name.
func sanitizeLabel(network string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_", " ", "")
	return replacer.Replace(network)
}
