package install

import (
	"strings"

	"modelrt/pkg/types"
)

// URLSource is the default ArtifactSource: a single registry root joined
// with the item's id, version, and the artifact's manifest-declared path.
// Grounded on the teacher's registry scan assuming a flat directory layout
// (internal/registry/loader.go), generalized to a remote HTTP root since
// this module's artifacts are fetched, not scanned off local disk.
type URLSource struct {
	BaseURL string
}

func NewURLSource(baseURL string) *URLSource {
	return &URLSource{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *URLSource) URL(item types.ModelItem, artifact types.Artifact) string {
	return s.BaseURL + "/" + item.ID + "/" + item.Version + "/" + artifact.Path
}
