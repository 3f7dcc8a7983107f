package stage

import (
	"sort"
	"strings"

	"github.com/rm-hull/pixel-filters/internal/png"
)

var named = map[string]png.PipelineStage{
	"redden":   &ReddenStage{},
	"reds":     &ReddenStage{},
	"invert":   &InvertStage{},
	"quantize": &QuantizeStage{},
	"mean":     &MeanStage{},
}

// Named looks up one of the per-pixel filters by name, case-insensitively.
// The stages are stateless and safe to share between goroutines.
func Named(name string) (png.PipelineStage, bool) {
	s, ok := named[strings.ToLower(name)]
	return s, ok
}

// Names lists the accepted filter names.
func Names() []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
