package ideas

import (
	"time"
)

// Analysis is the structured output of the external analysis model. Field
// names follow the persisted analisis.json schema.
type Analysis struct {
	Name          string   `json:"nombre_idea"`
	Summary       string   `json:"resumen"`
	Explanation   string   `json:"explicacion"`
	Type          string   `json:"tipo"`
	Tags          []string `json:"tags"`
	MaturityLevel string   `json:"nivel_madurez"`
	Viability     int      `json:"viabilidad"`
	NextSteps     []string `json:"siguientes_pasos"`
	Risks         []string `json:"riesgos"`
}

// Idea is one versioned, named record bundling a transcript, structured
// analysis, and source audio under a single directory.
type Idea struct {
	UUID       string
	FolderName string
	Version    int
	CreatedAt  time.Time
	CreatedBy  string
	Analysis   Analysis
	// Files holds the manifest of relative paths inside the idea folder,
	// in creation order.
	Files []string
}

// CreateRequest carries everything needed to materialize a new idea.
type CreateRequest struct {
	// Name is the human-readable idea name; when empty the analysis name
	// is used.
	Name       string
	Creator    string
	Transcript string
	// AudioPath points at the source recording; empty when no audio is
	// to be archived.
	AudioPath string
	Analysis  Analysis
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Type          string
	MaturityLevel string
	Creator       string
	// MinViability/MaxViability bound the 0-10 viability score; use -1 to
	// leave a bound open.
	MinViability  int
	MaxViability  int
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Limit         int
}

// NewFilter returns a Filter with open viability bounds.
func NewFilter() Filter {
	return Filter{MinViability: -1, MaxViability: -1}
}
