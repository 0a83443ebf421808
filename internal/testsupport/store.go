package testsupport

import (
	"testing"

	"voicetovision/internal/config"
	"voicetovision/internal/ideas"
	"voicetovision/internal/logging"
)

// MustOpenStore opens an idea store for tests and closes it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ideas.Store {
	t.Helper()

	store, err := ideas.Open(cfg, logging.NewNop(), logging.NewNopAudit())
	if err != nil {
		t.Fatalf("open idea store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close idea store: %v", err)
		}
	})
	return store
}

// SampleAnalysis returns a complete analysis record for tests. The name can
// be overridden per call.
func SampleAnalysis(name string) ideas.Analysis {
	return ideas.Analysis{
		Name:          name,
		Summary:       "Aplicación para organizar ideas grabadas por voz",
		Explanation:   "Un servicio que convierte notas de voz en fichas estructuradas listas para revisar.",
		Type:          "SaaS",
		Tags:          []string{"productividad", "voz"},
		MaturityLevel: "concepto",
		Viability:     7,
		NextSteps:     []string{"Validar con usuarios"},
		Risks:         []string{"Competencia establecida"},
	}
}
