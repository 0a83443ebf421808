package ideas_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"voicetovision/internal/ideas"
	"voicetovision/internal/services"
	"voicetovision/internal/testsupport"
)

func sampleRequest(name string) ideas.CreateRequest {
	return ideas.CreateRequest{
		Creator:    "tester",
		Transcript: "Quiero construir una aplicación para organizar ideas.",
		Analysis:   testsupport.SampleAnalysis(name),
	}
}

func TestCreateMaterializesFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	idea, err := store.Create(context.Background(), sampleRequest("Mi App Genial"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if idea.FolderName != "Mi_App_Genial" {
		t.Fatalf("folder name = %q, want Mi_App_Genial", idea.FolderName)
	}
	if idea.Version != 1 {
		t.Fatalf("version = %d, want 1", idea.Version)
	}
	if idea.UUID == "" {
		t.Fatal("expected UUID to be assigned")
	}

	dir := store.Dir(idea)
	for _, name := range []string{"transcripcion.txt", "analisis.json", "resumen.txt", "metadata.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s in idea folder: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var meta struct {
		System struct {
			UUID       string `json:"uuid"`
			FolderName string `json:"nombre_carpeta"`
		} `json:"sistema"`
		Analysis ideas.Analysis `json:"analisis"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.System.UUID != idea.UUID {
		t.Errorf("metadata uuid = %q, want %q", meta.System.UUID, idea.UUID)
	}
	if meta.Analysis.Name != "Mi App Genial" {
		t.Errorf("metadata analysis name = %q", meta.Analysis.Name)
	}
}

func TestCreateArchivesAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	audio := testsupport.WriteAudioFixture(t, t.TempDir(), "nota.ogg", 2048)
	req := sampleRequest("Con Audio")
	req.AudioPath = audio

	idea, err := store.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	archived := filepath.Join(store.Dir(idea), "audio_original.ogg")
	info, err := os.Stat(archived)
	if err != nil {
		t.Fatalf("expected archived audio: %v", err)
	}
	if info.Size() != 2048 {
		t.Errorf("archived size = %d, want 2048", info.Size())
	}

	found := false
	for _, f := range idea.Files {
		if f == "audio_original.ogg" {
			found = true
		}
	}
	if !found {
		t.Errorf("manifest %v missing audio entry", idea.Files)
	}
}

func TestCreateVersionsDuplicateNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := store.Create(context.Background(), sampleRequest("MiApp"))
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := store.Create(context.Background(), sampleRequest("MiApp"))
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if first.FolderName != "MiApp" {
		t.Errorf("first folder = %q, want MiApp", first.FolderName)
	}
	if second.FolderName != "MiApp_v2" {
		t.Errorf("second folder = %q, want MiApp_v2", second.FolderName)
	}
	if second.Version != 2 {
		t.Errorf("second version = %d, want 2", second.Version)
	}
}

func TestConcurrentCreatesNeverCollide(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	const workers = 6
	results := make([]*ideas.Idea, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.Create(context.Background(), sampleRequest("Carrera"))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if seen[results[i].FolderName] {
			t.Fatalf("duplicate folder name %q", results[i].FolderName)
		}
		seen[results[i].FolderName] = true
	}
}

func TestCreateRejectsInvalidAnalysis(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	req := sampleRequest("Incompleta")
	req.Analysis.Summary = ""
	if _, err := store.Create(context.Background(), req); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	req = sampleRequest("Puntaje")
	req.Analysis.Viability = 11
	if _, err := store.Create(context.Background(), req); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for viability, got %v", err)
	}
}

func TestCreateSanitizesHostileNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	idea, err := store.Create(context.Background(), sampleRequest("../../etc/passwd"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	dir := store.Dir(idea)
	rel, err := filepath.Rel(cfg.System.BaseFolder, dir)
	if err != nil || rel == ".." || filepath.IsAbs(rel) {
		t.Fatalf("idea folder %q escaped base folder", dir)
	}
	if filepath.Dir(rel) != "." {
		t.Fatalf("idea folder %q is nested outside base", rel)
	}
}

func TestRename(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	idea, err := store.Create(ctx, sampleRequest("Original"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldDir := store.Dir(idea)

	renamed, err := store.Rename(ctx, idea.UUID, "Nombre Nuevo")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.FolderName != "Nombre_Nuevo" {
		t.Fatalf("folder = %q, want Nombre_Nuevo", renamed.FolderName)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Errorf("old folder still present: %v", err)
	}
	if _, err := os.Stat(store.Dir(renamed)); err != nil {
		t.Errorf("new folder missing: %v", err)
	}

	fetched, err := store.GetByUUID(ctx, idea.UUID)
	if err != nil {
		t.Fatalf("GetByUUID after rename: %v", err)
	}
	if fetched.FolderName != "Nombre_Nuevo" {
		t.Errorf("index folder = %q", fetched.FolderName)
	}
}

func TestCreateResolvesFolderInsideBase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	idea, err := store.Create(context.Background(), sampleRequest("Bien Ubicada"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	dir := store.Dir(idea)
	if !strings.HasPrefix(dir, store.BaseDir()+string(filepath.Separator)) {
		t.Fatalf("idea dir %q not under base %q", dir, store.BaseDir())
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("idea folder missing at resolved path: %v", err)
	}
	// The folder must live under the base, not wherever the process runs.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cwd, idea.FolderName)); !os.IsNotExist(err) {
		t.Errorf("idea folder leaked into working directory: %v", err)
	}
}

func TestCreateRollbackSparesExistingFolders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// A folder on disk that the index knows nothing about.
	stray := filepath.Join(store.BaseDir(), "Ocupada")
	if err := os.Mkdir(stray, 0o755); err != nil {
		t.Fatal(err)
	}
	sentinel := filepath.Join(stray, "contenido.txt")
	if err := os.WriteFile(sentinel, []byte("no borrar"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := sampleRequest("Ocupada")
	req.AudioPath = filepath.Join(t.TempDir(), "no-existe.mp3")
	_, err := store.Create(ctx, req)
	if err == nil {
		t.Fatal("expected Create to fail with a missing audio source")
	}

	if _, err := os.Stat(sentinel); err != nil {
		t.Errorf("rollback removed a folder it did not create: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.BaseDir(), "Ocupada_v2")); !os.IsNotExist(err) {
		t.Errorf("failed create left its folder behind: %v", err)
	}
}

func TestRenameDisplayNameOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	idea, err := store.Create(ctx, sampleRequest("Café Móvil"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if idea.FolderName != "Cafe_Movil" {
		t.Fatalf("folder = %q, want Cafe_Movil", idea.FolderName)
	}

	// Same sanitized form, different display name: the folder stays put
	// but the record changes.
	renamed, err := store.Rename(ctx, idea.UUID, "Cafe Movil")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.FolderName != "Cafe_Movil" {
		t.Errorf("folder = %q, want unchanged Cafe_Movil", renamed.FolderName)
	}
	if renamed.Analysis.Name != "Cafe Movil" {
		t.Errorf("display name = %q, want Cafe Movil", renamed.Analysis.Name)
	}

	fetched, err := store.GetByUUID(ctx, idea.UUID)
	if err != nil {
		t.Fatalf("GetByUUID: %v", err)
	}
	if fetched.Analysis.Name != "Cafe Movil" {
		t.Errorf("index display name = %q, want Cafe Movil", fetched.Analysis.Name)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(fetched), "metadata.json"))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var meta struct {
		Analysis ideas.Analysis `json:"analisis"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.Analysis.Name != "Cafe Movil" {
		t.Errorf("metadata display name = %q, want Cafe Movil", meta.Analysis.Name)
	}
}

func TestRenameFailsOnCollision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Create(ctx, sampleRequest("Ocupado")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	victim, err := store.Create(ctx, sampleRequest("Libre"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := store.Rename(ctx, victim.UUID, "Ocupado"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error on collision, got %v", err)
	}

	// The victim must be untouched after the failed rename.
	fetched, err := store.GetByUUID(ctx, victim.UUID)
	if err != nil {
		t.Fatalf("GetByUUID: %v", err)
	}
	if fetched.FolderName != "Libre" {
		t.Errorf("folder = %q, want Libre", fetched.FolderName)
	}
	if _, err := os.Stat(store.Dir(fetched)); err != nil {
		t.Errorf("victim folder missing after failed rename: %v", err)
	}
}

func TestDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	idea, err := store.Create(ctx, sampleRequest("Temporal"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	dir := store.Dir(idea)

	if err := store.Delete(ctx, idea.UUID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("folder still present after delete")
	}
	if _, err := store.GetByUUID(ctx, idea.UUID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	if err := store.Delete(ctx, idea.UUID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	saas := sampleRequest("Producto SaaS")
	saas.Analysis.Type = "SaaS"
	saas.Analysis.Viability = 8
	app := sampleRequest("Aplicación Móvil")
	app.Analysis.Type = "App"
	app.Analysis.Viability = 4

	if _, err := store.Create(ctx, saas); err != nil {
		t.Fatalf("Create saas: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Create(ctx, app); err != nil {
		t.Fatalf("Create app: %v", err)
	}

	filter := ideas.NewFilter()
	filter.Type = "SaaS"
	got, err := store.List(ctx, filter)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Analysis.Type != "SaaS" {
		t.Fatalf("type filter returned %d results", len(got))
	}

	filter = ideas.NewFilter()
	filter.MinViability = 5
	got, err = store.List(ctx, filter)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Analysis.Viability != 8 {
		t.Fatalf("viability filter returned %d results", len(got))
	}

	all, err := store.List(ctx, ideas.NewFilter())
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 ideas, got %d", len(all))
	}
	if !all[0].CreatedAt.After(all[1].CreatedAt) {
		t.Errorf("results not newest first")
	}

	count, err := store.Count(ctx, ideas.NewFilter())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestGetByFolderName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	idea, err := store.Create(ctx, sampleRequest("Buscable"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	fetched, err := store.GetByFolderName(ctx, "Buscable")
	if err != nil {
		t.Fatalf("GetByFolderName: %v", err)
	}
	if fetched.UUID != idea.UUID {
		t.Errorf("uuid = %q, want %q", fetched.UUID, idea.UUID)
	}

	if _, err := store.GetByFolderName(ctx, "NoExiste"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCollectStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, name := range []string{"Uno", "Dos"} {
		req := sampleRequest(name)
		if _, err := store.Create(ctx, req); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	stats, err := store.CollectStats(ctx)
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.ByType["SaaS"] != 2 {
		t.Errorf("ByType = %v", stats.ByType)
	}
	if stats.Newest.IsZero() {
		t.Errorf("newest timestamp not recorded")
	}
}
