package repos

import (
	"context"
	"testing"

	"github.com/personaforge/personaforge/internal/types"
)

func seedCharacter(t *testing.T, repo CharacterRepo, name, normalized string) *types.Character {
	t.Helper()
	ch := &types.Character{Name: name, NormalizedName: normalized, IsActive: true}
	if err := repo.Create(context.Background(), nil, ch); err != nil {
		t.Fatalf("create character: %v", err)
	}
	return ch
}

func TestCharacterNormalizedNameLookup(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewCharacterRepo(gdb, testLogger(t))
	ctx := context.Background()

	seedCharacter(t, repo, "Nova", "nova")

	found, err := repo.GetByNormalizedName(ctx, nil, "nova")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found == nil || found.Name != "Nova" {
		t.Fatalf("expected to find Nova, got %+v", found)
	}

	missing, err := repo.GetByNormalizedName(ctx, nil, "ghost")
	if err != nil {
		t.Fatalf("missing lookup should not error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing name, got %+v", missing)
	}
}

func TestCharacterNormalizedNameUnique(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewCharacterRepo(gdb, testLogger(t))
	ctx := context.Background()

	seedCharacter(t, repo, "Nova", "nova")
	err := repo.Create(ctx, nil, &types.Character{Name: "nova!", NormalizedName: "nova"})
	if err == nil {
		t.Fatalf("expected unique violation on normalized_name")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestReplaceIsDeleteThenInsert(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewCharacterRepo(gdb, testLogger(t))
	ctx := context.Background()

	ch := seedCharacter(t, repo, "Nova", "nova")

	first := []*types.BackgroundEntry{
		{CharacterID: ch.ID, Category: "career", Title: "navigator"},
		{CharacterID: ch.ID, Category: "family", Title: "only child"},
		{CharacterID: ch.ID, Category: "origin", Title: "mars colony"},
	}
	if err := repo.ReplaceBackground(ctx, nil, ch.ID, first); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	second := []*types.BackgroundEntry{
		{CharacterID: ch.ID, Category: "career", Title: "captain"},
	}
	if err := repo.ReplaceBackground(ctx, nil, ch.ID, second); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	rows, err := repo.GetBackground(ctx, nil, ch.ID)
	if err != nil {
		t.Fatalf("get background: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after replace, got %d", len(rows))
	}
	if rows[0].Title != "captain" {
		t.Fatalf("expected replacement row, got %+v", rows[0])
	}

	// Empty replacement clears the collection.
	if err := repo.ReplaceBackground(ctx, nil, ch.ID, nil); err != nil {
		t.Fatalf("empty replace: %v", err)
	}
	rows, err = repo.GetBackground(ctx, nil, ch.ID)
	if err != nil {
		t.Fatalf("get background: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows after clearing, got %d", len(rows))
	}
}

func TestReplaceScopedToCharacter(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewCharacterRepo(gdb, testLogger(t))
	ctx := context.Background()

	nova := seedCharacter(t, repo, "Nova", "nova")
	vega := seedCharacter(t, repo, "Vega", "vega")

	if err := repo.ReplaceValues(ctx, nil, nova.ID, []*types.CharacterValue{
		{CharacterID: nova.ID, ValueText: "curiosity"},
	}); err != nil {
		t.Fatalf("replace nova values: %v", err)
	}
	if err := repo.ReplaceValues(ctx, nil, vega.ID, []*types.CharacterValue{
		{CharacterID: vega.ID, ValueText: "loyalty"},
	}); err != nil {
		t.Fatalf("replace vega values: %v", err)
	}

	rows, err := repo.GetValues(ctx, nil, nova.ID)
	if err != nil {
		t.Fatalf("get nova values: %v", err)
	}
	if len(rows) != 1 || rows[0].ValueText != "curiosity" {
		t.Fatalf("nova's values were disturbed: %+v", rows)
	}
}

func TestSpeechPatternOrdering(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewCharacterRepo(gdb, testLogger(t))
	ctx := context.Background()

	ch := seedCharacter(t, repo, "Nova", "nova")
	rows := []*types.SpeechPattern{
		{CharacterID: ch.ID, PatternType: "catchphrase", PatternValue: "later", Priority: 9},
		{CharacterID: ch.ID, PatternType: "catchphrase", PatternValue: "first", Priority: 1},
		{CharacterID: ch.ID, PatternType: "catchphrase", PatternValue: "middle", Priority: 5},
	}
	if err := repo.ReplaceSpeechPatterns(ctx, nil, ch.ID, rows); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := repo.GetSpeechPatterns(ctx, nil, ch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[0].PatternValue != "first" || got[1].PatternValue != "middle" || got[2].PatternValue != "later" {
		t.Fatalf("expected priority-ascending order, got %+v", got)
	}
}

func TestDeactivate(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewCharacterRepo(gdb, testLogger(t))
	ctx := context.Background()

	ch := seedCharacter(t, repo, "Nova", "nova")
	if err := repo.Deactivate(ctx, nil, ch.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := repo.List(ctx, nil, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active characters, got %d", len(active))
	}

	all, err := repo.List(ctx, nil, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("deactivate must not delete the row, got %d rows", len(all))
	}
}
