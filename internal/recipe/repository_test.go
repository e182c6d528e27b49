package recipe

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"meal-rotation-planner/internal/database"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "recipes-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.SQL)
}

func TestRepositorySaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	want := Recipe{
		ID:                "rec-001",
		Title:             "Mushroom Risotto",
		Type:              TypeMainCourse,
		Cuisine:           CuisineItalian,
		IngredientsCount:  9,
		InstructionsCount: 6,
		PrepTimeMinutes:   15,
		CookTimeMinutes:   35,
		DietaryTags:       []DietaryTag{TagVegetarian, TagGlutenFree},
		SourceURL:         "https://example.com/risotto",
		UpdatedAt:         "2026-03-02T10:00:00Z",
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Get(ctx, "rec-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, want, *got)

	missing, err := repo.Get(ctx, "rec-404")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRepositorySaveUpserts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec := Recipe{
		ID:                "rec-001",
		Title:             "Lentil Soup",
		Type:              TypeAppetizer,
		IngredientsCount:  6,
		InstructionsCount: 4,
	}
	require.NoError(t, repo.Save(ctx, rec))

	rec.Title = "Spiced Lentil Soup"
	rec.IngredientsCount = 8
	require.NoError(t, repo.Save(ctx, rec))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	got, err := repo.Get(ctx, "rec-001")
	require.NoError(t, err)
	require.Equal(t, "Spiced Lentil Soup", got.Title)
	require.Equal(t, 8, got.IngredientsCount)
}

func TestRepositorySaveAllAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	batch := []Recipe{
		{ID: "rec-03", Title: "Tiramisu", Type: TypeDessert, IngredientsCount: 7, InstructionsCount: 5},
		{ID: "rec-01", Title: "Bruschetta", Type: TypeAppetizer, IngredientsCount: 5, InstructionsCount: 3},
		{ID: "rec-02", Title: "Carbonara", Type: TypeMainCourse, IngredientsCount: 6, InstructionsCount: 4},
		{ID: "rec-04", Title: "Garden Salad", Type: TypeAccompaniment, AccompanimentCategory: CategorySalad, IngredientsCount: 4, InstructionsCount: 2},
	}
	require.NoError(t, repo.SaveAll(ctx, batch))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "rec-01", all[0].ID)
	require.Equal(t, "rec-02", all[1].ID)
	require.Equal(t, "rec-03", all[2].ID)
	require.Equal(t, "rec-04", all[3].ID)

	mains, err := repo.ListByType(ctx, TypeMainCourse)
	require.NoError(t, err)
	require.Len(t, mains, 1)
	require.Equal(t, "Carbonara", mains[0].Title)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestRepositorySaveAllRollsBackOnInvalid(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	batch := []Recipe{
		{ID: "rec-01", Title: "Bruschetta", Type: TypeAppetizer, IngredientsCount: 5, InstructionsCount: 3},
		{ID: "rec-02", Title: "", Type: TypeMainCourse, IngredientsCount: 6, InstructionsCount: 4},
	}
	err := repo.SaveAll(ctx, batch)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no title")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestRepositorySaveRejectsInvalid(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.Save(ctx, Recipe{ID: "rec-01", Title: "Mystery Dish", Type: "brunch"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown type")
}

func TestRepositoryDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec := Recipe{
		ID:                "rec-01",
		Title:             "Naan",
		Type:              TypeAccompaniment,
		IngredientsCount:  5,
		InstructionsCount: 3,
	}
	require.NoError(t, repo.Save(ctx, rec))
	require.NoError(t, repo.Delete(ctx, "rec-01"))

	got, err := repo.Get(ctx, "rec-01")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, repo.Delete(ctx, "rec-01"))
}
