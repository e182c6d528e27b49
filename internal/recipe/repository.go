package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository is a database-backed store for recipes. Each row keeps the
// full recipe as a JSON document next to the columns the queries filter on.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts or updates a recipe.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid recipe: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, recipe_type, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			recipe_type = excluded.recipe_type,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		rec.ID, string(rec.Type), string(data), dbUpdatedAt(rec))
	if err != nil {
		return fmt.Errorf("failed to save recipe %s: %w", rec.ID, err)
	}
	return nil
}

// SaveAll upserts a batch of recipes inside one transaction. Either every
// recipe lands or none does.
func (r *Repository) SaveAll(ctx context.Context, recs []Recipe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipes (id, recipe_type, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			recipe_type = excluded.recipe_type,
			data = excluded.data,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("invalid recipe: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal recipe %s: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, string(rec.Type), string(data), dbUpdatedAt(rec)); err != nil {
			return fmt.Errorf("failed to save recipe %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe batch: %w", err)
	}
	return nil
}

// Get retrieves a recipe by its ID. A missing recipe returns (nil, nil).
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM recipes WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %s: %w", id, err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe %s: %w", id, err)
	}
	return &rec, nil
}

// List retrieves all recipes ordered by ID so callers see a stable order.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	return scanRecipes(rows)
}

// ListByType retrieves all recipes of one type ordered by ID.
func (r *Repository) ListByType(ctx context.Context, t Type) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM recipes WHERE recipe_type = ? ORDER BY id`, string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s recipes: %w", t, err)
	}
	defer rows.Close()

	return scanRecipes(rows)
}

// Count returns the number of stored recipes.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// Delete removes a recipe. Deleting a missing recipe is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete recipe %s: %w", id, err)
	}
	return nil
}

func scanRecipes(rows *sql.Rows) ([]Recipe, error) {
	var recipes []Recipe
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		var rec Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe row: %w", err)
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recipe rows: %w", err)
	}
	return recipes, nil
}

func dbUpdatedAt(rec Recipe) time.Time {
	if rec.UpdatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, rec.UpdatedAt); err == nil {
			return parsed
		}
	}
	return time.Now().UTC()
}
