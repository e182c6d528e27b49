package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSnapshotConflict is returned when a concurrent run persisted a newer
// rotation snapshot first. The caller should reload and rerun.
var ErrSnapshotConflict = errors.New("rotation snapshot was updated by another run")

// StoredPlan is a persisted multi-week plan row. PlanData holds the full
// MultiWeekMealPlan as JSON.
type StoredPlan struct {
	ID        uuid.UUID
	UserID    string
	Status    PlanStatus
	WeekCount int
	StartDate time.Time
	PlanData  []byte
	CreatedAt time.Time
}

// Decode unmarshals the stored plan document.
func (sp StoredPlan) Decode() (*MultiWeekMealPlan, error) {
	var plan MultiWeekMealPlan
	if err := json.Unmarshal(sp.PlanData, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan %s: %w", sp.ID, err)
	}
	return &plan, nil
}

// PlanRepository is a database-backed store for plans, rotation
// snapshots and preferences. Rotation rows carry a version counter so
// concurrent runs for one user cannot silently overwrite each other.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// SavePlanAndRotation persists a finished run in one transaction: the
// previous active plan is archived, the new plan becomes active, and the
// rotation snapshot advances from expectedVersion. Any failure rolls the
// whole run back.
func (r *PlanRepository) SavePlanAndRotation(ctx context.Context, userID string, plan *MultiWeekMealPlan, snap RotationSnapshot, expectedVersion int64) (StoredPlan, error) {
	planData, err := json.Marshal(plan)
	if err != nil {
		return StoredPlan{}, fmt.Errorf("failed to marshal plan: %w", err)
	}
	snapData, err := json.Marshal(snap)
	if err != nil {
		return StoredPlan{}, fmt.Errorf("failed to marshal rotation snapshot: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return StoredPlan{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		`UPDATE meal_plans SET status = ? WHERE user_id = ? AND status = ?`,
		string(StatusArchived), userID, string(StatusActive)); err != nil {
		return StoredPlan{}, fmt.Errorf("failed to archive previous plans: %w", err)
	}

	stored := StoredPlan{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    StatusActive,
		WeekCount: len(plan.Weeks),
		StartDate: plan.StartDate,
		PlanData:  planData,
		CreatedAt: now,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meal_plans (id, user_id, status, week_count, start_date, plan_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stored.ID.String(), stored.UserID, string(stored.Status), stored.WeekCount,
		stored.StartDate, string(planData), now); err != nil {
		return StoredPlan{}, fmt.Errorf("failed to insert plan: %w", err)
	}

	if expectedVersion == 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rotation_snapshots (user_id, version, snapshot, updated_at)
			VALUES (?, 1, ?, ?)`,
			userID, string(snapData), now); err != nil {
			// A first write racing another first write lands here.
			return StoredPlan{}, fmt.Errorf("%w: %v", ErrSnapshotConflict, err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE rotation_snapshots SET version = ?, snapshot = ?, updated_at = ?
			WHERE user_id = ? AND version = ?`,
			expectedVersion+1, string(snapData), now, userID, expectedVersion)
		if err != nil {
			return StoredPlan{}, fmt.Errorf("failed to update rotation snapshot: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return StoredPlan{}, fmt.Errorf("failed to read update result: %w", err)
		}
		if affected == 0 {
			return StoredPlan{}, ErrSnapshotConflict
		}
	}

	if err := tx.Commit(); err != nil {
		return StoredPlan{}, fmt.Errorf("failed to commit plan: %w", err)
	}
	return stored, nil
}

// LatestRotation returns the user's rotation snapshot and its version.
// A user with no history gets an empty snapshot at version 0.
func (r *PlanRepository) LatestRotation(ctx context.Context, userID string) (RotationSnapshot, int64, error) {
	var (
		version int64
		data    string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT version, snapshot FROM rotation_snapshots WHERE user_id = ?`, userID).
		Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return RotationSnapshot{}, 0, nil
	}
	if err != nil {
		return RotationSnapshot{}, 0, fmt.Errorf("failed to load rotation snapshot for user %s: %w", userID, err)
	}

	var snap RotationSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return RotationSnapshot{}, 0, fmt.Errorf("failed to unmarshal rotation snapshot for user %s: %w", userID, err)
	}
	return snap, version, nil
}

// ActivePlan returns the user's active plan, or (zero, false) when none
// exists.
func (r *PlanRepository) ActivePlan(ctx context.Context, userID string) (StoredPlan, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, week_count, start_date, plan_data, created_at
		FROM meal_plans WHERE user_id = ? AND status = ?`,
		userID, string(StatusActive))
	plan, err := scanStoredPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredPlan{}, false, nil
	}
	if err != nil {
		return StoredPlan{}, false, fmt.Errorf("failed to load active plan for user %s: %w", userID, err)
	}
	return plan, true, nil
}

// GetPlan returns one plan by ID, or (zero, false) when it is missing.
func (r *PlanRepository) GetPlan(ctx context.Context, id uuid.UUID) (StoredPlan, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, week_count, start_date, plan_data, created_at
		FROM meal_plans WHERE id = ?`, id.String())
	plan, err := scanStoredPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredPlan{}, false, nil
	}
	if err != nil {
		return StoredPlan{}, false, fmt.Errorf("failed to load plan %s: %w", id, err)
	}
	return plan, true, nil
}

// ListRecentByUserID retrieves the N most recent plans for a user,
// newest first.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, status, week_count, start_date, plan_data, created_at
		FROM meal_plans WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		plan, err := scanStoredPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan rows: %w", err)
	}
	return plans, nil
}

// SavePreferences stores the user's preference document.
func (r *PlanRepository) SavePreferences(ctx context.Context, userID string, prefs UserPreferences) error {
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, prefs, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET prefs = excluded.prefs, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save preferences for user %s: %w", userID, err)
	}
	return nil
}

// GetPreferences returns the user's stored preferences, falling back to
// the defaults when none were saved.
func (r *PlanRepository) GetPreferences(ctx context.Context, userID string) (UserPreferences, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT prefs FROM user_preferences WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return UserPreferences{}, fmt.Errorf("failed to load preferences for user %s: %w", userID, err)
	}

	var prefs UserPreferences
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		return UserPreferences{}, fmt.Errorf("failed to unmarshal preferences for user %s: %w", userID, err)
	}
	return prefs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoredPlan(row rowScanner) (StoredPlan, error) {
	var (
		plan   StoredPlan
		id     string
		status string
		data   string
	)
	if err := row.Scan(&id, &plan.UserID, &status, &plan.WeekCount, &plan.StartDate, &data, &plan.CreatedAt); err != nil {
		return StoredPlan{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return StoredPlan{}, fmt.Errorf("malformed plan id %q: %w", id, err)
	}
	plan.ID = parsed
	plan.Status = PlanStatus(status)
	plan.PlanData = []byte(data)
	return plan, nil
}
