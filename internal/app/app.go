// Package app wires the storage, remote and planning components together
// behind the operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-rotation-planner/internal/clipper"
	"meal-rotation-planner/internal/config"
	"meal-rotation-planner/internal/favorites"
	"meal-rotation-planner/internal/metrics"
	"meal-rotation-planner/internal/planner"
	"meal-rotation-planner/internal/recipe"
)

// App holds the application's dependencies.
type App struct {
	cfg             *config.Config
	logger          *zap.Logger
	recipeRepo      *recipe.Repository
	planRepo        *planner.PlanRepository
	metricsStore    *metrics.Store
	favoritesClient favorites.Client
	recipeClipper   *clipper.Clipper
	calc            recipe.ComplexityCalculator
}

// NewApp creates and initializes a new App instance.
func NewApp(
	cfg *config.Config,
	logger *zap.Logger,
	recipeRepo *recipe.Repository,
	planRepo *planner.PlanRepository,
	metricsStore *metrics.Store,
	favoritesClient favorites.Client,
	recipeClipper *clipper.Clipper,
	calc recipe.ComplexityCalculator,
) *App {
	return &App{
		cfg:             cfg,
		logger:          logger,
		recipeRepo:      recipeRepo,
		planRepo:        planRepo,
		metricsStore:    metricsStore,
		favoritesClient: favoritesClient,
		recipeClipper:   recipeClipper,
		calc:            calc,
	}
}

// SyncFavorites pulls the user's recipe library from the favorites
// service into the local database. When userID is set, the user's saved
// preferences are pulled too.
func (a *App) SyncFavorites(ctx context.Context, userID string) error {
	fmt.Println("Fetching recipe library from favorites service...")

	recipes, err := a.favoritesClient.FetchFavorites(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch favorites: %w", err)
	}

	saved := 0
	for _, rec := range recipes {
		if err := a.recipeRepo.Save(ctx, rec); err != nil {
			a.logger.Warn("skipping recipe that failed to save",
				zap.String("id", rec.ID),
				zap.String("title", rec.Title),
				zap.Error(err))
			continue
		}
		saved++
	}
	fmt.Printf("Synced %d of %d recipes.\n", saved, len(recipes))

	if userID != "" {
		prefs, ok, err := a.favoritesClient.FetchPreferences(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to fetch preferences: %w", err)
		}
		if !ok {
			fmt.Printf("No saved preferences for %s on the favorites service.\n", userID)
			return nil
		}
		if err := a.planRepo.SavePreferences(ctx, userID, prefs); err != nil {
			return fmt.Errorf("failed to store preferences: %w", err)
		}
		fmt.Printf("Synced preferences for %s.\n", userID)
	}
	return nil
}

// ImportRecipe clips a recipe from a URL and stores it.
func (a *App) ImportRecipe(ctx context.Context, url string) (*recipe.Recipe, error) {
	fmt.Printf("Importing recipe from %s...\n", url)

	rec, err := a.recipeClipper.ClipURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to clip recipe: %w", err)
	}

	rec.ID = uuid.New().String()
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := a.recipeRepo.Save(ctx, *rec); err != nil {
		return nil, fmt.Errorf("failed to save clipped recipe: %w", err)
	}

	fmt.Printf("Imported %q as %s (%s).\n", rec.Title, rec.ID, rec.Type)
	return rec, nil
}

// GenerateOptions control a single plan generation run.
type GenerateOptions struct {
	Weeks      int
	StartDate  time.Time
	Randomized bool
	Seed       int64
}

// GeneratePlan builds a fresh multi-week plan for the user, persists it
// together with the advanced rotation snapshot, and prints it.
func (a *App) GeneratePlan(ctx context.Context, userID string, opts GenerateOptions) (*planner.MultiWeekMealPlan, error) {
	recipes, prefs, rot, version, err := a.loadPlanningInputs(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := planner.New(a.calc)
	if opts.Randomized {
		p = planner.NewRandomized(a.calc, opts.Seed)
	}

	startCycle := rot.CycleNumber()
	started := time.Now()
	plan, err := p.Generate(recipes, prefs, rot, opts.Weeks, opts.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}
	elapsed := time.Since(started)

	stored, err := a.planRepo.SavePlanAndRotation(ctx, userID, plan, rot.Snapshot(), version)
	if err != nil {
		return nil, fmt.Errorf("failed to persist plan: %w", err)
	}

	if err := a.metricsStore.Record(ctx, metrics.GenerationRun{
		UserID:      userID,
		Weeks:       len(plan.Weeks),
		Slots:       len(plan.Assignments()),
		CycleResets: int(rot.CycleNumber() - startCycle),
		Randomized:  opts.Randomized,
		DurationMS:  elapsed.Milliseconds(),
	}); err != nil {
		a.logger.Warn("failed to record generation run", zap.Error(err))
	}

	fmt.Printf("Generated plan %s: %d weeks starting %s.\n",
		stored.ID, len(plan.Weeks), plan.StartDate.Format("2006-01-02"))
	if err := a.printPlan(plan, recipes); err != nil {
		return nil, err
	}
	return plan, nil
}

// RegenerateWeeks rebuilds the selected weeks of the user's active plan.
// Weeks not selected stay exactly as they were.
func (a *App) RegenerateWeeks(ctx context.Context, userID string, weekNumbers []int) (*planner.MultiWeekMealPlan, error) {
	stored, plan, err := a.loadActivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipes, prefs, rot, version, err := a.loadPlanningInputs(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, err := planner.New(a.calc).Regenerate(plan, weekNumbers, recipes, prefs, rot)
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate weeks %v: %w", weekNumbers, err)
	}

	if _, err := a.planRepo.SavePlanAndRotation(ctx, userID, next, rot.Snapshot(), version); err != nil {
		return nil, fmt.Errorf("failed to persist regenerated plan: %w", err)
	}

	fmt.Printf("Regenerated weeks %v of plan %s.\n", weekNumbers, stored.ID)
	if err := a.printPlan(next, recipes); err != nil {
		return nil, err
	}
	return next, nil
}

// ReplaceMeal swaps one slot of the user's active plan for a fresh pick.
func (a *App) ReplaceMeal(ctx context.Context, userID, dateStr, courseStr string) (*planner.MultiWeekMealPlan, error) {
	course, err := planner.ParseCourse(courseStr)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, &planner.InvalidDateError{Date: dateStr, Reason: "expected format YYYY-MM-DD"}
	}

	_, plan, err := a.loadActivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipes, prefs, rot, version, err := a.loadPlanningInputs(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, err := planner.New(a.calc).ReplaceMeal(plan, date, course, recipes, prefs, rot)
	if err != nil {
		return nil, fmt.Errorf("failed to replace %s on %s: %w", course, dateStr, err)
	}

	if _, err := a.planRepo.SavePlanAndRotation(ctx, userID, next, rot.Snapshot(), version); err != nil {
		return nil, fmt.Errorf("failed to persist updated plan: %w", err)
	}

	slot, _ := next.FindAssignment(date, course)
	fmt.Printf("Replaced %s on %s with %s.\n", course, dateStr, slot.RecipeID)
	return next, nil
}

// SetPreferences stores planning preferences for the user.
func (a *App) SetPreferences(ctx context.Context, userID string, prefs planner.UserPreferences) error {
	if err := a.planRepo.SavePreferences(ctx, userID, prefs); err != nil {
		return err
	}
	fmt.Printf("Saved preferences for %s.\n", userID)
	return nil
}

// ShowActivePlan prints the user's active plan with recipe titles.
func (a *App) ShowActivePlan(ctx context.Context, userID string) error {
	stored, plan, err := a.loadActivePlan(ctx, userID)
	if err != nil {
		return err
	}
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load recipes: %w", err)
	}

	fmt.Printf("Plan %s (%s), %d weeks starting %s, generated %s.\n",
		stored.ID, stored.Status, stored.WeekCount,
		plan.StartDate.Format("2006-01-02"),
		stored.CreatedAt.Format(time.RFC3339))
	return a.printPlan(plan, recipes)
}

// ListPlans prints the user's most recent plans, newest first.
func (a *App) ListPlans(ctx context.Context, userID string, limit int) error {
	plans, err := a.planRepo.ListRecentByUserID(ctx, userID, limit)
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}
	if len(plans) == 0 {
		fmt.Printf("No plans for %s yet.\n", userID)
		return nil
	}

	for _, p := range plans {
		fmt.Printf("%s  %-8s  %d weeks  starts %s  created %s\n",
			p.ID, p.Status, p.WeekCount,
			p.StartDate.Format("2006-01-02"),
			p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// Stats prints generation activity for the last N days plus process
// health.
func (a *App) Stats(ctx context.Context, days int) error {
	summaries, err := a.metricsStore.GetDailySummary(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to load generation stats: %w", err)
	}

	fmt.Printf("Generation runs, last %d days:\n", days)
	if len(summaries) == 0 {
		fmt.Println("  none")
	}
	for _, s := range summaries {
		fmt.Printf("  %s  runs=%d slots=%d cycle_resets=%d avg=%.1fms\n",
			s.Date, s.Runs, s.TotalSlots, s.TotalResets, s.AvgDurationMS)
	}

	health := metrics.GetSysHealth(a.cfg.DBPath)
	fmt.Printf("\nProcess: alloc=%dMB sys=%dMB gc=%d goroutines=%d db=%s\n",
		health.AllocMB, health.SysMB, health.NumGC, health.Goroutines, health.DBSize)
	return nil
}

// loadPlanningInputs gathers everything a planning run needs: the recipe
// library, the user's preferences and their rotation state with its
// storage version.
func (a *App) loadPlanningInputs(ctx context.Context, userID string) ([]recipe.Recipe, planner.UserPreferences, *planner.RotationState, int64, error) {
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return nil, planner.UserPreferences{}, nil, 0, fmt.Errorf("failed to load recipes: %w", err)
	}

	prefs, err := a.planRepo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, planner.UserPreferences{}, nil, 0, err
	}

	snap, version, err := a.planRepo.LatestRotation(ctx, userID)
	if err != nil {
		return nil, planner.UserPreferences{}, nil, 0, err
	}
	rot, err := planner.FromSnapshot(snap)
	if err != nil {
		return nil, planner.UserPreferences{}, nil, 0, err
	}

	return recipes, prefs, rot, version, nil
}

func (a *App) loadActivePlan(ctx context.Context, userID string) (planner.StoredPlan, *planner.MultiWeekMealPlan, error) {
	stored, ok, err := a.planRepo.ActivePlan(ctx, userID)
	if err != nil {
		return planner.StoredPlan{}, nil, err
	}
	if !ok {
		return planner.StoredPlan{}, nil, fmt.Errorf("no active plan for user %s", userID)
	}
	plan, err := stored.Decode()
	if err != nil {
		return planner.StoredPlan{}, nil, err
	}
	return stored, plan, nil
}

// printPlan renders a plan week by week. Every referenced recipe must
// resolve against the library.
func (a *App) printPlan(plan *planner.MultiWeekMealPlan, recipes []recipe.Recipe) error {
	byID := make(map[string]recipe.Recipe, len(recipes))
	for _, rec := range recipes {
		byID[rec.ID] = rec
	}
	title := func(id string) (string, error) {
		rec, ok := byID[id]
		if !ok {
			return "", &planner.RecipeNotFoundError{ID: id}
		}
		return rec.Title, nil
	}

	for i, week := range plan.Weeks {
		fmt.Printf("\nWeek %d (starting %s)\n", i+1, week.StartDate.Format("2006-01-02"))
		lastDay := ""
		for _, asn := range week.Assignments {
			day := asn.Date.Format("Mon 2006-01-02")
			if day != lastDay {
				fmt.Printf("  %s\n", day)
				lastDay = day
			}

			name, err := title(asn.RecipeID)
			if err != nil {
				return err
			}
			line := fmt.Sprintf("    %-12s %s", string(asn.Course)+":", name)
			if asn.AccompanimentID != "" {
				side, err := title(asn.AccompanimentID)
				if err != nil {
					return err
				}
				line += " with " + side
			}
			if asn.PrepRequired {
				line += " (prep ahead)"
			}
			fmt.Println(line)
		}
	}
	return nil
}
