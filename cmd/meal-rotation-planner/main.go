package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"meal-rotation-planner/internal/app"
	"meal-rotation-planner/internal/clipper"
	"meal-rotation-planner/internal/config"
	"meal-rotation-planner/internal/database"
	"meal-rotation-planner/internal/favorites"
	"meal-rotation-planner/internal/logging"
	"meal-rotation-planner/internal/metrics"
	"meal-rotation-planner/internal/planner"
	"meal-rotation-planner/internal/recipe"
)

func main() {
	// A .env file is optional; deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	application := app.NewApp(
		cfg,
		logger,
		recipeRepo,
		planRepo,
		metricsStore,
		favorites.NewClient(cfg),
		clipper.New(),
		recipe.NewWeightedComplexity(),
	)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "sync":
		syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
		user := syncCmd.String("user", "", "Also pull saved preferences for this user")
		syncCmd.Parse(os.Args[2:])

		if err := application.SyncFavorites(ctx, *user); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
	case "import":
		importCmd := flag.NewFlagSet("import", flag.ExitOnError)
		url := importCmd.String("url", "", "Recipe page URL")
		importCmd.Parse(os.Args[2:])

		if *url == "" {
			log.Fatal("import requires -url")
		}
		if _, err := application.ImportRecipe(ctx, *url); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	case "generate":
		genCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		user := genCmd.String("user", "default", "User to plan for")
		weeks := genCmd.Int("weeks", 1, "Number of weeks to plan")
		start := genCmd.String("start", "", "Start date (YYYY-MM-DD, a Monday); defaults to the coming Monday")
		randomize := genCmd.Bool("randomize", false, "Draw candidates weighted-randomly instead of top-score")
		seed := genCmd.Int64("seed", 0, "Seed for -randomize; defaults to the current time")
		genCmd.Parse(os.Args[2:])

		opts := app.GenerateOptions{Weeks: *weeks, Randomized: *randomize, Seed: *seed}
		if *randomize && opts.Seed == 0 {
			opts.Seed = time.Now().UnixNano()
			fmt.Printf("Using seed %d; pass -seed %d to reproduce this plan.\n", opts.Seed, opts.Seed)
		}
		opts.StartDate, err = resolveStartDate(*start)
		if err != nil {
			log.Fatalf("Invalid start date: %v", err)
		}

		if _, err := application.GeneratePlan(ctx, *user, opts); err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
	case "regenerate":
		regenCmd := flag.NewFlagSet("regenerate", flag.ExitOnError)
		user := regenCmd.String("user", "default", "User whose active plan to adjust")
		weeksArg := regenCmd.String("weeks", "", "Comma-separated week numbers, e.g. 1,3")
		regenCmd.Parse(os.Args[2:])

		weekNumbers, err := parseWeekNumbers(*weeksArg)
		if err != nil {
			log.Fatalf("Invalid -weeks: %v", err)
		}
		if _, err := application.RegenerateWeeks(ctx, *user, weekNumbers); err != nil {
			log.Fatalf("Regeneration failed: %v", err)
		}
	case "replace":
		replaceCmd := flag.NewFlagSet("replace", flag.ExitOnError)
		user := replaceCmd.String("user", "default", "User whose active plan to adjust")
		date := replaceCmd.String("date", "", "Slot date (YYYY-MM-DD)")
		course := replaceCmd.String("course", "main_course", "Slot course: appetizer, main_course or dessert")
		replaceCmd.Parse(os.Args[2:])

		if *date == "" {
			log.Fatal("replace requires -date")
		}
		if _, err := application.ReplaceMeal(ctx, *user, *date, *course); err != nil {
			log.Fatalf("Replacement failed: %v", err)
		}
	case "show":
		showCmd := flag.NewFlagSet("show", flag.ExitOnError)
		user := showCmd.String("user", "default", "User whose active plan to print")
		showCmd.Parse(os.Args[2:])

		if err := application.ShowActivePlan(ctx, *user); err != nil {
			log.Fatalf("Show failed: %v", err)
		}
	case "plans":
		plansCmd := flag.NewFlagSet("plans", flag.ExitOnError)
		user := plansCmd.String("user", "default", "User whose plans to list")
		limit := plansCmd.Int("limit", 10, "Maximum number of plans to list")
		plansCmd.Parse(os.Args[2:])

		if err := application.ListPlans(ctx, *user, *limit); err != nil {
			log.Fatalf("Listing failed: %v", err)
		}
	case "prefs":
		if err := runPrefs(ctx, application, os.Args[2:]); err != nil {
			log.Fatalf("Preferences update failed: %v", err)
		}
	case "stats":
		statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
		days := statsCmd.Int("days", 7, "How many days back to report")
		statsCmd.Parse(os.Args[2:])

		if err := application.Stats(ctx, *days); err != nil {
			log.Fatalf("Stats failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metricsStore.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old generation records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runPrefs(ctx context.Context, application *app.App, args []string) error {
	def := planner.DefaultPreferences()

	prefsCmd := flag.NewFlagSet("prefs", flag.ExitOnError)
	user := prefsCmd.String("user", "default", "User to store preferences for")
	diet := prefsCmd.String("diet", "", "Comma-separated dietary restrictions, e.g. vegetarian,nut_free")
	match := prefsCmd.String("match", "all", "Restriction match mode: all or any")
	weeknight := prefsCmd.Int("weeknight", def.MaxPrepTimeWeeknight, "Weeknight total-time ceiling in minutes (0 disables)")
	weekend := prefsCmd.Int("weekend", def.MaxPrepTimeWeekend, "Weekend total-time ceiling in minutes (0 disables)")
	allowComplex := prefsCmd.Bool("allow-consecutive-complex", false, "Permit complex mains in back-to-back slots")
	variety := prefsCmd.Float64("variety", def.CuisineVarietyWeight, "Cuisine variety weight between 0 and 1")
	prefsCmd.Parse(args)

	matchMode, err := recipe.ParseMatchMode(*match)
	if err != nil {
		return err
	}

	prefs := planner.UserPreferences{
		DietaryMatchMode:        matchMode,
		MaxPrepTimeWeeknight:    *weeknight,
		MaxPrepTimeWeekend:      *weekend,
		AvoidConsecutiveComplex: !*allowComplex,
		CuisineVarietyWeight:    *variety,
	}
	for _, tag := range strings.Split(*diet, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			prefs.DietaryRestrictions = append(prefs.DietaryRestrictions, recipe.DietaryTag(tag))
		}
	}

	return application.SetPreferences(ctx, *user, prefs)
}

// resolveStartDate parses -start, or finds the coming Monday when the
// flag is omitted.
func resolveStartDate(s string) (time.Time, error) {
	if s == "" {
		return nextMonday(time.Now().UTC()), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func nextMonday(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func parseWeekNumbers(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("no week numbers given")
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad week number %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func printUsage() {
	fmt.Println("Usage: meal-rotation-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  sync               Pull the recipe library (and optionally preferences) from the favorites service")
	fmt.Println("  import             Clip a recipe from a URL into the library")
	fmt.Println("  generate           Generate a multi-week dinner plan")
	fmt.Println("  regenerate         Rebuild selected weeks of the active plan")
	fmt.Println("  replace            Swap a single slot of the active plan")
	fmt.Println("  show               Print the active plan")
	fmt.Println("  plans              List recent plans")
	fmt.Println("  prefs              Store planning preferences")
	fmt.Println("  stats              Show generation activity and process health")
	fmt.Println("  metrics-cleanup    Remove old generation records")
}
