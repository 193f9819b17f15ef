package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/derekprior/padelfix/internal/availability"
	"github.com/derekprior/padelfix/internal/config"
	"github.com/derekprior/padelfix/internal/database"
	"github.com/derekprior/padelfix/internal/excel"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
	"github.com/derekprior/padelfix/internal/service"
	"github.com/derekprior/padelfix/internal/storage"
	"github.com/derekprior/padelfix/internal/validator"
)

const defaultConfigFile = "tournament.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

// runFlags select the algorithms and rules of database-backed runs; file
// runs take them from the tournament file.
type runFlags struct {
	strategy   string
	assigner   string
	minRest    int
	maxPerDay  int
	configFile string
}

func (f runFlags) fixtureConfig() service.FixtureConfig {
	return service.FixtureConfig{
		Strategy: f.strategy,
		Assigner: f.assigner,
		Rules:    schedule.Rules{MinRestMinutes: f.minRest, MaxMatchesPerDay: f.maxPerDay},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "padelfix",
		Short: "Padel tournament zone fixture scheduler",
	}

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter tournament.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the tournament file")

	var flags runFlags
	fixtureCmd := &cobra.Command{
		Use:   "fixture",
		Short: "Generate, export and validate fixtures",
	}
	fixtureCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to tournament file (default: tournament.yaml in current directory)")
	fixtureCmd.PersistentFlags().StringVar(&flags.strategy, "strategy", "", "Match list strategy for database runs")
	fixtureCmd.PersistentFlags().StringVar(&flags.assigner, "assigner", "", "Slot assigner for database runs")
	fixtureCmd.PersistentFlags().IntVar(&flags.minRest, "min-rest", 0, "Extra rest minutes between two matches of a player (database runs)")
	fixtureCmd.PersistentFlags().IntVar(&flags.maxPerDay, "max-per-day", 0, "Maximum matches per pair and date, 0 for no cap (database runs)")

	var outputFile, pdfFile string
	var generateUpload bool
	generateCmd := &cobra.Command{
		Use:   "generate [category-id...]",
		Short: "Generate fixtures from a tournament file, or for stored categories",
		Long: `Without arguments the tournament file is planned offline and exported.
With category ids the stored categories are regenerated in the database.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return runGenerateStored(ctx, flags, args)
			}
			configPath, err := resolveConfigPath(flags.configFile)
			if err != nil {
				return err
			}
			return runGenerateFile(ctx, configPath, outputFile, pdfFile, generateUpload)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "fixture.xlsx", "Output Excel file path (file mode)")
	generateCmd.Flags().StringVar(&pdfFile, "pdf", "", "Also write a PDF to this path (file mode)")
	generateCmd.Flags().BoolVar(&generateUpload, "upload", false, "Upload the exports to the configured bucket (file mode)")

	clearCmd := &cobra.Command{
		Use:          "clear <category-id>",
		Short:        "Delete the generated matches of a stored category",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(ctx, flags, args[0])
		},
	}

	var exportOutput, exportPDF string
	var upload bool
	exportCmd := &cobra.Command{
		Use:          "export <category-id...>",
		Short:        "Export stored fixtures to Excel and PDF",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(ctx, flags, args, exportOutput, exportPDF, upload)
		},
	}
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "fixture.xlsx", "Output Excel file path")
	exportCmd.Flags().StringVar(&exportPDF, "pdf", "fixture.pdf", "Output PDF path (empty to skip)")
	exportCmd.Flags().BoolVar(&upload, "upload", false, "Upload the exports to the configured bucket")

	var validateCategories []string
	validateCmd := &cobra.Command{
		Use:          "validate <fixture.xlsx>",
		Short:        "Validate a fixture workbook against the tournament file or stored categories",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(ctx, flags, validateCategories, args[0])
		},
	}
	validateCmd.Flags().StringSliceVar(&validateCategories, "category", nil, "Stored category ids to validate against instead of the tournament file")

	fixtureCmd.AddCommand(generateCmd, clearCmd, exportCmd, validateCmd)

	zoneCmd := &cobra.Command{
		Use:   "zone",
		Short: "Build zones and move pairs between them",
	}

	var zoneReq service.BuildZonesRequest
	var mode string
	buildCmd := &cobra.Command{
		Use:          "build <category-id>",
		Short:        "Replace the zones of a stored category",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			zoneReq.CategoryID = args[0]
			zoneReq.Mode = models.BalanceMode(mode)
			return runBuildZones(ctx, zoneReq)
		},
	}
	buildCmd.Flags().IntVar(&zoneReq.Target, "size", 0, "Target pairs per zone (default: category zone size)")
	buildCmd.Flags().IntVar(&zoneReq.ZoneCount, "zones", 0, "Fixed number of zones")
	buildCmd.Flags().StringVar(&mode, "balance", "", "Balance mode: none, rating or time (default: category setting)")

	moveCmd := &cobra.Command{
		Use:          "move <pair-id> <zone-id>",
		Short:        "Move a pair to another zone and regenerate both zones' matches",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMovePair(ctx, service.MovePairRequest{PairID: args[0], ZoneID: args[1]})
		},
	}
	zoneCmd.AddCommand(buildCmd, moveCmd)

	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Edit individual matches",
	}
	setCmd := &cobra.Command{
		Use:          "set <match-id> <court-id> <YYYY-MM-DDTHH:MM>",
		Short:        "Pin a match to a court and start time",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			startsAt, err := time.ParseInLocation("2006-01-02T15:04", args[2], time.UTC)
			if err != nil {
				return fmt.Errorf("invalid start %q: %w", args[2], err)
			}
			return runSetSlot(ctx, service.ManualSlotRequest{MatchID: args[0], CourtID: args[1], StartsAt: startsAt})
		},
	}
	matchCmd.AddCommand(setCmd)

	availabilityCmd := &cobra.Command{
		Use:   "availability",
		Short: "Inspect pair availability",
	}
	var availabilityConfig string
	checkCmd := &cobra.Command{
		Use:          "check",
		Short:        "Show every pair's availability against the tournament calendar",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(availabilityConfig)
			if err != nil {
				return err
			}
			return runAvailabilityCheck(configPath)
		},
	}
	checkCmd.Flags().StringVar(&availabilityConfig, "config", "", "Path to tournament file (default: tournament.yaml in current directory)")
	availabilityCmd.AddCommand(checkCmd)

	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the fixture database",
	}
	migrateCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the database schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(ctx)
		},
	}
	var importConfig string
	importCmd := &cobra.Command{
		Use:          "import",
		Short:        "Seed the database from a tournament file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(importConfig)
			if err != nil {
				return err
			}
			return runImport(ctx, configPath)
		},
	}
	importCmd.Flags().StringVar(&importConfig, "config", "", "Path to tournament file (default: tournament.yaml in current directory)")
	dbCmd.AddCommand(migrateCmd, importCmd)

	rootCmd.AddCommand(initCmd, fixtureCmd, zoneCmd, matchCmd, availabilityCmd, dbCmd)
	if err := rootCmd.Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

func printResult(title string, r *schedule.Result) {
	fmt.Printf("\n%s: %d zones, %d courts, %d slots (%d used)\n", title, r.Zones, r.Courts, r.Slots, r.SlotsUsed)
	if r.UnschedulableCount() == 0 {
		fmt.Printf("✓ All %d matches scheduled\n", r.ScheduledCount())
		return
	}
	fmt.Printf("⚠ %d matches scheduled, %d unschedulable:\n", r.ScheduledCount(), r.UnschedulableCount())
	for _, u := range r.Unschedulable {
		fmt.Printf("  ✗ %s\n", u.Diagnostic)
	}
}

func runGenerateFile(ctx context.Context, configPath, outputPath, pdfPath string, upload bool) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	plans, err := service.PlanFile(cfg, a.logger)
	if err != nil {
		return err
	}

	var fixtures []models.Fixture
	unschedulable := 0
	for _, p := range plans {
		printResult(p.Fixture.Category.Name, p.Result)
		fixtures = append(fixtures, p.Fixture)
		unschedulable += p.Result.UnschedulableCount()
	}
	fmt.Println()

	uploader, err := uploaderFor(ctx, a, upload)
	if err != nil {
		return err
	}
	if err := exportFixtures(ctx, fixtures, outputPath, pdfPath, uploader); err != nil {
		return err
	}
	if unschedulable > 0 {
		fmt.Printf("\n⚠ %d matches need a manual slot; see the %s sheet\n", unschedulable, excel.UnschedulableSheet)
	}
	return nil
}

func runGenerateStored(ctx context.Context, flags runFlags, categoryIDs []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	svc := a.fixtureService(flags.fixtureConfig())
	for _, id := range categoryIDs {
		result, err := svc.GenerateFixture(ctx, id)
		if err != nil {
			return fmt.Errorf("category %s: %w", id, err)
		}
		printResult(id, result)
	}
	return nil
}

func runClear(ctx context.Context, flags runFlags, categoryID string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.fixtureService(flags.fixtureConfig()).ClearFixture(ctx, categoryID)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Removed %d generated matches from %s\n", n, categoryID)
	return nil
}

func loadFixtures(ctx context.Context, svc *service.FixtureService, categoryIDs []string) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	for _, id := range categoryIDs {
		fx, err := svc.Fixture(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", id, err)
		}
		if len(fixtures) > 0 && fx.Tournament.ID != fixtures[0].Tournament.ID {
			return nil, fmt.Errorf("category %s belongs to another tournament", id)
		}
		fixtures = append(fixtures, *fx)
	}
	return fixtures, nil
}

func runExport(ctx context.Context, flags runFlags, categoryIDs []string, outputPath, pdfPath string, upload bool) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	fixtures, err := loadFixtures(ctx, a.fixtureService(flags.fixtureConfig()), categoryIDs)
	if err != nil {
		return err
	}

	uploader, err := uploaderFor(ctx, a, upload)
	if err != nil {
		return err
	}
	return exportFixtures(ctx, fixtures, outputPath, pdfPath, uploader)
}

func uploaderFor(ctx context.Context, a *app, upload bool) (storage.FileUploader, error) {
	if !upload {
		return nil, nil
	}
	uploader, err := a.uploader(ctx)
	if err != nil {
		return nil, err
	}
	if uploader == nil {
		return nil, fmt.Errorf("--upload needs ENABLE_STORAGE=true and a bucket")
	}
	return uploader, nil
}

func runValidate(ctx context.Context, flags runFlags, categoryIDs []string, fixturePath string) error {
	var ref *validator.Reference
	if len(categoryIDs) > 0 {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()
		fixtures, err := loadFixtures(ctx, a.fixtureService(flags.fixtureConfig()), categoryIDs)
		if err != nil {
			return err
		}
		ref = validator.FromFixtures(fixtures, flags.fixtureConfig().Rules)
	} else {
		configPath, err := resolveConfigPath(flags.configFile)
		if err != nil {
			return err
		}
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		ref = validator.FromConfig(cfg)
	}

	violations, err := validator.Validate(ref, fixturePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Warning: %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d warnings\n", errors, warnings)

	// Regenerate zone sheets from the master grid
	if err := excel.UpdateZoneSheets(fixturePath); err != nil {
		return fmt.Errorf("updating zone sheets: %w", err)
	}
	fmt.Printf("✓ Zone sheets updated in %s\n", fixturePath)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}

func runBuildZones(ctx context.Context, req service.BuildZonesRequest) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	zones, err := a.fixtureService(service.FixtureConfig{}).BuildZones(ctx, req)
	if err != nil {
		return err
	}
	for _, z := range zones {
		fmt.Printf("  Zone %s: %d pairs\n", z.Name, len(z.PairIDs))
	}
	fmt.Printf("✓ Built %d zones for %s\n", len(zones), req.CategoryID)
	return nil
}

func runMovePair(ctx context.Context, req service.MovePairRequest) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.fixtureService(service.FixtureConfig{}).MovePairToZone(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Moved %s from zone %s to zone %s\n", req.PairID, resp.From.Name, resp.To.Name)
	if resp.Regenerated > 0 {
		fmt.Printf("  %d pending matches recreated; run fixture generate to place them\n", resp.Regenerated)
	}
	if resp.Imbalanced {
		fmt.Printf("⚠ Zones %s (%d) and %s (%d) now differ by more than one pair\n",
			resp.From.Name, len(resp.From.PairIDs), resp.To.Name, len(resp.To.PairIDs))
	}
	return nil
}

func runSetSlot(ctx context.Context, req service.ManualSlotRequest) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	m, err := a.fixtureService(service.FixtureConfig{}).SetManualSlot(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Match %s set to %s at %s\n", m.ID, m.Court(), m.StartsAt.Format("02/01/2006 15:04"))
	return nil
}

func runAvailabilityCheck(configPath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	calendar, err := schedule.BuildCalendar(cfg.ModelTournament(), cfg.ModelCourts())
	if err != nil {
		return err
	}
	times := calendar.Times()
	fmt.Printf("Calendar: %d start times on %d courts (%d slots)\n", len(times), len(calendar.Courts), calendar.Len())

	blocked := 0
	for _, data := range cfg.ModelCategories() {
		pairs := models.ConfirmedPairs(data.Pairs)
		resolver := availability.FromPairs(pairs, zap.NewNop())
		fmt.Printf("\n%s:\n", data.Category.Name)
		for _, p := range pairs {
			open := 0
			for _, tp := range times {
				if resolver.Available(p.ID, tp.Weekday, tp.Time) {
					open++
				}
			}
			mark := " "
			if open == 0 {
				mark = "✗"
				blocked++
			}
			fmt.Printf("  %s %-40s %3d/%d  %s\n", mark, p.Name(), open, len(times), resolver.Summary(p.ID))
		}
	}
	if blocked > 0 {
		return fmt.Errorf("%d pairs have no available time in the calendar", blocked)
	}
	return nil
}

func runMigrate(ctx context.Context) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := database.Migrate(ctx, a.db); err != nil {
		return err
	}
	fmt.Println("✓ Schema applied")
	return nil
}

func runImport(ctx context.Context, configPath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	summary, err := a.importService().Import(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Imported %s: %d courts, %d categories, %d pairs\n",
		summary.TournamentID, summary.Courts, summary.Categories, summary.Pairs)
	if summary.SkippedReservations > 0 {
		fmt.Printf("⚠ %d court reservations are only honoured by file runs\n", summary.SkippedReservations)
	}
	return nil
}
