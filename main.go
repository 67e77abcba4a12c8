package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cardboard/internal/api"
	"cardboard/internal/backend"
	"cardboard/internal/controller"
	"cardboard/internal/errors"
	"cardboard/internal/logger"
	"cardboard/internal/usercfg"
	"cardboard/internal/version"
	"cardboard/internal/view"

	"github.com/AlecAivazis/survey/v2"
	selfupdate "github.com/creativeprojects/go-selfupdate"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var updateCheckCh <-chan version.UpdateCheckResult

var rootCmd = &cobra.Command{
	Use:   "cardboard",
	Short: "Keyboard-driven terminal client for a card board server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)

		name := cmd.Name()
		if name != "update" && name != "version" {
			updateCheckCh = version.StartUpdateCheck(usercfg.GetRuntimeConfig().UpdateRepo)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if updateCheckCh == nil {
			return
		}
		select {
		case result := <-updateCheckCh:
			if result.NewVersion != "" {
				fmt.Fprintf(os.Stderr, "\n\033[33mA new version of cardboard is available: %s (current: %s)\033[0m\n", result.NewVersion, version.GetShortVersion())
				fmt.Fprintf(os.Stderr, "\033[33mRun 'cardboard update' to upgrade.\033[0m\n")
			}
		case <-time.After(500 * time.Millisecond):
		}
	},
	Run: runBoard,
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive board",
	Long: `Open the board in the terminal. Every edit is sent to the server and the
board is redrawn from the state it returns.

Board:
  j/k, ↓/↑        Select next/previous card
  h/l, ←/→        Select previous/next column (category view)
  J/K             Move card down/up
  H/L             Move card to previous/next column
  g g, G          First/last card
  a               New card
  d               Delete card
  Enter           Open card
  c               View by category (Tab completes)
  Esc             Back to the default view
  w               Save board
  r               Refresh
  o               Open board in browser
  t, i            Show/hide tags, ids
  ?               Help
  q, Ctrl+C       Quit

Open card:
  Enter           Edit text (Esc saves)
  a, d            Add/delete tag (Tab completes)
  y               Copy text
  Esc             Back to board

Mouse: click selects, drag the selected card to reorder, wheel scrolls.`,
	Run: runBoard,
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the board state",
	Long:  "Fetch the current state from the server and print a summary, or the raw snapshot with --json",
	Args:  cobra.NoArgs,
	Run:   runState,
}

var actCmd = &cobra.Command{
	Use:   "act <action> [value]",
	Short: "Send one action to the server",
	Long: fmt.Sprintf(`Send a single action and print the resulting board.

Actions: %s

Examples:
  cardboard act NewCard
  cardboard act SetCurrentCardText "# Title"
  cardboard act AddTagToCurrentCard status:todo
  cardboard act SelectCardVerticalOffset -- -1
  cardboard act ViewCategory status`, strings.Join(api.ActionTypes(), ", ")),
	Args: cobra.MinimumNArgs(1),
	Run:  runAct,
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the board's web UI in a browser",
	Args:  cobra.NoArgs,
	Run:   runOpen,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure cardboard interactively",
	Long:  "Launch a setup wizard to configure the board server address, polling and rendering",
	Run:   runSetup,
}

// configCmd provides config management subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cardboard configuration",
	Long:  "Commands for managing the cardboard configuration file, migrations, and settings",
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate config file to current schema version",
	Long:  "Load the config file, apply any necessary schema migrations, and save it back to disk with the current schema version",
	Run:   runConfigMigrate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Run:   runConfigPath,
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print effective configuration",
	Long:  "Print the configuration after defaults and environment overrides are applied",
	Run:   runConfigPrint,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  "Keys: " + strings.Join(usercfg.Keys, ", "),
	Args:  cobra.ExactArgs(1),
	Run:   runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Keys: " + strings.Join(usercfg.Keys[1:], ", "),
	Args:  cobra.ExactArgs(2),
	Run:   runConfigSet,
}

var configDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate configuration and check the server",
	Run:   runConfigDoctor,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run:   runVersion,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update cardboard to the latest release",
	Run:   runUpdate,
}

var (
	verbose     bool
	stateJSON   bool
	versionJSON bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")

	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(actCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)

	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "Print the raw state snapshot as JSON")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build information as JSON")

	configCmd.AddCommand(configMigrateCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configPrintCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDoctorCmd)

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\n\033[93mOperation cancelled by user.\033[0m")
		os.Exit(0)
	}()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadConfig returns the runtime config, telling the user how to configure
// cardboard when nothing points at a server yet.
func loadConfig() usercfg.Config {
	if !usercfg.IsConfigured() {
		fmt.Fprintf(os.Stderr, "cardboard is not configured yet; using %s.\n", usercfg.DefaultBaseURL)
		fmt.Fprintln(os.Stderr, "Run 'cardboard setup' or set CARDBOARD_BASE_URL to point at your server.")
		fmt.Fprintln(os.Stderr)
	}
	return usercfg.GetRuntimeConfig()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", errors.Short(err))
	logger.Debug("%v", err)
	os.Exit(1)
}

func runBoard(cmd *cobra.Command, args []string) {
	config := loadConfig()
	if err := StartBoard(config); err != nil {
		log.Fatalf("Board failed: %v", err)
	}
}

func runState(cmd *cobra.Command, args []string) {
	ctrl := newController(loadConfig())
	defer ctrl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestDeadline)
	defer cancel()
	if err := showState(ctx, ctrl, os.Stdout, stateJSON); err != nil {
		fail(err)
	}
}

func runAct(cmd *cobra.Command, args []string) {
	a, err := api.ParseAction(args[0], strings.Join(args[1:], " "))
	if err != nil {
		if !contains(api.ActionTypes(), args[0]) {
			err = errors.NewInvalidActionError(args[0], api.ActionTypes())
		}
		fmt.Println(err)
		os.Exit(1)
	}

	ctrl := newController(loadConfig())
	defer ctrl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestDeadline)
	defer cancel()
	if err := performAndShow(ctx, ctrl, a, os.Stdout); err != nil {
		fail(err)
	}
}

func runOpen(cmd *cobra.Command, args []string) {
	url := usercfg.GetRuntimeConfig().BoardWebURL()
	fmt.Printf("Opening %s\n", url)
	if err := browser.OpenURL(url); err != nil {
		fmt.Printf("Failed to open browser: %v\n", err)
		os.Exit(1)
	}
}

// showState fetches the board once and writes it to w.
func showState(ctx context.Context, ctrl *controller.Controller, w io.Writer, asJSON bool) error {
	comp := ctrl.Refresh(ctx)
	ctrl.Apply(comp)
	if comp.FetchErr != nil {
		return comp.FetchErr
	}
	return writeState(w, comp.State, asJSON)
}

// performAndShow sends a and writes the state the server returns afterwards.
// A rejected action is reported even though the board is still printed.
func performAndShow(ctx context.Context, ctrl *controller.Controller, a api.Action, w io.Writer) error {
	comp := ctrl.Perform(ctx, a)
	ctrl.Apply(comp)
	if comp.State != nil {
		if err := writeState(w, comp.State, false); err != nil {
			return err
		}
	}
	if comp.ActionErr != nil {
		return comp.ActionErr
	}
	return comp.FetchErr
}

func writeState(w io.Writer, st *api.AppState, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Board: %s (%d cards)\n", boardName(st), len(st.Cards))
	items, cols := view.Project(st, nil)
	if cols == nil {
		b.WriteString("View: default\n")
		writeItems(&b, items)
	} else {
		fmt.Fprintf(&b, "View: category %s\n", st.ViewedCategory())
		for _, col := range cols {
			fmt.Fprintf(&b, "%s (%d)\n", col.Name, len(col.Items))
			writeItems(&b, col.Items)
		}
	}
	if warnings := st.Validate(); len(warnings) > 0 {
		fmt.Fprintf(&b, "\n%d integrity warning(s):\n", len(warnings))
		for _, warn := range warnings {
			fmt.Fprintf(&b, "  %s\n", warn)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeItems(b *strings.Builder, items []view.Item) {
	for _, it := range items {
		marker := "  "
		if it.Selected {
			marker = "> "
		}
		title := it.Card.Title()
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(b, "%s#%d %s", marker, it.Card.ID, title)
		if len(it.Card.Tags) > 0 {
			fmt.Fprintf(b, " [%s]", joinTags(it.Card.Tags))
		}
		b.WriteString("\n")
	}
}

// validateSetting checks value the same way `config set` would.
func validateSetting(key string) survey.Validator {
	return func(ans interface{}) error {
		s, _ := ans.(string)
		if s == "" {
			return nil
		}
		var scratch usercfg.Config
		return usercfg.Set(&scratch, key, s)
	}
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Cardboard Setup Wizard")
	fmt.Println("======================")

	currentConfig := usercfg.GetRuntimeConfig()
	newConfig := currentConfig
	isFirstRun := !usercfg.IsConfigured()

	if isFirstRun {
		fmt.Println("Welcome! Let's point cardboard at your board server.")
		fmt.Println()
	} else {
		fmt.Printf("Existing config found at %s, modifying.\n\n", usercfg.Path())
		fmt.Printf("  Base URL: %s\n", currentConfig.BaseURL)
		fmt.Printf("  Web URL: %s\n", currentConfig.BoardWebURL())
		fmt.Printf("  Poll interval: %v\n", currentConfig.PollInterval())
		fmt.Printf("  Markdown: %v\n", currentConfig.MarkdownEnabled())
		fmt.Println()
	}

	var baseURL string
	if err := survey.AskOne(&survey.Input{
		Message: "Board API URL (e.g. http://localhost:8000/api):",
		Default: currentConfig.BaseURL,
	}, &baseURL, survey.WithValidator(survey.Required), survey.WithValidator(validateSetting("base_url"))); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	newConfig.BaseURL = strings.TrimRight(baseURL, "/")

	var webURL string
	if err := survey.AskOne(&survey.Input{
		Message: "Web UI URL (leave empty to derive from the API URL):",
		Default: currentConfig.WebURL,
	}, &webURL, survey.WithValidator(validateSetting("web_url"))); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	newConfig.WebURL = webURL

	pollOptions := []string{"off", "5", "15", "30", "60"}
	pollDefault := "off"
	if n := int(currentConfig.PollInterval().Seconds()); n > 0 {
		pollDefault = strconv.Itoa(n)
		if !contains(pollOptions, pollDefault) {
			pollOptions = append(pollOptions, pollDefault)
		}
	}
	var pollSelection string
	if err := survey.AskOne(&survey.Select{
		Message: "Refresh the board every N seconds?",
		Options: pollOptions,
		Default: pollDefault,
	}, &pollSelection); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	if pollSelection == "off" {
		pollSelection = "0"
	}
	if err := usercfg.Set(&newConfig, "poll_interval_seconds", pollSelection); err != nil {
		fmt.Println(err)
		return
	}

	markdown := currentConfig.MarkdownEnabled()
	if err := survey.AskOne(&survey.Confirm{
		Message: "Render card text as markdown?",
		Default: markdown,
	}, &markdown); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	newConfig.Markdown = &markdown

	fmt.Println()
	fmt.Printf("Checking %s...\n", newConfig.BaseURL)
	client := backend.NewClient(newConfig.BaseURL, newConfig.RequestTimeout(), 0)
	ctx, cancel := context.WithTimeout(context.Background(), newConfig.RequestTimeout())
	result, err := client.Probe(ctx)
	cancel()
	if err != nil {
		fmt.Printf("\033[93mCould not reach the server: %s\033[0m\n", errors.Short(err))
		saveAnyway := false
		if err := survey.AskOne(&survey.Confirm{
			Message: "Save this configuration anyway?",
			Default: false,
		}, &saveAnyway); err != nil || !saveAnyway {
			fmt.Println("Setup cancelled")
			return
		}
	} else {
		fmt.Printf("✅ %s\n", result)
	}

	newConfig.SchemaVersion = usercfg.CurrentSchemaVersion
	if err := usercfg.Save(newConfig); err != nil {
		fmt.Printf("Failed to save config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nConfiguration saved to %s\n", usercfg.Path())
	fmt.Println("Run 'cardboard' to open the board.")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func runConfigMigrate(cmd *cobra.Command, args []string) {
	err := usercfg.MigrateAndSave()
	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func runConfigPath(cmd *cobra.Command, args []string) {
	fmt.Println(usercfg.Path())
}

func runConfigPrint(cmd *cobra.Command, args []string) {
	config := usercfg.GetRuntimeConfig()

	fmt.Printf("Configuration (effective):\n")
	for _, key := range usercfg.Keys {
		value, _ := usercfg.Get(config, key)
		fmt.Printf("  %s: %s\n", key, value)
	}
	fmt.Printf("  ui_prefs: %+v\n", config.UIPrefs)
	fmt.Printf("\nConfig file location: %s\n", usercfg.Path())
}

func runConfigGet(cmd *cobra.Command, args []string) {
	value, err := usercfg.Get(usercfg.GetRuntimeConfig(), args[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println(value)
}

func runConfigSet(cmd *cobra.Command, args []string) {
	key := args[0]
	value := args[1]

	config, err := usercfg.Load()
	if err != nil && err != usercfg.ErrNotConfigured {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := usercfg.Set(&config, key, value); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := usercfg.Save(config); err != nil {
		fmt.Printf("Failed to save config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

func runConfigDoctor(cmd *cobra.Command, args []string) {
	fmt.Println("🏥 Cardboard Configuration Doctor")
	fmt.Println("================================")

	issues := 0

	configPath := usercfg.Path()
	legacyPath := usercfg.LegacyPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if _, err := os.Stat(legacyPath); os.IsNotExist(err) {
			fmt.Println("ℹ️  No config file found - using defaults")
			fmt.Printf("   Create one with: cardboard setup\n")
		} else {
			fmt.Println("⚠️  Using legacy config path")
			fmt.Printf("   Consider migrating: cardboard config migrate\n")
			fmt.Printf("   Legacy path: %s\n", legacyPath)
			fmt.Printf("   Preferred path: %s\n", configPath)
			issues++
		}
	} else {
		fmt.Println("✅ Config file found at XDG-compliant location")
	}

	raw, err := usercfg.Load()
	if err != nil && err != usercfg.ErrNotConfigured {
		fmt.Printf("⚠️  Config file could not be read: %v\n", err)
		issues++
	} else if raw.SchemaVersion < usercfg.CurrentSchemaVersion {
		fmt.Printf("⚠️  Config schema is outdated (v%d, current: v%d)\n", raw.SchemaVersion, usercfg.CurrentSchemaVersion)
		fmt.Println("   Run: cardboard config migrate")
		issues++
	} else {
		fmt.Printf("✅ Config schema is current (v%d)\n", raw.SchemaVersion)
	}

	config := usercfg.GetRuntimeConfig()

	var scratch usercfg.Config
	if err := usercfg.Set(&scratch, "base_url", config.BaseURL); err != nil {
		fmt.Printf("⚠️  Invalid base URL: %s\n", config.BaseURL)
		fmt.Println("   Must start with http:// or https://")
		issues++
	} else {
		fmt.Printf("✅ Base URL: %s\n", config.BaseURL)

		client := backend.NewClient(config.BaseURL, config.RequestTimeout(), 0)
		ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout())
		result, err := client.Probe(ctx)
		cancel()
		switch {
		case err != nil:
			fmt.Printf("⚠️  Server unreachable: %s\n", errors.Short(err))
			fmt.Println("   Check that the board server is running, or run: cardboard setup")
			issues++
		case len(result.Warnings) > 0:
			fmt.Printf("⚠️  %s\n", result)
			for _, w := range result.Warnings {
				fmt.Printf("   %s\n", w)
			}
			issues++
		default:
			fmt.Printf("✅ %s\n", result)
		}
	}

	fmt.Printf("ℹ️  Web UI: %s\n", config.BoardWebURL())
	if poll := config.PollInterval(); poll > 0 {
		fmt.Printf("ℹ️  Polling every %v\n", poll)
	} else {
		fmt.Println("ℹ️  Polling disabled")
	}

	fmt.Println()
	if issues == 0 {
		fmt.Println("🎉 No issues found! Configuration looks healthy.")
	} else {
		fmt.Printf("Found %d issue(s). See suggestions above.\n", issues)
		os.Exit(1)
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	if versionJSON {
		data, _ := json.MarshalIndent(version.GetBuildInfo(), "", "  ")
		fmt.Println(string(data))
		return
	}
	fmt.Println(version.GetVersionString())

	// Synchronous since the user is asking about the version.
	ch := version.StartUpdateCheck(usercfg.GetRuntimeConfig().UpdateRepo)
	select {
	case result := <-ch:
		if result.NewVersion != "" {
			fmt.Printf("\n\033[33mUpdate available: %s (current: %s)\033[0m\n", result.NewVersion, version.GetShortVersion())
			fmt.Println("\033[33mRun 'cardboard update' to upgrade.\033[0m")
		}
	case <-time.After(5 * time.Second):
	}
}

func runUpdate(cmd *cobra.Command, args []string) {
	current := version.GetShortVersion()
	if version.GetBuildInfo().IsDev() {
		fmt.Println("Cannot self-update a dev build. Install a released version first.")
		return
	}

	updater, err := version.NewUpdater()
	if err != nil {
		fmt.Printf("Failed to create updater: %v\n", err)
		return
	}

	repo := usercfg.GetRuntimeConfig().UpdateRepo
	fmt.Printf("Current version: %s\nChecking %s for updates...\n", current, repo)

	ctx := context.Background()
	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if err != nil {
		fmt.Printf("Update check failed: %v\n", err)
		return
	}
	if !found {
		fmt.Println("No release found for your OS/architecture.")
		return
	}

	if latest.LessOrEqual(current) {
		fmt.Println("Already up to date.")
		return
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		fmt.Printf("Could not locate executable: %v\n", err)
		return
	}

	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		fmt.Printf("Update failed: %v\n", err)
		return
	}

	fmt.Printf("Updated to %s\n", latest.Version())
}
