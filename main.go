package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kanban/internal/api"
	"kanban/internal/errors"
	"kanban/internal/logger"
	"kanban/internal/server"
	"kanban/internal/store"
	"kanban/internal/usercfg"
	"kanban/internal/version"

	"github.com/AlecAivazis/survey/v2"
	"github.com/bytedance/sonic"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var updateNoticeCh <-chan version.Notice

var rootCmd = &cobra.Command{
	Use:   "kanban",
	Short: "Drag-and-drop kanban board for the terminal",
	Long: `A kanban board of lists laid out on a column × swimlane grid.

Run 'kanban serve' to start a board server and 'kanban' (or 'kanban board')
to open the board. Drag cards with the mouse onto any list, or onto one of
the dashed cells next to a list to create a new one there.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)

		name := cmd.Name()
		if name != "update" && name != "version" && name != "serve" {
			updateNoticeCh = version.StartCheck()
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if updateNoticeCh == nil {
			return
		}
		select {
		case n := <-updateNoticeCh:
			if n.Latest != "" {
				fmt.Fprintf(os.Stderr, "\n\033[33mA new version of kanban is available: %s (current: %s)\033[0m\n", n.Latest, version.Version)
				fmt.Fprintf(os.Stderr, "\033[33mRun 'kanban update' to upgrade.\033[0m\n")
			}
		case <-time.After(500 * time.Millisecond):
		}
	},
	Run: runBoard,
}

// boardCmd opens the interactive board
var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the board in the terminal",
	Long: `Open the board served at server_url.

Controls:
  - Mouse: drag a card onto a list or a dashed + Add List cell
  - Arrows / h j k l: Move selection
  - < / >: Move the selected card one cell sideways
  - a / e / d: Add, edit, delete a card
  - t / C / L / K / x: Rename, categorize, lock, color, delete a list
  - /: Filter
  - o: Open selected card in browser
  - ?: Help
  - q: Quit`,
	Example: "kanban board",
	Run:     runBoard,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the board server",
	Long:  "Serve the board REST API on listen_addr from an in-memory store. The store starts with a starter board unless seeding is turned off.",
	Run:   runServe,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure kanban interactively",
	Long:  "Launch a setup wizard for the server address, your username and refresh settings",
	Run:   runSetup,
}

// configCmd provides config management subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kanban configuration",
	Long:  "Commands for managing the kanban configuration file, migrations, and settings",
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate config file to current schema version",
	Long:  "Load the config file, apply any necessary schema migrations, and save it back to disk with the current schema version",
	Run:   runConfigMigrate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the path to the configuration file",
	Long:  "Display the path where kanban looks for its configuration file (XDG-compliant location)",
	Run:   runConfigPath,
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the current configuration",
	Long:  "Display the current effective configuration, including defaults and environment variable overlays",
	Run:   runConfigPrint,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  "Retrieve and display a specific configuration value. Keys: " + strings.Join(usercfg.Keys(), ", "),
	Args:  cobra.ExactArgs(1),
	Run:   runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value and save to file. Keys: " + strings.Join(usercfg.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	Run:   runConfigSet,
}

var configDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration health",
	Long:  "Validate the configuration file, check the server is reachable, and suggest fixes",
	Run:   runConfigDoctor,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage board accounts",
}

var userRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the board server",
	Run:   runUserRegister,
}

var userLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check your credentials and remember the username",
	Run:   runUserLogin,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account and every card it owns",
	Args:  cobra.ExactArgs(1),
	Run:   runUserDelete,
}

var openCmd = &cobra.Command{
	Use:   "open [card-id]",
	Short: "Open the board, or one card, in the browser",
	Args:  cobra.MaximumNArgs(1),
	Run:   runOpen,
}

// versionCmd displays version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display version, build information, and platform details for kanban",
	Run:   runVersion,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Self-update kanban to the latest release",
	Long:  "Check GitHub Releases for a newer version of kanban and replace the current binary.",
	Run:   runUpdate,
}

var (
	verbose     bool
	noSeed      bool
	listenFlag  string
	versionJSON bool
	forceDelete bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	serveCmd.Flags().StringVarP(&listenFlag, "listen", "l", "", "Address to listen on (overrides listen_addr)")
	serveCmd.Flags().BoolVar(&noSeed, "empty", false, "Start with an empty board instead of the starter board")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build information as JSON")
	userDeleteCmd.Flags().BoolVarP(&forceDelete, "yes", "y", false, "Do not ask for confirmation")

	// Add subcommands
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)

	// Add config subcommands
	configCmd.AddCommand(configMigrateCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configPrintCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDoctorCmd)

	userCmd.AddCommand(userRegisterCmd)
	userCmd.AddCommand(userLoginCmd)
	userCmd.AddCommand(userDeleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// interruptContext is cancelled on Ctrl+C or SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newClient(config usercfg.Config) *api.Client {
	return api.New(config.ServerURL, config.Timeout())
}

func runBoard(cmd *cobra.Command, args []string) {
	config := usercfg.GetRuntimeConfig()

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	err := newClient(config).Health(ctx)
	cancel()
	if err != nil {
		fmt.Println(errors.WrapWithContext(err, "server_connection").Error())
		fmt.Println("Start a server with: kanban serve")
		os.Exit(1)
	}

	if err := StartBoard(config); err != nil {
		fmt.Printf("Error running board: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	config := usercfg.GetRuntimeConfig()
	addr := config.ListenAddr
	if listenFlag != "" {
		addr = listenFlag
	}

	s := store.New()
	if config.SeedEnabled() && !noSeed {
		s = store.Seeded()
	}

	ctx, stop := interruptContext()
	defer stop()

	e := server.New(s, logger.Base())
	logger.Server("listening on %s", addr)
	fmt.Printf("Board server listening on %s (Ctrl+C to stop)\n", addr)
	if err := server.Serve(ctx, e, addr); err != nil {
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n\033[93mServer stopped.\033[0m")
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Kanban Setup Wizard")
	fmt.Println("===================")

	currentConfig := usercfg.GetRuntimeConfig()
	newConfig := currentConfig
	isFirstRun := !usercfg.IsConfigured()

	if isFirstRun {
		fmt.Println("Welcome! Let's point kanban at a board server.")
		fmt.Println()
	} else {
		fmt.Printf("Existing config found at %s, modifying.\n\n", usercfg.Path())
		printConfig(currentConfig)
		fmt.Println()
	}

	var serverURL string
	if err := survey.AskOne(&survey.Input{
		Message: "Board server URL:",
		Default: currentConfig.ServerURL,
	}, &serverURL, survey.WithValidator(survey.Required), survey.WithValidator(func(ans interface{}) error {
		c := newConfig
		c.ServerURL = strings.TrimSpace(fmt.Sprint(ans))
		for _, p := range c.Validate() {
			if strings.HasPrefix(p, "server_url") {
				return fmt.Errorf("%s", p)
			}
		}
		return nil
	})); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	newConfig.ServerURL = strings.TrimSpace(serverURL)

	var username string
	if err := survey.AskOne(&survey.Input{
		Message: "Your username (cards you add are owned by it):",
		Default: currentConfig.Username,
	}, &username); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	newConfig.Username = strings.TrimSpace(username)

	pollOptions := []string{"5s", "10s (default)", "30s", "1m", "off"}
	pollDefault := currentConfig.PollInterval
	switch pollDefault {
	case "", usercfg.DefaultPollInterval.String():
		pollDefault = "10s (default)"
	case "0":
		pollDefault = "off"
	}
	found := false
	for _, o := range pollOptions {
		if o == pollDefault {
			found = true
		}
	}
	if !found {
		pollOptions = append(pollOptions, pollDefault)
	}
	var pollSelection string
	if err := survey.AskOne(&survey.Select{
		Message: "How often should the board refresh from the server?",
		Options: pollOptions,
		Default: pollDefault,
	}, &pollSelection); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	// Strip display suffix before saving
	pollSelection = strings.TrimSuffix(pollSelection, " (default)")
	if pollSelection == "off" {
		pollSelection = "0"
	}
	newConfig.PollInterval = pollSelection

	seed := currentConfig.SeedEnabled()
	if err := survey.AskOne(&survey.Confirm{
		Message: "Start 'kanban serve' with a starter board?",
		Default: seed,
	}, &seed); err != nil {
		fmt.Println("Setup cancelled")
		return
	}
	newConfig.Seed = &seed

	if err := usercfg.Save(newConfig); err != nil {
		log.Fatal(errors.WrapWithContext(err, "config_save").Error())
	}

	fmt.Printf("\nConfiguration saved to: %s\n", usercfg.Path())
	fmt.Println("\nFinal configuration:")
	printConfig(newConfig)

	ctx, cancel := context.WithTimeout(context.Background(), newConfig.Timeout())
	defer cancel()
	if err := newClient(newConfig).Health(ctx); err != nil {
		fmt.Printf("\n⚠️  Server not reachable yet: %v\n", err)
		fmt.Println("   Start one with: kanban serve")
	} else {
		fmt.Println("\n✅ Server is reachable")
	}
}

func printConfig(config usercfg.Config) {
	for _, key := range usercfg.Keys() {
		v, _ := config.Get(key)
		if v == "" {
			v = "(unset)"
		}
		fmt.Printf("  %s: %s\n", key, v)
	}
}

func runConfigMigrate(cmd *cobra.Command, args []string) {
	if err := usercfg.MigrateAndSave(); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config migrated to schema v%d at %s\n", usercfg.CurrentSchemaVersion, usercfg.Path())
}

func runConfigPath(cmd *cobra.Command, args []string) {
	fmt.Println(usercfg.Path())
}

func runConfigPrint(cmd *cobra.Command, args []string) {
	config := usercfg.GetRuntimeConfig()
	fmt.Printf("# %s\n", usercfg.Path())
	fmt.Printf("schema_version: %d\n", config.SchemaVersion)
	for _, key := range usercfg.Keys() {
		v, _ := config.Get(key)
		fmt.Printf("%s: %s\n", key, v)
	}
}

func runConfigGet(cmd *cobra.Command, args []string) {
	key := args[0]
	config := usercfg.GetRuntimeConfig()

	if key == "schema_version" {
		fmt.Println(config.SchemaVersion)
		return
	}
	v, ok := config.Get(key)
	if !ok {
		fmt.Printf("Unknown key: %s\n", key)
		fmt.Printf("Available keys: %s, schema_version\n", strings.Join(usercfg.Keys(), ", "))
		os.Exit(1)
	}
	fmt.Println(v)
}

func runConfigSet(cmd *cobra.Command, args []string) {
	key := args[0]
	value := args[1]

	// Load current config
	config, err := usercfg.Load()
	if err != nil && err != usercfg.ErrNotConfigured {
		fmt.Println(errors.WrapWithContext(err, "config_load").Error())
		os.Exit(1)
	}

	if key == "schema_version" {
		fmt.Println("Key 'schema_version' cannot be set. Use 'kanban config migrate'.")
		os.Exit(1)
	}
	if !config.Set(key, value) {
		fmt.Printf("Unknown key: %s\n", key)
		fmt.Printf("Settable keys: %s\n", strings.Join(usercfg.Keys(), ", "))
		os.Exit(1)
	}
	for _, p := range config.Validate() {
		if strings.HasPrefix(p, key) {
			fmt.Printf("Invalid value: %s\n", p)
			os.Exit(1)
		}
	}

	// Save the updated config
	if err := usercfg.Save(config); err != nil {
		fmt.Println(errors.WrapWithContext(err, "config_save").Error())
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

func runConfigDoctor(cmd *cobra.Command, args []string) {
	fmt.Println("🏥 Kanban Configuration Doctor")
	fmt.Println("==============================")

	issues := 0

	// Check if config file exists
	configPath := usercfg.Path()
	legacyPath := usercfg.LegacyPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if _, err := os.Stat(legacyPath); os.IsNotExist(err) {
			fmt.Println("ℹ️  No config file found - using defaults")
			fmt.Printf("   Create one with: kanban setup\n")
		} else {
			fmt.Println("⚠️  Using legacy config path")
			fmt.Printf("   Consider migrating: kanban config migrate\n")
			fmt.Printf("   Legacy path: %s\n", legacyPath)
			fmt.Printf("   Preferred path: %s\n", configPath)
			issues++
		}
	} else {
		fmt.Println("✅ Config file found at XDG-compliant location")
	}

	config := usercfg.GetRuntimeConfig()

	if config.SchemaVersion < usercfg.CurrentSchemaVersion {
		fmt.Printf("⚠️  Config schema is outdated (v%d, current: v%d)\n", config.SchemaVersion, usercfg.CurrentSchemaVersion)
		fmt.Println("   Run: kanban config migrate")
		issues++
	} else {
		fmt.Printf("✅ Config schema is current (v%d)\n", config.SchemaVersion)
	}

	problems := config.Validate()
	for _, p := range problems {
		fmt.Printf("⚠️  %s\n", p)
		fmt.Println("   Fix with: kanban config set <key> <value>")
	}
	issues += len(problems)
	if len(problems) == 0 {
		fmt.Println("✅ Settings are valid")
	}

	if config.Username == "" {
		fmt.Println("ℹ️  No username set - new cards will have no owner")
		fmt.Println("   Run: kanban user login")
	} else {
		fmt.Printf("✅ Username: %s\n", config.Username)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()
	if err := newClient(config).Health(ctx); err != nil {
		fmt.Printf("⚠️  Server %s is not reachable: %v\n", config.ServerURL, err)
		fmt.Println("   Start one with: kanban serve")
		issues++
	} else {
		fmt.Printf("✅ Server reachable at %s\n", config.ServerURL)
	}

	fmt.Println()
	if issues == 0 {
		fmt.Println("🎉 No issues found! Configuration looks healthy.")
	} else {
		fmt.Printf("Found %d issue(s). See suggestions above.\n", issues)
		os.Exit(1)
	}
}

func runUserRegister(cmd *cobra.Command, args []string) {
	config := usercfg.GetRuntimeConfig()

	qs := []*survey.Question{
		{Name: "username", Prompt: &survey.Input{Message: "Username:", Default: config.Username}, Validate: survey.Required},
		{Name: "email", Prompt: &survey.Input{Message: "Email:"}, Validate: survey.Required},
		{Name: "password", Prompt: &survey.Password{Message: "Password:"}, Validate: survey.MinLength(6)},
		{Name: "country", Prompt: &survey.Input{Message: "Country (optional):"}},
	}
	var answers api.Registration
	if err := survey.Ask(qs, &answers); err != nil {
		fmt.Println("Registration cancelled")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()
	user, err := newClient(config).Register(ctx, answers)
	if err != nil {
		fmt.Printf("Registration failed: %v\n", err)
		os.Exit(1)
	}
	rememberUser(config, user.Username)
	fmt.Printf("✅ Registered %s\n", user.Username)
}

func runUserLogin(cmd *cobra.Command, args []string) {
	config := usercfg.GetRuntimeConfig()

	var username, password string
	if err := survey.AskOne(&survey.Input{Message: "Username:", Default: config.Username}, &username, survey.WithValidator(survey.Required)); err != nil {
		fmt.Println("Login cancelled")
		return
	}
	if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
		fmt.Println("Login cancelled")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()
	user, err := newClient(config).Login(ctx, username, password)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		os.Exit(1)
	}
	rememberUser(config, user.Username)
	fmt.Printf("✅ Logged in as %s\n", user.Username)
}

func rememberUser(config usercfg.Config, username string) {
	if config.Username == username {
		return
	}
	config.Username = username
	if err := usercfg.Save(config); err != nil {
		fmt.Printf("⚠️  Could not save username: %v\n", err)
	}
}

func runUserDelete(cmd *cobra.Command, args []string) {
	config := usercfg.GetRuntimeConfig()
	username := args[0]

	if !forceDelete {
		confirm := false
		if err := survey.AskOne(&survey.Confirm{
			Message: fmt.Sprintf("Delete %s and every card they own?", username),
			Default: false,
		}, &confirm); err != nil || !confirm {
			fmt.Println("Delete cancelled")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()
	res, err := newClient(config).DeleteUser(ctx, username)
	if err != nil {
		fmt.Printf("Delete failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Deleted %s and %d card(s)\n", username, res.TasksDeleted)
}

func runOpen(cmd *cobra.Command, args []string) {
	client := newClient(usercfg.GetRuntimeConfig())
	url := client.BoardURL()
	if len(args) == 1 {
		var id int64
		if _, err := fmt.Sscan(args[0], &id); err != nil || id <= 0 {
			fmt.Println(errors.NewInvalidInputError("card-id", "must be a positive number").Error())
			os.Exit(1)
		}
		url = client.TaskURL(id)
	}
	if err := browser.OpenURL(url); err != nil {
		fmt.Printf("Could not open browser: %v\n", err)
		fmt.Println(url)
		os.Exit(1)
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	if versionJSON {
		out, err := sonic.ConfigStd.MarshalIndent(version.Info(), "", "  ")
		if err != nil {
			fmt.Printf("Failed to encode version: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}
	fmt.Println(version.String())

	select {
	case n := <-version.StartCheck():
		if n.Latest != "" {
			fmt.Printf("\nA new version is available: %s\nRun 'kanban update' to upgrade.\n", n.Latest)
		}
	case <-time.After(2 * time.Second):
	}
}

func runUpdate(cmd *cobra.Command, args []string) {
	fmt.Printf("Current version: %s\nChecking for updates...\n", version.Version)

	ctx, stop := interruptContext()
	defer stop()

	installed, err := version.Update(ctx)
	if err != nil {
		fmt.Printf("Update failed: %v\n", err)
		return
	}
	if installed == "" {
		fmt.Println("Already up to date.")
		return
	}
	fmt.Printf("Updated to %s\n", installed)
}
