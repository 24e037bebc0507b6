package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"foodwaste/internal/app"
	"foodwaste/internal/config"
	"foodwaste/internal/food"
	"foodwaste/internal/ingest"
	"foodwaste/internal/model"
	"foodwaste/internal/query"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a FoodApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "load", "report").
func newApp(operation string) (*app.FoodApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFoodApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var stdin = bufio.NewReader(os.Stdin)

// readPassphrase prompts on the terminal without echo. When stdin is not a
// terminal it reads one line instead.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

func printTable(t *model.Table) {
	if t.Len() == 0 {
		fmt.Println("No rows.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format("2006-01-02 15:04")
	default:
		return fmt.Sprint(v)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return id, nil
}

var rootCmd = &cobra.Command{
	Use:          "foodwaste",
	Short:        "Local food wastage tracker",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Sources Dir: %s\n", cfg.Sources.Dir)
		fmt.Println("Run 'foodwaste migrate' to create the database.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg)
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		version, err := app.Migrate(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Database at schema version %d\n", version)
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("schema")
		if err != nil {
			return err
		}
		defer a.Close()

		ddl, err := a.Schema()
		if err != nil {
			return err
		}
		fmt.Print(ddl)
		return nil
	},
}

// load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the CSV sources into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp("load")
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Load(dir)
		if err != nil {
			return err
		}

		for _, r := range summary.Tables {
			if r.Err != nil {
				fmt.Printf("FAIL  %-14s %v\n", r.Table, r.Err)
				continue
			}
			fmt.Printf("OK    %-14s %d rows (duplicates skipped: %d, unparseable dates: %d)\n",
				r.Table, r.Rows, r.Duplicates, r.NullDates)
		}
		if summary.OrphanClaims > 0 {
			fmt.Printf("Warning: %d claim(s) reference missing food listings\n", summary.OrphanClaims)
		}
		if failed := summary.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d table(s) failed to load", len(failed))
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View load history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No loads recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt != nil {
				duration = run.FinishedAt.Sub(run.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %-14s  %-8s  %6d  %-10s  %s\n",
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.TableName,
				run.Status,
				run.Rows,
				duration,
				run.Source,
			)
			if run.Error != "" {
				fmt.Printf("    %s\n", run.Error)
			}
		}
		return nil
	},
}

// listing command
var listingCmd = &cobra.Command{
	Use:   "listing",
	Short: "Manage food listings",
}

var listingCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a food listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		id, _ := flags.GetInt64("id")
		name, _ := flags.GetString("name")
		quantity, _ := flags.GetInt("quantity")
		expiry, _ := flags.GetString("expiry")
		providerID, _ := flags.GetInt64("provider-id")
		providerType, _ := flags.GetString("provider-type")
		location, _ := flags.GetString("location")
		foodType, _ := flags.GetString("food-type")
		mealType, _ := flags.GetString("meal-type")

		listing := &model.FoodListing{
			ID:           id,
			Name:         name,
			Quantity:     quantity,
			ProviderID:   providerID,
			ProviderType: providerType,
			Location:     location,
			FoodType:     foodType,
			MealType:     mealType,
		}
		if expiry != "" {
			listing.ExpiryDate = ingest.ParseDate(expiry)
			if listing.ExpiryDate == nil {
				return fmt.Errorf("invalid expiry date %q", expiry)
			}
		}

		a, err := newApp("listing create")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.CreateListing(listing); err != nil {
			return err
		}
		fmt.Printf("Food listing '%s' added.\n", listing.Name)
		return nil
	},
}

var listingReadCmd = &cobra.Command{
	Use:   "read [CITY]",
	Short: "List food listings, optionally in one city",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		city := ""
		if len(args) > 0 {
			city = args[0]
		}

		a, err := newApp("listing read")
		if err != nil {
			return err
		}
		defer a.Close()

		listings, err := a.ReadListings(city)
		if err != nil {
			return err
		}
		if len(listings) == 0 {
			fmt.Println("No food listings.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "Food_ID\tFood_Name\tQuantity\tExpiry_Date\tProvider_ID\tProvider_Type\tLocation\tFood_Type\tMeal_Type")
		for _, l := range listings {
			expiry := ""
			if l.ExpiryDate != nil {
				expiry = l.ExpiryDate.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
				l.ID, l.Name, l.Quantity, expiry, l.ProviderID, l.ProviderType, l.Location, l.FoodType, l.MealType)
		}
		return w.Flush()
	},
}

var listingUpdateCmd = &cobra.Command{
	Use:   "update FOOD_ID QUANTITY",
	Short: "Set the quantity of a food listing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}

		a, err := newApp("listing update")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UpdateListingQuantity(id, quantity); err != nil {
			return err
		}
		fmt.Printf("Quantity updated for Food_ID %d to %d.\n", id, quantity)
		return nil
	},
}

var listingDeleteCmd = &cobra.Command{
	Use:   "delete FOOD_ID",
	Short: "Delete a food listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("listing delete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteListing(id); err != nil {
			return err
		}
		fmt.Printf("Food listing with ID %d deleted.\n", id)
		return nil
	},
}

// provider command
var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage providers",
}

var providerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var p food.NewProvider
		p.Name, _ = flags.GetString("name")
		p.City, _ = flags.GetString("city")
		p.Contact, _ = flags.GetString("contact")
		p.Type, _ = flags.GetString("type")
		p.Address, _ = flags.GetString("address")

		a, err := newApp("provider add")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.AddProvider(p)
		if err != nil {
			return err
		}
		fmt.Printf("Provider added with ID %d.\n", id)
		return nil
	},
}

var providerUpdateCmd = &cobra.Command{
	Use:   "update PROVIDER_ID CONTACT",
	Short: "Update a provider's contact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("provider update")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UpdateProviderContact(id, args[1]); err != nil {
			return err
		}
		fmt.Printf("Provider %d updated.\n", id)
		return nil
	},
}

var providerDeleteCmd = &cobra.Command{
	Use:   "delete PROVIDER_ID",
	Short: "Delete a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("provider delete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteProvider(id); err != nil {
			return err
		}
		fmt.Printf("Provider %d deleted.\n", id)
		return nil
	},
}

var providerContactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List provider contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var f query.ContactFilter
		f.City, _ = flags.GetString("city")
		f.Name, _ = flags.GetString("name")
		f.ProviderType, _ = flags.GetString("type")

		a, err := newApp("provider contacts")
		if err != nil {
			return err
		}
		defer a.Close()

		table, err := a.ProviderContacts(f)
		if err != nil {
			return err
		}
		printTable(table)
		return nil
	},
}

// query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run analytics queries",
}

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("query list")
		if err != nil {
			return err
		}
		defer a.Close()

		for _, d := range a.Queries() {
			params := make([]string, 0, len(d.Params))
			for _, p := range d.Params {
				params = append(params, "--"+strings.ReplaceAll(p.Name, "_", "-"))
			}
			fmt.Printf("%-32s %s", d.ID, d.Title)
			if len(params) > 0 {
				fmt.Printf("  [%s]", strings.Join(params, " "))
			}
			fmt.Println()
		}
		return nil
	},
}

var queryRunCmd = &cobra.Command{
	Use:   "run [ID]",
	Short: "Run one query, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		city, _ := cmd.Flags().GetString("city")
		foodType, _ := cmd.Flags().GetString("food-type")
		filters := map[string]string{"city": city, "food_type": foodType}

		a, err := newApp("query run")
		if err != nil {
			return err
		}
		defer a.Close()

		ids := args
		if len(ids) == 0 {
			for _, d := range a.Queries() {
				ids = append(ids, d.ID)
			}
		}

		var failed int
		for i, id := range ids {
			if len(ids) > 1 {
				if i > 0 {
					fmt.Println()
				}
				if d, ok := query.Lookup(id); ok {
					fmt.Printf("== %s ==\n", d.Title)
				}
			}
			table, err := a.RunQuery(id, filters)
			if err != nil {
				if len(ids) == 1 {
					return err
				}
				fmt.Printf("error: %v\n", err)
				failed++
				continue
			}
			printTable(table)
		}
		if failed > 0 {
			return fmt.Errorf("%d query(ies) failed", failed)
		}
		return nil
	},
}

// report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the surplus and category reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("report")
		if err != nil {
			return err
		}
		defer a.Close()

		written, err := a.WriteReports()
		for _, loc := range written {
			fmt.Printf("Saved: %s\n", loc)
		}
		return err
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the food distribution summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("summary")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Summary()
		if err != nil {
			return err
		}
		fmt.Println("===== FOOD DISTRIBUTION SUMMARY =====")
		fmt.Printf("Total Food Quantity: %d\n", s.TotalQuantity)
		fmt.Printf("Total Food Categories: %d\n", s.FoodTypes)
		fmt.Printf("Expired Items: %d\n", s.ExpiredQuantity)
		fmt.Printf("Soon-to-Expire Items (0-3 days): %d\n", s.ExpiringSoonQuantity)
		if s.UndatedListings > 0 {
			fmt.Printf("Listings without expiry date: %d\n", s.UndatedListings)
		}
		fmt.Println()
		for _, b := range s.Buckets {
			fmt.Printf("%-10s %d\n", b.Bucket, b.Quantity)
		}
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage encrypted database snapshots",
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Store an encrypted snapshot of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("snapshot create")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.CreateSnapshot()
		if err != nil {
			return err
		}
		fmt.Printf("Snapshot created: %s\n", name)
		return nil
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("snapshot list")
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.ListSnapshots()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore NAME DEST",
	Short: "Decrypt a snapshot to a new database file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("snapshot restore")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		if err := a.RestoreSnapshot(args[0], passphrase, args[1]); err != nil {
			return err
		}
		fmt.Printf("Snapshot restored to %s\n", args[1])
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys init")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return errors.New("passphrases do not match")
		}
		if err := a.InitKeys(passphrase); err != nil {
			return err
		}
		fmt.Println("Snapshot keys generated.")
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		a, err := newApp("serve")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Serve(ctx, addr)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// listing subcommands
	listingCmd.AddCommand(listingCreateCmd)
	listingCmd.AddCommand(listingReadCmd)
	listingCmd.AddCommand(listingUpdateCmd)
	listingCmd.AddCommand(listingDeleteCmd)
	lf := listingCreateCmd.Flags()
	lf.Int64("id", 0, "Food_ID of the new listing")
	lf.String("name", "", "Food name")
	lf.Int("quantity", 0, "Quantity")
	lf.String("expiry", "", "Expiry date (e.g. 2025-03-30)")
	lf.Int64("provider-id", 0, "Provider_ID")
	lf.String("provider-type", "", "Provider type")
	lf.String("location", "", "City of the listing")
	lf.String("food-type", "", "Food type")
	lf.String("meal-type", "", "Meal type")
	listingCreateCmd.MarkFlagRequired("id")
	listingCreateCmd.MarkFlagRequired("name")

	// provider subcommands
	providerCmd.AddCommand(providerAddCmd)
	providerCmd.AddCommand(providerUpdateCmd)
	providerCmd.AddCommand(providerDeleteCmd)
	providerCmd.AddCommand(providerContactsCmd)
	pf := providerAddCmd.Flags()
	pf.String("name", "", "Provider name")
	pf.String("city", "", "City")
	pf.String("contact", "", "Contact")
	pf.String("type", "", "Provider type")
	pf.String("address", "", "Address")
	cf := providerContactsCmd.Flags()
	cf.String("city", "", "Filter by city (substring)")
	cf.String("name", "", "Filter by provider name (substring)")
	cf.String("type", "", "Filter by provider type (substring)")

	// query subcommands
	queryCmd.AddCommand(queryListCmd)
	queryCmd.AddCommand(queryRunCmd)
	queryRunCmd.Flags().String("city", "", "City filter")
	queryRunCmd.Flags().String("food-type", "", "Food type filter")

	// snapshot and keys subcommands
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().String("dir", "", "Directory holding the CSV sources (default: sources.dir)")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of load runs to show")
	rootCmd.AddCommand(listingCmd)
	rootCmd.AddCommand(providerCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default: dashboard.addr)")
}
