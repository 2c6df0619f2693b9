// InfraCalc CLI - Road-Safety Intervention Cost Estimator
//
// Usage:
//   infracalc estimate --report report.txt [options]
//   infracalc manual --item "Pothole=2.5" --item "Warning Signage=3"
//   infracalc catalog list
//   infracalc prices publish --source field-survey
//   infracalc serve --port 8080
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/ka7788158-png/IIT-MADRAS/api"
	"github.com/ka7788158-png/IIT-MADRAS/catalog"
	"github.com/ka7788158-png/IIT-MADRAS/chainage"
	"github.com/ka7788158-png/IIT-MADRAS/db/clickhouse"
	"github.com/ka7788158-png/IIT-MADRAS/estimate"
	"github.com/ka7788158-png/IIT-MADRAS/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Reference line assumptions for map annotation: the surveyed segment runs
// from chainage 4+100 to 362+500 along a fixed GPS line.
const (
	defaultMapStartChainage = "4+100"
	defaultMapEndChainage   = "362+500"
)

var (
	defaultMapStart = orb.Point{10.310709, 77.944926}
	defaultMapEnd   = orb.Point{10.306490, 77.943170}
)

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()
	platform.InitLogger()

	app := &cli.App{
		Name:    "infracalc",
		Usage:   "Material cost estimation for road-safety interventions",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "spec-db",
				Usage:   "Path to intervention specification table JSON (default: embedded)",
				EnvVars: []string{"INFRACALC_SPEC_DB"},
			},
			&cli.StringFlag{
				Name:    "prices",
				Usage:   "Path to material price table JSON (default: embedded)",
				EnvVars: []string{"INFRACALC_PRICES"},
			},
			&cli.StringFlag{
				Name:    "prices-from",
				Value:   "file",
				Usage:   "Price table source (file, clickhouse)",
				EnvVars: []string{"INFRACALC_PRICES_FROM"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "infracalc",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
		},

		Commands: []*cli.Command{
			estimateCommand(),
			manualCommand(),
			catalogCommand(),
			pricesCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// ESTIMATE COMMAND (batch mode)
// =============================================================================

func estimateCommand() *cli.Command {
	return &cli.Command{
		Name:  "estimate",
		Usage: "Estimate material costs from extracted report text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "report",
				Aliases:  []string{"r"},
				Usage:    "Path to the extracted report text file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json, text)",
			},
			&cli.StringSliceFlag{
				Name:    "override",
				Aliases: []string{"o"},
				Usage:   "Price override as 'Material=Price' (repeatable)",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Write result items to this CSV file",
			},
			&cli.BoolFlag{
				Name:  "with-map",
				Usage: "Project chainage labels onto the reference line",
			},
			&cli.StringFlag{
				Name:  "map-start-chainage",
				Value: defaultMapStartChainage,
				Usage: "Reference line start chainage",
			},
			&cli.StringFlag{
				Name:  "map-end-chainage",
				Value: defaultMapEndChainage,
				Usage: "Reference line end chainage",
			},
		},
		Action: runEstimate,
	}
}

func runEstimate(c *cli.Context) error {
	ctx := context.Background()

	text, err := os.ReadFile(c.String("report"))
	if err != nil {
		return fmt.Errorf("could not read input report: %w", err)
	}

	specs, prices, err := loadTables(c)
	if err != nil {
		return err
	}

	overrides, err := parseOverrides(c.StringSlice("override"))
	if err != nil {
		return err
	}

	engine := estimate.NewEngine(specs, prices)
	if c.Bool("with-map") {
		line, err := chainage.NewReferenceLine(
			c.String("map-start-chainage"),
			c.String("map-end-chainage"),
			defaultMapStart,
			defaultMapEnd,
		)
		if err != nil {
			return fmt.Errorf("invalid reference line: %w", err)
		}
		engine = engine.WithReferenceLine(line)
	}

	result, err := engine.EstimateText(ctx, string(text), estimate.Options{
		PriceOverrides: overrides,
		SourceName:     c.String("report"),
	})
	if err != nil {
		return err
	}

	if path := c.String("csv"); path != "" {
		if err := writeCSVFile(path, result.Items); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Summary table written to %s\n", path)
	}

	return output(c.String("format"), result)
}

// =============================================================================
// MANUAL COMMAND
// =============================================================================

func manualCommand() *cli.Command {
	return &cli.Command{
		Name:  "manual",
		Usage: "Estimate material costs from manually entered quantities",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "item",
				Aliases:  []string{"i"},
				Usage:    "Entry as 'Intervention=Quantity' (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json, text)",
			},
			&cli.StringSliceFlag{
				Name:    "override",
				Aliases: []string{"o"},
				Usage:   "Price override as 'Material=Price' (repeatable)",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Write result items to this CSV file",
			},
		},
		Action: runManual,
	}
}

func runManual(c *cli.Context) error {
	ctx := context.Background()

	specs, prices, err := loadTables(c)
	if err != nil {
		return err
	}

	overrides, err := parseOverrides(c.StringSlice("override"))
	if err != nil {
		return err
	}

	entries := make([]estimate.ManualEntry, 0, len(c.StringSlice("item")))
	for _, raw := range c.StringSlice("item") {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("invalid --item %q, expected 'Intervention=Quantity'", raw)
		}
		quantity, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || !quantity.IsPositive() {
			return fmt.Errorf("invalid quantity in --item %q", raw)
		}
		spec, found := specs.Lookup(strings.TrimSpace(key))
		unit := "item"
		if found {
			unit = spec.Basis.DefaultUnit()
		}
		entries = append(entries, estimate.ManualEntry{
			Key:      strings.TrimSpace(key),
			Quantity: quantity.InexactFloat64(),
			Unit:     unit,
		})
	}

	engine := estimate.NewEngine(specs, prices)
	result, err := engine.EstimateManual(ctx, entries, estimate.Options{
		PriceOverrides: overrides,
		SourceName:     "manual entry",
	})
	if err != nil {
		return err
	}

	if path := c.String("csv"); path != "" {
		if err := writeCSVFile(path, result.Items); err != nil {
			return err
		}
	}

	return output(c.String("format"), result)
}

// =============================================================================
// CATALOG COMMAND
// =============================================================================

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect the intervention specification table",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every intervention with its material breakdown",
				Action: func(c *cli.Context) error {
					specs, _, err := loadTables(c)
					if err != nil {
						return err
					}
					for _, spec := range specs.Specs() {
						fmt.Printf("%s  [%s]\n", spec.Key, spec.Basis)
						fmt.Printf("  Source: %s\n", spec.SourceClause)
						for _, req := range spec.Requirements {
							fmt.Printf("  - %g %s of %s per %s\n",
								req.Quantity, req.Unit, req.Name, spec.Basis.DefaultUnit())
						}
						fmt.Println()
					}
					return nil
				},
			},
		},
	}
}

// =============================================================================
// PRICES COMMAND
// =============================================================================

func pricesCommand() *cli.Command {
	return &cli.Command{
		Name:  "prices",
		Usage: "Inspect or publish the material price table",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List unit prices for every material",
				Action: func(c *cli.Context) error {
					_, prices, err := loadTables(c)
					if err != nil {
						return err
					}
					for _, name := range prices.Materials() {
						price, _ := prices.Lookup(name)
						fmt.Printf("%-32s ₹%s\n", name, price.StringFixed(2))
					}
					return nil
				},
			},
			{
				Name:  "publish",
				Usage: "Publish the current price table to ClickHouse as the active snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Value: "file",
						Usage: "Provenance label for the snapshot",
					},
					&cli.StringFlag{
						Name:  "label",
						Usage: "Human-readable snapshot label",
					},
				},
				Action: func(c *cli.Context) error {
					ctx := context.Background()
					prices, err := loadFilePrices(c)
					if err != nil {
						return err
					}
					store, err := openStore(c)
					if err != nil {
						return err
					}
					defer store.Close()

					id, err := store.PublishPrices(ctx, c.String("source"), c.String("label"), prices)
					if err != nil {
						return fmt.Errorf("failed to publish prices: %w", err)
					}
					fmt.Printf("Published price snapshot %s (%d materials)\n", id, len(prices))
					return nil
				},
			},
		},
	}
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the estimation API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "API server port",
				EnvVars: []string{"INFRACALC_PORT"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Value:   "*",
				Usage:   "Comma-separated list of allowed CORS origins",
				EnvVars: []string{"INFRACALC_CORS_ORIGINS"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	specs, prices, err := loadTables(c)
	if err != nil {
		return err
	}

	line, err := chainage.NewReferenceLine(
		defaultMapStartChainage, defaultMapEndChainage,
		defaultMapStart, defaultMapEnd,
	)
	if err != nil {
		return err
	}
	engine := estimate.NewEngine(specs, prices).WithReferenceLine(line)

	corsOrigins := strings.Split(c.String("cors-origins"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	config := api.DefaultConfig()
	config.Port = c.Int("port")
	config.CORSOrigins = corsOrigins

	server := api.NewServer(engine, specs, prices, config)
	return server.StartWithGracefulShutdown()
}

// =============================================================================
// TABLE LOADING
// =============================================================================

func loadTables(c *cli.Context) (*catalog.SpecTable, catalog.PriceTable, error) {
	var specs *catalog.SpecTable
	var err error
	if path := c.String("spec-db"); path != "" {
		specs, err = catalog.LoadSpecTable(path)
	} else {
		specs, err = catalog.DefaultSpecTable()
	}
	if err != nil {
		return nil, nil, err
	}

	var prices catalog.PriceTable
	switch c.String("prices-from") {
	case "clickhouse":
		store, err := openStore(c)
		if err != nil {
			return nil, nil, err
		}
		defer store.Close()
		prices, err = store.LoadPrices(context.Background())
		if err != nil {
			return nil, nil, err
		}
	default:
		prices, err = loadFilePrices(c)
		if err != nil {
			return nil, nil, err
		}
	}
	return specs, prices, nil
}

func loadFilePrices(c *cli.Context) (catalog.PriceTable, error) {
	if path := c.String("prices"); path != "" {
		return catalog.LoadPriceTable(path)
	}
	return catalog.DefaultPriceTable()
}

func openStore(c *cli.Context) (*clickhouse.Store, error) {
	return clickhouse.NewStore(&clickhouse.Config{
		Host:     c.String("clickhouse-host"),
		Port:     c.Int("clickhouse-port"),
		Database: c.String("clickhouse-database"),
		Username: c.String("clickhouse-user"),
		Password: c.String("clickhouse-password"),
	})
}

func parseOverrides(raw []string) (map[string]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	overrides := make(map[string]decimal.Decimal, len(raw))
	for _, pair := range raw {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --override %q, expected 'Material=Price'", pair)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid price in --override %q", pair)
		}
		overrides[strings.TrimSpace(name)] = price
	}
	return overrides, nil
}

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

func output(format string, result *estimate.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		fmt.Print(result.ReportText)
		return nil
	default:
		return outputTable(result)
	}
}

func outputTable(result *estimate.Result) error {
	fmt.Println()
	fmt.Printf("%-28s %12s %-8s %14s\n", "INTERVENTION", "QUANTITY", "UNIT", "COST (₹)")
	fmt.Println(strings.Repeat("-", 66))
	for _, item := range result.Items {
		fmt.Printf("%-28s %12.2f %-8s %14s\n",
			truncate(item.Key, 28), item.Quantity, item.Unit, item.MaterialCost.StringFixed(2))
		for _, line := range item.Lines {
			if line.PriceMissing {
				fmt.Printf("    - %-24s %12.2f %-8s %14s\n",
					truncate(line.Name, 24), line.QtyNeeded, line.Unit, "NO PRICE")
			}
		}
	}
	fmt.Println(strings.Repeat("-", 66))
	fmt.Printf("%-28s %36s\n", "TOTAL ESTIMATED MATERIAL COST", "₹"+result.GrandTotal.StringFixed(2))
	if result.LinesMissingPrice > 0 {
		fmt.Printf("\n⚠️  %d material line(s) had no price and are excluded from totals\n", result.LinesMissingPrice)
	}
	for _, warning := range result.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}
	fmt.Println()
	return nil
}

func writeCSVFile(path string, items []estimate.ResultItem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return estimate.WriteCSV(f, items)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
