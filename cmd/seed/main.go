package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/vendacerta/backend-go/pkg/logger"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Store the database connection in the context
	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}
	logger.SetLevel(os.Getenv("LOG_LEVEL"))

	app := &cli.App{
		Name:  "seed",
		Usage: "Load the sales ledger and refresh stored forecasts",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the products, sales and forecasts tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "products",
				Usage: "Upsert the product catalog from a CSV file",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "file",
						Usage:   "Path to products CSV or XLSX (id,name,category)",
						Value:   "./data/seeds/products.csv",
						EnvVars: []string{"PRODUCTS_FILE"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runImportProducts,
			},
			{
				Name:  "sales",
				Usage: "Append sales ledger rows from local or object storage CSV files",
				Flags: append([]cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "file",
						Usage:   "Path to a local sales CSV or XLSX (product_id,date,quantity[,revenue,category])",
						EnvVars: []string{"SALES_FILE"},
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object storage prefix holding sales CSV or XLSX files",
					},
					&cli.StringFlag{
						Name:  "object",
						Usage: "Single object key to download, relative to --prefix",
					},
				}, storageFlags()...),
				Before: initDB,
				After:  closeDB,
				Action: runImportSales,
			},
			{
				Name:  "forecast-all",
				Usage: "Forecast and persist every scope: total, each category and each product",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:    "horizon",
						Usage:   "Days to forecast per scope",
						Value:   30,
						EnvVars: []string{"FORECAST_DEFAULT_HORIZON"},
					},
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Concurrent forecast workers",
						Value:   4,
						EnvVars: []string{"FORECAST_WORKERS"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runForecastAll,
			},
			{
				Name:  "holidays-refresh",
				Usage: "Drop cached holiday years and refetch them from the calendar source",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "from",
						Usage: "First year to refetch (defaults to the forecast history start year)",
					},
					&cli.IntFlag{
						Name:  "to",
						Usage: "Last year to refetch (defaults to next year)",
					},
				},
				Action: runHolidaysRefresh,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
