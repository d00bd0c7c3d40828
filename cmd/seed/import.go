package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/vendacerta/backend-go/internal/ingest"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/vendacerta/backend-go/pkg/logger"
)

func runMigrate(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	if err := postgres.Migrate(c.Context, sqlx.NewDb(db, "pgx")); err != nil {
		return err
	}
	logger.Log.Info().Msg("Schema is up to date")
	return nil
}

func runImportProducts(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	path := c.String("file")
	f, err := ingest.OpenTable(path)
	if err != nil {
		return err
	}
	defer f.Close()

	products, report, err := ingest.ReadProducts(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logReport(path, report)

	n, err := ingest.NewImporter(db).ImportProducts(c.Context, products)
	if err != nil {
		return err
	}
	logger.Log.Info().Int("products", n).Msg("Catalog imported")
	return nil
}

func runImportSales(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	paths, err := salesFiles(c)
	if err != nil {
		return err
	}

	importer := ingest.NewImporter(db)
	var total int64
	for _, path := range paths {
		n, err := importSalesFile(c, importer, path)
		if err != nil {
			return err
		}
		total += n
	}

	logger.Log.Info().
		Int("files", len(paths)).
		Int64("rows", total).
		Msg("Sales imported")
	return nil
}

func salesFiles(c *cli.Context) ([]string, error) {
	if file := c.String("file"); file != "" {
		return []string{file}, nil
	}
	if c.String("prefix") == "" && c.String("object") == "" {
		return nil, fmt.Errorf("one of --file, --prefix or --object is required")
	}

	downloader, err := newObjectDownloader(c)
	if err != nil {
		return nil, err
	}
	return downloader.download(c.Context, c.String("prefix"), c.String("object"))
}

func importSalesFile(c *cli.Context, importer *ingest.Importer, path string) (int64, error) {
	f, err := ingest.OpenTable(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, report, err := ingest.ReadSales(f)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logReport(path, report)

	return importer.ImportSales(c.Context, rows)
}

func logReport(path string, report ingest.Report) {
	event := logger.Log.Info()
	if report.Skipped > 0 {
		event = logger.Log.Warn().Interface("errors", report.Errors)
	}
	event.
		Str("file", path).
		Int("rows", report.Rows).
		Int("skipped", report.Skipped).
		Msg("Parsed CSV")
}
