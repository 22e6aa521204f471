package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/reelkit/reelkit/internal/config"
)

func main() {
	dir := flag.String("dir", "migrations", "Directory containing .sql migration files")
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	files, err := migrationFiles(*dir)
	if err != nil {
		log.Fatalf("Failed to list migrations: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("No migration files found in %s", *dir)
	}

	if *dryRun {
		for _, f := range files {
			sql, err := os.ReadFile(f)
			if err != nil {
				log.Fatalf("Failed to read %s: %v", f, err)
			}
			fmt.Printf("-- %s\n%s\n", f, sql)
		}
		return
	}

	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer db.Close()

	for _, f := range files {
		sql, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sql)); err != nil {
			log.Fatalf("Migration %s failed: %v", f, err)
		}
		log.Printf("Applied %s", f)
	}
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
