package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	quickbooks "github.com/goliatone/go-quickbooks"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	// SourceLabel identifies the credential schema when registered alongside
	// other migration sources.
	SourceLabel = "go-quickbooks"

	migrationsDir = "data/sql/migrations"
)

// dialectDirs maps each supported dialect to its directory under
// data/sql/migrations. Postgres owns the root.
var dialectDirs = map[string]string{
	DialectPostgres: ".",
	DialectSQLite:   "sqlite",
}

// Source is the credential schema for one dialect.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// Registration lists the sources handed to the register function.
type Registration struct {
	Sources []Source
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

// For resolves the migration filesystem for a dialect. It fails when the
// dialect is unknown or the directory holds no *.up.sql files.
func For(dialect string, sources ...fs.FS) (Source, error) {
	dialect = normalize(dialect)
	dir, ok := dialectDirs[dialect]
	if !ok {
		return Source{}, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	root := quickbooks.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}
	path := migrationsDir
	if dir != "." {
		path += "/" + dir
	}
	sub, err := fs.Sub(root, path)
	if err != nil {
		return Source{}, fmt.Errorf("migrations: resolve %s filesystem: %w", dialect, err)
	}
	matches, err := fs.Glob(sub, "*.up.sql")
	if err != nil {
		return Source{}, fmt.Errorf("migrations: glob %s: %w", path, err)
	}
	if len(matches) == 0 {
		return Source{}, fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", dialect, path)
	}
	return Source{Dialect: dialect, Path: path, FS: sub}, nil
}

// Register hands the schema of each requested dialect to registerFn. With no
// dialects it registers every supported one.
func Register(ctx context.Context, registerFn RegisterFunc, dialects ...string) (Registration, error) {
	reg := Registration{}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}
	if len(dialects) == 0 {
		dialects = []string{DialectPostgres, DialectSQLite}
	}

	seen := map[string]bool{}
	for _, dialect := range dialects {
		dialect = normalize(dialect)
		if dialect == "" || seen[dialect] {
			continue
		}
		seen[dialect] = true

		source, err := For(dialect)
		if err != nil {
			return reg, err
		}
		if err := registerFn(ctx, source.Dialect, SourceLabel, source.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Path, err)
		}
		reg.Sources = append(reg.Sources, source)
	}
	if len(reg.Sources) == 0 {
		return reg, fmt.Errorf("migrations: no dialects requested")
	}
	return reg, nil
}

func normalize(dialect string) string {
	return strings.ToLower(strings.TrimSpace(dialect))
}
