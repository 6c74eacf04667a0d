package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks a single dialect directory on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	_, err := versions(os.DirFS(dir), ".")
	return err
}

// ValidateFS checks dir inside fsys. Every problem is reported, not only the
// first one.
func ValidateFS(fsys fs.FS, dir string) error {
	_, err := versions(fsys, dir)
	return err
}

// ValidateTree checks each dialect directory under root and that the dialects
// carry the same set of versions, so sqlite and postgres never drift.
func ValidateTree(fsys fs.FS, root string, dialects []string) error {
	var (
		errs      error
		reference []string
		refName   string
	)
	for _, dialect := range dialects {
		got, err := versions(fsys, path.Join(root, dialect))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", dialect, err))
			continue
		}
		if refName == "" {
			reference, refName = got, dialect
			continue
		}
		if !slices.Equal(reference, got) {
			errs = multierr.Append(errs, fmt.Errorf("%s versions %v differ from %s versions %v", dialect, got, refName, reference))
		}
	}
	return errs
}

// versions returns the sorted migration versions in dir.
func versions(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
			continue
		}
		seen[m[1]] = name

		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", name, err))
			continue
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(b), marker) {
				errs = multierr.Append(errs, fmt.Errorf("migration %q missing %q", name, marker))
			}
		}
	}
	if errs != nil {
		return nil, errs
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}
