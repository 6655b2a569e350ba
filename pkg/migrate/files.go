package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const versionLayout = "20060102150405"

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9_]+`)
)

// File is one goose SQL migration on disk.
type File struct {
	Version int64
	Slug    string
	Path    string
}

// ListDir returns the SQL migrations in dir ordered by version. Badly named
// files and duplicate versions are errors.
func ListDir(dir string) ([]File, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	files := make([]File, 0, len(entries))
	byVersion := make(map[int64]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := fileNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (want YYYYMMDDHHMMSS_slug.sql)", e.Name())
		}
		version, _ := strconv.ParseInt(m[1], 10, 64)
		if prev, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("version %d used by %q and %q", version, prev, e.Name())
		}
		byVersion[version] = e.Name()
		files = append(files, File{Version: version, Slug: m[2], Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// ValidateDir checks names, versions and goose annotations of every
// migration in dir and reports all problems at once.
func ValidateDir(dir string) error {
	files, err := ListDir(dir)
	if err != nil {
		return err
	}
	var errs error
	for _, f := range files {
		errs = multierr.Append(errs, validateFile(f))
	}
	return errs
}

func validateFile(f File) error {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("read %q: %w", f.Path, err)
	}
	txt := string(raw)
	name := filepath.Base(f.Path)

	up := strings.Index(txt, "-- +goose Up")
	down := strings.Index(txt, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("%s: missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("%s: missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("%s: Down section before Up", name)
	}
	if begins, ends := strings.Count(txt, "-- +goose StatementBegin"), strings.Count(txt, "-- +goose StatementEnd"); begins != ends {
		return fmt.Errorf("%s: %d StatementBegin but %d StatementEnd", name, begins, ends)
	}
	return nil
}

// CreateSQLMigration writes an empty goose migration named after name. The
// version is the current UTC second, pushed past the newest existing file so
// ordering holds even with clock skew.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createAt(dir, name, time.Now().UTC())
}

func createAt(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	slug = strings.Trim(slugRe.ReplaceAllString(slug, "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	existing, err := ListDir(dir)
	if err != nil {
		return "", err
	}
	version, _ := strconv.ParseInt(now.Format(versionLayout), 10, 64)
	if n := len(existing); n > 0 && existing[n-1].Version >= version {
		last, err := time.Parse(versionLayout, strconv.FormatInt(existing[n-1].Version, 10))
		if err != nil {
			return "", fmt.Errorf("parse version %d: %w", existing[n-1].Version, err)
		}
		version, _ = strconv.ParseInt(last.Add(time.Second).Format(versionLayout), 10, 64)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, slug))
	body := fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`, slug)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write %q: %w", path, err)
	}
	return path, nil
}
