package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no package matches a lookup.
var ErrNotFound = errors.New("package not found")

// Package is one ledger row.
type Package struct {
	Seq               int64     `json:"seq"`
	ModelName         string    `json:"model_name"`
	GUID              string    `json:"guid"`
	Platform          string    `json:"platform"`
	ArchivePath       string    `json:"archive_path"`
	SHA256            string    `json:"sha256"`
	DescriptionSHA256 string    `json:"description_sha256"`
	GeneratorVersion  string    `json:"generator_version"`
	CreatedAt         time.Time `json:"created_at"`
}

// RecordPackage appends a package to the ledger and returns its seq.
// Uses ON CONFLICT DO NOTHING for idempotency: recording an archive with
// the same model, platform and digest again returns the existing seq and
// inserted=false.
func (s *Store) RecordPackage(ctx context.Context, p Package) (seq int64, inserted bool, err error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO packages
		(model_name, guid, platform, archive_path, sha256, description_sha256, generator_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_name, platform, sha256) DO NOTHING
	`,
		p.ModelName,
		p.GUID,
		p.Platform,
		p.ArchivePath,
		p.SHA256,
		p.DescriptionSHA256,
		p.GeneratorVersion,
		p.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, false, fmt.Errorf("record package: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("record package: %w", err)
	}
	if n == 1 {
		seq, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("record package: %w", err)
		}
		return seq, true, nil
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT seq FROM packages
		WHERE model_name = ? AND platform = ? AND sha256 = ?
	`, p.ModelName, p.Platform, p.SHA256).Scan(&seq)
	if err != nil {
		return 0, false, fmt.Errorf("record package: %w", err)
	}
	return seq, false, nil
}

const packageColumns = `seq, model_name, guid, platform, archive_path, sha256, description_sha256, generator_version, created_at`

// ListPackages returns the packages of one model, or of every model when
// model is empty, ordered by seq.
//
// Returns an empty slice (not nil) if nothing has been recorded.
func (s *Store) ListPackages(ctx context.Context, model string) ([]Package, error) {
	var where And
	if model != "" {
		where.Predicates = append(where.Predicates, Equals{Column: "model_name", Value: model})
	}
	return s.FindPackages(ctx, where)
}

// FindPackages returns the packages matching where, ordered by seq.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) FindPackages(ctx context.Context, where Predicate) ([]Package, error) {
	cond, args, err := compilePredicate(where)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	query := `SELECT ` + packageColumns + ` FROM packages WHERE ` + cond + ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	packages := []Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return packages, nil
}

// LatestPackage returns the most recently recorded package of a model.
func (s *Store) LatestPackage(ctx context.Context, model string) (Package, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+packageColumns+`
		FROM packages
		WHERE model_name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, model)

	p, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Package{}, fmt.Errorf("%w: %s", ErrNotFound, model)
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPackage(row scanner) (Package, error) {
	var (
		p       Package
		created string
	)
	err := row.Scan(
		&p.Seq,
		&p.ModelName,
		&p.GUID,
		&p.Platform,
		&p.ArchivePath,
		&p.SHA256,
		&p.DescriptionSHA256,
		&p.GeneratorVersion,
		&created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan package: %w", err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return p, fmt.Errorf("scan package %d: created_at: %w", p.Seq, err)
	}
	return p, nil
}
