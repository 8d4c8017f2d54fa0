package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/data/pgxutil"
	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	apperrors "github.com/PoojaS1511/Updated-CMS-sub000/internal/errors"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

// DefaultLookupTimeout bounds a single directory query.
const DefaultLookupTimeout = 3 * time.Second

var (
	_ ports.FacultyDirectory = (*FacultyRepo)(nil)
	_ ports.StudentDirectory = (*StudentRepo)(nil)
)

const (
	facultyColumns = `id::text, subject_id, email, name, department, designation, is_hod`
	studentColumns = `id::text, email, name, roll_number, department, year, section`
)

type facultyRow struct {
	ID          string `db:"id"`
	SubjectID   string `db:"subject_id"`
	Email       string `db:"email"`
	Name        string `db:"name"`
	Department  string `db:"department"`
	Designation string `db:"designation"`
	IsHOD       bool   `db:"is_hod"`
}

func (r facultyRow) record() domainauth.FacultyRecord {
	return domainauth.FacultyRecord(r)
}

type studentRow struct {
	ID         string `db:"id"`
	Email      string `db:"email"`
	Name       string `db:"name"`
	RollNumber string `db:"roll_number"`
	Department string `db:"department"`
	Year       int    `db:"year"`
	Section    string `db:"section"`
}

func (r studentRow) record() domainauth.StudentRecord {
	return domainauth.StudentRecord(r)
}

// DirectoryConfig configures the faculty and student repositories.
type DirectoryConfig struct {
	// LookupTimeout bounds each Find call. Zero means DefaultLookupTimeout.
	LookupTimeout time.Duration
	TimeProvider  TimeProvider
}

func (c DirectoryConfig) withDefaults() DirectoryConfig {
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = DefaultLookupTimeout
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &RealTimeProvider{}
	}
	return c
}

// FacultyRepo reads and writes the faculty directory.
type FacultyRepo struct {
	DB  *sql.DB
	cfg DirectoryConfig
}

// NewFacultyRepo creates a FacultyRepo.
func NewFacultyRepo(db *sql.DB, cfg DirectoryConfig) *FacultyRepo {
	return &FacultyRepo{DB: db, cfg: cfg.withDefaults()}
}

// FindBySubject returns the faculty row for subjectID, or nil when there is none.
// Failures to reach the database wrap domainauth.ErrStoreUnavailable.
func (r *FacultyRepo) FindBySubject(ctx context.Context, subjectID string) (*domainauth.FacultyRecord, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	var row facultyRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+facultyColumns+` FROM faculty WHERE subject_id = $1`, subjectID)
		if err != nil {
			return err
		}
		defer rows.Close()

		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[facultyRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, lookupError("faculty", err)
	}

	rec := row.record()
	return &rec, nil
}

// Upsert inserts or updates a faculty row keyed by subject id.
func (r *FacultyRepo) Upsert(ctx context.Context, rec domainauth.FacultyRecord) (*domainauth.FacultyRecord, error) {
	rec.SubjectID = strings.TrimSpace(rec.SubjectID)
	rec.Email = domainauth.NormalizeEmail(rec.Email)
	if rec.SubjectID == "" {
		return nil, apperrors.ValidationField("subject_id", "subject_id is required")
	}
	if rec.Email == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}

	var row facultyRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `
			INSERT INTO faculty (subject_id, email, name, department, designation, is_hod, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (subject_id) DO UPDATE SET
				email = EXCLUDED.email,
				name = EXCLUDED.name,
				department = EXCLUDED.department,
				designation = EXCLUDED.designation,
				is_hod = EXCLUDED.is_hod,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + facultyColumns

		rows, err := conn.Query(ctx, query,
			rec.SubjectID, rec.Email, rec.Name, rec.Department, rec.Designation, rec.IsHOD,
			r.cfg.TimeProvider.Now())
		if err != nil {
			return err
		}
		defer rows.Close()

		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[facultyRow])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert faculty %s: %w", rec.SubjectID, apperrors.MapDBError(err))
	}

	out := row.record()
	return &out, nil
}

// DeleteBySubject removes the faculty row for subjectID. Missing rows are not an error.
func (r *FacultyRepo) DeleteBySubject(ctx context.Context, subjectID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM faculty WHERE subject_id = $1`, subjectID); err != nil {
		return fmt.Errorf("delete faculty %s: %w", subjectID, apperrors.MapDBError(err))
	}
	return nil
}

// StudentRepo reads and writes the student directory.
type StudentRepo struct {
	DB  *sql.DB
	cfg DirectoryConfig
}

// NewStudentRepo creates a StudentRepo.
func NewStudentRepo(db *sql.DB, cfg DirectoryConfig) *StudentRepo {
	return &StudentRepo{DB: db, cfg: cfg.withDefaults()}
}

// FindByEmail returns the student row for email, compared case-insensitively,
// or nil when there is none.
func (r *StudentRepo) FindByEmail(ctx context.Context, email string) (*domainauth.StudentRecord, error) {
	email = domainauth.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	var row studentRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+studentColumns+` FROM students WHERE lower(email) = $1`, email)
		if err != nil {
			return err
		}
		defer rows.Close()

		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[studentRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, lookupError("student", err)
	}

	rec := row.record()
	return &rec, nil
}

// Upsert inserts or updates a student row keyed by lower-cased email.
func (r *StudentRepo) Upsert(ctx context.Context, rec domainauth.StudentRecord) (*domainauth.StudentRecord, error) {
	rec.Email = domainauth.NormalizeEmail(rec.Email)
	if rec.Email == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}
	if rec.Year < 0 {
		return nil, apperrors.ValidationField("year", "year must not be negative")
	}

	var row studentRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `
			INSERT INTO students (email, name, roll_number, department, year, section, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT ((lower(email))) DO UPDATE SET
				name = EXCLUDED.name,
				roll_number = EXCLUDED.roll_number,
				department = EXCLUDED.department,
				year = EXCLUDED.year,
				section = EXCLUDED.section,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + studentColumns

		rows, err := conn.Query(ctx, query,
			rec.Email, rec.Name, rec.RollNumber, rec.Department, rec.Year, rec.Section,
			r.cfg.TimeProvider.Now())
		if err != nil {
			return err
		}
		defer rows.Close()

		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[studentRow])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert student: %w", apperrors.MapDBError(err))
	}

	out := row.record()
	return &out, nil
}

// DeleteByEmail removes the student row for email. Missing rows are not an error.
func (r *StudentRepo) DeleteByEmail(ctx context.Context, email string) error {
	email = domainauth.NormalizeEmail(email)
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM students WHERE lower(email) = $1`, email); err != nil {
		return fmt.Errorf("delete student: %w", apperrors.MapDBError(err))
	}
	return nil
}

// lookupError separates "the database did not answer" from "the query failed".
// Only the first wraps domainauth.ErrStoreUnavailable.
func lookupError(store string, err error) error {
	if apperrors.IsTransient(err) {
		return fmt.Errorf("%s lookup: %w: %w", store, domainauth.ErrStoreUnavailable, apperrors.MapDBError(err))
	}
	return fmt.Errorf("%s lookup: %w", store, apperrors.MapDBError(err))
}
