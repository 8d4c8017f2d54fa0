// Package devseed loads demo faculty and student directory rows that match the
// default development auth users.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/data"
	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

// FacultyWriter upserts faculty directory rows.
type FacultyWriter interface {
	Upsert(ctx context.Context, rec domainauth.FacultyRecord) (*domainauth.FacultyRecord, error)
}

// StudentWriter upserts student directory rows.
type StudentWriter interface {
	Upsert(ctx context.Context, rec domainauth.StudentRecord) (*domainauth.StudentRecord, error)
}

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Faculty  FacultyWriter
	Students StudentWriter
}

// NewServices constructs the directory repositories used for seeding.
func NewServices(db *sql.DB) Services {
	cfg := data.DirectoryConfig{}
	return Services{
		Faculty:  data.NewFacultyRepo(db, cfg),
		Students: data.NewStudentRepo(db, cfg),
	}
}

// Faculty returns the demo faculty rows. dev-hod heads its department.
func Faculty() []domainauth.FacultyRecord {
	return []domainauth.FacultyRecord{
		{
			SubjectID:   "dev-faculty",
			Email:       "faculty@portal.local",
			Name:        "Priya Raman",
			Department:  "Computer Science",
			Designation: "Assistant Professor",
		},
		{
			SubjectID:   "dev-hod",
			Email:       "hod@portal.local",
			Name:        "Arun Kumar",
			Department:  "Computer Science",
			Designation: "Professor",
			IsHOD:       true,
		},
	}
}

// Students returns the demo student rows.
func Students() []domainauth.StudentRecord {
	return []domainauth.StudentRecord{
		{
			Email:      "student@portal.local",
			Name:       "Meena Iyer",
			RollNumber: "CS2024-017",
			Department: "Computer Science",
			Year:       2,
			Section:    "A",
		},
	}
}

// Run upserts every demo row. Individual failures are logged and counted.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	failures := 0
	for _, rec := range Faculty() {
		saved, err := svcs.Faculty.Upsert(ctx, rec)
		if err != nil {
			logger.ErrorContext(ctx, "failed to seed faculty", "email", rec.Email, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "seeded faculty", "id", saved.ID, "email", saved.Email, "hod", saved.IsHOD)
	}
	for _, rec := range Students() {
		saved, err := svcs.Students.Upsert(ctx, rec)
		if err != nil {
			logger.ErrorContext(ctx, "failed to seed student", "email", rec.Email, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "seeded student", "id", saved.ID, "email", saved.Email)
	}
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}
