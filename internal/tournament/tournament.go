// internal/tournament/tournament.go
//
// Tournaments: time-boxed competitions that solo scores can be attached to.
// Responsibilities:
//   - Validate and persist tournaments (create/update/get/list).
//   - Decide whether a tournament is active at a given instant.
//   - Parse the admin form time layout.

package tournament

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FormLayout is the datetime-local layout used by admin forms.
const FormLayout = "2006-01-02T15:04"

var ErrNotFound = errors.New("tournament not found")

// ValidationError describes rejected tournament input.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

type Tournament struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Start       time.Time `json:"startDate"`
	End         time.Time `json:"endDate"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	Enabled     bool      `json:"enabled"`
}

// IsActive reports whether t is enabled and now falls within [Start, End].
func (t Tournament) IsActive(now time.Time) bool {
	return t.Enabled && !now.Before(t.Start) && !now.After(t.End)
}

// Input is the editable part of a tournament.
type Input struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Start       time.Time `json:"startDate"`
	End         time.Time `json:"endDate"`
	Enabled     bool      `json:"enabled"`
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return &ValidationError{"name is required"}
	}
	if len(in.Name) > 100 {
		return &ValidationError{"name must be at most 100 chars"}
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return &ValidationError{"start and end dates are required"}
	}
	if !in.End.After(in.Start) {
		return &ValidationError{"end date must be after start date"}
	}
	in.Start = in.Start.UTC().Truncate(time.Second)
	in.End = in.End.UTC().Truncate(time.Second)
	return nil
}

// ParseFormTime parses a FormLayout value in loc (UTC when nil).
func ParseFormTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(FormLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, &ValidationError{fmt.Sprintf("invalid date %q, want YYYY-MM-DDTHH:MM", s)}
	}
	return t, nil
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, now: time.Now} }

// Create validates in and inserts a tournament owned by createdBy (may be empty).
func (s *Store) Create(ctx context.Context, in Input, createdBy string) (*Tournament, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tournaments (name, description, start_date, end_date, created_by, enabled)
		 VALUES (?,?,?,?,?,?)`,
		in.Name, in.Description, in.Start.Format(time.RFC3339), in.End.Format(time.RFC3339),
		nullString(createdBy), in.Enabled)
	if err != nil {
		return nil, fmt.Errorf("insert tournament: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Update replaces the editable fields of tournament id.
func (s *Store) Update(ctx context.Context, id int64, in Input) (*Tournament, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tournaments SET name=?, description=?, start_date=?, end_date=?, enabled=? WHERE id=?`,
		in.Name, in.Description, in.Start.Format(time.RFC3339), in.End.Format(time.RFC3339), in.Enabled, id)
	if err != nil {
		return nil, fmt.Errorf("update tournament: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id int64) (*Tournament, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, start_date, end_date, created_by, enabled
		 FROM tournaments WHERE id=?`, id)
	t, err := scanTournament(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// List returns every tournament, most recent start first.
func (s *Store) List(ctx context.Context) ([]Tournament, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, start_date, end_date, created_by, enabled
		 FROM tournaments ORDER BY start_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Tournament{}
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Active returns the active tournament that started most recently.
func (s *Store) Active(ctx context.Context) (*Tournament, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range all {
		if all[i].IsActive(now) {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTournament(row scanner) (*Tournament, error) {
	var (
		t          Tournament
		start, end string
		createdBy  sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &start, &end, &createdBy, &t.Enabled); err != nil {
		return nil, err
	}
	t.Start, _ = time.Parse(time.RFC3339, start)
	t.End, _ = time.Parse(time.RFC3339, end)
	t.CreatedBy = createdBy.String
	return &t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
