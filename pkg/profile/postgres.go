package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/honeypot-labs/cipher/pkg/intel"
)

// PostgresStore persists profiles in the sender_profiles table. The slice
// and map columns are stored as JSONB.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore wraps an open database handle. The schema is owned by
// the database package's migrations.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

const profileColumns = `sender, first_seen, last_seen, total_engagements, total_turns,
	risk_score, scam_categories, tactics_observed, extracted_entities, status`

// Update runs the read-modify-write under a row lock so concurrent events
// for the same sender serialize instead of clobbering each other. The row
// is created first when absent: FOR UPDATE cannot lock a row that does not
// exist yet, so two concurrent creators would otherwise both win.
func (s *PostgresStore) Update(ctx context.Context, sender string, mutate func(p *Profile, created bool)) (*Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning profile update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var created bool
	now := s.now().UTC()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO sender_profiles (sender, first_seen, last_seen)
		VALUES ($1, $2, $2)
		ON CONFLICT (sender) DO NOTHING
		RETURNING TRUE`, sender, now).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		created = false
	} else if err != nil {
		return nil, fmt.Errorf("ensuring profile row for %q: %w", sender, err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM sender_profiles WHERE sender = $1 FOR UPDATE`, sender)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("loading profile for %q: %w", sender, err)
	}

	mutate(p, created)

	categories, err := json.Marshal(p.ScamCategories)
	if err != nil {
		return nil, fmt.Errorf("encoding scam categories: %w", err)
	}
	tactics, err := json.Marshal(p.TacticsObserved)
	if err != nil {
		return nil, fmt.Errorf("encoding tactics: %w", err)
	}
	entities, err := json.Marshal(p.ExtractedEntities)
	if err != nil {
		return nil, fmt.Errorf("encoding extracted entities: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sender_profiles SET
			first_seen         = $2,
			last_seen          = $3,
			total_engagements  = $4,
			total_turns        = $5,
			risk_score         = $6,
			scam_categories    = $7,
			tactics_observed   = $8,
			extracted_entities = $9,
			status             = $10
		WHERE sender = $1`,
		p.Sender, p.FirstSeen, p.LastSeen, p.TotalEngagements, p.TotalTurns,
		p.RiskScore, categories, tactics, entities, p.Status)
	if err != nil {
		return nil, fmt.Errorf("saving profile for %q: %w", sender, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing profile update: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetBySender(ctx context.Context, sender string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM sender_profiles WHERE sender = $1`, sender)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile for %q: %w", sender, err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int, status string) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM sender_profiles`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY last_seen DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profile rows: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	var (
		p          Profile
		categories []byte
		tactics    []byte
		entities   []byte
	)
	err := row.Scan(&p.Sender, &p.FirstSeen, &p.LastSeen, &p.TotalEngagements, &p.TotalTurns,
		&p.RiskScore, &categories, &tactics, &entities, &p.Status)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(categories, &p.ScamCategories); err != nil {
		return nil, fmt.Errorf("decoding scam categories: %w", err)
	}
	if err := json.Unmarshal(tactics, &p.TacticsObserved); err != nil {
		return nil, fmt.Errorf("decoding tactics: %w", err)
	}
	if err := json.Unmarshal(entities, &p.ExtractedEntities); err != nil {
		return nil, fmt.Errorf("decoding extracted entities: %w", err)
	}
	if p.ExtractedEntities == nil {
		p.ExtractedEntities = intel.NewBuffer()
	}
	p.ExtractedEntities.Normalize()

	p.FirstSeen = p.FirstSeen.UTC()
	p.LastSeen = p.LastSeen.UTC()
	return &p, nil
}
