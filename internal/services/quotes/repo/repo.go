// Package repo provides the quotes repository implementation
package repo

import (
	"context"
	"fmt"
	"strings"

	"quotary/internal/modkit/repokit"
	perr "quotary/internal/platform/errors"
	"quotary/internal/services/quotes/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the quotes repository over the active, archived and
// reported sets
type Storage interface {
	InsertActiveMany(ctx context.Context, rows []domain.QuoteRow) (int, error)
	FindActive(ctx context.Context, id string) (domain.QuoteRow, error)
	FirstActiveID(ctx context.Context) (string, error)
	ScanActiveFrom(ctx context.Context, fromID string, limit int) ([]domain.QuoteRow, error)
	IncrementVote(ctx context.Context, id string, kind domain.VoteKind) (domain.QuoteRow, error)
	SetVotes(ctx context.Context, id string, positive, negative int) error
	IncrementNSFW(ctx context.Context, id string) error
	DeleteActive(ctx context.Context, id string) (domain.QuoteRow, bool, error)
	InsertArchived(ctx context.Context, row domain.QuoteRow) error
	InsertReported(ctx context.Context, row domain.QuoteRow) error
	CountActive(ctx context.Context) (int64, error)
	DumpSet(ctx context.Context, set Set) ([]domain.QuoteRow, error)
}

// Set names one of the three quote tables
type Set string

const (
	SetActive   Set = "active_quotes"
	SetArchived Set = "archived_quotes"
	SetReported Set = "reported_quotes"
)

// Sets lists all quote tables in dump order
func Sets() []Set { return []Set{SetActive, SetArchived, SetReported} }

const quoteCols = `id, text, tags, channel_name, channel_link, positive_votes, negative_votes, nsfw_count, batch_id`

func scanQuote(row interface{ Scan(...any) error }) (domain.QuoteRow, error) {
	var r domain.QuoteRow
	err := row.Scan(
		&r.ID, &r.Text, &r.Tags, &r.ChannelName, &r.ChannelLink,
		&r.PositiveVotes, &r.NegativeVotes, &r.NSFWCount, &r.BatchID,
	)
	return r, err
}

// InsertActiveMany implements Storage. Duplicate ids are absorbed so a
// replayed batch cannot double-insert; the returned count is rows that
// actually landed
func (s *pg) InsertActiveMany(ctx context.Context, rows []domain.QuoteRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO active_quotes (` + quoteCols + `) VALUES `)

	args := make([]any, 0, len(rows)*9)
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*9 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base, base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			r.ID, r.Text, r.Tags, r.ChannelName, r.ChannelLink,
			r.PositiveVotes, r.NegativeVotes, r.NSFWCount, r.BatchID,
		)
	}
	sb.WriteString(` ON CONFLICT (id) DO NOTHING`)

	tag, err := s.q.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, perr.FromPostgres(err, "insert active quotes")
	}
	return int(tag.RowsAffected()), nil
}

// FindActive implements Storage
func (s *pg) FindActive(ctx context.Context, id string) (domain.QuoteRow, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+quoteCols+` FROM active_quotes WHERE id = $1`, id)
	if err != nil {
		return domain.QuoteRow{}, perr.FromPostgres(err, "find active quote")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.QuoteRow{}, perr.FromPostgres(err, "find active quote")
		}
		return domain.QuoteRow{}, perr.NotFoundf("active quote %s not found", id)
	}
	return scanQuote(rows)
}

// FirstActiveID implements Storage
func (s *pg) FirstActiveID(ctx context.Context) (string, error) {
	rows, err := s.q.Query(ctx, `SELECT id FROM active_quotes ORDER BY id ASC LIMIT 1`)
	if err != nil {
		return "", perr.FromPostgres(err, "first active id")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", perr.FromPostgres(err, "first active id")
		}
		return "", domain.ErrFeedExhausted
	}
	var id string
	if err := rows.Scan(&id); err != nil {
		return "", perr.FromPostgres(err, "first active id")
	}
	return id, nil
}

// ScanActiveFrom implements Storage. Rows come back in ascending id
// order starting at fromID inclusive
func (s *pg) ScanActiveFrom(ctx context.Context, fromID string, limit int) ([]domain.QuoteRow, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+quoteCols+` FROM active_quotes WHERE id >= $1 ORDER BY id ASC LIMIT $2`,
		fromID, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "scan active quotes")
	}
	defer rows.Close()

	out := make([]domain.QuoteRow, 0, limit)
	for rows.Next() {
		r, err := scanQuote(rows)
		if err != nil {
			return nil, perr.FromPostgres(err, "scan active quotes")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IncrementVote implements Storage. The returned row reflects the
// counters after this increment, read in the same statement so a
// concurrent voter cannot slip between write and read
func (s *pg) IncrementVote(ctx context.Context, id string, kind domain.VoteKind) (domain.QuoteRow, error) {
	var col string
	switch kind {
	case domain.VotePositive:
		col = "positive_votes"
	case domain.VoteNegative:
		col = "negative_votes"
	default:
		return domain.QuoteRow{}, perr.InvalidArgf("unknown vote kind %q", kind)
	}

	rows, err := s.q.Query(ctx,
		`UPDATE active_quotes SET `+col+` = `+col+` + 1 WHERE id = $1 RETURNING `+quoteCols, id)
	if err != nil {
		return domain.QuoteRow{}, perr.FromPostgres(err, "increment vote")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.QuoteRow{}, perr.FromPostgres(err, "increment vote")
		}
		return domain.QuoteRow{}, perr.NotFoundf("active quote %s not found", id)
	}
	return scanQuote(rows)
}

// SetVotes implements Storage
func (s *pg) SetVotes(ctx context.Context, id string, positive, negative int) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE active_quotes SET positive_votes = $2, negative_votes = $3 WHERE id = $1`,
		id, positive, negative)
	if err != nil {
		return perr.FromPostgres(err, "set votes")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("active quote %s not found", id)
	}
	return nil
}

// IncrementNSFW implements Storage
func (s *pg) IncrementNSFW(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE active_quotes SET nsfw_count = nsfw_count + 1 WHERE id = $1`, id)
	if err != nil {
		return perr.FromPostgres(err, "increment nsfw")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("active quote %s not found", id)
	}
	return nil
}

// DeleteActive implements Storage. The snapshot of the deleted row is
// returned; ok false means another caller already removed it
func (s *pg) DeleteActive(ctx context.Context, id string) (domain.QuoteRow, bool, error) {
	rows, err := s.q.Query(ctx,
		`DELETE FROM active_quotes WHERE id = $1 RETURNING `+quoteCols, id)
	if err != nil {
		return domain.QuoteRow{}, false, perr.FromPostgres(err, "delete active quote")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.QuoteRow{}, false, perr.FromPostgres(err, "delete active quote")
		}
		return domain.QuoteRow{}, false, nil
	}
	r, err := scanQuote(rows)
	if err != nil {
		return domain.QuoteRow{}, false, perr.FromPostgres(err, "delete active quote")
	}
	return r, true, nil
}

// InsertArchived implements Storage. A replayed finalize is absorbed
func (s *pg) InsertArchived(ctx context.Context, row domain.QuoteRow) error {
	return s.insertInto(ctx, SetArchived, row)
}

// InsertReported implements Storage. Repeat reports of the same quote
// are absorbed
func (s *pg) InsertReported(ctx context.Context, row domain.QuoteRow) error {
	return s.insertInto(ctx, SetReported, row)
}

func (s *pg) insertInto(ctx context.Context, set Set, r domain.QuoteRow) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO `+string(set)+` (`+quoteCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Text, r.Tags, r.ChannelName, r.ChannelLink,
		r.PositiveVotes, r.NegativeVotes, r.NSFWCount, r.BatchID,
	)
	if err != nil {
		return perr.FromPostgres(err, "insert into "+string(set))
	}
	return nil
}

// CountActive implements Storage
func (s *pg) CountActive(ctx context.Context) (int64, error) {
	rows, err := s.q.Query(ctx, `SELECT COUNT(*) FROM active_quotes`)
	if err != nil {
		return 0, perr.FromPostgres(err, "count active quotes")
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, perr.FromPostgres(err, "count active quotes")
		}
	}
	return n, rows.Err()
}

// DumpSet implements Storage. Rows come back in ascending id order so
// dumps of the same state are byte-identical
func (s *pg) DumpSet(ctx context.Context, set Set) ([]domain.QuoteRow, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+quoteCols+` FROM `+string(set)+` ORDER BY id ASC`)
	if err != nil {
		return nil, perr.FromPostgres(err, "dump "+string(set))
	}
	defer rows.Close()

	var out []domain.QuoteRow
	for rows.Next() {
		r, err := scanQuote(rows)
		if err != nil {
			return nil, perr.FromPostgres(err, "dump "+string(set))
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
