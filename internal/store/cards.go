package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

const cardColumns = `id, project_id, card_number, title, description, status, priority, card_type, created_by, created_at, updated_at, version`

func (s *Store) CreateCard(in model.NewCard) (model.Card, error) {
	status := in.Status
	if status == "" {
		status = model.DefaultStatus
	}
	cardType := in.CardType
	if cardType == "" {
		cardType = model.DefaultCardType
	}
	priority := model.DefaultPriority
	if in.Priority != nil {
		priority = *in.Priority
	}

	tx, err := s.db.Begin()
	if err != nil {
		return model.Card{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var number int
	err = tx.QueryRow(`SELECT next_card_num FROM projects WHERE id = ?`, in.ProjectID).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Card{}, fmt.Errorf("project %d: %w", in.ProjectID, ErrNotFound)
	}
	if err != nil {
		return model.Card{}, err
	}
	if _, err := tx.Exec(`UPDATE projects SET next_card_num = next_card_num + 1 WHERE id = ?`, in.ProjectID); err != nil {
		return model.Card{}, err
	}

	now := formatTime(time.Now().UTC())
	res, err := tx.Exec(`
INSERT INTO cards (project_id, card_number, title, description, status, priority, card_type, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ProjectID, number, in.Title, in.Description, status, priority, cardType, in.CreatedBy, now, now,
	)
	if err != nil {
		return model.Card{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Card{}, err
	}

	card, err := getCardTx(tx, id)
	if err != nil {
		return model.Card{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Card{}, err
	}
	return card, nil
}

func (s *Store) GetCard(id int64) (model.Card, error) {
	row := s.db.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	return scanCard(row)
}

// UpdateCard applies a partial update under optimistic concurrency control.
// The base mutation, the version bump, and the audit row commit as one
// transaction; the FTS index follows via trigger inside the same
// transaction. A patch whose values all equal the stored ones leaves
// version and updated_at untouched.
func (s *Store) UpdateCard(id int64, patch model.CardPatch, changedBy int64, callerVersion *int64) (model.Card, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Card{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := getCardTx(tx, id)
	if err != nil {
		return model.Card{}, err
	}
	if callerVersion != nil && *callerVersion != cur.Version {
		return model.Card{}, &VersionConflictError{CurrentVersion: cur.Version}
	}

	newTitle := cur.Title
	if patch.Title != nil {
		newTitle = *patch.Title
	}
	newDescription := cur.Description
	if patch.Description.Set {
		if patch.Description.Valid {
			v := patch.Description.Value
			newDescription = &v
		} else {
			newDescription = nil
		}
	}
	newStatus := cur.Status
	if patch.Status != nil {
		newStatus = *patch.Status
	}
	newPriority := cur.Priority
	if patch.Priority != nil {
		newPriority = *patch.Priority
	}

	changed := newTitle != cur.Title ||
		!equalDescription(newDescription, cur.Description) ||
		newStatus != cur.Status ||
		newPriority != cur.Priority

	if changed {
		_, err = tx.Exec(`
UPDATE cards SET title = ?, description = ?, status = ?, priority = ?, version = version + 1, updated_at = ?
WHERE id = ?`,
			newTitle, newDescription, newStatus, newPriority, formatTime(time.Now().UTC()), id,
		)
		if err != nil {
			return model.Card{}, err
		}
	}

	_, err = tx.Exec(`
INSERT INTO cards_audit (card_id, old_title, new_title, old_description, new_description, old_status, new_status, old_priority, new_priority, changed_by, changed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, cur.Title, newTitle, cur.Description, newDescription, cur.Status, newStatus, cur.Priority, newPriority,
		changedBy, formatTime(time.Now().UTC()),
	)
	if err != nil {
		return model.Card{}, err
	}

	card, err := getCardTx(tx, id)
	if err != nil {
		return model.Card{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Card{}, err
	}
	return card, nil
}

// ListCards runs either a ranked full-text match (Search set; other filters
// are not applied) or an exact-filter scan ordered by priority then recency.
// Title matches weigh ten times more than description matches in the rank.
func (s *Store) ListCards(filters model.CardFilters) ([]model.Card, error) {
	// A search with no tokens (whitespace only) is treated as absent;
	// MATCH against an empty query is an FTS5 syntax error.
	if match := ftsQuery(filters.Search); match != "" {
		rows, err := s.db.Query(`
SELECT `+prefixColumns("c", cardColumns)+`
FROM cards_fts
JOIN cards c ON c.id = cards_fts.rowid
WHERE cards_fts MATCH ?
ORDER BY bm25(cards_fts, 10.0, 1.0)`,
			match,
		)
		if err != nil {
			return nil, err
		}
		return collectCards(rows)
	}

	query := `SELECT ` + cardColumns + ` FROM cards WHERE 1=1`
	args := make([]any, 0, 5)
	if filters.ID != nil {
		query += ` AND id = ?`
		args = append(args, *filters.ID)
	}
	if filters.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *filters.ProjectID)
	}
	if filters.Status != nil {
		query += ` AND status = ?`
		args = append(args, *filters.Status)
	}
	if filters.Priority != nil {
		query += ` AND priority = ?`
		args = append(args, *filters.Priority)
	}
	if filters.CardType != nil {
		query += ` AND card_type = ?`
		args = append(args, *filters.CardType)
	}
	query += ` ORDER BY priority DESC, created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

func (s *Store) ListAudits(cardID int64) ([]model.CardAudit, error) {
	if _, err := s.GetCard(cardID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
SELECT id, card_id, old_title, new_title, old_description, new_description, old_status, new_status, old_priority, new_priority, changed_by, changed_at
FROM cards_audit WHERE card_id = ? ORDER BY id ASC`, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audits := make([]model.CardAudit, 0)
	for rows.Next() {
		var (
			a       model.CardAudit
			changed string
		)
		if err := rows.Scan(
			&a.ID, &a.CardID, &a.OldTitle, &a.NewTitle, &a.OldDescription, &a.NewDescription,
			&a.OldStatus, &a.NewStatus, &a.OldPriority, &a.NewPriority, &a.ChangedBy, &changed,
		); err != nil {
			return nil, err
		}
		if a.ChangedAt, err = parseTime(changed); err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func getCardTx(q querier, id int64) (model.Card, error) {
	row := q.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	return scanCard(row)
}

func scanCard(row rowScanner) (model.Card, error) {
	var (
		c       model.Card
		created string
		updated string
	)
	err := row.Scan(
		&c.ID, &c.ProjectID, &c.CardNumber, &c.Title, &c.Description,
		&c.Status, &c.Priority, &c.CardType, &c.CreatedBy, &created, &updated, &c.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Card{}, fmt.Errorf("card: %w", ErrNotFound)
		}
		return model.Card{}, err
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return model.Card{}, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return model.Card{}, err
	}
	return c, nil
}

func collectCards(rows *sql.Rows) ([]model.Card, error) {
	defer rows.Close()
	cards := make([]model.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func equalDescription(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}

// ftsQuery quotes each whitespace-separated token so user input cannot
// inject FTS5 query operators. Tokens combine with the implicit AND.
func ftsQuery(search string) string {
	fields := strings.Fields(search)
	for i, field := range fields {
		fields[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}
