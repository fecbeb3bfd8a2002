package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// CreateReference inserts a directed edge and bumps the version of the
// source card only. No inverse row is created; the target card is untouched.
func (s *Store) CreateReference(cardID, targetCardID int64, refType string) (model.ReferenceView, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.ReferenceView{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getCardTx(tx, cardID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ReferenceView{}, fmt.Errorf("source card %d: %w", cardID, ErrNotFound)
		}
		return model.ReferenceView{}, err
	}
	target, err := getCardTx(tx, targetCardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ReferenceView{}, fmt.Errorf("target card %d: %w", targetCardID, ErrNotFound)
		}
		return model.ReferenceView{}, err
	}

	var exists int
	err = tx.QueryRow(
		`SELECT count(*) FROM card_references WHERE card_id = ? AND target_card_id = ? AND ref_type = ?`,
		cardID, targetCardID, refType,
	).Scan(&exists)
	if err != nil {
		return model.ReferenceView{}, err
	}
	if exists > 0 {
		return model.ReferenceView{}, fmt.Errorf("reference %d -> %d (%s): %w", cardID, targetCardID, refType, ErrExists)
	}

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO card_references (card_id, target_card_id, ref_type, created_at) VALUES (?, ?, ?, ?)`,
		cardID, targetCardID, refType, formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ReferenceView{}, fmt.Errorf("reference %d -> %d (%s): %w", cardID, targetCardID, refType, ErrExists)
		}
		return model.ReferenceView{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ReferenceView{}, err
	}
	if err := bumpCardVersion(tx, cardID); err != nil {
		return model.ReferenceView{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ReferenceView{}, err
	}

	return model.ReferenceView{
		CardReference: model.CardReference{
			ID:           id,
			CardID:       cardID,
			TargetCardID: targetCardID,
			RefType:      refType,
			CreatedAt:    now,
		},
		OtherCardTitle: target.Title,
		Label:          model.ReferenceLabel(refType),
	}, nil
}

// DeleteReference removes the edge and bumps the source card's version. The
// reference must belong to the given card.
func (s *Store) DeleteReference(cardID, referenceID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var refCardID int64
	err = tx.QueryRow(`SELECT card_id FROM card_references WHERE id = ?`, referenceID).Scan(&refCardID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && refCardID != cardID) {
		return fmt.Errorf("reference %d: %w", referenceID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM card_references WHERE id = ?`, referenceID); err != nil {
		return err
	}
	if err := bumpCardVersion(tx, cardID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListReferences returns the card's edges in both directions, each annotated
// with the other card's title. Incoming edges carry the inverse label.
func (s *Store) ListReferences(cardID int64) (model.ReferenceList, error) {
	if _, err := s.GetCard(cardID); err != nil {
		return model.ReferenceList{}, err
	}

	outgoing, err := s.queryReferences(`
SELECT r.id, r.card_id, r.target_card_id, r.ref_type, r.created_at, c.title
FROM card_references r
JOIN cards c ON c.id = r.target_card_id
WHERE r.card_id = ?
ORDER BY r.id ASC`, cardID, model.ReferenceLabel)
	if err != nil {
		return model.ReferenceList{}, err
	}

	incoming, err := s.queryReferences(`
SELECT r.id, r.card_id, r.target_card_id, r.ref_type, r.created_at, c.title
FROM card_references r
JOIN cards c ON c.id = r.card_id
WHERE r.target_card_id = ?
ORDER BY r.id ASC`, cardID, model.InverseReferenceLabel)
	if err != nil {
		return model.ReferenceList{}, err
	}

	return model.ReferenceList{Outgoing: outgoing, Incoming: incoming}, nil
}

func (s *Store) queryReferences(query string, cardID int64, label func(string) string) ([]model.ReferenceView, error) {
	rows, err := s.db.Query(query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]model.ReferenceView, 0)
	for rows.Next() {
		var (
			ref     model.ReferenceView
			created string
		)
		if err := rows.Scan(&ref.ID, &ref.CardID, &ref.TargetCardID, &ref.RefType, &created, &ref.OtherCardTitle); err != nil {
			return nil, err
		}
		if ref.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		ref.Label = label(ref.RefType)
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
