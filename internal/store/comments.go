package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// AddComment inserts the comment and bumps the parent card's version in the
// same transaction.
func (s *Store) AddComment(cardID int64, message string, authorID int64) (model.Comment, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Comment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getCardTx(tx, cardID); err != nil {
		return model.Comment{}, err
	}

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO comments (card_id, message, created_by, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		cardID, message, authorID, model.CommentStatusCreated, formatTime(now),
	)
	if err != nil {
		return model.Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	if err := bumpCardVersion(tx, cardID); err != nil {
		return model.Comment{}, err
	}

	comment, err := getCommentTx(tx, id)
	if err != nil {
		return model.Comment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// DeleteComment flips the comment's status to deleted. The row, and with it
// the message, stays. A second delete is rejected.
func (s *Store) DeleteComment(commentID int64) (model.Comment, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Comment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := getCommentTx(tx, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if cur.Status == model.CommentStatusDeleted {
		return model.Comment{}, fmt.Errorf("comment %d: %w", commentID, ErrCommentDeleted)
	}

	if _, err := tx.Exec(`UPDATE comments SET status = ? WHERE id = ?`, model.CommentStatusDeleted, commentID); err != nil {
		return model.Comment{}, err
	}
	if err := bumpCardVersion(tx, cur.CardID); err != nil {
		return model.Comment{}, err
	}

	comment, err := getCommentTx(tx, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

func (s *Store) ListComments(cardID int64) ([]model.Comment, error) {
	if _, err := s.GetCard(cardID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, card_id, message, created_by, status, created_at FROM comments WHERE card_id = ? ORDER BY id ASC`,
		cardID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var (
			c       model.Comment
			created string
		)
		if err := rows.Scan(&c.ID, &c.CardID, &c.Message, &c.CreatedBy, &c.Status, &created); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func getCommentTx(q querier, id int64) (model.Comment, error) {
	row := q.QueryRow(`SELECT id, card_id, message, created_by, status, created_at FROM comments WHERE id = ?`, id)

	var (
		c       model.Comment
		created string
	)
	if err := row.Scan(&c.ID, &c.CardID, &c.Message, &c.CreatedBy, &c.Status, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, fmt.Errorf("comment %d: %w", id, ErrNotFound)
		}
		return model.Comment{}, err
	}
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return model.Comment{}, err
	}
	return c, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// bumpCardVersion runs inside the caller's transaction so the bump commits
// or rolls back with the mutation it accompanies. It deliberately leaves
// title and description alone, which keeps the FTS triggers quiet.
func bumpCardVersion(e execer, cardID int64) error {
	_, err := e.Exec(
		`UPDATE cards SET version = version + 1, updated_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), cardID,
	)
	return err
}
