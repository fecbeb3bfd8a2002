package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

func (s *Store) CreateProject(name, repoURL string) (model.Project, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO projects (name, repo_url, created_at) VALUES (?, ?, ?)`,
		name, repoURL, formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Project{}, fmt.Errorf("project with repo url %q: %w", repoURL, ErrExists)
		}
		return model.Project{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Project{}, err
	}
	return s.GetProject(id)
}

func (s *Store) GetProject(id int64) (model.Project, error) {
	row := s.db.QueryRow(`SELECT id, name, repo_url, created_at FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (s *Store) ListProjects() ([]model.Project, error) {
	rows, err := s.db.Query(`SELECT id, name, repo_url, created_at FROM projects ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) CreateUser(username, userType, email string) (model.User, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO users (username, user_type, email, created_at) VALUES (?, ?, ?, ?)`,
		username, userType, email, formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("user %q: %w", username, ErrExists)
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return s.GetUser(id)
}

func (s *Store) GetUser(id int64) (model.User, error) {
	row := s.db.QueryRow(`SELECT id, username, user_type, coalesce(email, ''), created_at FROM users WHERE id = ?`, id)

	var (
		u       model.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.UserType, &u.Email, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return model.User{}, err
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *Store) ListUsers() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT id, username, user_type, coalesce(email, ''), created_at FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var (
			u       model.User
			created string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.UserType, &u.Email, &created); err != nil {
			return nil, err
		}
		if u.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (model.Project, error) {
	var (
		p       model.Project
		created string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.RepoURL, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Project{}, fmt.Errorf("project: %w", ErrNotFound)
		}
		return model.Project{}, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return model.Project{}, err
	}
	return p, nil
}
