// Package storage persists organizations, users and document metadata in
// SQLite. Chunks never land here; they live only in the vector index.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	username        TEXT NOT NULL UNIQUE,
	email           TEXT NOT NULL UNIQUE,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	hashed_password TEXT NOT NULL,
	is_admin        BOOLEAN NOT NULL DEFAULT 0,
	organization_id TEXT NOT NULL REFERENCES organizations(id),
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id),
	name            TEXT NOT NULL,
	unique_filename TEXT NOT NULL UNIQUE,
	path            TEXT NOT NULL,
	uploaded_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_org ON documents(organization_id);
CREATE INDEX IF NOT EXISTS idx_users_org ON users(organization_id);
`

// Store wraps the SQLite handle. All methods are safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// CreateOrganization inserts a new tenant and returns it with generated id
// and timestamps.
func (s *Store) CreateOrganization(ctx context.Context, name string) (domain.Organization, error) {
	now := time.Now().UTC()
	org := domain.Organization{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO organizations (id, name, created_at, updated_at)
		 VALUES (:id, :name, :created_at, :updated_at)`, org)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("creating organization: %w", err)
	}
	return org, nil
}

// GetOrganization looks up one tenant by id.
func (s *Store) GetOrganization(ctx context.Context, id string) (domain.Organization, error) {
	var org domain.Organization
	err := s.db.GetContext(ctx, &org, `SELECT * FROM organizations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Organization{}, fmt.Errorf("organization %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Organization{}, fmt.Errorf("getting organization: %w", err)
	}
	return org, nil
}

// ListOrganizations returns all tenants ordered by name.
func (s *Store) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	if err := s.db.SelectContext(ctx, &orgs, `SELECT * FROM organizations ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return orgs, nil
}

// CreateUser inserts a user. The caller supplies the already-hashed
// password; plaintext never reaches the store.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO users (id, username, email, first_name, last_name, hashed_password,
		                    is_admin, organization_id, created_at, updated_at)
		 VALUES (:id, :username, :email, :first_name, :last_name, :hashed_password,
		         :is_admin, :organization_id, :created_at, :updated_at)`, u)
	if err != nil {
		return domain.User{}, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// GetUserByUsername looks up a user for authentication.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUser looks up a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// ListUsers returns the users of one organization.
func (s *Store) ListUsers(ctx context.Context, organizationID string) ([]domain.User, error) {
	var users []domain.User
	err := s.db.SelectContext(ctx, &users,
		`SELECT * FROM users WHERE organization_id = ? ORDER BY username`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// CreateDocument records an uploaded file's metadata.
func (s *Store) CreateDocument(ctx context.Context, d domain.Document) (domain.Document, error) {
	d.ID = uuid.NewString()
	d.UploadedAt = time.Now().UTC()
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO documents (id, organization_id, name, unique_filename, path, uploaded_at)
		 VALUES (:id, :organization_id, :name, :unique_filename, :path, :uploaded_at)`, d)
	if err != nil {
		return domain.Document{}, fmt.Errorf("creating document: %w", err)
	}
	return d, nil
}

// GetDocument looks up a document by id within one organization. The scope
// keeps one tenant from reading another tenant's metadata by guessing ids.
func (s *Store) GetDocument(ctx context.Context, organizationID, id string) (domain.Document, error) {
	var d domain.Document
	err := s.db.GetContext(ctx, &d,
		`SELECT * FROM documents WHERE id = ? AND organization_id = ?`, id, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("getting document: %w", err)
	}
	return d, nil
}

// ListDocuments returns the documents of one organization, newest first.
func (s *Store) ListDocuments(ctx context.Context, organizationID string) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE organization_id = ? ORDER BY uploaded_at DESC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}
