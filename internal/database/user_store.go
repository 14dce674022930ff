package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/parley/internal/domain"
)

// userFields is the projection used for user records. Password is selected
// separately and only where credentials are needed.
const userFields = "meta::id(id) AS _id, name, email, pic"

// userRecord is the database shape of a user, including the stored password
// hash.
type userRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Pic      string `json:"pic"`
	Password string `json:"password"`
}

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Pic:          r.Pic,
		PasswordHash: r.Password,
	}
}

// SurrealUserStore encapsulates database operations for users using SurrealDB.
type SurrealUserStore struct {
	db *surrealdb.DB
}

// NewSurrealUserStore creates a new SurrealUserStore.
func NewSurrealUserStore(db *surrealdb.DB) *SurrealUserStore {
	return &SurrealUserStore{db: db}
}

// Create stores a new user. The email must be unique.
func (s *SurrealUserStore) Create(ctx context.Context, user *domain.User, passwordHash string) (*domain.User, error) {
	existing, err := QueryOne[userRecord](ctx, s.db,
		"SELECT "+userFields+" FROM user WHERE email = $email",
		map[string]any{"email": user.Email})
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUserAlreadyExists
	}

	id := uuid.NewString()
	query := `CREATE type::thing('user', $id) CONTENT {
		name: $name,
		email: $email,
		pic: $pic,
		password: $password
	}`
	params := map[string]any{
		"id":       id,
		"name":     user.Name,
		"email":    user.Email,
		"pic":      user.Pic,
		"password": passwordHash,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &domain.User{ID: id, Name: user.Name, Email: user.Email, Pic: user.Pic}, nil
}

// FindByEmail returns the user with the given email, including the password
// hash for credential checks.
func (s *SurrealUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	rec, err := QueryOne[userRecord](ctx, s.db,
		"SELECT "+userFields+", password FROM user WHERE email = $email",
		map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec.toDomain(), nil
}

// FindByID returns the user with the given id.
func (s *SurrealUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	rec, err := QueryOne[userRecord](ctx, s.db,
		"SELECT "+userFields+" FROM user WHERE meta::id(id) = $id",
		map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec.toDomain(), nil
}

// FindByIDs returns the users for the given ids. Unknown ids are skipped.
func (s *SurrealUserStore) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	recs, err := Query[userRecord](ctx, s.db,
		"SELECT "+userFields+" FROM user WHERE meta::id(id) IN $ids",
		map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	users := make([]domain.User, 0, len(recs))
	for i := range recs {
		users = append(users, *recs[i].toDomain())
	}
	return users, nil
}

// Search returns users whose name or email contains the term, excluding the
// requesting user.
func (s *SurrealUserStore) Search(ctx context.Context, term, excludeID string) ([]domain.User, error) {
	query := "SELECT " + userFields + ` FROM user
		WHERE (string::lowercase(name) CONTAINS $term OR string::lowercase(email) CONTAINS $term)
		AND meta::id(id) != $exclude`
	params := map[string]any{
		"term":    strings.ToLower(term),
		"exclude": excludeID,
	}
	recs, err := Query[userRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	users := make([]domain.User, 0, len(recs))
	for i := range recs {
		users = append(users, *recs[i].toDomain())
	}
	return users, nil
}
