package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Query executes a raw SurrealQL query with parameters and returns multiple results.
// It's a generic function that can unmarshal results into any type T.
//
// Example:
//
//	query := "SELECT * FROM user WHERE email = $email"
//	users, err := Query[User](ctx, db, query, map[string]any{"email": "a@b.c"})
func Query[T any](ctx context.Context, db *surrealdb.DB, query string, params map[string]any) ([]T, error) {
	queryResults, err := surrealdb.Query[[]T](ctx, db, query, params)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	if len(*queryResults) == 0 {
		return nil, nil
	}
	return (*queryResults)[0].Result, nil
}

// QueryOne executes a query and returns a single result.
// If no results are found, it returns nil, nil.
func QueryOne[T any](ctx context.Context, db *surrealdb.DB, query string, params map[string]any) (*T, error) {
	// Ensure we're only getting one result for SELECT queries.
	// CREATE/UPDATE/DELETE statements don't support LIMIT.
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") && !hasLimitClause(query) {
		query += " LIMIT 1"
	}

	results, err := Query[T](ctx, db, query, params)
	if err != nil {
		return nil, err // Error is already wrapped by the Query function
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Execute runs a query that doesn't return rows (INSERT, UPDATE, DELETE, etc.).
func Execute(ctx context.Context, db *surrealdb.DB, query string, params map[string]any) error {
	if _, err := surrealdb.Query[any](ctx, db, query, params); err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	return nil
}

// hasLimitClause checks if the query already has a LIMIT clause
func hasLimitClause(query string) bool {
	query = " " + strings.ToUpper(query) + " "
	return strings.Contains(query, " LIMIT ")
}
