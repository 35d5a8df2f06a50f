// Package serial issues the human-readable numbers of incidents and requests.
package serial

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

const (
	EntityIncident      = "incident"
	EntityCarPass       = "carpass"
	EntityIDRequest     = "idrequest"
	EntityAccessRequest = "accessrequest"
)

var prefixes = map[string]string{
	EntityIncident:      "INC",
	EntityCarPass:       "CP",
	EntityIDRequest:     "IDR",
	EntityAccessRequest: "AR",
}

func Prefix(entityType string) (string, bool) {
	p, ok := prefixes[entityType]
	return p, ok
}

func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

type Generator struct {
	db *sqlx.DB
}

func NewGenerator(db *sqlx.DB) *Generator {
	return &Generator{db: db}
}

// Next increments the entity type's counter in a single statement and returns
// the formatted number. Numbers taken by a rolled-back write are not reused.
func (g *Generator) Next(ctx context.Context, entityType string) (string, error) {
	prefix, ok := Prefix(entityType)
	if !ok {
		return "", fmt.Errorf("serial: unknown entity type %q", entityType)
	}

	query, args, err := sq.Insert("serial_counters").
		Columns("entity_type", "last_value").
		Values(entityType, 1).
		Suffix("ON CONFLICT (entity_type) DO UPDATE SET last_value = serial_counters.last_value + 1 RETURNING last_value").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("serial: build query: %w", err)
	}

	var n int64
	if err := g.db.QueryRowxContext(ctx, g.db.Rebind(query), args...).Scan(&n); err != nil {
		return "", fmt.Errorf("serial: next %s: %w", entityType, err)
	}
	return Format(prefix, n), nil
}

// Current returns the last issued value, zero when none was issued.
func (g *Generator) Current(ctx context.Context, entityType string) (int64, error) {
	query, args, err := sq.Select("last_value").
		From("serial_counters").
		Where(sq.Eq{"entity_type": entityType}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n []int64
	if err := g.db.SelectContext(ctx, &n, g.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	if len(n) == 0 {
		return 0, nil
	}
	return n[0], nil
}
