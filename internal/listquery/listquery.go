// Package listquery turns the search, page and pageSize query parameters of a
// list route into a filtered, counted and paged gorm query.
package listquery

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10

	// PageSizeAll is the literal pageSize value that disables paging.
	PageSizeAll = "all"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type ListQuery struct {
	Search   string
	Page     int
	PageSize int
	All      bool
}

// FromValues reads a ListQuery from URL query values, falling back to the
// defaults for anything missing or malformed.
func FromValues(values url.Values) ListQuery {
	q := ListQuery{
		Search:   strings.TrimSpace(values.Get("search")),
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}

	if p, err := strconv.Atoi(values.Get("page")); err == nil && p >= 1 {
		q.Page = p
	}

	size := strings.TrimSpace(values.Get("pageSize"))
	if strings.EqualFold(size, PageSizeAll) {
		q.All = true
	} else if s, err := strconv.Atoi(size); err == nil && s > 0 {
		q.PageSize = s
	}

	return q
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.All {
		q.Page = 1
	}
	return q
}

// Options describes how a list route's rows are searched and ordered.
// SearchFields are trusted column names; a dot path such as "Department.name"
// joins the named belongs-to relation of the model.
type Options struct {
	SearchFields []string
	Scope        func(*gorm.DB) *gorm.DB
	Order        string
	Preloads     []string
}

type Page[T any] struct {
	Data        []T   `json:"data"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	TotalItems  int64 `json:"totalItems"`
}

// TotalPages is ceil(total/pageSize); zero rows yield zero pages.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// FilterAndPaginate counts the rows of T matching the scope and search term
// and returns the requested page of them.
func FilterAndPaginate[T any](ctx context.Context, db *gorm.DB, q ListQuery, opts Options) (Page[T], error) {
	q = q.normalized()

	for _, field := range opts.SearchFields {
		if !fieldPattern.MatchString(field) {
			return Page[T]{}, fmt.Errorf("listquery: invalid search field %q", field)
		}
	}

	var model T
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&model); err != nil {
		return Page[T]{}, fmt.Errorf("listquery: parse model: %w", err)
	}
	table := stmt.Schema.Table

	filter := func(tx *gorm.DB) *gorm.DB {
		if opts.Scope != nil {
			tx = opts.Scope(tx)
		}
		return applySearch(tx, stmt, table, q.Search, opts.SearchFields)
	}

	var total int64
	if err := db.WithContext(ctx).Model(&model).Scopes(filter).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	order := opts.Order
	if order == "" {
		order = stmt.Quote(table+".id") + " DESC"
	}

	tx := db.WithContext(ctx).Model(&model).Scopes(filter).Order(order)
	for _, preload := range opts.Preloads {
		tx = tx.Preload(preload)
	}

	page := Page[T]{
		CurrentPage: q.Page,
		TotalItems:  total,
	}
	if q.All {
		page.TotalPages = 1
	} else {
		page.TotalPages = TotalPages(total, q.PageSize)
		tx = tx.Offset((q.Page - 1) * q.PageSize).Limit(q.PageSize)
	}

	rows := make([]T, 0)
	if err := tx.Find(&rows).Error; err != nil {
		return Page[T]{}, err
	}
	page.Data = rows

	return page, nil
}

func applySearch(tx *gorm.DB, stmt *gorm.Statement, table, term string, fields []string) *gorm.DB {
	if term == "" || len(fields) == 0 {
		return tx
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	joined := make(map[string]bool)
	clauses := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields))

	for _, field := range fields {
		column := field
		if rel, _, ok := strings.Cut(field, "."); ok {
			if !joined[rel] {
				tx = tx.Joins(rel)
				joined[rel] = true
			}
		} else {
			column = table + "." + field
		}
		clauses = append(clauses, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, stmt.Quote(column)))
		args = append(args, pattern)
	}

	return tx.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// Map converts a page of rows into a page of another type, keeping the paging.
func Map[T, R any](p Page[T], f func(T) R) Page[R] {
	out := Page[R]{
		Data:        make([]R, 0, len(p.Data)),
		TotalPages:  p.TotalPages,
		CurrentPage: p.CurrentPage,
		TotalItems:  p.TotalItems,
	}
	for _, row := range p.Data {
		out.Data = append(out.Data, f(row))
	}
	return out
}
