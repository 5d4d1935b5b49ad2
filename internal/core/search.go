package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
)

// SortColumns lists the columns results may be ordered by.
var SortColumns = []string{
	"id", "first_name", "last_name", "city", "state",
	"zip_code", "ssn", "date_of_birth", "created_at",
}

// DefaultSortColumn is used when the requested column is not sortable.
const DefaultSortColumn = "id"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = newSearchValidator()

func newSearchValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("dob", func(fl validator.FieldLevel) bool {
		_, ok := parseSearchDate(fl.Field().String())
		return ok
	})
	return v
}

// SearchQuery filters, pages and sorts stored records. Zero values mean
// "not filtered" for the text fields and "use the default" for Page and
// Limit.
type SearchQuery struct {
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	City        string `json:"city" validate:"max=100"`
	State       string `json:"state" validate:"omitempty,max=2"`
	ZipCode     string `json:"zipCode" validate:"omitempty,numeric,max=10"`
	SSN         string `json:"ssn" validate:"omitempty,max=11"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,dob"`
	Search      string `json:"search" validate:"max=200"`
	Page        int    `json:"page" validate:"gte=0,max=1000000"`
	Limit       int    `json:"limit" validate:"gte=0"`
	SortBy      string `json:"sortBy"`
	SortOrder   string `json:"sortOrder"`
}

// SearchRecord is one stored record as returned by search.
type SearchRecord struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Address     *string   `json:"address"`
	City        *string   `json:"city"`
	State       *string   `json:"state"`
	ZipCode     *string   `json:"zip_code"`
	SSN         string    `json:"ssn"`
	DateOfBirth *string   `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
}

// Pagination describes the page a SearchResult holds.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// SearchSort echoes the ordering that was applied.
type SearchSort struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// SearchResult is one page of matching records.
type SearchResult struct {
	Results    []SearchRecord `json:"results"`
	Pagination Pagination     `json:"pagination"`
	Sort       SearchSort     `json:"sort"`
}

// Search validates q, applies defaults, and runs it against the store.
func (s *Service) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if err := validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSearch, describeValidation(err))
	}
	q = q.withDefaults(s.cfg.Search.DefaultLimit, s.cfg.Search.MaxLimit)
	return s.repo.SearchRecords(ctx, q)
}

// withDefaults fills paging defaults and coerces sort options onto the
// allowed set; an unknown sort column falls back to id.
func (q SearchQuery) withDefaults(defaultLimit, maxLimit int) SearchQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	q.SortBy = strings.TrimSpace(q.SortBy)
	valid := false
	for _, col := range SortColumns {
		if q.SortBy == col {
			valid = true
			break
		}
	}
	if !valid {
		q.SortBy = DefaultSortColumn
	}

	if strings.EqualFold(q.SortOrder, "desc") {
		q.SortOrder = "DESC"
	} else {
		q.SortOrder = "ASC"
	}

	q.FirstName = strings.TrimSpace(q.FirstName)
	q.LastName = strings.TrimSpace(q.LastName)
	q.City = strings.TrimSpace(q.City)
	q.State = strings.ToUpper(strings.TrimSpace(q.State))
	q.ZipCode = strings.TrimSpace(q.ZipCode)
	q.SSN = strings.TrimSpace(q.SSN)
	q.DateOfBirth = strings.TrimSpace(q.DateOfBirth)
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}

// parseSearchDate accepts M/D/YYYY or YYYY-MM-DD and rejects dates that do
// not exist on the calendar.
func parseSearchDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	iso := s
	if !isoDatePattern.MatchString(s) {
		var ok bool
		if iso, ok = NormalizeDate(s); !ok {
			return time.Time{}, false
		}
	}
	t, err := time.Parse(isoDateLayout, iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WhereBuilder accumulates AND-ed conditions with numbered placeholders.
type WhereBuilder struct {
	conditions []string
	args       []any
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// Add appends a condition. format must contain one %d verb, which is
// replaced with the placeholder number of arg.
func (w *WhereBuilder) Add(format string, arg any) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

// Contains adds a case-insensitive substring match.
func (w *WhereBuilder) Contains(column, value string) {
	if value == "" {
		return
	}
	w.Add(column+" ILIKE $%d", "%"+value+"%")
}

// Equals adds an exact match.
func (w *WhereBuilder) Equals(column string, value any) {
	w.Add(column+" = $%d", value)
}

// Build returns " WHERE ..." (or "") and the bound arguments.
func (w *WhereBuilder) Build() (string, []any) {
	if len(w.conditions) == 0 {
		return "", w.args
	}
	return " WHERE " + strings.Join(w.conditions, " AND "), w.args
}

// NextArgIndex is the number the next placeholder would get.
func (w *WhereBuilder) NextArgIndex() int {
	return len(w.args) + 1
}

const searchColumns = "id, first_name, last_name, address, city, state, zip_code, ssn, date_of_birth, created_at"

// buildSearchSQL renders the count and page queries for a defaulted query.
// Column names in ORDER BY come only from SortColumns.
func buildSearchSQL(q SearchQuery) (countSQL, pageSQL string, args []any) {
	wb := NewWhereBuilder()
	wb.Contains("first_name", q.FirstName)
	wb.Contains("last_name", q.LastName)
	wb.Contains("city", q.City)
	if q.State != "" {
		wb.Equals("state", q.State)
	}
	if q.ZipCode != "" {
		wb.Equals("zip_code", q.ZipCode)
	}
	if q.SSN != "" {
		wb.Equals("ssn", q.SSN)
	}
	if q.DateOfBirth != "" {
		if t, ok := parseSearchDate(q.DateOfBirth); ok {
			wb.Equals("date_of_birth", pgtype.Date{Time: t, Valid: true})
		}
	}
	if q.Search != "" {
		wb.Add("search_vector @@ plainto_tsquery('english', $%d)", q.Search)
	}

	where, args := wb.Build()
	countSQL = "SELECT COUNT(*) FROM demographic_records" + where

	next := wb.NextArgIndex()
	pageSQL = fmt.Sprintf("SELECT %s FROM demographic_records%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		searchColumns, where, q.SortBy, q.SortOrder, next, next+1)
	return countSQL, pageSQL, args
}

// SearchRecords runs a defaulted query.
func (s *PostgresStore) SearchRecords(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	countSQL, pageSQL, args := buildSearchSQL(q)

	var total int64
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	offset := (q.Page - 1) * q.Limit
	rows, err := s.pool.Query(ctx, pageSQL, append(args, q.Limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	results := make([]SearchRecord, 0, q.Limit)
	for rows.Next() {
		var (
			rec                       SearchRecord
			address, city, state, zip pgtype.Text
			dob                       pgtype.Date
			createdAt                 pgtype.Timestamptz
		)
		if err := rows.Scan(&rec.ID, &rec.FirstName, &rec.LastName, &address, &city,
			&state, &zip, &rec.SSN, &dob, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Address = textPtr(address)
		rec.City = textPtr(city)
		rec.State = textPtr(state)
		rec.ZipCode = textPtr(zip)
		if dob.Valid {
			d := dob.Time.Format(isoDateLayout)
			rec.DateOfBirth = &d
		}
		rec.CreatedAt = createdAt.Time
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &SearchResult{
		Results:    results,
		Pagination: newPagination(q.Page, q.Limit, total),
		Sort:       SearchSort{SortBy: q.SortBy, SortOrder: q.SortOrder},
	}, nil
}

func newPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}
