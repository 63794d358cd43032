package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zw-schools/schoolmap/internal/db"
)

// DBHandler handles database-related endpoints.
type DBHandler struct {
	store *db.Store
}

// NewDBHandler creates a new database handler. A nil store answers 503.
func NewDBHandler(store *db.Store) *DBHandler {
	return &DBHandler{store: store}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("db"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("db"))
	huma.Get(api, "/api/v1/counts", h.Counts, huma.OperationTags("db"))
}

type TablesBody struct {
	Tables []string `json:"tables" doc:"List of table names"`
}

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body TablesBody
}

// ListTables returns all tables in the store.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	tables, err := h.store.Tables(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	return &TablesOutput{Body: TablesBody{Tables: tables}}, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"Read-only SQL statement" example:"SELECT province, COUNT(*) FROM schools GROUP BY province"`
	}
}

type QueryBody struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// QueryOutput is the response for SQL queries.
type QueryOutput struct {
	Body QueryBody
}

// Query runs a read-only statement against the store.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	res, err := h.store.Query(ctx, input.Body.Query)
	if errors.Is(err, db.ErrReadOnly) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	return &QueryOutput{Body: QueryBody{
		Columns: res.Columns,
		Rows:    res.Rows,
		Count:   len(res.Rows),
	}}, nil
}

type CountsInput struct {
	Field string `query:"field" enum:"Province,District,SchoolLevel,Grant_Class" default:"Province" doc:"Property to count by"`
}

type CountsBody struct {
	Field  string          `json:"field" doc:"Property counted by"`
	Counts []db.CountField `json:"counts" doc:"Schools per label, largest first"`
}

type CountsOutput struct {
	Body CountsBody
}

// Counts groups the loaded schools by a categorical property.
func (h *DBHandler) Counts(ctx context.Context, input *CountsInput) (*CountsOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	counts, err := h.store.CountBy(ctx, input.Field)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to count schools", err)
	}
	return &CountsOutput{Body: CountsBody{Field: input.Field, Counts: counts}}, nil
}
