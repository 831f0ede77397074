package usecases

import (
	"context"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// QueryConsoleUseCase runs ad-hoc statements against the photo server's database
type QueryConsoleUseCase struct {
	queries services.QueryService
}

// NewQueryConsoleUseCase creates a new query console use case
func NewQueryConsoleUseCase(queries services.QueryService) *QueryConsoleUseCase {
	return &QueryConsoleUseCase{queries: queries}
}

// RunQueryRequest represents one ad-hoc statement
type RunQueryRequest struct {
	SQL string `json:"sql"`

	// Index groups result rows by this column; empty groups them under "all"
	Index string `json:"index,omitempty"`
}

var mutatingVerbs = []string{"UPDATE", "INSERT", "DELETE"}

// Run executes the statement. Row-returning statements come back grouped by
// the index column; mutating ones as {"all": [{"<VERB>": "<rows>"}]}.
func (uc *QueryConsoleUseCase) Run(ctx context.Context, req *RunQueryRequest) (map[string][]services.Row, error) {
	if uc.queries == nil {
		return nil, &entities.ConfigurationError{Field: "database", Reason: "no database configured"}
	}

	sql := strings.TrimSpace(req.SQL)
	if sql == "" {
		return nil, &entities.ConfigurationError{Field: "sql", Reason: "empty query"}
	}

	klog.V(1).Infof("db: %s", sql)

	fields := strings.Fields(sql)
	verb := strings.ToUpper(fields[0])
	for _, mutating := range mutatingVerbs {
		if verb != mutating {
			continue
		}
		n, err := uc.queries.Exec(ctx, sql)
		if err != nil {
			return nil, err
		}
		return map[string][]services.Row{
			"all": {{verb: strconv.FormatInt(n, 10)}},
		}, nil
	}

	rows, err := uc.queries.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return services.IndexRows(rows, req.Index), nil
}
