package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// PostgresQueryService implements services.QueryService against the photo server's Postgres database
type PostgresQueryService struct {
	db *sqlx.DB
}

// NewPostgresQueryService connects to dsn and verifies the connection
func NewPostgresQueryService(ctx context.Context, dsn string) (*PostgresQueryService, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, &entities.CollaboratorError{Service: "database", Op: "connect", Err: err}
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	klog.V(1).Info("🗄️  Connected to photo server database")
	return &PostgresQueryService{db: db}, nil
}

// NewQueryServiceFromDB wraps an already opened handle
func NewQueryServiceFromDB(db *sqlx.DB) *PostgresQueryService {
	return &PostgresQueryService{db: db}
}

// Query runs a statement returning rows; every column is rendered as text
func (s *PostgresQueryService) Query(ctx context.Context, query string, args ...interface{}) ([]services.Row, error) {
	klog.V(3).Infof("SQL query: %s %v", query, args)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, &entities.CollaboratorError{Service: "database", Op: "query", Err: err}
	}
	defer rows.Close()

	var result []services.Row
	for rows.Next() {
		values := make(map[string]interface{})
		if err := rows.MapScan(values); err != nil {
			return nil, &entities.CollaboratorError{Service: "database", Op: "scan", Err: err}
		}
		row := make(services.Row, len(values))
		for column, value := range values {
			row[column] = formatValue(value)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &entities.CollaboratorError{Service: "database", Op: "query", Err: err}
	}
	return result, nil
}

// Exec runs a statement and returns the number of affected rows
func (s *PostgresQueryService) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	klog.V(3).Infof("SQL exec: %s %v", query, args)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &entities.CollaboratorError{Service: "database", Op: "exec", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &entities.CollaboratorError{Service: "database", Op: "exec", Err: err}
	}
	return n, nil
}

func (s *PostgresQueryService) Close() error {
	return s.db.Close()
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
