package services

import "context"

// Row is one result row with every column rendered as text
type Row map[string]string

// QueryService defines the interface for the photo server's relational database.
// Failures are returned as entities.CollaboratorError with Service "database".
type QueryService interface {
	Query(ctx context.Context, query string, args ...interface{}) ([]Row, error)
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
	Close() error
}

// IndexRows groups rows by the value of column; an empty column groups everything under "all"
func IndexRows(rows []Row, column string) map[string][]Row {
	indexed := make(map[string][]Row)
	for _, row := range rows {
		key := "all"
		if column != "" {
			key = row[column]
		}
		indexed[key] = append(indexed[key], row)
	}
	return indexed
}
