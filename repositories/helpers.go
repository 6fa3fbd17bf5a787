package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLExecutor — общий знаменатель *sql.DB и *sql.Tx. Методы репозиториев,
// участвующие в транзакциях сервисного слоя, принимают его параметром;
// nil означает "использовать собственный пул репозитория".
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}
