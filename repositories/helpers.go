package repositories

import (
	"database/sql"
	"fmt"
)

func affectedRows(result sql.Result) (int64, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected, nil
}

// checkAffected turns a zero-match update or delete into notFoundError.
func checkAffected(n int64, err error, notFoundError error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return notFoundError
	}
	return nil
}
