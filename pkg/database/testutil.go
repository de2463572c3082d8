package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

// NewMockPool returns a pgxmock pool that satisfies DBTX, for repository
// tests. Call ExpectationsWereMet at the end of each test.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool()
}
