package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScanDB is one persisted scan: a display timestamp plus the qualifying
// coins serialized as JSON.
type ScanDB struct {
	ID        int64          `db:"id"`
	CreatedAt time.Time      `db:"created_at"`
	ScanTime  string         `db:"scan_time"`
	CoinsData types.JSONText `db:"coins_data"`
}
