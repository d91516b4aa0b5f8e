package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"gitlab.com/lienminh/rsiscan/internal/config"
	"gitlab.com/lienminh/rsiscan/internal/models"
)

// Open opens connection to postgresql db.
//
// Warning: you need to close db.
func Open(cfg config.Database) (*sqlx.DB, error) {
	addr := strings.Split(cfg.Addr, ":")
	if len(addr) != 2 {
		return nil, errors.New("invalid db address")
	}
	host, port := addr[0], addr[1]
	db, err := sqlx.Open("postgres", fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		host, port, cfg.Name, cfg.User, cfg.Password))
	if err != nil {
		return nil, errors.Wrap(err, "connect to db")
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping db")
	}
	return db, nil
}

// InsertScan stores one completed scan. Callers must not pass an empty
// coin list; a scan without qualifying coins is simply not persisted.
func InsertScan(db *sqlx.DB, scanTime string, coins []models.CoinMetrics) error {
	if len(coins) == 0 {
		return errors.New("refusing to persist empty scan")
	}
	data, err := jsoniter.Marshal(coins)
	if err != nil {
		return errors.Wrap(err, "marshal coins")
	}
	query := `INSERT INTO scan_history (scan_time, coins_data) VALUES (:scan_time, :coins_data)`
	_, err = db.NamedExec(query, models.ScanDB{
		ScanTime:  scanTime,
		CoinsData: data,
	})
	return err
}

// GetScans returns all stored scans, newest first.
func GetScans(db *sqlx.DB) ([]models.ScanDB, error) {
	query := `SELECT id, created_at, scan_time, coins_data FROM scan_history ORDER BY created_at DESC;`
	var scans []models.ScanDB
	err := db.Select(&scans, query)
	if err != nil {
		return nil, err
	}
	return scans, nil
}

func DeleteScan(db *sqlx.DB, id int64) error {
	_, err := db.Exec(`DELETE FROM scan_history WHERE id = $1;`, id)
	return err
}

// DeleteOlderThan prunes scans created before cutoff and reports how many
// rows went away.
func DeleteOlderThan(db *sqlx.DB, cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM scan_history WHERE created_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DecodeCoins unpacks the JSON coin list of a stored scan.
func DecodeCoins(scan models.ScanDB) ([]models.CoinMetrics, error) {
	var coins []models.CoinMetrics
	if err := jsoniter.Unmarshal(scan.CoinsData, &coins); err != nil {
		return nil, errors.Wrap(err, "unmarshal coins")
	}
	return coins, nil
}
