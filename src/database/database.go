package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/wealthfolio/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Fixed keys of the app_state document store. Each key holds one JSON
// document: a list of records, or plain text for the strategy note.
const (
	KeyTransactions = "finance_app_transactions"
	KeyDebts        = "finance_app_debts"
	KeyInterests    = "finance_app_interests"
	KeyStrategy     = "finance_app_strategy"
)

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS app_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// GetValue returns the stored document for key, or "" when the key has never
// been written.
func GetValue(key string) (string, error) {
	var value string
	err := DB.QueryRow("SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetValue upserts the document for key.
func SetValue(key, value string) error {
	_, err := DB.Exec(`
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}
