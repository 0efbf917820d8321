// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"diet-diary-bot/internal/models"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS entries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        text TEXT NOT NULL,
        calories REAL NOT NULL,
        proteins REAL NOT NULL,
        fats REAL NOT NULL,
        carbs REAL NOT NULL,
        timestamp DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS supplements (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        name TEXT NOT NULL,
        description TEXT NOT NULL,
        calories REAL NOT NULL,
        proteins REAL NOT NULL,
        fats REAL NOT NULL,
        carbs REAL NOT NULL,
        UNIQUE(user_id, name)
    );

    CREATE INDEX IF NOT EXISTS idx_entries_user_timestamp ON entries(user_id, timestamp);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// AppendEntry writes a diary entry and returns its id. Entries are immutable
// once written.
func (s *SQLiteStorage) AppendEntry(userID int64, text string, q models.NutrientQuantities) (int64, error) {
	query := `
        INSERT INTO entries (user_id, text, calories, proteins, fats, carbs, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	res, err := s.db.Exec(query,
		userID, text, q.Calories, q.Proteins, q.Fats, q.Carbs,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get entry id: %w", err)
	}
	return id, nil
}

// EntriesToday returns the user's diary entries whose timestamp falls on the
// current UTC day, oldest first.
func (s *SQLiteStorage) EntriesToday(userID int64) ([]models.DiaryEntry, error) {
	query := `
        SELECT id, user_id, text, calories, proteins, fats, carbs, timestamp
        FROM entries
        WHERE user_id = ? AND DATE(timestamp) = DATE('now')
        ORDER BY id
    `
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []models.DiaryEntry
	for rows.Next() {
		var entry models.DiaryEntry
		var timestampStr string

		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Text,
			&entry.Quantities.Calories, &entry.Quantities.Proteins,
			&entry.Quantities.Fats, &entry.Quantities.Carbs,
			&timestampStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		if entry.Timestamp, err = time.Parse(time.RFC3339, timestampStr); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *SQLiteStorage) DeleteEntry(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// UpsertSupplement saves a supplement definition; re-adding the same name
// replaces the prior one.
func (s *SQLiteStorage) UpsertSupplement(userID int64, name, description string, q models.NutrientQuantities) error {
	query := `
        INSERT OR REPLACE INTO supplements (user_id, name, description, calories, proteins, fats, carbs)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.Exec(query, userID, name, description, q.Calories, q.Proteins, q.Fats, q.Carbs)
	if err != nil {
		return fmt.Errorf("failed to upsert supplement: %w", err)
	}
	return nil
}

// Supplement looks up one supplement by name; (nil, nil) when absent.
func (s *SQLiteStorage) Supplement(userID int64, name string) (*models.Supplement, error) {
	query := `
        SELECT user_id, name, description, calories, proteins, fats, carbs
        FROM supplements
        WHERE user_id = ? AND name = ?
    `
	sup := &models.Supplement{}
	err := s.db.QueryRow(query, userID, name).Scan(
		&sup.UserID, &sup.Name, &sup.Description,
		&sup.Quantities.Calories, &sup.Quantities.Proteins,
		&sup.Quantities.Fats, &sup.Quantities.Carbs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query supplement: %w", err)
	}
	return sup, nil
}

// SupplementNames lists the user's supplement names in definition order.
func (s *SQLiteStorage) SupplementNames(userID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM supplements WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplements: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan supplement name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
