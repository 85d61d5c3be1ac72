package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aronrissato/CarboPratos/internal/models"
)

// SQLiteStore keeps a history of analyzed plates. Purely additive: the
// pipeline itself never reads it back.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS plates (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        image_path TEXT NOT NULL,
        total_calories REAL NOT NULL,
        food_count INTEGER NOT NULL,
        low_confidence_default INTEGER NOT NULL DEFAULT 0,
        error TEXT NOT NULL DEFAULT '',
        analyzed_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS plate_foods (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        plate_id INTEGER NOT NULL,
        food TEXT NOT NULL,
        weight_g REAL NOT NULL,
        calories REAL NOT NULL,
        confidence REAL NOT NULL,
        FOREIGN KEY (plate_id) REFERENCES plates(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_plates_analyzed_at ON plates(analyzed_at);
    CREATE INDEX IF NOT EXISTS idx_plate_foods_plate_id ON plate_foods(plate_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveResult records one plate result and its food lines.
func (s *SQLiteStore) SaveResult(ctx context.Context, result *models.PlateResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO plates (image_path, total_calories, food_count, low_confidence_default, error, analyzed_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		result.ImagePath, result.TotalCalories, result.FoodCount,
		boolToInt(result.LowConfidenceDefault), result.Err, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert plate: %w", err)
	}

	plateID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read plate id: %w", err)
	}

	for _, food := range result.FoodDetails {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO plate_foods (plate_id, food, weight_g, calories, confidence)
            VALUES (?, ?, ?, ?, ?)`,
			plateID, food.Food, food.WeightGrams, food.Calories, food.Confidence)
		if err != nil {
			return fmt.Errorf("failed to insert food: %w", err)
		}
	}

	return tx.Commit()
}

// ListRecent returns up to limit most recently analyzed plates, newest
// first, with their food lines attached.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]models.PlateResult, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, image_path, total_calories, food_count, low_confidence_default, error
        FROM plates ORDER BY analyzed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plates: %w", err)
	}
	defer rows.Close()

	var results []models.PlateResult
	var ids []int64
	for rows.Next() {
		var id int64
		var r models.PlateResult
		var lowDefault int
		if err := rows.Scan(&id, &r.ImagePath, &r.TotalCalories, &r.FoodCount, &lowDefault, &r.Err); err != nil {
			return nil, fmt.Errorf("failed to scan plate: %w", err)
		}
		r.LowConfidenceDefault = lowDefault != 0
		r.FoodDetails = []models.FoodDetail{}
		results = append(results, r)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		foods, err := s.loadFoods(ctx, id)
		if err != nil {
			return nil, err
		}
		results[i].FoodDetails = foods
	}

	return results, nil
}

func (s *SQLiteStore) loadFoods(ctx context.Context, plateID int64) ([]models.FoodDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT food, weight_g, calories, confidence
        FROM plate_foods WHERE plate_id = ? ORDER BY id`, plateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	foods := []models.FoodDetail{}
	for rows.Next() {
		var f models.FoodDetail
		if err := rows.Scan(&f.Food, &f.WeightGrams, &f.Calories, &f.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, f)
	}
	return foods, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
