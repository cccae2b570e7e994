// Package history persists completed generations in a local SQLite
// database, with optional embeddings for similarity recall.
package history

import (
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	conn     *sql.DB
	embedDim int
}

type Generation struct {
	ID        int64
	Prompt    string
	Output    string
	Model     string
	CreatedAt int64
}

type GenerationWithScore struct {
	Generation
	Distance float64
}

func init() {
	sqlite_vec.Auto()
}

func Open(path string, embedDim int) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{conn: conn, embedDim: embedDim}
	if err := store.init(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	var vecVersion string
	if err := s.conn.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		return fmt.Errorf("sqlite-vec not available: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS generations (
			id INTEGER PRIMARY KEY,
			prompt TEXT NOT NULL,
			output TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);

		CREATE VIRTUAL TABLE IF NOT EXISTS vec_generations USING vec0(
			generation_id INTEGER PRIMARY KEY,
			embedding float[%d]
		);
	`, s.embedDim)

	_, err := s.conn.Exec(schema)
	return err
}

func (s *Store) Insert(prompt, output, model string, createdAt int64) (int64, error) {
	result, err := s.conn.Exec(`
		INSERT INTO generations (prompt, output, model, created_at)
		VALUES (?, ?, ?, ?)
	`, prompt, output, model, createdAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) InsertEmbedding(generationID int64, embedding []byte) error {
	_, err := s.conn.Exec(
		"INSERT INTO vec_generations (generation_id, embedding) VALUES (?, ?)",
		generationID, embedding,
	)
	return err
}

func (s *Store) Get(id int64) (*Generation, error) {
	var gen Generation
	err := s.conn.QueryRow(
		"SELECT id, prompt, output, model, created_at FROM generations WHERE id = ?",
		id,
	).Scan(&gen.ID, &gen.Prompt, &gen.Output, &gen.Model, &gen.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

func (s *Store) Recent(limit int) ([]Generation, error) {
	rows, err := s.conn.Query(`
		SELECT id, prompt, output, model, created_at
		FROM generations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var results []Generation
	for rows.Next() {
		var gen Generation
		if err := rows.Scan(&gen.ID, &gen.Prompt, &gen.Output, &gen.Model, &gen.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, gen)
	}
	return results, rows.Err()
}

func (s *Store) Delete(id int64) error {
	if _, err := s.conn.Exec("DELETE FROM vec_generations WHERE generation_id = ?", id); err != nil {
		return err
	}
	_, err := s.conn.Exec("DELETE FROM generations WHERE id = ?", id)
	return err
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM generations").Scan(&count)
	return count, err
}

// SearchSimilar returns the k stored generations nearest to the query
// embedding. Generations stored without an embedding are not returned.
func (s *Store) SearchSimilar(queryEmbedding []byte, k int) ([]GenerationWithScore, error) {
	rows, err := s.conn.Query(`
		SELECT
			v.generation_id,
			v.distance,
			g.prompt,
			g.output,
			g.model,
			g.created_at
		FROM vec_generations v
		JOIN generations g ON g.id = v.generation_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, queryEmbedding, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var results []GenerationWithScore
	for rows.Next() {
		var gen GenerationWithScore
		err := rows.Scan(
			&gen.ID,
			&gen.Distance,
			&gen.Prompt,
			&gen.Output,
			&gen.Model,
			&gen.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, gen)
	}
	return results, rows.Err()
}
