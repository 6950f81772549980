package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/model"
)

// RunRecord is one persisted scheduling run: enough to reconstruct
// what it was asked to do and what it produced. Assignments and Failed
// are stored as JSON payload columns beside the summary fields.
type RunRecord struct {
	ID             string
	Policy         string
	Epoch          time.Time
	MakespanDays   int
	UnscheduledCnt int
	Assignments    []model.Assignment
	Failed         []model.Key
	CreatedAt      time.Time
}

// RunRepository persists RunRecords, against Postgres when the
// Database is connected and an in-memory map otherwise.
type RunRepository struct {
	db *Database

	mu      sync.RWMutex
	fallback map[string]*RunRecord
}

func NewRunRepository(db *Database) *RunRepository {
	return &RunRepository{db: db, fallback: make(map[string]*RunRecord)}
}

func (r *RunRepository) Create(rec *RunRecord) error {
	if !r.db.IsConnected() {
		return r.createFallback(rec)
	}

	assignmentsJSON, err := json.Marshal(rec.Assignments)
	if err != nil {
		return fmt.Errorf("failed to marshal assignments: %w", err)
	}
	failedJSON, err := json.Marshal(rec.Failed)
	if err != nil {
		return fmt.Errorf("failed to marshal failed keys: %w", err)
	}

	const query = `
		INSERT INTO scheduling_runs (id, policy, epoch, makespan_days, unscheduled_count, assignments, failed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.conn.Exec(query,
		rec.ID, rec.Policy, rec.Epoch, rec.MakespanDays, rec.UnscheduledCnt,
		assignmentsJSON, failedJSON, rec.CreatedAt,
	)
	return err
}

func (r *RunRepository) GetByID(id string) (*RunRecord, error) {
	if !r.db.IsConnected() {
		return r.getByIDFallback(id)
	}

	const query = `
		SELECT id, policy, epoch, makespan_days, unscheduled_count, assignments, failed, created_at
		FROM scheduling_runs WHERE id = $1
	`
	row := r.db.conn.QueryRow(query, id)

	var rec RunRecord
	var assignmentsJSON, failedJSON []byte
	err := row.Scan(&rec.ID, &rec.Policy, &rec.Epoch, &rec.MakespanDays, &rec.UnscheduledCnt, &assignmentsJSON, &failedJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(assignmentsJSON, &rec.Assignments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assignments: %w", err)
	}
	if err := json.Unmarshal(failedJSON, &rec.Failed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed keys: %w", err)
	}
	return &rec, nil
}

func (r *RunRepository) List(limit, offset int) ([]*RunRecord, error) {
	if !r.db.IsConnected() {
		return r.listFallback(limit, offset)
	}

	const query = `
		SELECT id, policy, epoch, makespan_days, unscheduled_count, assignments, failed, created_at
		FROM scheduling_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := r.db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		var rec RunRecord
		var assignmentsJSON, failedJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Policy, &rec.Epoch, &rec.MakespanDays, &rec.UnscheduledCnt, &assignmentsJSON, &failedJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(assignmentsJSON, &rec.Assignments); err != nil {
			continue // skip malformed records
		}
		if err := json.Unmarshal(failedJSON, &rec.Failed); err != nil {
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (r *RunRepository) createFallback(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback[rec.ID] = rec
	return nil
}

func (r *RunRepository) getByIDFallback(id string) (*RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.fallback[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rec, nil
}

func (r *RunRepository) listFallback(limit, offset int) ([]*RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*RunRecord, 0, len(r.fallback))
	for _, rec := range r.fallback {
		all = append(all, rec)
	}
	if offset >= len(all) {
		return []*RunRecord{}, nil
	}
	end := offset + limit
	if end > len(all) || limit <= 0 {
		end = len(all)
	}
	return all[offset:end], nil
}
