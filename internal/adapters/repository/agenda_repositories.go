package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/ports"
)

// MedicationRepositoryImpl implements the MedicationRepository interface
type MedicationRepositoryImpl struct {
	db *sqlx.DB
}

// NewMedicationRepository creates a new medication repository
func NewMedicationRepository(db *sqlx.DB) ports.MedicationRepository {
	return &MedicationRepositoryImpl{db: db}
}

const medicationColumns = `id, name, dosage, times, active, created_at, updated_at`

func (r *MedicationRepositoryImpl) Create(ctx context.Context, med *entities.Medication) error {
	query := r.db.Rebind(`
		INSERT INTO medications (` + medicationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		med.ID, med.Name, med.Dosage, med.Times, med.Active, med.CreatedAt, med.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create medication: %w", err)
	}
	return nil
}

func (r *MedicationRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Medication, error) {
	query := r.db.Rebind(`SELECT ` + medicationColumns + ` FROM medications WHERE id = ?`)

	var med entities.Medication
	if err := r.db.GetContext(ctx, &med, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrMedicationNotFound
		}
		return nil, fmt.Errorf("get medication by id: %w", err)
	}
	return &med, nil
}

func (r *MedicationRepositoryImpl) Update(ctx context.Context, med *entities.Medication) error {
	query := r.db.Rebind(`
		UPDATE medications SET name = ?, dosage = ?, times = ?, active = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		med.Name, med.Dosage, med.Times, med.Active, med.UpdatedAt, med.ID,
	)
	if err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return entities.ErrMedicationNotFound
	}
	return nil
}

func (r *MedicationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM medications WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return entities.ErrMedicationNotFound
	}
	return nil
}

func (r *MedicationRepositoryImpl) List(ctx context.Context) ([]*entities.Medication, error) {
	var meds []*entities.Medication
	query := `SELECT ` + medicationColumns + ` FROM medications ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &meds, query); err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return meds, nil
}

func (r *MedicationRepositoryImpl) ListActive(ctx context.Context) ([]*entities.Medication, error) {
	query := r.db.Rebind(`SELECT ` + medicationColumns + ` FROM medications WHERE active = ? ORDER BY name ASC`)

	rows, err := r.db.QueryxContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("list active medications: %w", err)
	}
	defer rows.Close()

	// Corrupt rows are treated as absent; the poller must not stall on one.
	var meds []*entities.Medication
	for rows.Next() {
		var med entities.Medication
		if err := rows.StructScan(&med); err != nil {
			continue
		}
		meds = append(meds, &med)
	}
	return meds, rows.Err()
}

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new agenda task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

const taskColumns = `id, title, priority, due_date, completed, created_at, updated_at`

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.AgendaTask) error {
	query := r.db.Rebind(`
		INSERT INTO agenda_tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Priority, task.DueDate, task.Completed, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.AgendaTask, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM agenda_tasks WHERE id = ?`)

	var task entities.AgendaTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.AgendaTask) error {
	query := r.db.Rebind(`
		UPDATE agenda_tasks SET title = ?, priority = ?, due_date = ?, completed = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		task.Title, task.Priority, task.DueDate, task.Completed, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM agenda_tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.AgendaTask, error) {
	query := `SELECT ` + taskColumns + ` FROM agenda_tasks WHERE 1=1`
	args := []interface{}{}

	if filter.Priority != nil {
		query += ` AND priority = ?`
		args = append(args, *filter.Priority)
	}
	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *filter.Completed)
	}
	if filter.DueBefore != nil {
		query += ` AND due_date <= ?`
		args = append(args, *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query += ` AND due_date >= ?`
		args = append(args, *filter.DueAfter)
	}

	query += ` ORDER BY due_date ASC, created_at ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	var tasks []*entities.AgendaTask
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepositoryImpl) ListDue(ctx context.Context) ([]*entities.AgendaTask, error) {
	query := r.db.Rebind(`
		SELECT ` + taskColumns + ` FROM agenda_tasks
		WHERE completed = ? AND due_date IS NOT NULL
		ORDER BY due_date ASC`)

	rows, err := r.db.QueryxContext(ctx, query, false)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*entities.AgendaTask
	for rows.Next() {
		var task entities.AgendaTask
		if err := rows.StructScan(&task); err != nil {
			continue
		}
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}

// HabitRepositoryImpl implements the HabitRepository interface
type HabitRepositoryImpl struct {
	db *sqlx.DB
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db *sqlx.DB) ports.HabitRepository {
	return &HabitRepositoryImpl{db: db}
}

func (r *HabitRepositoryImpl) Create(ctx context.Context, habit *entities.Habit) error {
	query := r.db.Rebind(`INSERT INTO habits (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, habit.ID, habit.Name, habit.CreatedAt, habit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (r *HabitRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Habit, error) {
	query := r.db.Rebind(`SELECT id, name, created_at, updated_at FROM habits WHERE id = ?`)

	var habit entities.Habit
	if err := r.db.GetContext(ctx, &habit, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit by id: %w", err)
	}
	return &habit, nil
}

func (r *HabitRepositoryImpl) Update(ctx context.Context, habit *entities.Habit) error {
	query := r.db.Rebind(`UPDATE habits SET name = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, habit.Name, habit.UpdatedAt, habit.ID)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return entities.ErrHabitNotFound
	}
	return nil
}

func (r *HabitRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM habits WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return entities.ErrHabitNotFound
	}
	return nil
}

func (r *HabitRepositoryImpl) List(ctx context.Context) ([]*entities.Habit, error) {
	var habits []*entities.Habit
	query := `SELECT id, name, created_at, updated_at FROM habits ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &habits, query); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

func (r *HabitRepositoryImpl) MarkCompleted(ctx context.Context, habitID uuid.UUID, day string) error {
	query := r.db.Rebind(`
		INSERT INTO habit_completions (habit_id, day) VALUES (?, ?)
		ON CONFLICT (habit_id, day) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, habitID, day); err != nil {
		return fmt.Errorf("mark habit completed: %w", err)
	}
	return nil
}

func (r *HabitRepositoryImpl) ListIncompleteForDay(ctx context.Context, day string) ([]*entities.Habit, error) {
	query := r.db.Rebind(`
		SELECT h.id, h.name, h.created_at, h.updated_at
		FROM habits h
		WHERE NOT EXISTS (
			SELECT 1 FROM habit_completions c WHERE c.habit_id = h.id AND c.day = ?
		)
		ORDER BY h.name ASC`)

	var habits []*entities.Habit
	if err := r.db.SelectContext(ctx, &habits, query, day); err != nil {
		return nil, fmt.Errorf("list incomplete habits: %w", err)
	}
	return habits, nil
}
