package lessons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/angembang/college-en-ligne/internal/apperror"
)

// Repository defines data access for classes, languages, timetable slots,
// lessons, and the teacher listing. It also serves the class and language
// lookups the registration workflow needs (auth.ClassDirectory and
// auth.LanguageDirectory are satisfied by this interface).
// All SQL lives in the concrete implementation -- no SQL leaks out.
type Repository interface {
	// Classes.
	FindClassByLevel(ctx context.Context, level string) (*Class, error)
	FindClassLevelByID(ctx context.Context, id int64) (string, error)
	CreateClass(ctx context.Context, level string) (*Class, error)
	ListClasses(ctx context.Context) ([]Class, error)

	// Languages.
	LanguageExists(ctx context.Context, id int64) (bool, error)
	ListLanguages(ctx context.Context) ([]Language, error)

	// Timetable slots.
	FindTimeTableBySlot(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error)
	FindTimeTableByID(ctx context.Context, id int64) (*TimeTable, error)
	CreateTimeTable(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error)

	// Lessons.
	CreateLesson(ctx context.Context, lesson *Lesson) error
	UpdateLesson(ctx context.Context, lesson *Lesson) error
	DeleteLesson(ctx context.Context, id int64) error
	FindLessonByID(ctx context.Context, id int64) (*Lesson, error)
	FindLessonsByClassID(ctx context.Context, classID int64) ([]Lesson, error)
	FindLessonsForDay(ctx context.Context, classLevel, weekDay string) ([]DayLesson, error)

	// Teachers for the lesson admin form. Referents are excluded: lesson
	// attribution references teachers(id) and the two account tables do
	// not share an id namespace.
	ListTeachers(ctx context.Context) ([]Teacher, error)
	TeacherExists(ctx context.Context, id int64) (bool, error)
}

// repository implements Repository with hand-written MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a lessons repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// --- Classes ---

func (r *repository) FindClassByLevel(ctx context.Context, level string) (*Class, error) {
	class := &Class{}
	err := r.db.QueryRowContext(ctx, `SELECT id, level FROM classes WHERE level = ?`, level).
		Scan(&class.ID, &class.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("classe introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("querying class by level: %w", err)
	}
	return class, nil
}

func (r *repository) FindClassLevelByID(ctx context.Context, id int64) (string, error) {
	var level string
	err := r.db.QueryRowContext(ctx, `SELECT level FROM classes WHERE id = ?`, id).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperror.NewNotFound("classe introuvable")
	}
	if err != nil {
		return "", fmt.Errorf("querying class by id: %w", err)
	}
	return level, nil
}

func (r *repository) CreateClass(ctx context.Context, level string) (*Class, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO classes (level) VALUES (?)`, level)
	if err != nil {
		return nil, fmt.Errorf("inserting class: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Class{ID: id, Level: level}, nil
}

func (r *repository) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, level FROM classes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Level); err != nil {
			return nil, fmt.Errorf("scanning class row: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// --- Languages ---

func (r *repository) LanguageExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM languages WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking language existence: %w", err)
	}
	return exists, nil
}

func (r *repository) ListLanguages(ctx context.Context) ([]Language, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM languages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}
	defer rows.Close()

	var languages []Language
	for rows.Next() {
		var l Language
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scanning language row: %w", err)
		}
		languages = append(languages, l)
	}
	return languages, rows.Err()
}

// --- Timetable slots ---

func (r *repository) FindTimeTableBySlot(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error) {
	tt := &TimeTable{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, week_day, start_time, end_time FROM times_tables
		 WHERE week_day = ? AND start_time = ? AND end_time = ?`,
		weekDay, startTime, endTime).
		Scan(&tt.ID, &tt.WeekDay, &tt.StartTime, &tt.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("horaire introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("querying timetable by slot: %w", err)
	}
	return tt, nil
}

func (r *repository) FindTimeTableByID(ctx context.Context, id int64) (*TimeTable, error) {
	tt := &TimeTable{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, week_day, start_time, end_time FROM times_tables WHERE id = ?`, id).
		Scan(&tt.ID, &tt.WeekDay, &tt.StartTime, &tt.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("horaire introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("querying timetable by id: %w", err)
	}
	return tt, nil
}

func (r *repository) CreateTimeTable(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO times_tables (week_day, start_time, end_time) VALUES (?, ?, ?)`,
		weekDay, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("inserting timetable: %w", err)
	}
	id, _ := res.LastInsertId()
	return &TimeTable{ID: id, WeekDay: weekDay, StartTime: startTime, EndTime: endTime}, nil
}

// --- Lessons ---

func (r *repository) CreateLesson(ctx context.Context, lesson *Lesson) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO lessons (name, id_class, id_teacher, id_time_table) VALUES (?, ?, ?, ?)`,
		lesson.Name, lesson.ClassID, lesson.TeacherID, lesson.TimeTableID)
	if err != nil {
		return fmt.Errorf("inserting lesson: %w", err)
	}
	lesson.ID, _ = res.LastInsertId()
	return nil
}

func (r *repository) UpdateLesson(ctx context.Context, lesson *Lesson) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lessons SET name = ?, id_class = ?, id_teacher = ?, id_time_table = ? WHERE id = ?`,
		lesson.Name, lesson.ClassID, lesson.TeacherID, lesson.TimeTableID, lesson.ID)
	if err != nil {
		return fmt.Errorf("updating lesson: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("leçon introuvable")
	}
	return nil
}

func (r *repository) DeleteLesson(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting lesson: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("leçon introuvable")
	}
	return nil
}

func (r *repository) FindLessonByID(ctx context.Context, id int64) (*Lesson, error) {
	lesson := &Lesson{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, id_class, id_teacher, id_time_table FROM lessons WHERE id = ?`, id).
		Scan(&lesson.ID, &lesson.Name, &lesson.ClassID, &lesson.TeacherID, &lesson.TimeTableID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("leçon introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("querying lesson by id: %w", err)
	}
	return lesson, nil
}

func (r *repository) FindLessonsByClassID(ctx context.Context, classID int64) ([]Lesson, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, id_class, id_teacher, id_time_table FROM lessons WHERE id_class = ?`, classID)
	if err != nil {
		return nil, fmt.Errorf("listing lessons by class: %w", err)
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Name, &l.ClassID, &l.TeacherID, &l.TimeTableID); err != nil {
			return nil, fmt.Errorf("scanning lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// FindLessonsForDay returns the lessons of a class level scheduled on the
// given week day, with their slot times. The join drops lessons whose
// timetable row is gone, which is exactly the listing's silent-skip
// behavior for missing slots.
func (r *repository) FindLessonsForDay(ctx context.Context, classLevel, weekDay string) ([]DayLesson, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lessons.id, lessons.name, lessons.id_class, lessons.id_teacher, lessons.id_time_table,
		        times_tables.week_day, times_tables.start_time, times_tables.end_time
		 FROM lessons
		 JOIN classes ON lessons.id_class = classes.id
		 JOIN times_tables ON lessons.id_time_table = times_tables.id
		 WHERE classes.level = ? AND times_tables.week_day = ?
		 ORDER BY times_tables.start_time`,
		classLevel, weekDay)
	if err != nil {
		return nil, fmt.Errorf("listing lessons for day: %w", err)
	}
	defer rows.Close()

	var entries []DayLesson
	for rows.Next() {
		var e DayLesson
		if err := rows.Scan(
			&e.Lesson.ID, &e.Lesson.Name, &e.Lesson.ClassID, &e.Lesson.TeacherID, &e.Lesson.TimeTableID,
			&e.WeekDay, &e.StartTime, &e.EndTime,
		); err != nil {
			return nil, fmt.Errorf("scanning day lesson row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Teachers ---

// ListTeachers returns the rows of the teachers table only. Lesson
// attribution is keyed on teachers(id), so referents, whose ids live in a
// separate namespace, never appear here.
func (r *repository) ListTeachers(ctx context.Context) ([]Teacher, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, first_name, last_name FROM teachers
		 ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("listing teachers: %w", err)
	}
	defer rows.Close()

	var teachers []Teacher
	for rows.Next() {
		var t Teacher
		if err := rows.Scan(&t.ID, &t.FirstName, &t.LastName); err != nil {
			return nil, fmt.Errorf("scanning teacher row: %w", err)
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// TeacherExists reports whether the id belongs to a row of the teachers
// table, the target of the lesson foreign key.
func (r *repository) TeacherExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM teachers WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking teacher %d: %w", id, err)
	}
	return true, nil
}
