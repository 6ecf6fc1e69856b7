package courses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/angembang/college-en-ligne/internal/apperror"
)

// Repository defines data access for courses plus the lesson lookups the
// course workflows need (resolving a lesson name, exact-name search, and
// the autocomplete names of a class).
type Repository interface {
	CreateCourse(ctx context.Context, course *Course) error
	UpdateCourse(ctx context.Context, course *Course) error
	DeleteCourse(ctx context.Context, id int64) error
	FindCourseByID(ctx context.Context, id int64) (*Course, error)
	FindCoursesByLessonID(ctx context.Context, lessonID int64) ([]Course, error)

	FindLessonName(ctx context.Context, lessonID int64) (string, error)
	FindLessonIDByName(ctx context.Context, name string) (int64, error)
	LessonNamesForClass(ctx context.Context, classID int64, fragment string) ([]string, error)
}

// repository implements Repository with hand-written MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a courses repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const courseColumns = `id, id_lesson, unlock_date, subject, summary, content, video, link, image, audio, pdf, created_at`

func (r *repository) CreateCourse(ctx context.Context, course *Course) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (id_lesson, unlock_date, subject, summary, content, video, link, image, audio, pdf)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		course.LessonID, course.UnlockDate, course.Subject, course.Summary, course.Content,
		course.Video, course.Link, course.Image, course.Audio, course.PDF,
	)
	if err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	course.ID, _ = res.LastInsertId()
	return nil
}

func (r *repository) UpdateCourse(ctx context.Context, course *Course) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses
		SET id_lesson = ?, unlock_date = ?, subject = ?, summary = ?, content = ?,
		    video = ?, link = ?, image = ?, audio = ?, pdf = ?
		WHERE id = ?`,
		course.LessonID, course.UnlockDate, course.Subject, course.Summary, course.Content,
		course.Video, course.Link, course.Image, course.Audio, course.PDF,
		course.ID,
	)
	if err != nil {
		return fmt.Errorf("updating course: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows also happens on a no-change update; confirm existence.
		if _, err := r.FindCourseByID(ctx, course.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) DeleteCourse(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting course: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("cours introuvable")
	}
	return nil
}

func (r *repository) FindCourseByID(ctx context.Context, id int64) (*Course, error) {
	course := &Course{}
	err := r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id).
		Scan(&course.ID, &course.LessonID, &course.UnlockDate, &course.Subject, &course.Summary,
			&course.Content, &course.Video, &course.Link, &course.Image, &course.Audio,
			&course.PDF, &course.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("cours introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("querying course by id: %w", err)
	}
	return course, nil
}

func (r *repository) FindCoursesByLessonID(ctx context.Context, lessonID int64) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE id_lesson = ?
		ORDER BY created_at DESC, id DESC`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("listing courses by lesson: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.LessonID, &c.UnlockDate, &c.Subject, &c.Summary,
			&c.Content, &c.Video, &c.Link, &c.Image, &c.Audio, &c.PDF, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *repository) FindLessonName(ctx context.Context, lessonID int64) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM lessons WHERE id = ?`, lessonID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperror.NewNotFound("leçon introuvable")
	}
	if err != nil {
		return "", fmt.Errorf("querying lesson name: %w", err)
	}
	return name, nil
}

func (r *repository) FindLessonIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM lessons WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperror.NewNotFound("leçon introuvable")
	}
	if err != nil {
		return 0, fmt.Errorf("querying lesson by name: %w", err)
	}
	return id, nil
}

func (r *repository) LessonNamesForClass(ctx context.Context, classID int64, fragment string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT name
		FROM lessons
		WHERE id_class = ? AND name LIKE CONCAT(?, '%')
		ORDER BY name`, classID, fragment)
	if err != nil {
		return nil, fmt.Errorf("listing lesson names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning lesson name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
