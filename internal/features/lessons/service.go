package lessons

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/angembang/college-en-ligne/internal/apperror"
	"github.com/angembang/college-en-ligne/internal/sanitize"
)

// Service defines the business logic contract for the lesson catalog.
type Service interface {
	// CreateLesson runs the admin workflow: find-or-create the class by
	// level, find-or-create the timetable slot, then insert the lesson.
	CreateLesson(ctx context.Context, input CreateLessonInput) (*Lesson, error)
	UpdateLesson(ctx context.Context, lesson Lesson) error
	DeleteLesson(ctx context.Context, id int64) error

	// ListForDay returns the lessons of the collegian's class scheduled on
	// now's weekday, each with its countdown state.
	ListForDay(ctx context.Context, classID int64, now time.Time) ([]DayLesson, error)

	// ListForClass returns the full weekly catalog of a class, each lesson
	// paired with its timetable slot.
	ListForClass(ctx context.Context, classID int64) ([]ClassLesson, error)

	// Catalog reads for forms.
	ListTeachers(ctx context.Context) ([]Teacher, error)
	ListClasses(ctx context.Context) ([]Class, error)
	ListLanguages(ctx context.Context) ([]Language, error)
}

// CreateLessonInput is the raw lesson admin submission.
type CreateLessonInput struct {
	Name       string
	ClassLevel string
	TeacherID  string
	WeekDay    string
	StartTime  string
	EndTime    string
}

// service implements Service.
type service struct {
	repo Repository
}

// NewService creates a lessons service over the given repository.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func errMissingLessonFields() *apperror.AppError {
	return apperror.New(http.StatusBadRequest, "missing_fields", "Veuillez renseigner tous les champs obligatoires")
}

// CreateLesson creates the class and slot on demand, then the lesson. Each
// stage has its own failure message so the admin form can say which part of
// the chain broke.
func (s *service) CreateLesson(ctx context.Context, input CreateLessonInput) (*Lesson, error) {
	if input.Name == "" || input.ClassLevel == "" || input.TeacherID == "" ||
		input.WeekDay == "" || input.StartTime == "" || input.EndTime == "" {
		return nil, errMissingLessonFields()
	}

	teacherID, err := strconv.ParseInt(input.TeacherID, 10, 64)
	if err != nil || teacherID <= 0 {
		return nil, apperror.NewValidation("Professeur invalide")
	}
	// The id must come from the teachers table. Referent ids live in their
	// own table and may coincide with a teacher id, so the form only ever
	// offers plain teachers and the id is verified against that table.
	exists, err := s.repo.TeacherExists(ctx, teacherID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking teacher: %w", err))
	}
	if !exists {
		return nil, apperror.New(http.StatusNotFound, "teacher_not_found", "Professeur non trouvé")
	}

	weekDay := sanitize.Field(input.WeekDay)
	if _, ok := weekDayNumbers[weekDay]; !ok {
		return nil, apperror.NewValidation("Jour de la semaine invalide")
	}
	if _, err := parseStartTime(input.StartTime); err != nil {
		return nil, apperror.NewValidation("Horaire invalide")
	}
	if _, err := parseStartTime(input.EndTime); err != nil {
		return nil, apperror.NewValidation("Horaire invalide")
	}

	// Find or create the class.
	level := sanitize.Field(input.ClassLevel)
	class, err := s.repo.FindClassByLevel(ctx, level)
	if err != nil {
		if apperror.SafeCode(err) != http.StatusNotFound {
			return nil, apperror.NewInternal(fmt.Errorf("resolving class: %w", err))
		}
		class, err = s.repo.CreateClass(ctx, level)
		if err != nil {
			return nil, apperror.New(http.StatusInternalServerError, "class_create_failed", "Échec lors de l'ajout de la classe")
		}
	}

	// Find or create the timetable slot.
	slot, err := s.repo.FindTimeTableBySlot(ctx, weekDay, input.StartTime, input.EndTime)
	if err != nil {
		if apperror.SafeCode(err) != http.StatusNotFound {
			return nil, apperror.NewInternal(fmt.Errorf("resolving timetable: %w", err))
		}
		slot, err = s.repo.CreateTimeTable(ctx, weekDay, input.StartTime, input.EndTime)
		if err != nil {
			return nil, apperror.New(http.StatusInternalServerError, "timetable_create_failed", "Échec lors de l'ajout de l'horaire")
		}
	}

	lesson := &Lesson{
		Name:        sanitize.Field(input.Name),
		ClassID:     class.ID,
		TeacherID:   teacherID,
		TimeTableID: slot.ID,
	}
	if err := s.repo.CreateLesson(ctx, lesson); err != nil {
		return nil, apperror.New(http.StatusInternalServerError, "lesson_create_failed", "Échec lors de l'ajout du cours")
	}

	slog.Info("lesson created",
		slog.Int64("lesson_id", lesson.ID),
		slog.String("name", lesson.Name),
		slog.String("level", class.Level),
		slog.String("slot", weekDay+" "+input.StartTime),
	)

	return lesson, nil
}

func (s *service) UpdateLesson(ctx context.Context, lesson Lesson) error {
	if lesson.ID <= 0 {
		return apperror.NewValidation("Leçon invalide")
	}
	lesson.Name = sanitize.Field(lesson.Name)
	if lesson.Name == "" {
		return errMissingLessonFields()
	}
	if _, err := s.repo.FindLessonByID(ctx, lesson.ID); err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return apperror.NewNotFound("Leçon non trouvée")
		}
		return apperror.NewInternal(fmt.Errorf("loading lesson: %w", err))
	}
	if err := s.repo.UpdateLesson(ctx, &lesson); err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return apperror.NewNotFound("Leçon non trouvée")
		}
		return apperror.NewInternal(fmt.Errorf("updating lesson: %w", err))
	}
	return nil
}

func (s *service) DeleteLesson(ctx context.Context, id int64) error {
	if err := s.repo.DeleteLesson(ctx, id); err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return apperror.NewNotFound("Leçon non trouvée")
		}
		return apperror.NewInternal(fmt.Errorf("deleting lesson: %w", err))
	}
	return nil
}

// ListForDay builds the day listing: today's lessons for the class, each
// with remaining seconds until its start time and the first-paint display
// string. A slot whose time cannot be read is skipped, not failed: one bad
// row must not take the whole listing down.
func (s *service) ListForDay(ctx context.Context, classID int64, now time.Time) ([]DayLesson, error) {
	level, err := s.repo.FindClassLevelByID(ctx, classID)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return nil, apperror.NewNotFound("Classe non trouvée")
		}
		return nil, apperror.NewInternal(fmt.Errorf("resolving class: %w", err))
	}

	entries, err := s.repo.FindLessonsForDay(ctx, level, CurrentWeekDay(now))
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing day lessons: %w", err))
	}

	listing := make([]DayLesson, 0, len(entries))
	for _, e := range entries {
		remaining, err := RemainingSeconds(e.StartTime, now)
		if err != nil {
			slog.Warn("skipping lesson with unreadable slot time",
				slog.Int64("lesson_id", e.Lesson.ID),
				slog.String("start_time", e.StartTime),
				slog.Any("error", err),
			)
			continue
		}

		e.RemainingSeconds = remaining
		if remaining <= 0 {
			e.Accessible = true
			e.Remaining = AccessLabel
		} else {
			e.Remaining = FormatRemaining(remaining)
		}
		listing = append(listing, e)
	}

	return listing, nil
}

// ListForClass builds the weekly catalog. A lesson whose slot row is gone
// is skipped like in the day listing.
func (s *service) ListForClass(ctx context.Context, classID int64) ([]ClassLesson, error) {
	found, err := s.repo.FindLessonsByClassID(ctx, classID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing class lessons: %w", err))
	}

	catalog := make([]ClassLesson, 0, len(found))
	for _, lesson := range found {
		slot, err := s.repo.FindTimeTableByID(ctx, lesson.TimeTableID)
		if err != nil {
			slog.Warn("skipping lesson with missing slot",
				slog.Int64("lesson_id", lesson.ID),
				slog.Int64("time_table_id", lesson.TimeTableID),
				slog.Any("error", err),
			)
			continue
		}
		catalog = append(catalog, ClassLesson{Lesson: lesson, TimeTable: *slot})
	}
	return catalog, nil
}

func (s *service) ListTeachers(ctx context.Context) ([]Teacher, error) {
	teachers, err := s.repo.ListTeachers(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing teachers: %w", err))
	}
	return teachers, nil
}

func (s *service) ListClasses(ctx context.Context) ([]Class, error) {
	classes, err := s.repo.ListClasses(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing classes: %w", err))
	}
	return classes, nil
}

func (s *service) ListLanguages(ctx context.Context) ([]Language, error) {
	languages, err := s.repo.ListLanguages(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing languages: %w", err))
	}
	return languages, nil
}
