package lessons

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angembang/college-en-ligne/internal/apperror"
)

// mockRepo implements Repository with overridable function fields. Unset
// lookups answer not-found so the find-or-create paths take the create
// branch by default.
type mockRepo struct {
	findClassByLevel    func(ctx context.Context, level string) (*Class, error)
	findClassLevelByID  func(ctx context.Context, id int64) (string, error)
	createClass         func(ctx context.Context, level string) (*Class, error)
	listClasses         func(ctx context.Context) ([]Class, error)
	languageExists      func(ctx context.Context, id int64) (bool, error)
	listLanguages       func(ctx context.Context) ([]Language, error)
	findTimeTableBySlot func(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error)
	findTimeTableByID   func(ctx context.Context, id int64) (*TimeTable, error)
	createTimeTable     func(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error)
	createLesson        func(ctx context.Context, lesson *Lesson) error
	updateLesson        func(ctx context.Context, lesson *Lesson) error
	deleteLesson        func(ctx context.Context, id int64) error
	findLessonByID      func(ctx context.Context, id int64) (*Lesson, error)
	findLessonsByClass  func(ctx context.Context, classID int64) ([]Lesson, error)
	findLessonsForDay   func(ctx context.Context, classLevel, weekDay string) ([]DayLesson, error)
	listTeachers        func(ctx context.Context) ([]Teacher, error)
	teacherExists       func(ctx context.Context, id int64) (bool, error)
}

func (m *mockRepo) FindClassByLevel(ctx context.Context, level string) (*Class, error) {
	if m.findClassByLevel != nil {
		return m.findClassByLevel(ctx, level)
	}
	return nil, apperror.NewNotFound("classe non trouvée")
}

func (m *mockRepo) FindClassLevelByID(ctx context.Context, id int64) (string, error) {
	if m.findClassLevelByID != nil {
		return m.findClassLevelByID(ctx, id)
	}
	return "", apperror.NewNotFound("classe non trouvée")
}

func (m *mockRepo) CreateClass(ctx context.Context, level string) (*Class, error) {
	if m.createClass != nil {
		return m.createClass(ctx, level)
	}
	return &Class{ID: 1, Level: level}, nil
}

func (m *mockRepo) ListClasses(ctx context.Context) ([]Class, error) {
	if m.listClasses != nil {
		return m.listClasses(ctx)
	}
	return nil, nil
}

func (m *mockRepo) LanguageExists(ctx context.Context, id int64) (bool, error) {
	if m.languageExists != nil {
		return m.languageExists(ctx, id)
	}
	return false, nil
}

func (m *mockRepo) ListLanguages(ctx context.Context) ([]Language, error) {
	if m.listLanguages != nil {
		return m.listLanguages(ctx)
	}
	return nil, nil
}

func (m *mockRepo) FindTimeTableBySlot(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error) {
	if m.findTimeTableBySlot != nil {
		return m.findTimeTableBySlot(ctx, weekDay, startTime, endTime)
	}
	return nil, apperror.NewNotFound("horaire non trouvé")
}

func (m *mockRepo) FindTimeTableByID(ctx context.Context, id int64) (*TimeTable, error) {
	if m.findTimeTableByID != nil {
		return m.findTimeTableByID(ctx, id)
	}
	return nil, apperror.NewNotFound("horaire non trouvé")
}

func (m *mockRepo) CreateTimeTable(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error) {
	if m.createTimeTable != nil {
		return m.createTimeTable(ctx, weekDay, startTime, endTime)
	}
	return &TimeTable{ID: 1, WeekDay: weekDay, StartTime: startTime, EndTime: endTime}, nil
}

func (m *mockRepo) CreateLesson(ctx context.Context, lesson *Lesson) error {
	if m.createLesson != nil {
		return m.createLesson(ctx, lesson)
	}
	lesson.ID = 1
	return nil
}

func (m *mockRepo) UpdateLesson(ctx context.Context, lesson *Lesson) error {
	if m.updateLesson != nil {
		return m.updateLesson(ctx, lesson)
	}
	return nil
}

func (m *mockRepo) DeleteLesson(ctx context.Context, id int64) error {
	if m.deleteLesson != nil {
		return m.deleteLesson(ctx, id)
	}
	return nil
}

func (m *mockRepo) FindLessonByID(ctx context.Context, id int64) (*Lesson, error) {
	if m.findLessonByID != nil {
		return m.findLessonByID(ctx, id)
	}
	return nil, apperror.NewNotFound("leçon non trouvée")
}

func (m *mockRepo) FindLessonsByClassID(ctx context.Context, classID int64) ([]Lesson, error) {
	if m.findLessonsByClass != nil {
		return m.findLessonsByClass(ctx, classID)
	}
	return nil, nil
}

func (m *mockRepo) FindLessonsForDay(ctx context.Context, classLevel, weekDay string) ([]DayLesson, error) {
	if m.findLessonsForDay != nil {
		return m.findLessonsForDay(ctx, classLevel, weekDay)
	}
	return nil, nil
}

func (m *mockRepo) ListTeachers(ctx context.Context) ([]Teacher, error) {
	if m.listTeachers != nil {
		return m.listTeachers(ctx)
	}
	return nil, nil
}

func (m *mockRepo) TeacherExists(ctx context.Context, id int64) (bool, error) {
	if m.teacherExists != nil {
		return m.teacherExists(ctx, id)
	}
	return true, nil
}

func validLessonInput() CreateLessonInput {
	return CreateLessonInput{
		Name:       "Mathématiques",
		ClassLevel: "6ème",
		TeacherID:  "3",
		WeekDay:    "Lundi",
		StartTime:  "08:30",
		EndTime:    "09:30",
	}
}

func assertMessage(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Message != want {
		t.Errorf("message = %q, want %q", appErr.Message, want)
	}
}

func TestCreateLesson_Validation(t *testing.T) {
	svc := NewService(&mockRepo{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateLessonInput)
		want   string
	}{
		{"missing name", func(in *CreateLessonInput) { in.Name = "" }, "Veuillez renseigner tous les champs obligatoires"},
		{"missing level", func(in *CreateLessonInput) { in.ClassLevel = "" }, "Veuillez renseigner tous les champs obligatoires"},
		{"missing teacher", func(in *CreateLessonInput) { in.TeacherID = "" }, "Veuillez renseigner tous les champs obligatoires"},
		{"missing day", func(in *CreateLessonInput) { in.WeekDay = "" }, "Veuillez renseigner tous les champs obligatoires"},
		{"missing start", func(in *CreateLessonInput) { in.StartTime = "" }, "Veuillez renseigner tous les champs obligatoires"},
		{"missing end", func(in *CreateLessonInput) { in.EndTime = "" }, "Veuillez renseigner tous les champs obligatoires"},
		{"non numeric teacher", func(in *CreateLessonInput) { in.TeacherID = "abc" }, "Professeur invalide"},
		{"unknown day", func(in *CreateLessonInput) { in.WeekDay = "Mondi" }, "Jour de la semaine invalide"},
		{"bad start time", func(in *CreateLessonInput) { in.StartTime = "26:00" }, "Horaire invalide"},
		{"bad end time", func(in *CreateLessonInput) { in.EndTime = "xx" }, "Horaire invalide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validLessonInput()
			tt.mutate(&input)
			_, err := svc.CreateLesson(ctx, input)
			assertMessage(t, err, tt.want)
		})
	}
}

func TestCreateLesson_RejectsUnknownTeacherID(t *testing.T) {
	// Ids from the referents table can coincide with teacher ids, so an id
	// with no row in the teachers table must be rejected before any insert.
	var checked int64
	repo := &mockRepo{
		teacherExists: func(ctx context.Context, id int64) (bool, error) {
			checked = id
			return false, nil
		},
		createLesson: func(ctx context.Context, lesson *Lesson) error {
			t.Error("createLesson called for an unknown teacher id")
			return nil
		},
	}

	_, err := NewService(repo).CreateLesson(context.Background(), validLessonInput())
	assertMessage(t, err, "Professeur non trouvé")
	if checked != 3 {
		t.Errorf("checked teacher id = %d, want 3", checked)
	}
}

func TestCreateLesson_CreatesMissingClassAndSlot(t *testing.T) {
	var createdClass, createdSlot bool
	var inserted *Lesson

	repo := &mockRepo{
		createClass: func(ctx context.Context, level string) (*Class, error) {
			createdClass = true
			if level != "6ème" {
				t.Errorf("createClass level = %q, want 6ème", level)
			}
			return &Class{ID: 11, Level: level}, nil
		},
		createTimeTable: func(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error) {
			createdSlot = true
			if weekDay != "Lundi" {
				t.Errorf("createTimeTable weekDay = %q, want Lundi", weekDay)
			}
			return &TimeTable{ID: 22, WeekDay: weekDay, StartTime: startTime, EndTime: endTime}, nil
		},
		createLesson: func(ctx context.Context, lesson *Lesson) error {
			inserted = lesson
			lesson.ID = 33
			return nil
		},
	}

	lesson, err := NewService(repo).CreateLesson(context.Background(), validLessonInput())
	if err != nil {
		t.Fatalf("CreateLesson error: %v", err)
	}
	if !createdClass || !createdSlot {
		t.Errorf("createdClass = %v, createdSlot = %v, want both true", createdClass, createdSlot)
	}
	if inserted == nil || inserted.ClassID != 11 || inserted.TimeTableID != 22 || inserted.TeacherID != 3 {
		t.Errorf("inserted lesson = %+v", inserted)
	}
	if lesson.ID != 33 {
		t.Errorf("lesson ID = %d, want 33", lesson.ID)
	}
}

func TestCreateLesson_ReusesExistingClassAndSlot(t *testing.T) {
	repo := &mockRepo{
		findClassByLevel: func(ctx context.Context, level string) (*Class, error) {
			return &Class{ID: 7, Level: level}, nil
		},
		findTimeTableBySlot: func(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error) {
			return &TimeTable{ID: 8, WeekDay: weekDay, StartTime: startTime, EndTime: endTime}, nil
		},
		createClass: func(ctx context.Context, level string) (*Class, error) {
			t.Error("createClass called for an existing class")
			return nil, errors.New("unexpected")
		},
		createTimeTable: func(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error) {
			t.Error("createTimeTable called for an existing slot")
			return nil, errors.New("unexpected")
		},
	}

	lesson, err := NewService(repo).CreateLesson(context.Background(), validLessonInput())
	if err != nil {
		t.Fatalf("CreateLesson error: %v", err)
	}
	if lesson.ClassID != 7 || lesson.TimeTableID != 8 {
		t.Errorf("lesson = %+v, want ClassID 7 and TimeTableID 8", lesson)
	}
}

func TestCreateLesson_StageFailureMessages(t *testing.T) {
	boom := errors.New("boom")

	t.Run("class create fails", func(t *testing.T) {
		repo := &mockRepo{
			createClass: func(ctx context.Context, level string) (*Class, error) { return nil, boom },
		}
		_, err := NewService(repo).CreateLesson(context.Background(), validLessonInput())
		assertMessage(t, err, "Échec lors de l'ajout de la classe")
	})

	t.Run("slot create fails", func(t *testing.T) {
		repo := &mockRepo{
			createTimeTable: func(ctx context.Context, weekDay, startTime, endTime string) (*TimeTable, error) { return nil, boom },
		}
		_, err := NewService(repo).CreateLesson(context.Background(), validLessonInput())
		assertMessage(t, err, "Échec lors de l'ajout de l'horaire")
	})

	t.Run("lesson insert fails", func(t *testing.T) {
		repo := &mockRepo{
			createLesson: func(ctx context.Context, lesson *Lesson) error { return boom },
		}
		_, err := NewService(repo).CreateLesson(context.Background(), validLessonInput())
		assertMessage(t, err, "Échec lors de l'ajout du cours")
	})
}

func TestListForDay_CountdownStates(t *testing.T) {
	// Monday 08:00.
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

	repo := &mockRepo{
		findClassLevelByID: func(ctx context.Context, id int64) (string, error) {
			if id != 4 {
				t.Errorf("class id = %d, want 4", id)
			}
			return "6ème", nil
		},
		findLessonsForDay: func(ctx context.Context, classLevel, weekDay string) ([]DayLesson, error) {
			if classLevel != "6ème" {
				t.Errorf("classLevel = %q, want 6ème", classLevel)
			}
			if weekDay != "Lundi" {
				t.Errorf("weekDay = %q, want Lundi", weekDay)
			}
			return []DayLesson{
				{Lesson: Lesson{ID: 1, Name: "Français"}, WeekDay: weekDay, StartTime: "07:00:00", EndTime: "08:00:00"},
				{Lesson: Lesson{ID: 2, Name: "Mathématiques"}, WeekDay: weekDay, StartTime: "09:01:01", EndTime: "10:00:00"},
			}, nil
		},
	}

	listing, err := NewService(repo).ListForDay(context.Background(), 4, now)
	if err != nil {
		t.Fatalf("ListForDay error: %v", err)
	}
	if len(listing) != 2 {
		t.Fatalf("got %d entries, want 2", len(listing))
	}

	past := listing[0]
	if !past.Accessible || past.Remaining != AccessLabel || past.RemainingSeconds != 0 {
		t.Errorf("started lesson = %+v, want accessible with label %q", past, AccessLabel)
	}

	upcoming := listing[1]
	if upcoming.Accessible {
		t.Error("upcoming lesson reported accessible")
	}
	if upcoming.RemainingSeconds != 3661 {
		t.Errorf("remaining seconds = %d, want 3661", upcoming.RemainingSeconds)
	}
	if upcoming.Remaining != "01h 01m 01s" {
		t.Errorf("remaining display = %q, want %q", upcoming.Remaining, "01h 01m 01s")
	}
}

func TestListForDay_BecomesAccessibleAfterStart(t *testing.T) {
	repo := &mockRepo{
		findClassLevelByID: func(ctx context.Context, id int64) (string, error) { return "6ème", nil },
		findLessonsForDay: func(ctx context.Context, classLevel, weekDay string) ([]DayLesson, error) {
			return []DayLesson{
				{Lesson: Lesson{ID: 1, Name: "Histoire"}, WeekDay: weekDay, StartTime: "08:00:05", EndTime: "09:00:00"},
			}, nil
		},
	}
	svc := NewService(repo)

	before := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	listing, err := svc.ListForDay(context.Background(), 1, before)
	if err != nil {
		t.Fatalf("ListForDay error: %v", err)
	}
	if listing[0].Accessible || listing[0].RemainingSeconds != 5 {
		t.Errorf("before start: %+v, want locked with 5 seconds left", listing[0])
	}

	after := before.Add(6 * time.Second)
	listing, err = svc.ListForDay(context.Background(), 1, after)
	if err != nil {
		t.Fatalf("ListForDay error: %v", err)
	}
	if !listing[0].Accessible || listing[0].Remaining != AccessLabel {
		t.Errorf("after start: %+v, want accessible %q", listing[0], AccessLabel)
	}
}

func TestListForDay_SkipsUnreadableSlot(t *testing.T) {
	repo := &mockRepo{
		findClassLevelByID: func(ctx context.Context, id int64) (string, error) { return "5ème", nil },
		findLessonsForDay: func(ctx context.Context, classLevel, weekDay string) ([]DayLesson, error) {
			return []DayLesson{
				{Lesson: Lesson{ID: 1, Name: "Anglais"}, WeekDay: weekDay, StartTime: "garbage", EndTime: "10:00:00"},
				{Lesson: Lesson{ID: 2, Name: "Espagnol"}, WeekDay: weekDay, StartTime: "10:00:00", EndTime: "11:00:00"},
			}, nil
		},
	}

	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	listing, err := NewService(repo).ListForDay(context.Background(), 1, now)
	if err != nil {
		t.Fatalf("ListForDay error: %v", err)
	}
	if len(listing) != 1 || listing[0].Lesson.ID != 2 {
		t.Errorf("listing = %+v, want only the readable entry", listing)
	}
}

func TestListForDay_UnknownClass(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, err := svc.ListForDay(context.Background(), 99, time.Now())
	assertMessage(t, err, "Classe non trouvée")
}

func TestListForClass(t *testing.T) {
	repo := &mockRepo{
		findLessonsByClass: func(ctx context.Context, classID int64) ([]Lesson, error) {
			if classID != 4 {
				t.Errorf("class id = %d, want 4", classID)
			}
			return []Lesson{
				{ID: 1, Name: "Français", TimeTableID: 10},
				{ID: 2, Name: "Sport", TimeTableID: 99},
			}, nil
		},
		findTimeTableByID: func(ctx context.Context, id int64) (*TimeTable, error) {
			if id == 10 {
				return &TimeTable{ID: 10, WeekDay: "Mardi", StartTime: "09:00:00", EndTime: "10:00:00"}, nil
			}
			return nil, apperror.NewNotFound("horaire non trouvé")
		},
	}

	catalog, err := NewService(repo).ListForClass(context.Background(), 4)
	if err != nil {
		t.Fatalf("ListForClass error: %v", err)
	}
	if len(catalog) != 1 {
		t.Fatalf("got %d entries, want 1 (missing slot skipped)", len(catalog))
	}
	if catalog[0].Lesson.ID != 1 || catalog[0].TimeTable.WeekDay != "Mardi" {
		t.Errorf("catalog = %+v", catalog[0])
	}
}

func TestUpdateLesson(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		err := NewService(&mockRepo{}).UpdateLesson(context.Background(), Lesson{ID: 0, Name: "Maths"})
		assertMessage(t, err, "Leçon invalide")
	})

	t.Run("sanitizes name", func(t *testing.T) {
		var updated *Lesson
		repo := &mockRepo{
			findLessonByID: func(ctx context.Context, id int64) (*Lesson, error) {
				return &Lesson{ID: id, Name: "Maths"}, nil
			},
			updateLesson: func(ctx context.Context, lesson *Lesson) error {
				updated = lesson
				return nil
			},
		}
		err := NewService(repo).UpdateLesson(context.Background(), Lesson{ID: 1, Name: "  <b>Maths</b>  "})
		if err != nil {
			t.Fatalf("UpdateLesson error: %v", err)
		}
		if updated.Name != "Maths" {
			t.Errorf("updated name = %q, want %q", updated.Name, "Maths")
		}
	})

	t.Run("not found", func(t *testing.T) {
		err := NewService(&mockRepo{}).UpdateLesson(context.Background(), Lesson{ID: 42, Name: "Maths"})
		assertMessage(t, err, "Leçon non trouvée")
	})
}

func TestDeleteLesson_NotFound(t *testing.T) {
	repo := &mockRepo{
		deleteLesson: func(ctx context.Context, id int64) error {
			return apperror.NewNotFound("leçon non trouvée")
		},
	}
	err := NewService(repo).DeleteLesson(context.Background(), 42)
	assertMessage(t, err, "Leçon non trouvée")
}
