package courses

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angembang/college-en-ligne/internal/apperror"
)

// mockRepo implements Repository with overridable function fields.
type mockRepo struct {
	createCourse       func(ctx context.Context, course *Course) error
	updateCourse       func(ctx context.Context, course *Course) error
	deleteCourse       func(ctx context.Context, id int64) error
	findCourseByID     func(ctx context.Context, id int64) (*Course, error)
	findByLessonID     func(ctx context.Context, lessonID int64) ([]Course, error)
	findLessonName     func(ctx context.Context, lessonID int64) (string, error)
	findLessonIDByName func(ctx context.Context, name string) (int64, error)
	lessonNames        func(ctx context.Context, classID int64, fragment string) ([]string, error)
}

func (m *mockRepo) CreateCourse(ctx context.Context, course *Course) error {
	if m.createCourse != nil {
		return m.createCourse(ctx, course)
	}
	course.ID = 1
	return nil
}

func (m *mockRepo) UpdateCourse(ctx context.Context, course *Course) error {
	if m.updateCourse != nil {
		return m.updateCourse(ctx, course)
	}
	return nil
}

func (m *mockRepo) DeleteCourse(ctx context.Context, id int64) error {
	if m.deleteCourse != nil {
		return m.deleteCourse(ctx, id)
	}
	return nil
}

func (m *mockRepo) FindCourseByID(ctx context.Context, id int64) (*Course, error) {
	if m.findCourseByID != nil {
		return m.findCourseByID(ctx, id)
	}
	return nil, apperror.NewNotFound("cours introuvable")
}

func (m *mockRepo) FindCoursesByLessonID(ctx context.Context, lessonID int64) ([]Course, error) {
	if m.findByLessonID != nil {
		return m.findByLessonID(ctx, lessonID)
	}
	return nil, nil
}

func (m *mockRepo) FindLessonName(ctx context.Context, lessonID int64) (string, error) {
	if m.findLessonName != nil {
		return m.findLessonName(ctx, lessonID)
	}
	return "", apperror.NewNotFound("leçon introuvable")
}

func (m *mockRepo) FindLessonIDByName(ctx context.Context, name string) (int64, error) {
	if m.findLessonIDByName != nil {
		return m.findLessonIDByName(ctx, name)
	}
	return 0, apperror.NewNotFound("leçon introuvable")
}

func (m *mockRepo) LessonNamesForClass(ctx context.Context, classID int64, fragment string) ([]string, error) {
	if m.lessonNames != nil {
		return m.lessonNames(ctx, classID, fragment)
	}
	return nil, nil
}

func newTestService(t *testing.T, repo *mockRepo) (Service, *MediaStore) {
	t.Helper()
	store := NewMediaStore(t.TempDir(), 10*1024*1024)
	return NewService(repo, store), store
}

func validCourseInput() CourseInput {
	return CourseInput{
		LessonID:   "5",
		UnlockDate: "2024-09-02T08:00",
		Subject:    "Les fractions",
		Summary:    "Introduction aux fractions",
		Content:    "<p>Une fraction représente une partie d'un tout.</p>",
	}
}

// makeFileHeader builds a real multipart file header carrying data.
func makeFileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("creating multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("writing multipart part: %v", err)
	}
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("reading multipart form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

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

func TestConvertYouTubeEmbed(t *testing.T) {
	embed, err := convertYouTubeEmbed("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embed != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Errorf("embed = %q", embed)
	}

	invalid := []string{
		"http://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://example.com/watch?v=abc",
	}
	for _, u := range invalid {
		if _, err := convertYouTubeEmbed(u); err == nil {
			t.Errorf("convertYouTubeEmbed(%q) expected error", u)
		} else {
			assertMessage(t, err, "Le lien YouTube n'est pas valide.")
		}
	}
}

func TestCreateCourse_Validation(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CourseInput)
		want   string
	}{
		{"missing lesson", func(in *CourseInput) { in.LessonID = "" }, "Veuillez remplir tous les champs obligatoires"},
		{"missing unlock date", func(in *CourseInput) { in.UnlockDate = "" }, "Veuillez remplir tous les champs obligatoires"},
		{"missing subject", func(in *CourseInput) { in.Subject = "" }, "Veuillez remplir tous les champs obligatoires"},
		{"missing summary", func(in *CourseInput) { in.Summary = "" }, "Veuillez remplir tous les champs obligatoires"},
		{"missing content", func(in *CourseInput) { in.Content = "" }, "Veuillez remplir tous les champs obligatoires"},
		{"bad lesson id", func(in *CourseInput) { in.LessonID = "abc" }, "Leçon invalide"},
		{"bad unlock date", func(in *CourseInput) { in.UnlockDate = "02/09/2024" }, "La date de déblocage n'est pas valide."},
		{"bad youtube link", func(in *CourseInput) { in.Video = "https://youtu.be/abc" }, "Le lien YouTube n'est pas valide."},
		{"bad link", func(in *CourseInput) { in.Link = "pas-une-url" }, "Le lien fourni n'est pas valide."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCourseInput()
			tt.mutate(&input)
			_, err := svc.CreateCourse(ctx, input)
			assertMessage(t, err, tt.want)
		})
	}
}

func TestCreateCourse_Success(t *testing.T) {
	var created *Course
	repo := &mockRepo{
		createCourse: func(ctx context.Context, course *Course) error {
			created = course
			course.ID = 9
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	input := validCourseInput()
	input.Video = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	input.Link = "https://fr.wikipedia.org/wiki/Fraction"
	input.Content = `<p>Cours</p><script>alert("x")</script>`

	course, err := svc.CreateCourse(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateCourse error: %v", err)
	}
	if course.ID != 9 || created == nil {
		t.Fatalf("course not persisted: %+v", course)
	}
	if created.LessonID != 5 {
		t.Errorf("lesson id = %d, want 5", created.LessonID)
	}
	if created.Video == nil || *created.Video != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Errorf("video = %v, want embed URL", created.Video)
	}
	if strings.Contains(created.Content, "<script>") {
		t.Errorf("content kept script tag: %q", created.Content)
	}
	if !strings.Contains(created.Content, "<p>Cours</p>") {
		t.Errorf("content lost formatting: %q", created.Content)
	}
	want := time.Date(2024, 9, 2, 8, 0, 0, 0, time.Local)
	if !created.UnlockDate.Equal(want) {
		t.Errorf("unlock date = %s, want %s", created.UnlockDate, want)
	}
}

func TestCreateCourse_WithImageAttachment(t *testing.T) {
	var created *Course
	repo := &mockRepo{
		createCourse: func(ctx context.Context, course *Course) error {
			created = course
			return nil
		},
	}
	svc, store := newTestService(t, repo)

	input := validCourseInput()
	input.Image = makeFileHeader(t, "figure.png", "image/png", pngBytes)

	if _, err := svc.CreateCourse(context.Background(), input); err != nil {
		t.Fatalf("CreateCourse error: %v", err)
	}
	if created.Image == nil {
		t.Fatal("image path not recorded")
	}
	if !strings.HasPrefix(*created.Image, "/media/images/") {
		t.Errorf("image path = %q, want /media/images/ prefix", *created.Image)
	}
	if !strings.HasSuffix(*created.Image, ".png") {
		t.Errorf("image path = %q, want .png suffix", *created.Image)
	}

	rel := strings.TrimPrefix(*created.Image, "/media/")
	if _, err := os.Stat(filepath.Join(store.root, filepath.FromSlash(rel))); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}

func TestCreateCourse_RejectsBadUploads(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})
	ctx := context.Background()

	t.Run("wrong image type", func(t *testing.T) {
		input := validCourseInput()
		input.Image = makeFileHeader(t, "notes.txt", "text/plain", []byte("hello"))
		_, err := svc.CreateCourse(ctx, input)
		assertMessage(t, err, "Le format de l'image n'est pas valide. Seuls les formats JPEG, PNG et GIF sont acceptés.")
	})

	t.Run("spoofed content type", func(t *testing.T) {
		input := validCourseInput()
		input.Image = makeFileHeader(t, "evil.png", "image/png", []byte("#!/bin/sh\nrm -rf"))
		_, err := svc.CreateCourse(ctx, input)
		assertMessage(t, err, "Le format de l'image n'est pas valide. Seuls les formats JPEG, PNG et GIF sont acceptés.")
	})

	t.Run("wrong audio type", func(t *testing.T) {
		input := validCourseInput()
		input.Audio = makeFileHeader(t, "son.ogg", "audio/ogg", []byte("OggS"))
		_, err := svc.CreateCourse(ctx, input)
		assertMessage(t, err, "Le format de l'audio n'est pas valide. Seuls les formats MP3 et WAV sont acceptés.")
	})

	t.Run("wrong pdf type", func(t *testing.T) {
		input := validCourseInput()
		input.PDF = makeFileHeader(t, "doc.docx", "application/msword", []byte("PK"))
		_, err := svc.CreateCourse(ctx, input)
		assertMessage(t, err, "Le format du fichier PDF n'est pas valide. Seuls les fichiers PDF sont acceptés.")
	})
}

func TestUpdateCourse_KeepsExistingAttachments(t *testing.T) {
	existingImage := "/media/images/old.png"
	existingPDF := "/media/pdfs/old.pdf"
	current := &Course{
		ID:        3,
		LessonID:  5,
		Subject:   "Les fractions",
		Image:     &existingImage,
		PDF:       &existingPDF,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var updated *Course
	repo := &mockRepo{
		findCourseByID: func(ctx context.Context, id int64) (*Course, error) {
			if id != 3 {
				t.Errorf("looked up id %d, want 3", id)
			}
			return current, nil
		},
		updateCourse: func(ctx context.Context, course *Course) error {
			updated = course
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	input := validCourseInput()
	input.ID = "3"
	course, err := svc.UpdateCourse(context.Background(), input)
	if err != nil {
		t.Fatalf("UpdateCourse error: %v", err)
	}
	if updated == nil {
		t.Fatal("update not persisted")
	}
	if course.Image == nil || *course.Image != existingImage {
		t.Errorf("image = %v, want existing path kept", course.Image)
	}
	if course.PDF == nil || *course.PDF != existingPDF {
		t.Errorf("pdf = %v, want existing path kept", course.PDF)
	}
	if !course.CreatedAt.Equal(current.CreatedAt) {
		t.Errorf("created at = %s, want original %s", course.CreatedAt, current.CreatedAt)
	}
}

func TestUpdateCourse_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})
	input := validCourseInput()
	input.ID = "42"
	_, err := svc.UpdateCourse(context.Background(), input)
	assertMessage(t, err, "Cours non trouvé.")
}

func TestDeleteCourse_RemovesAttachments(t *testing.T) {
	repo := &mockRepo{}
	svc, store := newTestService(t, repo)

	// Seed a stored attachment the course points at.
	dir := filepath.Join(store.root, "images")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(dir, "figure.png")
	if err := os.WriteFile(full, pngBytes, 0644); err != nil {
		t.Fatal(err)
	}

	imagePath := "/media/images/figure.png"
	repo.findCourseByID = func(ctx context.Context, id int64) (*Course, error) {
		return &Course{ID: id, Image: &imagePath}, nil
	}

	if err := svc.DeleteCourse(context.Background(), 7); err != nil {
		t.Fatalf("DeleteCourse error: %v", err)
	}
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Errorf("attachment still on disk after delete")
	}
}

func TestDeleteCourse_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})
	err := svc.DeleteCourse(context.Background(), 42)
	assertMessage(t, err, "Cours non trouvé.")
}

func TestCoursesForLesson_UnlockState(t *testing.T) {
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	repo := &mockRepo{
		findLessonName: func(ctx context.Context, lessonID int64) (string, error) {
			return "Mathématiques", nil
		},
		findByLessonID: func(ctx context.Context, lessonID int64) ([]Course, error) {
			return []Course{
				{ID: 1, Subject: "Déjà débloqué", UnlockDate: now.Add(-time.Hour)},
				{ID: 2, Subject: "Débloqué à l'instant", UnlockDate: now},
				{ID: 3, Subject: "Encore verrouillé", UnlockDate: now.Add(time.Hour)},
			}, nil
		},
	}
	svc, _ := newTestService(t, repo)

	listing, err := svc.CoursesForLesson(context.Background(), 5, now)
	if err != nil {
		t.Fatalf("CoursesForLesson error: %v", err)
	}
	if listing.LessonName != "Mathématiques" {
		t.Errorf("lesson name = %q", listing.LessonName)
	}
	wantAccessible := []bool{true, true, false}
	for i, c := range listing.Courses {
		if c.Accessible != wantAccessible[i] {
			t.Errorf("course %d accessible = %v, want %v", c.ID, c.Accessible, wantAccessible[i])
		}
	}
}

func TestSearchByLessonName(t *testing.T) {
	t.Run("unknown lesson", func(t *testing.T) {
		svc, _ := newTestService(t, &mockRepo{})
		_, err := svc.SearchByLessonName(context.Background(), "Alchimie", time.Now())
		assertMessage(t, err, "Leçon non trouvée")
	})

	t.Run("empty name", func(t *testing.T) {
		svc, _ := newTestService(t, &mockRepo{})
		_, err := svc.SearchByLessonName(context.Background(), "   ", time.Now())
		assertMessage(t, err, "Veuillez renseigner le nom de la leçon")
	})

	t.Run("found", func(t *testing.T) {
		repo := &mockRepo{
			findLessonIDByName: func(ctx context.Context, name string) (int64, error) {
				if name != "Histoire" {
					t.Errorf("searched %q, want Histoire", name)
				}
				return 8, nil
			},
			findLessonName: func(ctx context.Context, lessonID int64) (string, error) {
				return "Histoire", nil
			},
			findByLessonID: func(ctx context.Context, lessonID int64) ([]Course, error) {
				return []Course{{ID: 1, LessonID: lessonID}}, nil
			},
		}
		svc, _ := newTestService(t, repo)

		listing, err := svc.SearchByLessonName(context.Background(), "Histoire", time.Now())
		if err != nil {
			t.Fatalf("SearchByLessonName error: %v", err)
		}
		if listing.LessonID != 8 || len(listing.Courses) != 1 {
			t.Errorf("listing = %+v", listing)
		}
	})
}

func TestAutocompleteLessonNames(t *testing.T) {
	t.Run("empty fragment short-circuits", func(t *testing.T) {
		repo := &mockRepo{
			lessonNames: func(ctx context.Context, classID int64, fragment string) ([]string, error) {
				t.Error("repository called for empty fragment")
				return nil, nil
			},
		}
		svc, _ := newTestService(t, repo)
		names, err := svc.AutocompleteLessonNames(context.Background(), 1, "  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(names) != 0 {
			t.Errorf("names = %v, want empty", names)
		}
	})

	t.Run("escapes like wildcards", func(t *testing.T) {
		var gotFragment string
		repo := &mockRepo{
			lessonNames: func(ctx context.Context, classID int64, fragment string) ([]string, error) {
				gotFragment = fragment
				return []string{"Mathématiques"}, nil
			},
		}
		svc, _ := newTestService(t, repo)
		names, err := svc.AutocompleteLessonNames(context.Background(), 1, "Ma%th")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotFragment != `Ma\%th` {
			t.Errorf("fragment = %q, want escaped", gotFragment)
		}
		if len(names) != 1 {
			t.Errorf("names = %v", names)
		}
	})

	t.Run("nil result becomes empty slice", func(t *testing.T) {
		svc, _ := newTestService(t, &mockRepo{})
		names, err := svc.AutocompleteLessonNames(context.Background(), 1, "Zoo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if names == nil {
			t.Error("names is nil, want empty slice for JSON encoding")
		}
	})
}
