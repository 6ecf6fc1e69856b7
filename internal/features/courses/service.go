package courses

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/angembang/college-en-ligne/internal/apperror"
	"github.com/angembang/college-en-ligne/internal/sanitize"
)

// Service defines the business logic contract for course material.
type Service interface {
	CreateCourse(ctx context.Context, input CourseInput) (*Course, error)
	UpdateCourse(ctx context.Context, input CourseInput) (*Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	// CoursesForLesson returns a lesson's material, newest first, with the
	// per-course unlock state computed against now.
	CoursesForLesson(ctx context.Context, lessonID int64, now time.Time) (*LessonCourses, error)

	// SearchByLessonName resolves an exact lesson name to its material.
	SearchByLessonName(ctx context.Context, name string, now time.Time) (*LessonCourses, error)

	// AutocompleteLessonNames returns the lesson names of a class matching
	// a prefix fragment. An empty fragment yields no suggestions.
	AutocompleteLessonNames(ctx context.Context, classID int64, fragment string) ([]string, error)
}

// youtubeWatchPattern accepts only canonical watch URLs; anything else is
// rejected rather than passed through to the embed frame.
var youtubeWatchPattern = regexp.MustCompile(`^https://www\.youtube\.com/watch\?v=([\w-]+)$`)

// service implements Service.
type service struct {
	repo  Repository
	media *MediaStore
}

// NewService creates a courses service over the given repository and
// attachment store.
func NewService(repo Repository, media *MediaStore) Service {
	return &service{repo: repo, media: media}
}

// CreateCourse validates the submission, stores any attachments, and
// inserts the course.
func (s *service) CreateCourse(ctx context.Context, input CourseInput) (*Course, error) {
	course, err := s.buildCourse(input, nil)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateCourse(ctx, course); err != nil {
		s.removeAttachments(course)
		return nil, apperror.New(http.StatusInternalServerError, "course_create_failed", "Échec lors de l'ajout de cours")
	}

	slog.Info("course created",
		slog.Int64("course_id", course.ID),
		slog.Int64("lesson_id", course.LessonID),
		slog.String("subject", course.Subject),
	)
	return course, nil
}

// UpdateCourse revalidates the submission and replaces only the attachments
// a new file was provided for; the others carry over from the stored row.
func (s *service) UpdateCourse(ctx context.Context, input CourseInput) (*Course, error) {
	id, err := strconv.ParseInt(input.ID, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperror.NewValidation("Cours non trouvé.")
	}

	current, err := s.repo.FindCourseByID(ctx, id)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return nil, apperror.NewNotFound("Cours non trouvé.")
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading course: %w", err))
	}

	course, err := s.buildCourse(input, current)
	if err != nil {
		return nil, err
	}
	course.ID = current.ID
	course.CreatedAt = current.CreatedAt

	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		return nil, apperror.New(http.StatusInternalServerError, "course_update_failed", "Échec de la mise à jour du cours.")
	}

	// Replaced attachments are only orphaned once the row points elsewhere.
	s.removeReplaced(current.Image, course.Image)
	s.removeReplaced(current.Audio, course.Audio)
	s.removeReplaced(current.PDF, course.PDF)

	slog.Info("course updated", slog.Int64("course_id", course.ID))
	return course, nil
}

// DeleteCourse removes the course row and its attachments.
func (s *service) DeleteCourse(ctx context.Context, id int64) error {
	course, err := s.repo.FindCourseByID(ctx, id)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return apperror.NewNotFound("Cours non trouvé.")
		}
		return apperror.NewInternal(fmt.Errorf("loading course: %w", err))
	}

	if err := s.repo.DeleteCourse(ctx, id); err != nil {
		return apperror.New(http.StatusInternalServerError, "course_delete_failed", "Échec de la suppression du cours.")
	}

	s.removeAttachments(course)
	slog.Info("course deleted", slog.Int64("course_id", id))
	return nil
}

func (s *service) CoursesForLesson(ctx context.Context, lessonID int64, now time.Time) (*LessonCourses, error) {
	name, err := s.repo.FindLessonName(ctx, lessonID)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return nil, apperror.NewNotFound("Leçon non trouvée")
		}
		return nil, apperror.NewInternal(fmt.Errorf("resolving lesson: %w", err))
	}

	courses, err := s.repo.FindCoursesByLessonID(ctx, lessonID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing courses: %w", err))
	}
	for i := range courses {
		courses[i].Accessible = !now.Before(courses[i].UnlockDate)
	}

	return &LessonCourses{LessonID: lessonID, LessonName: name, Courses: courses}, nil
}

func (s *service) SearchByLessonName(ctx context.Context, name string, now time.Time) (*LessonCourses, error) {
	name = sanitize.Field(name)
	if name == "" {
		return nil, apperror.NewValidation("Veuillez renseigner le nom de la leçon")
	}

	lessonID, err := s.repo.FindLessonIDByName(ctx, name)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusNotFound {
			return nil, apperror.NewNotFound("Leçon non trouvée")
		}
		return nil, apperror.NewInternal(fmt.Errorf("searching lesson: %w", err))
	}

	return s.CoursesForLesson(ctx, lessonID, now)
}

func (s *service) AutocompleteLessonNames(ctx context.Context, classID int64, fragment string) ([]string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return []string{}, nil
	}
	fragment = escapeLike(fragment)

	names, err := s.repo.LessonNamesForClass(ctx, classID, fragment)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("autocompleting lesson names: %w", err))
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// buildCourse validates the form fields, stores any new attachments, and
// assembles the row. current carries the stored attachments to keep on
// update; nil means a fresh course.
func (s *service) buildCourse(input CourseInput, current *Course) (*Course, error) {
	if input.LessonID == "" || input.UnlockDate == "" || input.Subject == "" ||
		input.Summary == "" || input.Content == "" {
		return nil, apperror.New(http.StatusBadRequest, "missing_fields", "Veuillez remplir tous les champs obligatoires")
	}

	lessonID, err := strconv.ParseInt(input.LessonID, 10, 64)
	if err != nil || lessonID <= 0 {
		return nil, apperror.NewValidation("Leçon invalide")
	}

	unlockDate, err := parseUnlockDate(input.UnlockDate)
	if err != nil {
		return nil, apperror.NewValidation("La date de déblocage n'est pas valide.")
	}

	var video *string
	if input.Video != "" {
		embed, err := convertYouTubeEmbed(input.Video)
		if err != nil {
			return nil, err
		}
		video = &embed
	}

	var link *string
	if input.Link != "" {
		if !validLink(input.Link) {
			return nil, apperror.NewValidation("Le lien fourni n'est pas valide.")
		}
		link = &input.Link
	}

	course := &Course{
		LessonID:   lessonID,
		UnlockDate: unlockDate,
		Subject:    sanitize.Field(input.Subject),
		Summary:    sanitize.Field(input.Summary),
		Content:    sanitize.HTML(input.Content),
		Video:      video,
		Link:       link,
	}
	if current != nil {
		course.Image, course.Audio, course.PDF = current.Image, current.Audio, current.PDF
	}

	if err := s.storeAttachment(kindImage, input.Image, &course.Image); err != nil {
		return nil, err
	}
	if err := s.storeAttachment(kindAudio, input.Audio, &course.Audio); err != nil {
		return nil, err
	}
	if err := s.storeAttachment(kindPDF, input.PDF, &course.PDF); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *service) storeAttachment(kind string, header *multipart.FileHeader, dest **string) error {
	if header == nil {
		return nil
	}
	webPath, err := s.media.Save(kind, header)
	if err != nil {
		return err
	}
	*dest = &webPath
	return nil
}

func (s *service) removeAttachments(course *Course) {
	for _, p := range []*string{course.Image, course.Audio, course.PDF} {
		if p != nil {
			s.media.Remove(*p)
		}
	}
}

func (s *service) removeReplaced(old, current *string) {
	if old != nil && (current == nil || *current != *old) {
		s.media.Remove(*old)
	}
}

// convertYouTubeEmbed turns a canonical watch URL into its embed form.
func convertYouTubeEmbed(watchURL string) (string, error) {
	m := youtubeWatchPattern.FindStringSubmatch(watchURL)
	if m == nil {
		return "", apperror.NewValidation("Le lien YouTube n'est pas valide.")
	}
	return "https://www.youtube.com/embed/" + m[1], nil
}

// validLink accepts absolute http(s) URLs only.
func validLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseUnlockDate reads the unlock date from the form. Browsers submit
// datetime-local values without seconds; the seconded form is accepted for
// API callers.
func parseUnlockDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized unlock date %q", raw)
}

// escapeLike escapes LIKE wildcards so a fragment matches literally.
func escapeLike(fragment string) string {
	fragment = strings.ReplaceAll(fragment, `\`, `\\`)
	fragment = strings.ReplaceAll(fragment, `%`, `\%`)
	return strings.ReplaceAll(fragment, `_`, `\_`)
}
