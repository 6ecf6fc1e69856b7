package courses

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/angembang/college-en-ligne/internal/apperror"
	"github.com/angembang/college-en-ligne/internal/features/auth"
)

// Handler handles HTTP requests for course material. The form endpoints
// answer JSON {success, message}; the read endpoints return the listing
// shapes directly.
type Handler struct {
	service Service
}

// NewHandler creates a new courses handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateCourse processes the course form (POST /check-add-course).
func (h *Handler) CreateCourse(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, map[string]any{
			"success": false,
			"message": "Le formulaire n'a pas été soumis par la méthode POST",
		})
	}

	input, err := bindCourseInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Requête invalide"})
	}

	if _, err := h.service.CreateCourse(c.Request().Context(), *input); err != nil {
		return c.JSON(apperror.SafeCode(err), map[string]any{
			"success": false,
			"message": apperror.SafeMessage(err),
		})
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "message": "Cours ajouté avec succès"})
}

// UpdateCourse processes the course edit form (POST /check-update-course).
func (h *Handler) UpdateCourse(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, map[string]any{
			"success": false,
			"message": "Méthode de requête non valide.",
		})
	}

	input, err := bindCourseInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Requête invalide"})
	}

	if _, err := h.service.UpdateCourse(c.Request().Context(), *input); err != nil {
		return c.JSON(apperror.SafeCode(err), map[string]any{
			"success": false,
			"message": apperror.SafeMessage(err),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Cours mis à jour avec succès."})
}

// DeleteCourse removes a course (GET /delete-course?id=).
func (h *Handler) DeleteCourse(c echo.Context) error {
	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Cours non trouvé."})
	}

	if err := h.service.DeleteCourse(c.Request().Context(), id); err != nil {
		return c.JSON(apperror.SafeCode(err), map[string]any{
			"success": false,
			"message": apperror.SafeMessage(err),
		})
	}
	slog.Info("course deleted", "course_id", id, "account_id", auth.GetAccountID(c))
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Cours supprimé avec succès."})
}

// LessonCourses returns a lesson's material (GET /api/courses?lesson_id=).
func (h *Handler) LessonCourses(c echo.Context) error {
	lessonID, err := strconv.ParseInt(c.QueryParam("lesson_id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return apperror.NewValidation("Leçon invalide")
	}

	listing, err := h.service.CoursesForLesson(c.Request().Context(), lessonID, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

// Search resolves an exact lesson name to its material
// (GET /search-course?lesson_name=).
func (h *Handler) Search(c echo.Context) error {
	listing, err := h.service.SearchByLessonName(c.Request().Context(), c.QueryParam("lesson_name"), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

// Autocomplete suggests lesson names of the logged-in collegian's class
// (GET /classe-lessons?fragment=).
func (h *Handler) Autocomplete(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil || session.ClassID == nil {
		return apperror.NewForbidden("Réservé aux collégiens")
	}

	names, err := h.service.AutocompleteLessonNames(c.Request().Context(), *session.ClassID, c.QueryParam("fragment"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"courseNames": names})
}

// bindCourseInput reads the multipart form fields and optional uploads.
func bindCourseInput(c echo.Context) (*CourseInput, error) {
	var req CourseRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}

	input := &CourseInput{
		ID:         req.ID,
		LessonID:   req.LessonID,
		UnlockDate: req.UnlockDate,
		Subject:    req.Subject,
		Summary:    req.Summary,
		Content:    req.Content,
		Video:      req.Video,
		Link:       req.Link,
	}

	var err error
	if input.Image, err = optionalFile(c, "image"); err != nil {
		return nil, err
	}
	if input.Audio, err = optionalFile(c, "audio"); err != nil {
		return nil, err
	}
	if input.PDF, err = optionalFile(c, "fichierpdf"); err != nil {
		return nil, err
	}
	return input, nil
}

// optionalFile returns the named upload, or nil when the field was left
// empty or the form is not multipart.
func optionalFile(c echo.Context, name string) (*multipart.FileHeader, error) {
	header, err := c.FormFile(name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if header == nil || header.Filename == "" {
		return nil, nil
	}
	return header, nil
}
