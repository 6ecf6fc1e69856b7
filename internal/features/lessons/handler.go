package lessons

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/angembang/college-en-ligne/internal/apperror"
	"github.com/angembang/college-en-ligne/internal/features/auth"
	"github.com/angembang/college-en-ligne/internal/middleware"
	"github.com/angembang/college-en-ligne/internal/templates/pages"
)

// Handler handles HTTP requests for the lesson catalog. The admin endpoints
// answer JSON {success, message}; the collegian listing is served both as a
// page and as JSON for the client countdown.
type Handler struct {
	service Service
}

// NewHandler creates a new lessons handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// LessonsPage renders the collegian's day listing (GET /lesson).
func (h *Handler) LessonsPage(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil || session.ClassID == nil {
		return c.Redirect(http.StatusSeeOther, "/connexion")
	}

	listing, err := h.service.ListForDay(c.Request().Context(), *session.ClassID, time.Now())
	if err != nil {
		return err
	}

	return middleware.Render(c, http.StatusOK, pages.Lessons(CurrentWeekDay(time.Now()), toPageLessons(listing)))
}

// Today returns the day listing as JSON (GET /api/lessons/today). The
// numeric remaining seconds drive the client countdown; the formatted
// string is the first paint.
func (h *Handler) Today(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil || session.ClassID == nil {
		return apperror.NewForbidden("Réservé aux collégiens")
	}

	now := time.Now()
	listing, err := h.service.ListForDay(c.Request().Context(), *session.ClassID, now)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"weekDay": CurrentWeekDay(now),
		"lessons": listing,
	})
}

// ClassLessons returns the collegian's full weekly catalog
// (GET /api/lessons).
func (h *Handler) ClassLessons(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil || session.ClassID == nil {
		return apperror.NewForbidden("Réservé aux collégiens")
	}

	catalog, err := h.service.ListForClass(c.Request().Context(), *session.ClassID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"lessons": catalog})
}

// CreateLesson processes the lesson admin form (POST /check-add-lesson).
func (h *Handler) CreateLesson(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, map[string]any{
			"success": false,
			"message": "Le formulaire n'est pas soumis par la méthode POST",
		})
	}

	var req CreateLessonRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Requête invalide"})
	}

	input := CreateLessonInput{
		Name:       req.Name,
		ClassLevel: req.ClassLevel,
		TeacherID:  req.TeacherID,
		WeekDay:    req.WeekDay,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}

	if _, err := h.service.CreateLesson(c.Request().Context(), input); err != nil {
		return c.JSON(apperror.SafeCode(err), map[string]any{
			"success": false,
			"message": apperror.SafeMessage(err),
		})
	}

	return c.JSON(http.StatusCreated, map[string]any{"success": true, "message": "Cours ajouté avec succès"})
}

// UpdateLesson updates a lesson (PUT /api/lessons/:id).
func (h *Handler) UpdateLesson(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperror.NewValidation("Leçon invalide")
	}

	var lesson Lesson
	if err := c.Bind(&lesson); err != nil {
		return apperror.NewBadRequest("Requête invalide")
	}
	lesson.ID = id

	if err := h.service.UpdateLesson(c.Request().Context(), lesson); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Leçon mise à jour avec succès"})
}

// DeleteLesson removes a lesson (DELETE /api/lessons/:id).
func (h *Handler) DeleteLesson(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperror.NewValidation("Leçon invalide")
	}

	if err := h.service.DeleteLesson(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Leçon supprimée avec succès"})
}

// Teachers lists the assignable teachers for the lesson admin form
// (GET /api/teachers).
func (h *Handler) Teachers(c echo.Context) error {
	teachers, err := h.service.ListTeachers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"teachers": teachers})
}

// Classes lists school levels for the registration form (GET /api/classes).
func (h *Handler) Classes(c echo.Context) error {
	classes, err := h.service.ListClasses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"classes": classes})
}

// Languages lists language tracks for the registration form
// (GET /api/languages).
func (h *Handler) Languages(c echo.Context) error {
	languages, err := h.service.ListLanguages(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"languages": languages})
}

// toPageLessons projects the listing into the template's row type.
func toPageLessons(listing []DayLesson) []pages.LessonRow {
	rows := make([]pages.LessonRow, 0, len(listing))
	for _, e := range listing {
		rows = append(rows, pages.LessonRow{
			ID:               e.Lesson.ID,
			Name:             e.Lesson.Name,
			StartTime:        e.StartTime,
			RemainingSeconds: e.RemainingSeconds,
			Remaining:        e.Remaining,
			Accessible:       e.Accessible,
		})
	}
	return rows
}
