// Package lessons manages the school catalog: classes, weekly timetable
// slots, lessons, and the day listing with its unlock countdown. A lesson
// stays "locked" until its timetable slot's start time; the listing carries
// both the numeric remaining seconds (for the client countdown) and the
// formatted string for first paint.
package lessons

// Class is a school level, "6ème" through "3ème".
type Class struct {
	ID    int64  `json:"id"`
	Level string `json:"level"`
}

// Language is a foreign-language track offered from 5ème on.
type Language struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TimeTable is a weekly slot: French day name plus times of day. Times stay
// strings ("HH:MM:SS") end to end; only the unlock arithmetic parses them.
type TimeTable struct {
	ID        int64  `json:"id"`
	WeekDay   string `json:"week_day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Lesson ties a subject name to a class, a teacher, and a timetable slot.
type Lesson struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ClassID     int64  `json:"id_class"`
	TeacherID   int64  `json:"id_teacher"`
	TimeTableID int64  `json:"id_time_table"`
}

// DayLesson is one entry of the collegian's day listing: the lesson, its
// slot, and the unlock countdown state.
type DayLesson struct {
	Lesson    Lesson `json:"lesson"`
	WeekDay   string `json:"week_day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// RemainingSeconds is clamped at zero; zero means accessible.
	RemainingSeconds int64 `json:"remaining_seconds"`
	// Remaining is the first-paint display: "01h 01m 01s" while locked,
	// "Accéder" once accessible.
	Remaining  string `json:"remaining"`
	Accessible bool   `json:"accessible"`
}

// ClassLesson pairs a lesson with its weekly slot, for the full class
// catalog (every day, not just today's listing).
type ClassLesson struct {
	Lesson    Lesson    `json:"lesson"`
	TimeTable TimeTable `json:"time_table"`
}

// Teacher is the listing row for the lesson admin form. Only rows of the
// teachers table qualify: lessons reference teachers(id), and referent ids
// come from a different table whose ids could collide with them.
type Teacher struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateLessonRequest holds the lesson admin form. The class is addressed by
// level and the slot by its three components; both are created on demand.
type CreateLessonRequest struct {
	Name       string `json:"name" form:"name"`
	ClassLevel string `json:"classLevel" form:"classLevel"`
	TeacherID  string `json:"idTeacher" form:"idTeacher"`
	WeekDay    string `json:"dayOfWeek" form:"dayOfWeek"`
	StartTime  string `json:"startTime" form:"startTime"`
	EndTime    string `json:"endTime" form:"endTime"`
}
