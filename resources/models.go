package resources

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
)

// Resource paths, relative to the API base URL.
const (
	PathQuestionTests = "/questions/tests/"
	PathIELTSLessons  = "/ielts/lessons/"
	PathSTEPSkills    = "/step/skills/"
)

// IELTS sections a lesson can belong to.
const (
	SectionListening = "listening"
	SectionReading   = "reading"
	SectionWriting   = "writing"
	SectionSpeaking  = "speaking"
)

var ieltsSections = map[string]bool{
	SectionListening: true,
	SectionReading:   true,
	SectionWriting:   true,
	SectionSpeaking:  true,
}

const (
	maxTestDurationMinutes = 600
	minSkillLevel          = 1
	maxSkillLevel          = 10
)

// QuestionTest is a timed test in the question bank.
type QuestionTest struct {
	ID              int64      `json:"id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsPublished     bool       `json:"is_published"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

func (q QuestionTest) Validate() error {
	errs := apierrors.NewValidationError()
	if strings.TrimSpace(q.Title) == "" {
		errs.Add("title", "This field is required.")
	}
	if q.DurationMinutes < 0 || q.DurationMinutes > maxTestDurationMinutes {
		errs.Add("duration_minutes", fmt.Sprintf("Must be between 0 and %d.", maxTestDurationMinutes))
	}
	return errs.ErrOrNil()
}

// IELTSLesson is one lesson of IELTS preparation content.
type IELTSLesson struct {
	ID      int64  `json:"id,omitempty"`
	Title   string `json:"title"`
	Section string `json:"section"`
	Content string `json:"content,omitempty"`
	Order   int    `json:"order"`
}

func (l IELTSLesson) Validate() error {
	errs := apierrors.NewValidationError()
	if strings.TrimSpace(l.Title) == "" {
		errs.Add("title", "This field is required.")
	}
	if !ieltsSections[l.Section] {
		errs.Add("section", fmt.Sprintf("%q is not a valid choice.", l.Section))
	}
	if l.Order < 0 {
		errs.Add("order", "Must not be negative.")
	}
	return errs.ErrOrNil()
}

// STEPSkill is a skill tracked by the STEP programme.
type STEPSkill struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level"`
}

func (s STEPSkill) Validate() error {
	errs := apierrors.NewValidationError()
	if strings.TrimSpace(s.Name) == "" {
		errs.Add("name", "This field is required.")
	}
	if s.Level < minSkillLevel || s.Level > maxSkillLevel {
		errs.Add("level", fmt.Sprintf("Must be between %d and %d.", minSkillLevel, maxSkillLevel))
	}
	return errs.ErrOrNil()
}

var (
	_ Validatable = QuestionTest{}
	_ Validatable = IELTSLesson{}
	_ Validatable = STEPSkill{}
)
