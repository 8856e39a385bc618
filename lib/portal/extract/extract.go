// Package extract turns raw portal HTML into assignment and grade
// records. Portals disagree wildly about markup, so everything here
// works off candidate selector lists and per-row tolerance: a row that
// doesn't fit the expected shape is skipped and counted, never fatal.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/htmlutil"
	"github.com/dp-pcs/noah-hw-mcp/lib/textutil"
	"github.com/dp-pcs/noah-hw-mcp/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("portal/extract")

// Status is the lifecycle state a portal reports for an assignment.
// Extraction only ever assigns StatusMissing, the other values exist so
// records round-trip against portals that expose them.
type Status string

const (
	StatusMissing   Status = "missing"
	StatusSubmitted Status = "submitted"
	StatusGraded    Status = "graded"
	StatusExcused   Status = "excused"
	StatusUnknown   Status = "unknown"
)

type Assignment struct {
	Title   string `json:"title"`
	Course  string `json:"course"`
	DueDate *Date  `json:"due_date"`
	Status  Status `json:"status"`
	// the views this core scrapes never expose points, the fields are
	// here so records round-trip against portals that do
	PointsPossible *float64 `json:"points_possible"`
	PointsEarned   *float64 `json:"points_earned"`
	Link           string   `json:"link,omitempty"`
}

type GradeSample struct {
	Course       string   `json:"course"`
	Date         Date     `json:"date"`
	GradePercent *float64 `json:"grade_percent"`
}

// AssignmentColumns maps assignment fields to table cell indexes, for
// portals whose tables are laid out differently than the default.
type AssignmentColumns struct {
	Title  int `json:"title"`
	Course int `json:"course"`
	Due    int `json:"due"`
}

type GradeColumns struct {
	Grade int `json:"grade"`
	Date  int `json:"date"`
	// the description cell is the closest thing grade tables have to a
	// course name
	Description int `json:"description"`
}

type Config struct {
	// candidate selectors for the element containing data rows
	Tables []string `json:"tables"`
	// card-shaped fallbacks, tried only when no table matched
	Cards      []string `json:"cards"`
	CardTitle  []string `json:"card_title"`
	CardCourse []string `json:"card_course"`
	CardDue    []string `json:"card_due"`
	CardGrade  []string `json:"card_grade"`
	// date layouts tried in order against due date and grade date text
	DateFormats []string `json:"date_formats"`

	AssignmentColumns AssignmentColumns `json:"assignment_columns"`
	GradeColumns      GradeColumns      `json:"grade_columns"`
}

var (
	DefaultTables = []string{
		"table",
		".assignment-table",
		".grade-table",
		".data-table",
		".table",
		"[role='table']",
		".ic-table",
	}
	DefaultCards = []string{
		".assignment-card",
		".assignment-item",
		".card",
		"[data-testid*='assignment']",
	}
	DefaultCardTitle  = []string{"h3", ".title", ".assignment-title", "[data-testid*='title']"}
	DefaultCardCourse = []string{".course", ".subject", ".class-name"}
	DefaultCardDue    = []string{".due-date", ".due", ".date"}
	DefaultCardGrade  = []string{".grade", ".percent", ".score"}

	DefaultDateFormats = []string{
		"01/02/2006",
		"2006-01-02",
		"Jan 2, 2006",
		"01-02-2006",
		"01/02/06",
	}

	DefaultAssignmentColumns = AssignmentColumns{Title: 0, Course: 1, Due: 2}
	DefaultGradeColumns      = GradeColumns{Grade: 0, Date: 1, Description: 2}
)

const (
	minAssignmentCells = 3
	minGradeCells      = 2
)

type Extractor struct {
	cfg Config
}

func New(cfg Config) Extractor {
	if len(cfg.Tables) == 0 {
		cfg.Tables = DefaultTables
	}
	if len(cfg.Cards) == 0 {
		cfg.Cards = DefaultCards
	}
	if len(cfg.CardTitle) == 0 {
		cfg.CardTitle = DefaultCardTitle
	}
	if len(cfg.CardCourse) == 0 {
		cfg.CardCourse = DefaultCardCourse
	}
	if len(cfg.CardDue) == 0 {
		cfg.CardDue = DefaultCardDue
	}
	if len(cfg.CardGrade) == 0 {
		cfg.CardGrade = DefaultCardGrade
	}
	if len(cfg.DateFormats) == 0 {
		cfg.DateFormats = DefaultDateFormats
	}
	if cfg.AssignmentColumns == (AssignmentColumns{}) {
		cfg.AssignmentColumns = DefaultAssignmentColumns
	}
	if cfg.GradeColumns == (GradeColumns{}) {
		cfg.GradeColumns = DefaultGradeColumns
	}
	return Extractor{cfg: cfg}
}

// Assignments extracts assignment records in document order, keeping
// those whose due date is missing or falls on or after cutoff.
func (e Extractor) Assignments(ctx context.Context, doc *goquery.Document, cutoff time.Time) []Assignment {
	ctx, span := tracer.Start(ctx, "Assignments")
	defer span.End()

	out := []Assignment{}
	skipped := 0

	if region, ok := htmlutil.FirstMatch(doc.Selection, e.cfg.Tables); ok {
		region.First().Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				// header row
				return
			}
			a, ok := e.assignmentFromRow(row)
			if !ok {
				skipped++
				return
			}
			if keepByDueDate(a.DueDate, cutoff) {
				out = append(out, a)
			}
		})
	} else if cards, ok := htmlutil.FirstMatch(doc.Selection, e.cfg.Cards); ok {
		cards.Each(func(i int, card *goquery.Selection) {
			a := e.assignmentFromCard(i, card)
			if keepByDueDate(a.DueDate, cutoff) {
				out = append(out, a)
			}
		})
	}

	span.SetAttributes(
		attribute.Int("extracted", len(out)),
		attribute.Int("skipped_rows", skipped),
	)
	slog.DebugContext(ctx, "extracted assignments", "count", len(out), "skipped_rows", skipped)
	return out
}

func (e Extractor) assignmentFromRow(row *goquery.Selection) (Assignment, bool) {
	cells := row.Find("td, th")
	if cells.Length() < minAssignmentCells {
		return Assignment{}, false
	}
	cols := e.cfg.AssignmentColumns
	title := htmlutil.CleanText(cells.Eq(cols.Title))
	if title == "" {
		return Assignment{}, false
	}
	course := htmlutil.CleanText(cells.Eq(cols.Course))
	if course == "" {
		course = "Unknown"
	}
	a := Assignment{
		Title:  title,
		Course: course,
		// the assignment views this core scrapes only list outstanding
		// work, so every extracted row is a missing assignment
		Status: StatusMissing,
	}
	if due, ok := e.parseDate(htmlutil.CleanText(cells.Eq(cols.Due))); ok {
		d := NewDate(due)
		a.DueDate = &d
	}
	if href, ok := row.Find("a").Attr("href"); ok {
		a.Link = href
	}
	return a, true
}

func (e Extractor) assignmentFromCard(i int, card *goquery.Selection) Assignment {
	title := e.firstText(card, e.cfg.CardTitle)
	if title == "" {
		title = fmt.Sprintf("Assignment %d", i+1)
	}
	course := e.firstText(card, e.cfg.CardCourse)
	if course == "" {
		course = "Unknown"
	}
	a := Assignment{
		Title:  title,
		Course: course,
		Status: StatusMissing,
	}
	if due, ok := e.parseDate(e.firstText(card, e.cfg.CardDue)); ok {
		d := NewDate(due)
		a.DueDate = &d
	}
	if href, ok := card.Find("a").Attr("href"); ok {
		a.Link = href
	}
	return a
}

// Grades extracts grade samples in document order, keeping those dated
// on or after cutoff. Rows whose date cell doesn't parse are dropped
// entirely: a sample without a date can't be windowed or charted, and
// portals render dates far more consistently than grades.
func (e Extractor) Grades(ctx context.Context, doc *goquery.Document, cutoff time.Time, courseFilter string) []GradeSample {
	ctx, span := tracer.Start(ctx, "Grades")
	defer span.End()

	filter := textutil.NormalizeName(courseFilter)
	out := []GradeSample{}
	skipped := 0

	if region, ok := htmlutil.FirstMatch(doc.Selection, e.cfg.Tables); ok {
		region.First().Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			sample, ok := e.gradeFromRow(row)
			if !ok {
				skipped++
				return
			}
			if keepGrade(sample, cutoff, filter) {
				out = append(out, sample)
			}
		})
	} else if cards, ok := htmlutil.FirstMatch(doc.Selection, e.cfg.Cards); ok {
		cards.Each(func(i int, card *goquery.Selection) {
			sample, ok := e.gradeFromCard(card)
			if !ok {
				skipped++
				return
			}
			if keepGrade(sample, cutoff, filter) {
				out = append(out, sample)
			}
		})
	}

	span.SetAttributes(
		attribute.Int("extracted", len(out)),
		attribute.Int("skipped_rows", skipped),
	)
	slog.DebugContext(ctx, "extracted grades", "count", len(out), "skipped_rows", skipped)
	return out
}

func (e Extractor) gradeFromRow(row *goquery.Selection) (GradeSample, bool) {
	cells := row.Find("td, th")
	if cells.Length() < minGradeCells {
		return GradeSample{}, false
	}
	cols := e.cfg.GradeColumns
	date, ok := e.parseDate(htmlutil.CleanText(cells.Eq(cols.Date)))
	if !ok {
		return GradeSample{}, false
	}
	course := htmlutil.CleanText(cells.Eq(cols.Description))
	if course == "" {
		course = "Unknown"
	}
	sample := GradeSample{
		Course: course,
		Date:   NewDate(date),
	}
	if percent, ok := textutil.FirstNumber(htmlutil.CleanText(cells.Eq(cols.Grade))); ok {
		sample.GradePercent = &percent
	}
	return sample, true
}

func (e Extractor) gradeFromCard(card *goquery.Selection) (GradeSample, bool) {
	date, ok := e.parseDate(e.firstText(card, e.cfg.CardDue))
	if !ok {
		return GradeSample{}, false
	}
	course := e.firstText(card, e.cfg.CardCourse)
	if course == "" {
		course = "Unknown"
	}
	sample := GradeSample{
		Course: course,
		Date:   NewDate(date),
	}
	if percent, ok := textutil.FirstNumber(e.firstText(card, e.cfg.CardGrade)); ok {
		sample.GradePercent = &percent
	}
	return sample, true
}

func (e Extractor) firstText(sel *goquery.Selection, candidates []string) string {
	match, ok := htmlutil.FirstMatch(sel, candidates)
	if !ok {
		return ""
	}
	return htmlutil.CleanText(match.First())
}

func (e Extractor) parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range e.cfg.DateFormats {
		t, err := time.ParseInLocation(layout, s, timezone.Location)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func keepByDueDate(due *Date, cutoff time.Time) bool {
	// rows without a parseable due date stay in: dropping work because
	// the portal rendered its date oddly hides exactly the assignments
	// a parent asked about
	if due == nil {
		return true
	}
	return !due.Before(cutoff)
}

func keepGrade(sample GradeSample, cutoff time.Time, normalizedFilter string) bool {
	if sample.Date.Before(cutoff) {
		return false
	}
	if normalizedFilter == "" {
		return true
	}
	return strings.Contains(textutil.NormalizeName(sample.Course), normalizedFilter)
}
