package rfpflow

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"procurement-portal/internal/models"
)

// MetricInput is one evaluation metric row as entered.
type MetricInput struct {
	Name      string `yaml:"name" json:"name"`
	Weightage string `yaml:"weightage" json:"weightage"`
}

// Form holds the raw RFP draft fields. Values stay strings until Validate so
// the page can be re-rendered with exactly what the officer typed.
type Form struct {
	Title                  string        `form:"title" yaml:"title" json:"title"`
	ShortDescription       string        `form:"shortDescription" yaml:"shortDescription" json:"shortDescription"`
	CategoryID             string        `form:"categoryId" yaml:"categoryId" json:"categoryId"`
	Budget                 string        `form:"budget" yaml:"budget" json:"budget"`
	SubmissionDeadline     string        `form:"submissionDeadline" yaml:"submissionDeadline" json:"submissionDeadline"`
	StartDate              string        `form:"startDate" yaml:"startDate" json:"startDate"`
	EndDate                string        `form:"endDate" yaml:"endDate" json:"endDate"`
	TechnicalRequirements  []string      `form:"technicalRequirements" yaml:"technicalRequirements" json:"technicalRequirements"`
	ManagementRequirements []string      `form:"managementRequirements" yaml:"managementRequirements" json:"managementRequirements"`
	PricingDetails         string        `form:"pricingDetails" yaml:"pricingDetails" json:"pricingDetails"`
	EvaluationMetrics      []MetricInput `form:"-" yaml:"evaluationMetrics" json:"evaluationMetrics"`
	SpecialInstructions    string        `form:"specialInstructions" yaml:"specialInstructions" json:"specialInstructions"`
}

// MetricsFromPairs zips parallel name and weightage inputs, as posted by an
// HTML form with repeated fields.
func MetricsFromPairs(names, weightages []string) []MetricInput {
	metrics := make([]MetricInput, 0, len(names))
	for i, name := range names {
		m := MetricInput{Name: name}
		if i < len(weightages) {
			m.Weightage = weightages[i]
		}
		metrics = append(metrics, m)
	}
	return metrics
}

// FieldError is a single rejected field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every problem found in a Form.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "invalid draft: " + strings.Join(parts, "; ")
}

// Field returns the message for field, or "".
func (e *ValidationError) Field(name string) string {
	for _, p := range e.Problems {
		if p.Field == name {
			return p.Message
		}
	}
	return ""
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Problems = append(e.Problems, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Accepted date-time inputs: RFC 3339 and the HTML date/datetime-local forms.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the form against categories and builds the create payload.
// Nothing is sent to the backend unless it returns a nil error.
func (f Form) Validate(categories []models.Category) (models.DraftRequest, error) {
	verr := &ValidationError{}
	req := models.DraftRequest{
		Title:                  strings.TrimSpace(f.Title),
		ShortDescription:       strings.TrimSpace(f.ShortDescription),
		CategoryID:             strings.TrimSpace(f.CategoryID),
		TechnicalRequirements:  nonBlank(f.TechnicalRequirements),
		ManagementRequirements: nonBlank(f.ManagementRequirements),
		PricingDetails:         strings.TrimSpace(f.PricingDetails),
		SpecialInstructions:    strings.TrimSpace(f.SpecialInstructions),
		EvaluationMetrics:      []models.EvaluationMetric{},
	}

	if req.Title == "" {
		verr.add("title", "is required")
	}
	if req.ShortDescription == "" {
		verr.add("shortDescription", "is required")
	}

	budget, err := strconv.ParseFloat(strings.TrimSpace(f.Budget), 64)
	switch {
	case err != nil || math.IsNaN(budget) || math.IsInf(budget, 0):
		verr.add("budget", "must be a number")
	case budget < 0:
		verr.add("budget", "must not be negative")
	default:
		req.Budget = budget
	}

	switch {
	case len(categories) == 0:
		verr.add("categoryId", "no categories are available")
	case !slices.ContainsFunc(categories, func(c models.Category) bool { return c.ID == req.CategoryID }):
		verr.add("categoryId", "must be one of the available categories")
	}

	if t, err := parseDate(f.SubmissionDeadline); err != nil {
		verr.add("submissionDeadline", "must be a valid date")
	} else {
		req.SubmissionDeadline = t
	}
	if t, err := parseDate(f.StartDate); err != nil {
		verr.add("startDate", "must be a valid date")
	} else {
		req.Timeline.StartDate = t
	}
	if t, err := parseDate(f.EndDate); err != nil {
		verr.add("endDate", "must be a valid date")
	} else {
		req.Timeline.EndDate = t
	}

	for _, m := range f.EvaluationMetrics {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(m.Weightage), 64)
		if err != nil || math.IsNaN(w) || w < 0 || w > 100 {
			verr.add("evaluationMetrics", "weightage for %q must be between 0 and 100", name)
			continue
		}
		req.EvaluationMetrics = append(req.EvaluationMetrics, models.EvaluationMetric{Name: name, Weightage: w})
	}

	if len(verr.Problems) > 0 {
		return models.DraftRequest{}, verr
	}
	return req, nil
}

// WeightageTotal sums the parseable weightages of named metrics. The total is
// advisory; drafts whose metrics do not add up to 100 are still accepted.
func (f Form) WeightageTotal() float64 {
	var total float64
	for _, m := range f.EvaluationMetrics {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		if w, err := strconv.ParseFloat(strings.TrimSpace(m.Weightage), 64); err == nil {
			total += w
		}
	}
	return total
}
