package validate

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'.\-]{1,160}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Message codes. Handlers translate them; Message is the English fallback.
const (
	CodeRequired  = "validate.required"
	CodeEmail     = "validate.email"
	CodeLength    = "validate.length"
	CodeMaxLength = "validate.max_length"
	CodeMismatch  = "validate.mismatch"
	CodePastDate  = "validate.past_date"
	CodePrice     = "validate.price"
	CodeFileSize  = "validate.file_size"
	CodeFileType  = "validate.file_type"
	CodeServer    = "validate.server"
)

type FieldError struct {
	Field   string
	Code    string
	Message string
	Args    []any
}

// Result collects at most one error per field, in the order rules ran.
type Result struct {
	Errors []FieldError
}

func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Lookup returns the error recorded for name.
func (r Result) Lookup(name string) (FieldError, bool) {
	for _, e := range r.Errors {
		if e.Field == name {
			return e, true
		}
	}
	return FieldError{}, false
}

// Field returns the message for name, or "".
func (r Result) Field(name string) string {
	e, _ := r.Lookup(name)
	return e.Message
}

func (r Result) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Map flattens the result to field -> message.
func (r Result) Map() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		out[e.Field] = e.Message
	}
	return out
}

func (r *Result) add(e FieldError) {
	if r.Has(e.Field) {
		return
	}
	r.Errors = append(r.Errors, e)
}

// Merge appends other's errors, keeping the first error per field.
func (r *Result) Merge(other Result) {
	for _, e := range other.Errors {
		r.add(e)
	}
}

// Server attaches messages returned by the shop API to their fields.
func Server(fields map[string]string) Result {
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	var r Result
	for _, f := range names {
		r.add(FieldError{Field: f, Code: CodeServer, Message: fields[f]})
	}
	return r
}

// Rule is one check. It reports failures and never panics.
type Rule func() Result

// All runs rules left to right. A field that already failed keeps its first error.
func All(rules ...Rule) Result {
	var r Result
	for _, rule := range rules {
		r.Merge(rule())
	}
	return r
}

func fail(field, code, msg string, args ...any) Result {
	return Result{Errors: []FieldError{{Field: field, Code: code, Message: msg, Args: args}}}
}

func Required(field, v string) Rule {
	return func() Result {
		if strings.TrimSpace(v) == "" {
			return fail(field, CodeRequired, field+" is required")
		}
		return Result{}
	}
}

func Length(field, v string, min, max int) Rule {
	return func() Result {
		n := len([]rune(v))
		if n < min || n > max {
			return fail(field, CodeLength, "length must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max), min, max)
		}
		return Result{}
	}
}

func MaxLength(field, v string, max int) Rule {
	return func() Result {
		if len([]rune(v)) > max {
			return fail(field, CodeMaxLength, "at most "+strconv.Itoa(max)+" characters", max)
		}
		return Result{}
	}
}

func EmailFormat(field, v string) Rule {
	return func() Result {
		if !reEmail.MatchString(strings.TrimSpace(v)) {
			return fail(field, CodeEmail, "invalid email address")
		}
		return Result{}
	}
}

func Equals(field, v, ref string) Rule {
	return func() Result {
		if v != ref {
			return fail(field, CodeMismatch, "values do not match")
		}
		return Result{}
	}
}

// PastDate accepts an empty value; otherwise v (YYYY-MM-DD) must be before now.
func PastDate(field, v string, now time.Time) Rule {
	return func() Result {
		if v == "" {
			return Result{}
		}
		d, err := time.Parse(time.DateOnly, v)
		if err != nil || !d.Before(now) {
			return fail(field, CodePastDate, "choose a date in the past")
		}
		return Result{}
	}
}

// number mirrors a lenient numeric conversion: surrounding space is ignored
// and anything unparsable is NaN, which fails every comparison.
func number(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// PriceRangeOK reports whether a min/max pair is acceptable: at least one
// side is set, and when both are, max >= min.
func PriceRangeOK(min, max string) bool {
	if min != "" && max != "" {
		return number(max) >= number(min)
	}
	return min != "" || max != ""
}

// PriceRange validates the pair and reports the same error on both fields,
// so the outcome does not depend on which field changed last.
func PriceRange(min, max string) Rule {
	return func() Result {
		if PriceRangeOK(min, max) {
			return Result{}
		}
		return Result{Errors: []FieldError{
			{Field: "price_min", Code: CodePrice, Message: "invalid price range"},
			{Field: "price_max", Code: CodePrice, Message: "invalid price range"},
		}}
	}
}

// Q validates a product name search: trims, enforces allowed characters and max length.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 160 {
		s = string(r[:160])
	}
	return s, reQ.MatchString(s)
}

// Qty parses a buy count, clamped to [1, max].
func Qty(s string, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// ID validates a resource identifier (product/category ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}
