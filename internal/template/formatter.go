package template

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
)

// Template categories with formatter variants. Any other category string
// gets the default behavior.
const (
	CategoryLetter    = "letter"
	CategoryAffidavit = "affidavit"
)

// FieldFormatter is one entry in the formatter table. Matches decides
// whether the formatter claims a placeholder; Format produces the
// substituted text. A formatter that returns skipCasing true opts out of
// the generic casing step (it owns its output shape entirely).
type FieldFormatter struct {
	Name    string
	Matches func(placeholderName, category string) bool
	Format  func(raw, category string, logger *logrus.Logger) (formatted string, skipCasing bool)
}

// Registry resolves placeholder values through a predicate-ordered table of
// field formatters. The table is evaluated in a fixed priority order, so
// registering a new formatter never silently shadows an existing one unless
// it is deliberately placed before it.
type Registry struct {
	formatters []FieldFormatter
	logger     *logrus.Logger
}

// NewRegistry creates a registry with the built-in formatters: ordinal-date,
// address, then the generic pass-through (casing is applied by the caller
// unless a formatter opted out).
func NewRegistry(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	r := &Registry{logger: logger}
	r.Register(ordinalDateFormatter())
	r.Register(addressFormatter())
	return r
}

// Register appends a formatter to the table. Earlier entries take priority.
func (r *Registry) Register(f FieldFormatter) {
	r.formatters = append(r.formatters, f)
	r.logger.WithField("formatter", f.Name).Debug("Registered field formatter")
}

// Format resolves the formatted value for a placeholder. Specialized
// formatters run first; when none claims the name, the span's casing
// transform is applied to the raw value.
func (r *Registry) Format(span *PlaceholderSpan, raw, category string) string {
	for _, f := range r.formatters {
		if !f.Matches(span.Name, category) {
			continue
		}
		formatted, skipCasing := f.Format(raw, category, r.logger)
		if skipCasing {
			return formatted
		}
		return applyCasing(formatted, span.Casing)
	}
	return applyCasing(raw, span.Casing)
}

// dateLayouts are tried in order when parsing a date-like value.
var dateLayouts = []string{
	"2 January 2006",
	"January 2, 2006",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
}

// ordinalDateFormatter renders date values with an English ordinal day.
// Output shape depends on the template category:
//
//	letter    -> "15th July, 2025"
//	affidavit -> "15th of July, 2025"
//	default   -> "15 July 2025"
//
// Unparseable values pass through unchanged with a diagnostic; a bad date
// never fails the whole generation.
func ordinalDateFormatter() FieldFormatter {
	return FieldFormatter{
		Name: "ordinal_date",
		Matches: func(name, _ string) bool {
			return strings.Contains(strings.ToLower(name), "date")
		},
		Format: func(raw, category string, logger *logrus.Logger) (string, bool) {
			parsed, err := parseDate(raw)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"value": raw,
				}).Warn("Unparseable date value, substituting raw text")
				return raw, true
			}

			day := parsed.Day()
			month := parsed.Month().String()
			year := parsed.Year()

			switch category {
			case CategoryLetter:
				return fmt.Sprintf("%s %s, %d", Ordinal(day), month, year), true
			case CategoryAffidavit:
				return fmt.Sprintf("%s of %s, %d", Ordinal(day), month, year), true
			default:
				return fmt.Sprintf("%d %s %d", day, month, year), true
			}
		},
	}
}

func parseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}

// Ordinal renders a number with its English ordinal suffix: 1st, 2nd, 3rd,
// 4th... 11th-13th always take "th", then the suffix cycles by last digit.
func Ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// addressFormatter rebuilds a comma-separated address as line-broken
// segments inside a single run, with a trailing period appended only if the
// final segment lacks one. It applies to letter templates only and owns its
// output entirely, so the generic casing step is bypassed.
func addressFormatter() FieldFormatter {
	return FieldFormatter{
		Name: "address",
		Matches: func(name, category string) bool {
			return category == CategoryLetter && strings.Contains(strings.ToLower(name), "address")
		},
		Format: func(raw, _ string, _ *logrus.Logger) (string, bool) {
			var segments []string
			for _, segment := range strings.Split(raw, ",") {
				segment = strings.TrimSpace(segment)
				if segment != "" {
					segments = append(segments, segment)
				}
			}
			if len(segments) == 0 {
				return "", true
			}
			last := segments[len(segments)-1]
			if !strings.HasSuffix(last, ".") {
				segments[len(segments)-1] = last + "."
			}
			return strings.Join(segments, "\n"), true
		},
	}
}

// applyCasing transforms text per the span's casing attribute.
func applyCasing(text string, casing Casing) string {
	switch casing {
	case CasingUpper:
		return strings.ToUpper(text)
	case CasingLower:
		return strings.ToLower(text)
	case CasingTitle:
		return titleCase(text)
	default:
		return text
	}
}

// titleCase upper-cases the first letter of each space-separated word and
// lower-cases the rest.
func titleCase(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
