package classifier

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

const maxKeywords = 10

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`)

	minScore = decimal.NewFromInt(entity.MinQualityScore)
	maxScore = decimal.NewFromInt(entity.MaxQualityScore)
)

// minNameRunes keeps initials and short particles ("de", "Li") from masking
// ordinary words.
const minNameRunes = 3

// NormalizeAnalysis maps a decoded classifier response onto a LeadAnalysis.
// Any field outside its domain is replaced by its default, and the summary is
// scrubbed of the submitter's identifiers.
func NormalizeAnalysis(raw map[string]any, data entity.LeadData) entity.LeadAnalysis {
	a := entity.LeadAnalysis{
		Summary:        ScrubSummary(stringField(raw, "summary"), data),
		Specialty:      strings.TrimSpace(stringField(raw, "specialty")),
		Region:         strings.TrimSpace(stringField(raw, "region")),
		Locality:       strings.TrimSpace(stringField(raw, "locality", "city")),
		Urgency:        entity.DefaultUrgency,
		EstimatedValue: entity.DefaultEstimatedValue,
		Keywords:       keywordsField(raw, "keywords"),
		QualityScore:   entity.DefaultQualityScore,
		DetailLevel:    entity.DefaultDetailLevel,
	}
	if a.Specialty == "" {
		a.Specialty = entity.DefaultSpecialty
	}
	if u, ok := entity.ParseUrgency(stringField(raw, "urgency")); ok {
		a.Urgency = u
	}
	if d, ok := entity.ParseDetailLevel(stringField(raw, "detail_level", "detailLevel")); ok {
		a.DetailLevel = d
	}
	if v, ok := numberField(raw, "estimated_value", "estimatedValue"); ok && !v.IsNegative() {
		a.EstimatedValue = v
	}
	if v, ok := numberField(raw, "quality_score", "qualityScore"); ok {
		// Checked before rounding, so 100.4 is out of range and huge values
		// never reach IntPart.
		if !v.LessThan(minScore) && !v.GreaterThan(maxScore) {
			a.QualityScore = int(v.Round(0).IntPart())
		}
	}
	return a
}

// ScrubSummary removes the submitter's name, email and phone, and anything
// shaped like an email address or phone number. Names are matched as whole
// words, both in full and token by token.
func ScrubSummary(summary string, data entity.LeadData) string {
	s := strings.TrimSpace(summary)
	for _, v := range []string{data.Email, data.Phone, data.Name} {
		s = replaceWord(s, strings.TrimSpace(v), entity.RedactedIdentifier)
	}
	for _, token := range strings.FieldsFunc(data.Name, notWordRune) {
		s = replaceWord(s, token, entity.RedactedIdentifier)
	}
	s = emailPattern.ReplaceAllString(s, entity.RedactedIdentifier)
	s = phonePattern.ReplaceAllString(s, entity.RedactedIdentifier)
	return strings.Join(strings.Fields(s), " ")
}

// replaceWord replaces case-insensitive occurrences of word that are not
// part of a longer word. Go's \b only knows ASCII, so boundaries are checked
// on the neighbouring runes instead.
func replaceWord(s, word, repl string) string {
	if utf8.RuneCountInString(word) < minNameRunes {
		return s
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(word))

	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(s, -1) {
		before, _ := utf8.DecodeLastRuneInString(s[:m[0]])
		after, _ := utf8.DecodeRuneInString(s[m[1]:])
		if (m[0] > 0 && !notWordRune(before)) || (m[1] < len(s) && !notWordRune(after)) {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(repl)
		last = m[1]
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(raw map[string]any, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func numberField(raw map[string]any, keys ...string) (decimal.Decimal, bool) {
	v, ok := lookup(raw, keys...)
	if !ok {
		return decimal.Decimal{}, false
	}
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(f), true
	default:
		return decimal.Decimal{}, false
	}
}

// keywordsField keeps string entries in order, without blanks or duplicates.
func keywordsField(raw map[string]any, key string) []string {
	out := []string{}
	v, ok := lookup(raw, key)
	if !ok {
		return out
	}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}
