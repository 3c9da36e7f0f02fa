// Package notes turns spoken workout transcripts into structured exercise
// entries. Parsing is deterministic: a fixed rewrite pipeline normalizes the
// gym-speak ("three sets of ten at one thirty five"), then a single entry
// pattern extracts sets, reps, and weight per segment. Text that does not
// parse is kept as a free-form note, never rejected.
package notes

import (
	"regexp"
	"strconv"
	"strings"

	"fitvoice/internal/domain"
)

type rewriteRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Parser extracts exercise entries from a transcript.
type Parser struct {
	rewrites  []rewriteRule
	entry     *regexp.Regexp
	loopLimit int
}

func NewParser() *Parser {
	return &Parser{
		rewrites: []rewriteRule{
			{regexp.MustCompile(`(\d+)\s+sets?\s+of\s+(\d+)`), "${1}x$2"},
			{regexp.MustCompile(`(\d+)\s+by\s+(\d+)`), "${1}x$2"},
			{regexp.MustCompile(`(\d+)\s+times\s+(\d+)`), "${1}x$2"},
			{regexp.MustCompile(`\bfor\s+(\d+)\s+reps?\b`), "x$1"},
			{regexp.MustCompile(`\s+`), " "},
		},
		entry: regexp.MustCompile(
			`^([a-z][a-z '-]*?)[,:]?\s+(\d{1,2})\s*x\s*(\d{1,3})` +
				`(?:\s*(?:at|@)\s*(\d+(?:\.\d+)?)\s*(lbs?|pounds?|kgs?|kilos?)?)?\s*$`,
		),
		loopLimit: 30,
	}
}

// Parse returns the entries recognized in the transcript plus any leftover
// free-form text.
func (p *Parser) Parse(transcript string) ([]domain.ExerciseEntry, string) {
	normalized := p.normalize(transcript)

	var entries []domain.ExerciseEntry
	var leftover []string

	for _, segment := range splitSegments(normalized) {
		entry, ok := p.parseSegment(segment)
		if !ok {
			leftover = append(leftover, segment)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, strings.Join(leftover, "; ")
}

func (p *Parser) normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = replaceNumberWords(text, p.loopLimit)

	for _, rule := range p.rewrites {
		for i := 0; i < p.loopLimit; i++ {
			replaced := rule.pattern.ReplaceAllString(text, rule.replacement)
			if replaced == text {
				break
			}
			text = replaced
		}
	}

	return strings.TrimSpace(text)
}

func (p *Parser) parseSegment(segment string) (domain.ExerciseEntry, bool) {
	m := p.entry.FindStringSubmatch(segment)
	if m == nil {
		return domain.ExerciseEntry{}, false
	}

	name := strings.TrimSpace(m[1])
	if name == "" {
		return domain.ExerciseEntry{}, false
	}

	sets, _ := strconv.Atoi(m[2])
	reps, _ := strconv.Atoi(m[3])
	if sets == 0 || reps == 0 {
		return domain.ExerciseEntry{}, false
	}

	entry := domain.ExerciseEntry{Name: name, Sets: sets, Reps: reps}
	if m[4] != "" {
		entry.Weight, _ = strconv.ParseFloat(m[4], 64)
		entry.Unit = normalizeUnit(m[5])
	}

	return entry, true
}

var segmentSplitter = regexp.MustCompile(`\s*(?:[.;\n]| then )\s*`)

func splitSegments(text string) []string {
	var segments []string
	for _, segment := range segmentSplitter.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		segment = strings.TrimPrefix(segment, "and ")
		segment = strings.TrimPrefix(segment, "then ")
		segment = strings.TrimSpace(segment)
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func normalizeUnit(unit string) string {
	switch {
	case strings.HasPrefix(unit, "k"):
		return "kg"
	case unit != "":
		return "lb"
	default:
		return ""
	}
}

var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// replaceNumberWords maps spoken numbers to digits and collapses gym-speak
// compounds: "thirty five" -> 35, "one thirty five" -> 135, "two twenty" ->
// 220. The loop limit bounds the collapse passes on pathological input.
func replaceNumberWords(text string, loopLimit int) string {
	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if v, ok := numberWords[strings.Trim(token, ",.")]; ok {
			out = append(out, strconv.Itoa(v))
			continue
		}
		out = append(out, token)
	}

	for i := 0; i < loopLimit; i++ {
		collapsed, changed := collapseNumberPair(out)
		out = collapsed
		if !changed {
			break
		}
	}

	return strings.Join(out, " ")
}

func collapseNumberPair(tokens []string) ([]string, bool) {
	for i := 0; i+1 < len(tokens); i++ {
		a, aErr := strconv.Atoi(tokens[i])
		b, bErr := strconv.Atoi(tokens[i+1])
		if aErr != nil || bErr != nil {
			continue
		}

		var merged int
		switch {
		case a >= 20 && a%10 == 0 && b > 0 && b < 10:
			merged = a + b
		case a > 0 && a < 10 && b >= 10 && b < 100:
			merged = a*100 + b
		default:
			continue
		}

		joined := append([]string{}, tokens[:i]...)
		joined = append(joined, strconv.Itoa(merged))
		joined = append(joined, tokens[i+2:]...)
		return joined, true
	}
	return tokens, false
}
