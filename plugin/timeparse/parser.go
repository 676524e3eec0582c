package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Phrase shapes, in match order. Each is anchored at the start of the
// trimmed input so that "завтра в 10:00" is never read as "в 10:00".
const (
	shapeRelative       = `через\s+(\d+)\s*(минут[уы]?|мин|час[а]?|часов|день|дня|дней)`
	shapeClockToday     = `в\s+(\d{1,2}):(\d{2})`
	shapeTomorrow       = `завтра\s+в\s+(\d{1,2}):(\d{2})`
	shapeDayAfter       = `послезавтра\s+в\s+(\d{1,2}):(\d{2})`
	shapeDateWithYear   = `(\d{1,2})\.(\d{1,2})\.(\d{4})\s+в\s+(\d{1,2}):(\d{2})`
	shapeDateNoYear     = `(\d{1,2})\.(\d{1,2})\s+в\s+(\d{1,2}):(\d{2})`
	remainderSuffix     = `\s+(.+)`
	unicodeSpaceClass   = `[\s\p{Zs}]`
	caseInsensitiveFlag = `(?is)`
)

// extractor turns the captured groups of one shape into an Expression.
type extractor func(groups []string) (Expression, bool)

// pattern pairs a shape with its extractor. bare is used when no payload
// is requested, withPayload requires trailing reminder text.
type pattern struct {
	kind        Kind
	bare        *regexp.Regexp
	withPayload *regexp.Regexp
	extract     extractor
}

func newPattern(kind Kind, shape string, extract extractor) pattern {
	shape = strings.ReplaceAll(shape, `\s`, unicodeSpaceClass)
	suffix := strings.ReplaceAll(remainderSuffix, `\s`, unicodeSpaceClass)
	return pattern{
		kind:        kind,
		bare:        regexp.MustCompile(caseInsensitiveFlag + `^` + shape),
		withPayload: regexp.MustCompile(caseInsensitiveFlag + `^` + shape + suffix),
		extract:     extract,
	}
}

var catalog = []pattern{
	newPattern(KindRelativeOffset, shapeRelative, extractRelative),
	newPattern(KindClockToday, shapeClockToday, extractClockToday),
	newPattern(KindClockTomorrow, shapeTomorrow, extractDayOffset(1)),
	newPattern(KindClockDayAfterTomorrow, shapeDayAfter, extractDayOffset(2)),
	newPattern(KindDateWithYear, shapeDateWithYear, extractDateWithYear),
	newPattern(KindDateWithoutYear, shapeDateNoYear, extractDateWithoutYear),
}

func extractRelative(groups []string) (Expression, bool) {
	value, err := strconv.ParseInt(groups[0], 10, 64)
	if err != nil {
		return nil, false
	}
	unit, ok := resolveUnit(groups[1])
	if !ok {
		return nil, false
	}
	return RelativeOffset{Value: value, Unit: unit}, true
}

func extractClockToday(groups []string) (Expression, bool) {
	nums, ok := atoiAll(groups[:2])
	if !ok {
		return nil, false
	}
	return ClockToday{Hour: nums[0], Minute: nums[1]}, true
}

func extractDayOffset(days int) extractor {
	return func(groups []string) (Expression, bool) {
		nums, ok := atoiAll(groups[:2])
		if !ok {
			return nil, false
		}
		return ClockDayOffset{Days: days, Hour: nums[0], Minute: nums[1]}, true
	}
}

func extractDateWithYear(groups []string) (Expression, bool) {
	nums, ok := atoiAll(groups[:5])
	if !ok {
		return nil, false
	}
	return DateWithYear{Day: nums[0], Month: nums[1], Year: nums[2], Hour: nums[3], Minute: nums[4]}, true
}

func extractDateWithoutYear(groups []string) (Expression, bool) {
	nums, ok := atoiAll(groups[:4])
	if !ok {
		return nil, false
	}
	return DateWithoutYear{Day: nums[0], Month: nums[1], Hour: nums[2], Minute: nums[3]}, true
}

func atoiAll(groups []string) ([]int, bool) {
	nums := make([]int, len(groups))
	for i, g := range groups {
		n, err := strconv.Atoi(g)
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}

// Result is a successful match.
type Result struct {
	At      time.Time
	Kind    Kind
	Payload string
}

// Parser resolves time expressions against a caller-supplied "now" in a
// fixed location. It holds no mutable state and is safe for concurrent use.
type Parser struct {
	timezone *time.Location
}

// NewParser creates a parser bound to the given location.
func NewParser(timezone *time.Location) *Parser {
	if timezone == nil {
		timezone = time.UTC
	}
	return &Parser{timezone: timezone}
}

// Location returns the location results are expressed in.
func (p *Parser) Location() *time.Location {
	return p.timezone
}

// Match tries every shape in order and returns the first one whose
// fields resolve. With includePayload the shape must be followed by
// non-empty text, returned as Result.Payload.
func (p *Parser) Match(text string, now time.Time, includePayload bool) (Result, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, false
	}
	now = now.In(p.timezone)

	for _, pat := range catalog {
		re := pat.bare
		if includePayload {
			re = pat.withPayload
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		expr, ok := pat.extract(m[1:])
		if !ok {
			continue
		}
		at, ok := expr.Resolve(now)
		if !ok {
			continue
		}
		res := Result{At: at, Kind: expr.Kind()}
		if includePayload {
			res.Payload = strings.TrimSpace(m[len(m)-1])
			if res.Payload == "" {
				continue
			}
		}
		return res, true
	}
	return Result{}, false
}

// ParseWithPayload is the reminder-creation entry point: both an instant
// and the reminder text following the time expression are required.
func (p *Parser) ParseWithPayload(text string, now time.Time) (time.Time, string, bool) {
	res, ok := p.Match(text, now, true)
	if !ok {
		return time.Time{}, "", false
	}
	return res.At, res.Payload, true
}

// ParseInstantOnly is the reschedule entry point: only an instant is
// required and any trailing text is ignored.
func (p *Parser) ParseInstantOnly(text string, now time.Time) (time.Time, bool) {
	res, ok := p.Match(text, now, false)
	if !ok {
		return time.Time{}, false
	}
	return res.At, true
}

// Format renders t in the full-date shape ("25.12.2024 в 20:00"), which
// parses back to the same minute.
func (p *Parser) Format(t time.Time) string {
	return t.In(p.timezone).Format("02.01.2006 в 15:04")
}
