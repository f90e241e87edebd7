package services

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const DefaultMatchScore = 50

var (
	DefaultKeyStrengths  = []string{"Technical background", "Professional experience"}
	DefaultMissingSkills = []string{"Advanced specialization", "Specific tools"}
)

// Verdict is the structured outcome of screening one resume against one domain.
type Verdict struct {
	MatchScore    int
	Selected      bool
	KeyStrengths  []string
	MissingSkills []string
	RawText       string
}

// ScoreInRange reports whether the score lies in [0,100]. Scores are never clamped.
func (v Verdict) ScoreInRange() bool {
	return v.MatchScore >= 0 && v.MatchScore <= 100
}

type section int

const (
	sectionNone section = iota
	sectionStrengths
	sectionMissing
)

type lineKind int

const (
	lineIgnored lineKind = iota
	lineScore
	lineSelected
	lineStrengthsHeader
	lineMissingHeader
	lineBullet
)

// bulletGlyphs are matched as line prefixes. The last entry is the UTF-8 bullet
// mis-decoded as Windows-1252, kept for lines the encoding repair cannot fix.
// A bare "*" counts only when followed by whitespace, so Markdown bold labels
// ("**Note**") stay ignored.
var bulletGlyphs = []string{"-", "* ", "*\t", "•", "◦", "▪", "●", "–", "â€¢"}

// ParseVerdict converts a free-text LLM reply into a Verdict. It never fails:
// anything it cannot recover falls back to defaults.
func ParseVerdict(text string) Verdict {
	var (
		score     int
		scoreSeen bool
		selected  bool
		current   = sectionNone
		strengths []string
		missing   []string
	)

	for _, line := range splitLines(text) {
		kind, payload := classifyLine(line)

		switch kind {
		case lineScore:
			if n, ok := firstInt(payload); ok {
				score = n
				scoreSeen = true
			}
		case lineSelected:
			selected = strings.Contains(strings.ToLower(payload), "yes")
		case lineStrengthsHeader:
			current = sectionStrengths
		case lineMissingHeader:
			current = sectionMissing
		case lineBullet:
			if payload == "" {
				continue
			}
			switch current {
			case sectionStrengths:
				strengths = append(strengths, payload)
			case sectionMissing:
				missing = append(missing, payload)
			}
		}
	}

	if !scoreSeen {
		score = DefaultMatchScore
	}
	if len(strengths) == 0 {
		strengths = append([]string(nil), DefaultKeyStrengths...)
	}
	if len(missing) == 0 {
		missing = append([]string(nil), DefaultMissingSkills...)
	}

	return Verdict{
		MatchScore:    score,
		Selected:      selected,
		KeyStrengths:  strengths,
		MissingSkills: missing,
		RawText:       text,
	}
}

// classifyLine applies exactly one rule per line, in fixed precedence:
// score, selected, section headers, bullets.
func classifyLine(line string) (lineKind, string) {
	lower := strings.ToLower(line)

	switch {
	case strings.Contains(lower, "match score"):
		return lineScore, line
	case strings.Contains(lower, "selected"):
		return lineSelected, line
	case strings.Contains(lower, "key strengths"):
		return lineStrengthsHeader, ""
	case strings.Contains(lower, "missing skills"):
		return lineMissingHeader, ""
	}

	if item, ok := stripBullet(line); ok {
		return lineBullet, item
	}

	return lineIgnored, ""
}

func stripBullet(line string) (string, bool) {
	for _, glyph := range bulletGlyphs {
		if strings.HasPrefix(line, glyph) {
			return strings.TrimSpace(strings.TrimPrefix(line, glyph)), true
		}
	}
	return "", false
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, repairMojibake(line))
	}
	return lines
}

// repairMojibake undoes UTF-8 text that was decoded as Windows-1252 upstream
// ("â€¢" back to "•"). Lines that do not round-trip cleanly are returned as is.
func repairMojibake(line string) string {
	if isASCII(line) {
		return line
	}

	encoded, err := charmap.Windows1252.NewEncoder().String(line)
	if err != nil || encoded == line || !utf8.ValidString(encoded) {
		return line
	}

	return encoded
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// firstInt returns the first run of decimal digits in s.
func firstInt(s string) (int, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, false
	}

	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}

	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}

	return n, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
