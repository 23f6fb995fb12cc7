package report

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/leaselens/leaselens/internal/model"
)

// rawReport mirrors the expected generator output. Every field is optional so
// a partially malformed response still yields a usable report.
type rawReport struct {
	Summary   string   `json:"summary"`
	RedFlags  []string `json:"redFlags"`
	Positives []string `json:"positives"`
	Scorecard struct {
		Value        rawScore `json:"value"`
		Livability   rawScore `json:"livability"`
		NoiseLight   rawScore `json:"noiseLight"`
		Hazards      rawScore `json:"hazards"`
		Transparency rawScore `json:"transparency"`
		Total        *float64 `json:"total"`
	} `json:"scorecard"`
	FollowUpQuestions []string `json:"followUpQuestions"`
	Caption           string   `json:"caption"`
}

type rawScore struct {
	Score     *float64 `json:"score"`
	Rationale string   `json:"rationale"`
}

// ParseReport extracts the first JSON object from generator output and
// rebuilds a report from the known fields only. Scores are clamped and lists
// truncated rather than rejected; only a response with no parsable JSON
// object fails.
func ParseReport(text string) (*model.DecoderReport, error) {
	blob, ok := extractJSON(text)
	if !ok {
		return nil, model.NewParse("no JSON object in generator output: "+preview(text), nil)
	}

	var raw rawReport
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, model.NewParse("malformed generator output: "+preview(text), err)
	}

	rep := &model.DecoderReport{
		Summary:           strings.TrimSpace(raw.Summary),
		RedFlags:          truncateList(raw.RedFlags, model.MaxRedFlags),
		Positives:         truncateList(raw.Positives, model.MaxPositives),
		FollowUpQuestions: truncateList(raw.FollowUpQuestions, model.MaxFollowUps),
		Caption:           truncateString(strings.TrimSpace(raw.Caption), model.MaxCaptionLen),
		Version:           model.ReportVersion,
	}
	rep.Scorecard = model.Scorecard{
		Value:        clampEntry(raw.Scorecard.Value),
		Livability:   clampEntry(raw.Scorecard.Livability),
		NoiseLight:   clampEntry(raw.Scorecard.NoiseLight),
		Hazards:      clampEntry(raw.Scorecard.Hazards),
		Transparency: clampEntry(raw.Scorecard.Transparency),
		Total:        clampInt(raw.Scorecard.Total, model.MaxTotalScore),
	}
	return rep, nil
}

// extractJSON returns the first balanced top-level JSON object in text,
// tolerating code fences and prose around it.
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func clampEntry(r rawScore) model.ScoreEntry {
	return model.ScoreEntry{
		Score:     clampInt(r.Score, model.MaxScore),
		Rationale: strings.TrimSpace(r.Rationale),
	}
}

func clampInt(v *float64, max int) int {
	if v == nil {
		return 0
	}
	n := int(*v)
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

func truncateList(in []string, max int) []string {
	out := make([]string, 0, max)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so the cut never splits a multibyte char.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
