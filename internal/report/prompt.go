package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leaselens/leaselens/internal/model"
)

// RegistryFlagThreshold is the 1-mile registry count at which the prompt
// instructs the generator to append a safety-registry red flag.
const RegistryFlagThreshold = 3

// BuildPrompt assembles the single structured prompt: the listing,
// augmentation, and preferences as data, followed by exact formatting
// instructions. The incomplete-data red flag is surfaced by the caller, not
// the generator, so the prompt forbids fabricating one.
func BuildPrompt(l *model.Listing, a *model.Augmentation, prefs model.Preferences) string {
	var b strings.Builder

	b.WriteString("You are a rental listing decoder. Analyze the listing data below and produce a JSON report summarizing red flags and positives for a prospective tenant.\n\n")

	b.WriteString("LISTING:\n")
	writeJSON(&b, l)
	if a != nil {
		b.WriteString("\nLOCATION SIGNALS:\n")
		writeJSON(&b, a)
	}
	if prefs.WorkAddress != "" {
		b.WriteString("\nTENANT PREFERENCES:\n")
		writeJSON(&b, prefs)
	}

	b.WriteString(`
Respond with ONLY a JSON object of exactly this shape:
{
  "summary": string,
  "redFlags": [string],
  "positives": [string],
  "scorecard": {
    "value": {"score": 0-10, "rationale": string},
    "livability": {"score": 0-10, "rationale": string},
    "noiseLight": {"score": 0-10, "rationale": string},
    "hazards": {"score": 0-10, "rationale": string},
    "transparency": {"score": 0-10, "rationale": string},
    "total": 0-100
  },
  "followUpQuestions": [string],
  "caption": string
}

Rules:
`)
	b.WriteString(fmt.Sprintf("- At most %d redFlags, %d positives, %d followUpQuestions. Caption at most %d characters.\n",
		model.MaxRedFlags, model.MaxPositives, model.MaxFollowUps, model.MaxCaptionLen))
	b.WriteString("- Never invent a red flag about missing or incomplete listing data; that is handled elsewhere.\n")

	if count, ok := registryCount(a); ok && count >= RegistryFlagThreshold {
		b.WriteString(fmt.Sprintf("- There are %d registered offenders within 1 mile. Append exactly one red flag about this as the LAST entry in redFlags. Phrase it neutrally and do not name the data source or any field name.\n", count))
	}

	return b.String()
}

func registryCount(a *model.Augmentation) (int, bool) {
	if a == nil || a.LocationInsights == nil || a.LocationInsights.Registry == nil {
		return 0, false
	}
	return a.LocationInsights.Registry.CountWithin1Mi, true
}

func writeJSON(b *strings.Builder, v interface{}) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	b.Write(raw)
	b.WriteString("\n")
}
