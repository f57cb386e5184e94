package ai

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
)

// systemPrompt pins the model to a single JSON object with the extraction
// schema. Skills and tools must be literal mentions from the document; the
// downstream guard drops anything it cannot find in the text anyway.
const systemPrompt = `You are a CV analysis engine. You extract structured data from resume text.

Respond with exactly one JSON object, no prose, matching this shape:
{
  "summary": string,
  "email": string,
  "phone_number": string,
  "skills": [string],
  "tools": [string],
  "education": [string],
  "languages": [string],
  "experiences": [{"title": string, "company": string, "description": string, "duration": "MM/YYYY - MM/YYYY or MM/YYYY - present"}],
  "experience_years": number,
  "certifications": [string],
  "projects": [string]
}

Rules:
- Only list skills and tools that literally appear in the document text. Never infer or invent items.
- Use empty arrays and empty strings for anything the document does not state.
- experience_years is total professional experience, fractional years allowed.
- Keep every "duration" in "MM/YYYY - MM/YYYY" form, with "present" for ongoing roles.`

// BuildUserPrompt assembles the user message: known contact fields first so
// the model does not re-guess them, the condensed requirement summary for
// focus, then the document text.
func BuildUserPrompt(text, requirementSummary string, known domain.ContactInfo) string {
	var sb strings.Builder
	if known.Email != "" || known.PhoneNumber != "" {
		sb.WriteString("Known contact details (use verbatim):\n")
		if known.Email != "" {
			fmt.Fprintf(&sb, "email: %s\n", known.Email)
		}
		if known.PhoneNumber != "" {
			fmt.Fprintf(&sb, "phone_number: %s\n", known.PhoneNumber)
		}
		sb.WriteString("\n")
	}
	if requirementSummary != "" {
		fmt.Fprintf(&sb, "Position requirements (for context, do not copy into the extraction): %s\n\n", requirementSummary)
	}
	sb.WriteString("Document text:\n")
	sb.WriteString(text)
	return sb.String()
}
