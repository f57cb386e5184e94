// Package verify reconciles the language model's structured claims with the
// literal source text. Model output is untrusted input: attributes without
// evidence in the document are dropped, and the record is filled to a fixed
// default shape before any downstream code touches it.
package verify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/cv-ranking-engine/internal/observability"
	"github.com/fairyhunter13/cv-ranking-engine/pkg/textx"
)

// minTokenEvidenceLen guards the token-wise rule against accepting very short
// multi-word items whose individual tokens happen to occur in the text.
const minTokenEvidenceLen = 5

// ItemsInText returns the subset of items evidenced by text. An item is kept
// when any of the following holds for its normalized form:
//
//  1. it is a literal substring of the normalized text;
//  2. every token longer than 2 runes appears somewhere in the text, and the
//     normalized item is longer than 5 characters;
//  3. the text contains the singular or naive-plural (trailing "s") variant.
//
// Rejected items are dropped silently; the drop is logged at debug level and
// never surfaces as an error.
func ItemsInText(ctx context.Context, items []string, text string) []string {
	normText := textx.Normalize(text)
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		if itemInText(item, normText) {
			kept = append(kept, strings.TrimSpace(item))
			continue
		}
		observability.LoggerFromContext(ctx).Debug("dropped unverifiable claim",
			slog.String("item", item))
	}
	return kept
}

func itemInText(item, normText string) bool {
	normItem := textx.Normalize(item)
	if normItem == "" {
		return false
	}
	if strings.Contains(normText, normItem) {
		return true
	}
	if allTokensPresent(normItem, normText) {
		return true
	}
	return pluralVariantPresent(normItem, normText)
}

// allTokensPresent applies the token-wise evidence rule: every token of the
// item longer than 2 runes must occur in the text, and the item itself must
// exceed the minimum length.
func allTokensPresent(normItem, normText string) bool {
	if len(normItem) <= minTokenEvidenceLen {
		return false
	}
	checked := false
	for _, tok := range strings.Fields(normItem) {
		if len([]rune(tok)) <= 2 {
			continue
		}
		checked = true
		if !strings.Contains(normText, tok) {
			return false
		}
	}
	return checked
}

func pluralVariantPresent(normItem, normText string) bool {
	if strings.HasSuffix(normItem, "s") {
		return strings.Contains(normText, strings.TrimSuffix(normItem, "s"))
	}
	return strings.Contains(normText, normItem+"s")
}
