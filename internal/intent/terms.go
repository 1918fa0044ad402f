package intent

import (
	"regexp"
	"strings"
)

var (
	// from:alice, from alice@example.com about ...
	explicitSender = regexp.MustCompile(`(?i)from:?\s*([a-z0-9@.\s]+?)(?:\s+about|\s+regarding|$)`)
	// from Alice Smith, by Bob
	implicitSender = regexp.MustCompile(`(?i)\b(?:from|by)\s+([a-z]+(?:\s+[a-z]+)?)`)
	// about the budget report
	topic = regexp.MustCompile(`(?i)\b(?:about|regarding|concerning)\s+(.+?)(?:\s+from|$)`)

	leadingVerb    = regexp.MustCompile(`(?i)^(?:find|search|show|get|any|check)\s+(?:for\s+)?`)
	mailNouns      = regexp.MustCompile(`(?i)\b(?:emails?|messages?|mail|threads?)\b`)
	forMe          = regexp.MustCompile(`(?i)\s+for\s+me\b`)
	leadingArticle = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)
	trailingPunct  = regexp.MustCompile(`[?!.,;]+$`)
)

// ExtractSearchTerms turns a question into a Gmail search expression. The first
// matching rule wins:
//
//  1. an explicit sender, "from:<value>" up to " about", " regarding" or the end
//  2. an implicit sender, "from <name>" or "by <name>" with a one or two word name
//  3. a topic, "about|regarding|concerning <topic>" up to " from" or the end
//  4. the input with command verbs, mail nouns and "for me" removed
//
// Every non-empty input yields a non-empty expression: when rule 4 leaves
// nothing, the trimmed input is returned as is.
func ExtractSearchTerms(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if m := explicitSender.FindStringSubmatch(input); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return "from:" + v
		}
	}

	if m := implicitSender.FindStringSubmatch(input); m != nil {
		return "from:" + strings.TrimSpace(m[1])
	}

	if m := topic.FindStringSubmatch(input); m != nil {
		t := trailingPunct.ReplaceAllString(strings.TrimSpace(m[1]), "")
		t = leadingArticle.ReplaceAllString(t, "")
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}

	return fallbackTerms(input)
}

func fallbackTerms(input string) string {
	s := leadingVerb.ReplaceAllString(input, "")
	s = mailNouns.ReplaceAllString(s, "")
	s = forMe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSpace(trailingPunct.ReplaceAllString(s, ""))
	if s == "" {
		return input
	}
	return s
}
