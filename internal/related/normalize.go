package related

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// minTokenLen is the shortest token kept after normalization.
const minTokenLen = 2

// stopwords are common English words excluded from lexical comparison.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "shall": true,
	"to": true, "of": true, "in": true, "for": true, "on": true, "with": true, "at": true,
	"by": true, "from": true, "as": true, "into": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true, "and": true, "but": true,
	"or": true, "nor": true, "not": true, "so": true, "yet": true, "both": true,
	"either": true, "neither": true, "each": true, "every": true, "all": true, "any": true,
	"few": true, "more": true, "most": true, "other": true, "some": true, "such": true,
	"no": true, "only": true, "own": true, "same": true, "than": true, "too": true,
	"very": true, "just": true, "how": true, "what": true, "which": true, "who": true,
	"whom": true, "this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "about": true, "up": true, "out": true, "also": true, "like": true,
	"you": true, "your": true, "we": true, "our": true, "they": true, "their": true,
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Tokens normalizes free text into a set of comparable tokens: markup is
// stripped, entities decoded, everything lowercased and split on
// non-alphanumeric boundaries. Stopwords and tokens shorter than two
// characters are discarded. Empty input yields an empty set.
func Tokens(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	if text == "" {
		return tokens
	}

	clean := stripMarkup(text)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(clean), -1) {
		if len(tok) < minTokenLen || stopwords[tok] {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// stripMarkup removes HTML tags and decodes entities by extracting the text
// nodes of a parsed document. Plain text passes through untouched.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	return text.String()
}
