package related

import "testing"

func hasToken(t *testing.T, set map[string]struct{}, tok string) bool {
	t.Helper()
	_, ok := set[tok]
	return ok
}

func TestTokensLowercasesAndSplits(t *testing.T) {
	tokens := Tokens("Content Marketing, SEO & Growth!")
	for _, want := range []string{"content", "marketing", "seo", "growth"} {
		if !hasToken(t, tokens, want) {
			t.Errorf("expected token %q in %v", want, tokens)
		}
	}
}

func TestTokensDropsStopwordsAndShortTokens(t *testing.T) {
	tokens := Tokens("the state of the art in a b testing")
	if hasToken(t, tokens, "the") || hasToken(t, tokens, "of") || hasToken(t, tokens, "in") {
		t.Errorf("stopwords should be removed, got %v", tokens)
	}
	if hasToken(t, tokens, "a") || hasToken(t, tokens, "b") {
		t.Errorf("single-character tokens should be removed, got %v", tokens)
	}
	if !hasToken(t, tokens, "state") || !hasToken(t, tokens, "art") || !hasToken(t, tokens, "testing") {
		t.Errorf("expected content words, got %v", tokens)
	}
}

func TestTokensStripsHTML(t *testing.T) {
	tokens := Tokens(`<p>Keyword <strong>research</strong> &amp; ranking</p>`)
	for _, want := range []string{"keyword", "research", "ranking"} {
		if !hasToken(t, tokens, want) {
			t.Errorf("expected token %q, got %v", want, tokens)
		}
	}
	if hasToken(t, tokens, "strong") || hasToken(t, tokens, "amp") {
		t.Errorf("markup should not leak into tokens: %v", tokens)
	}
}

func TestTokensIgnoresScriptAndStyle(t *testing.T) {
	tokens := Tokens(`<div>visible</div><script>var hidden = 1;</script><style>.x{color:red}</style>`)
	if !hasToken(t, tokens, "visible") {
		t.Errorf("expected 'visible', got %v", tokens)
	}
	if hasToken(t, tokens, "hidden") || hasToken(t, tokens, "color") {
		t.Errorf("script/style content should be skipped: %v", tokens)
	}
}

func TestTokensCollapsesDuplicates(t *testing.T) {
	tokens := Tokens("seo seo SEO Seo")
	if len(tokens) != 1 {
		t.Errorf("expected 1 unique token, got %d: %v", len(tokens), tokens)
	}
}

func TestTokensEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "<p></p>", "a I ? !"} {
		if tokens := Tokens(input); len(tokens) != 0 {
			t.Errorf("Tokens(%q): expected empty set, got %v", input, tokens)
		}
	}
}
