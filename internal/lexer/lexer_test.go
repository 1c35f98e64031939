package lexer

import "testing"

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestAll_SimpleMatchReturn(t *testing.T) {
	toks, err := All(`MATCH (n:Person) RETURN n.name`)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := []Kind{Keyword, Punct, Ident, Punct, Ident, Punct, Keyword, Ident, Punct, Ident, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAll_WhitespaceIsElided(t *testing.T) {
	toks, err := All("MATCH   \n\t  (n)")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	for _, tok := range toks {
		if tok.Raw == "" {
			continue
		}
		for _, r := range tok.Raw {
			if r == ' ' || r == '\t' || r == '\n' {
				t.Fatalf("expected no whitespace token, got %q", tok.Raw)
			}
		}
	}
}

func TestAll_KeywordIsCaseInsensitiveAndUppercased(t *testing.T) {
	toks, err := All("match (n) return n")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if toks[0].Kind != Keyword || toks[0].Text != "MATCH" {
		t.Errorf("expected first token to be Keyword MATCH, got %v %q", toks[0].Kind, toks[0].Text)
	}
}

func TestAll_IdentPreservesCase(t *testing.T) {
	toks, err := All("RETURN myVar")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if toks[1].Kind != Ident || toks[1].Text != "myVar" {
		t.Fatalf("expected Ident myVar, got %v %q", toks[1].Kind, toks[1].Text)
	}
}

func TestAll_StringEscapesDecode(t *testing.T) {
	toks, err := All(`RETURN 'line1\nline2\t\\end'`)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := "line1\nline2\t\\end"
	if toks[1].Kind != String || toks[1].Text != want {
		t.Fatalf("decoded string = %q, want %q", toks[1].Text, want)
	}
}

func TestAll_StringUnicodeEscape(t *testing.T) {
	toks, err := All("RETURN '\\u0041'")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if toks[1].Text != "A" {
		t.Fatalf("decoded \\u0041 = %q, want %q", toks[1].Text, "A")
	}
}

func TestAll_BacktickIdentDecodesDoubledBacktick(t *testing.T) {
	toks, err := All("RETURN `weird``name`")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if toks[1].Kind != BacktickIdent || toks[1].Text != "weird`name" {
		t.Fatalf("decoded backtick ident = %q, want %q", toks[1].Text, "weird`name")
	}
}

func TestAll_ParameterStripsDollarSign(t *testing.T) {
	toks, err := All("RETURN $name")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if toks[1].Kind != Parameter || toks[1].Text != "name" {
		t.Fatalf("parameter text = %q, want %q", toks[1].Text, "name")
	}
}

func TestAll_FloatVsInt(t *testing.T) {
	toks, err := All("RETURN 42, 3.14, 2e10")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	var got []Kind
	for _, tok := range toks {
		if tok.Kind == Int || tok.Kind == Float {
			got = append(got, tok.Kind)
		}
	}
	want := []Kind{Int, Float, Float}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("numeric token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAll_MultiCharPunctuators(t *testing.T) {
	toks, err := All("RETURN a.b WHERE a<>b AND a<=b AND a>=b")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	var raws []string
	for _, tok := range toks {
		if tok.Kind == Punct {
			raws = append(raws, tok.Raw)
		}
	}
	wantAny := map[string]bool{"<>": false, "<=": false, ">=": false}
	for _, r := range raws {
		if _, ok := wantAny[r]; ok {
			wantAny[r] = true
		}
	}
	for p, seen := range wantAny {
		if !seen {
			t.Errorf("expected punctuator %q among %v", p, raws)
		}
	}
}

func TestNew_UnrecognizedInputIsSyntaxError(t *testing.T) {
	_, err := All("RETURN #")
	if err == nil {
		t.Fatal("expected an error for an unrecognized character")
	}
}

func TestAll_EOFTerminatesStream(t *testing.T) {
	toks, err := All("")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(toks) != 1 || toks[0].Kind != EOF {
		t.Fatalf("expected a single EOF token for empty input, got %v", toks)
	}
}
