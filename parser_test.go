package ssengine

import "testing"

// newTestParser builds a Parser whose sheet resolver understands three
// fixed worksheet names, enough to exercise cross-sheet references without
// needing a full Spreadsheet.
func newTestParser(tokens []Token) *Parser {
	sheetIDs := map[string]uint32{"Sheet1": 1, "Sheet2": 2, "Sheet3": 3}
	ctx := &ParserContext{
		CurrentWorksheetID: 1,
		ResolveWorksheet: func(name string) uint32 {
			return sheetIDs[name]
		},
	}
	return NewParser(tokens, ctx)
}

// tryParse lexes and parses formula (including its leading "="), returning
// the resulting AST (nil on failure) and any error.
func tryParse(formula string) (ASTNode, error) {
	tokens, lexErrors := NewLexer(formula).Tokenize()
	if len(lexErrors) > 0 {
		return nil, NewApplicationError(InvalidArgument, lexErrors[0])
	}
	if len(tokens) == 0 {
		return nil, NewApplicationError(InvalidArgument, "empty token stream")
	}
	return newTestParser(tokens).Parse()
}

func TestParserAcceptsWellFormedFormulas(t *testing.T) {
	cases := []string{
		"=1+2",
		"=A1",
		"=-A1",
		"=SUM(A1:A10)",
		"=Sheet2!A1",
		"=Sheet2!A1:B2",
		"=SUM(Sheet2!A1:A10)",
		"=Sheet2!A1 + Sheet3!B1",
		"=SUM(B2:A1)",
		"=SUM(A1:A1)",
		"=SUM(A1:Z1000)",
		"=$A$1+A1",
		"=IF(A1>0, \"pos\", \"non-pos\")",
		`="mixed-script text"`,
		`=CONCATENATE("a", "b")`,
		"=#DIV/0!",
		`=IFERROR(1/0, "fallback")`,
	}

	for _, formula := range cases {
		t.Run(formula, func(t *testing.T) {
			ast, err := tryParse(formula)
			if err != nil {
				t.Errorf("expected %q to parse, got error: %v", formula, err)
			}
			if ast == nil {
				t.Errorf("expected %q to produce a non-nil AST", formula)
			}
		})
	}
}

func TestParserRejectsMalformedFormulas(t *testing.T) {
	cases := []string{
		"=",
		"=SUM(",
		"=A1:",
		`="unterminated`,
		"=1+",
		"=(1+2",
		"=SUM(A1,,B1)",
	}

	for _, formula := range cases {
		t.Run(formula, func(t *testing.T) {
			ast, err := tryParse(formula)
			if err == nil && ast != nil {
				t.Errorf("expected %q to fail to parse", formula)
			}
		})
	}
}

// TestOperatorPrecedence checks that the parser builds the textbook operator
// precedence (unary minus > exponent > */÷ > +- > comparisons), by round
// tripping each formula through ToString and checking the fully-parenthesized
// rendering groups operands the way precedence demands.
func TestOperatorPrecedence(t *testing.T) {
	cases := []struct {
		formula string
		want    string
	}{
		{"=1+2*3", "(1+(2*3))"},
		{"=(1+2)*3", "((1+2)*3)"},
		{"=2^3^2", "(2^(3^2))"},
		{"=1=1", "(1=1)"},
		{"=1<2", "(1<2)"},
	}

	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			ast, err := tryParse(tc.formula)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", tc.formula, err)
			}
			if got := ast.ToString(); got != tc.want {
				t.Errorf("ToString() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLexerTokenizesOperatorsAndLiterals(t *testing.T) {
	lexer := NewLexer("=A1+B2*3-\"text\"&TRUE")
	tokens, errs := lexer.Tokenize()
	if len(errs) > 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	if len(tokens) == 0 {
		t.Fatal("expected at least one token")
	}
}

func TestLexerReportsErrorOnUnterminatedString(t *testing.T) {
	lexer := NewLexer(`="never closed`)
	_, errs := lexer.Tokenize()
	if len(errs) == 0 {
		t.Fatal("expected an unterminated-string literal to produce a lex error")
	}
}
