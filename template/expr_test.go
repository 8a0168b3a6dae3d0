package template

import (
	"testing"
)

func evalWith(t *testing.T, src string, flags ...string) bool {
	t.Helper()
	expr, err := ParseExpr(src)
	if err != nil {
		t.Fatalf("ParseExpr(%q) failed: %v", src, err)
	}
	set := make(map[string]bool, len(flags))
	for _, f := range flags {
		set[f] = true
	}
	return expr.Eval(func(name string) bool { return set[name] })
}

func TestParseExprEval(t *testing.T) {
	tests := []struct {
		src   string
		flags []string
		want  bool
	}{
		{"A", []string{"A"}, true},
		{"A", nil, false},
		{"!A", nil, true},
		{"!A", []string{"A"}, false},
		{"!!A", []string{"A"}, true},
		{"A && B", []string{"A", "B"}, true},
		{"A && B", []string{"A"}, false},
		{"A || B", []string{"B"}, true},
		{"A || B", nil, false},
		// && binds tighter than ||.
		{"A || B && C", []string{"A"}, true},
		{"A || B && C", []string{"B"}, false},
		{"A || B && C", []string{"B", "C"}, true},
		{"(A || B) && C", []string{"A"}, false},
		{"(A || B) && C", []string{"A", "C"}, true},
		{"!A && !B", nil, true},
		{"!(A || B)", nil, true},
		{"!(A || B)", []string{"B"}, false},
		// Unknown flags evaluate to false, never an error.
		{"UNKNOWN_FLAG", []string{"A"}, false},
		{"A && !UNKNOWN_FLAG", []string{"A"}, true},
		{"  A  &&  B  ", []string{"A", "B"}, true},
		{"DIFFUSE_TEXTURE && !NORMAL_TEXTURE", []string{"DIFFUSE_TEXTURE"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := evalWith(t, tt.src, tt.flags...)
			if got != tt.want {
				t.Errorf("eval(%q) with %v = %v, want %v", tt.src, tt.flags, got, tt.want)
			}
		})
	}
}

func TestParseExprErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"&&",
		"A &&",
		"A && && B",
		"A B",
		"(A",
		"A)",
		"(A || B",
		"()",
		"A & B",
		"A | B",
		"!= A",
		"9A",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if _, err := ParseExpr(src); err == nil {
				t.Errorf("ParseExpr(%q) succeeded, want error", src)
			}
		})
	}
}

func TestExprString(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"A", "A"},
		{"!A", "!A"},
		{"A&&B", "A && B"},
		{"A || B && C", "A || B && C"},
		{"(A || B) && C", "(A || B) && C"},
		{"!(A || B)", "!(A || B)"},
		{"!(A && B)", "!(A && B)"},
		{"!A && B", "!A && B"},
	}

	for _, tt := range tests {
		expr, err := ParseExpr(tt.src)
		if err != nil {
			t.Fatalf("ParseExpr(%q) failed: %v", tt.src, err)
		}
		if got := expr.String(); got != tt.want {
			t.Errorf("String() of %q = %q, want %q", tt.src, got, tt.want)
		}
	}
}
