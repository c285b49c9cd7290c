package review

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitByFunction(t *testing.T) {
	diff := strings.Join([]string{
		"@@ -1,10 +1,12 @@",
		" import os",
		"+def first(a):",
		"+    return a",
		" def second(b):",
		"-    return b",
		"+    return b * 2",
		"+def third(c):",
		"+    return c",
	}, "\n")

	fragments := SplitByFunction(diff, PythonMatcher{})

	names := make([]string, len(fragments))
	for i, f := range fragments {
		names[i] = f.Name
	}
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("fragment names = %v, want %v", names, want)
	}

	if !strings.Contains(fragments[1].Diff, "return b * 2") {
		t.Errorf("second fragment missing body line: %q", fragments[1].Diff)
	}
	if strings.Contains(fragments[0].Diff, "import os") {
		t.Errorf("lines before the first definition should be discarded, got %q", fragments[0].Diff)
	}
}

func TestSplitByFunctionDeterministic(t *testing.T) {
	diff := "+def f(x):\n+    return x\n+def g(y):\n+    return y\n"

	first := SplitByFunction(diff, PythonMatcher{})
	second := SplitByFunction(diff, PythonMatcher{})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated split differs: %v vs %v", first, second)
	}
}

func TestSplitByFunctionRepeatedName(t *testing.T) {
	// A second definition of the same name replaces the earlier fragment
	// but keeps its original position.
	diff := strings.Join([]string{
		"+def f(x):",
		"+    return x",
		"+def g(y):",
		"+    return y",
		"+def f(x):",
		"+    return x + 1",
	}, "\n")

	fragments := SplitByFunction(diff, PythonMatcher{})

	if len(fragments) != 2 {
		t.Fatalf("len(fragments) = %d, want 2", len(fragments))
	}
	if fragments[0].Name != "f" || fragments[1].Name != "g" {
		t.Fatalf("fragment order = %s, %s; want f, g", fragments[0].Name, fragments[1].Name)
	}
	if !strings.Contains(fragments[0].Diff, "return x + 1") {
		t.Errorf("repeated name should replace the earlier fragment, got %q", fragments[0].Diff)
	}
}

func TestSplitByFunctionEmpty(t *testing.T) {
	if got := SplitByFunction("", PythonMatcher{}); len(got) != 0 {
		t.Errorf("SplitByFunction(\"\") = %v, want empty", got)
	}
	if got := SplitByFunction("+x = 1\n+y = 2\n", PythonMatcher{}); len(got) != 0 {
		t.Errorf("diff without definitions = %v, want empty", got)
	}
}

func TestExtractFunction(t *testing.T) {
	content := strings.Join([]string{
		"import os",
		"",
		"def target(a, b):",
		"    c = a + b",
		"    return c",
		"",
		"def other():",
		"    return None",
	}, "\n")

	got := ExtractFunction(content, "target", PythonMatcher{})

	want := "def target(a, b):\n    c = a + b\n    return c\n"
	if got != want {
		t.Errorf("ExtractFunction() = %q, want %q", got, want)
	}
}

func TestExtractFunctionMissing(t *testing.T) {
	if got := ExtractFunction("def other():\n    return 1\n", "target", PythonMatcher{}); got != "" {
		t.Errorf("ExtractFunction() for missing name = %q, want empty", got)
	}
}

// Extraction stops at the first terminal line, so a multi-branch body
// whose early branch returns comes back truncated. That is the accepted
// behavior of the heuristic.
func TestExtractFunctionTruncatesAtFirstReturn(t *testing.T) {
	content := strings.Join([]string{
		"def branchy(x):",
		"    if x:",
		"        pass",
		"    return x",
		"    # unreachable trailer",
		"    return None",
	}, "\n")

	got := ExtractFunction(content, "branchy", PythonMatcher{})

	if strings.Contains(got, "unreachable trailer") {
		t.Errorf("extraction should stop at the first return, got %q", got)
	}
	if !strings.HasSuffix(got, "    return x\n") {
		t.Errorf("extraction should include the terminal line, got %q", got)
	}
}

// Only the first matching definition is found.
func TestExtractFunctionFirstMatchOnly(t *testing.T) {
	content := strings.Join([]string{
		"def dup():",
		"    return 1",
		"def dup():",
		"    return 2",
	}, "\n")

	got := ExtractFunction(content, "dup", PythonMatcher{})

	if !strings.Contains(got, "return 1") || strings.Contains(got, "return 2") {
		t.Errorf("ExtractFunction() should stop after the first match, got %q", got)
	}
}

func TestGoMatcher(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantOK   bool
	}{
		{"func Parse(s string) error {", "Parse", true},
		{"func (c *Client) Do(req *Request) error {", "Do", true},
		{"func main() {", "main", true},
		{"funcParse()", "", false},
		{"var x = 1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, ok := GoMatcher{}.MatchDefinition(tt.line)
			if name != tt.wantName || ok != tt.wantOK {
				t.Errorf("MatchDefinition(%q) = (%q, %v), want (%q, %v)", tt.line, name, ok, tt.wantName, tt.wantOK)
			}
		})
	}

	if !(GoMatcher{}).IsTerminal("}") {
		t.Error("IsTerminal(\"}\") = false, want true")
	}
	if (GoMatcher{}).IsTerminal("\treturn nil") {
		t.Error("IsTerminal(indented return) = true, want false")
	}
}
