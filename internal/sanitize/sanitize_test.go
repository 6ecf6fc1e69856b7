package sanitize

import (
	"strings"
	"testing"
)

func TestField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "Dupont", "Dupont"},
		{"accents preserved", "Élève référent", "Élève référent"},
		{"tags stripped", "<b>Marie</b>", "Marie"},
		{"script stripped", `<script>alert("x")</script>Jean`, "Jean"},
		{"whitespace trimmed", "  Paul  ", "Paul"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Field(tt.input); got != tt.want {
				t.Errorf("Field(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHTML_RemovesDangerousContent(t *testing.T) {
	dangerous := []string{
		`<script>alert("xss")</script>`,
		`<img src="x" onerror="alert(1)">`,
		`<a href="javascript:alert(1)">lien</a>`,
		`<iframe src="https://evil.example"></iframe>`,
	}
	for _, input := range dangerous {
		out := HTML(input)
		for _, bad := range []string{"<script", "onerror", "javascript:", "<iframe"} {
			if strings.Contains(out, bad) {
				t.Errorf("HTML(%q) = %q, still contains %q", input, out, bad)
			}
		}
	}
}

func TestHTML_PreservesFormatting(t *testing.T) {
	input := `<p style="text-align:center">Le <strong>présent</strong> de l'indicatif</p><table><tr><td>je</td><td>suis</td></tr></table>`
	out := HTML(input)
	for _, keep := range []string{"<strong>", "<table>", "<td>je</td>"} {
		if !strings.Contains(out, keep) {
			t.Errorf("HTML() dropped %q, got %q", keep, out)
		}
	}
}
