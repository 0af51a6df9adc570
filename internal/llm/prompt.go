package llm

import "strings"

// Prompt is an instruction template with {categories} and {text}
// placeholders.
type Prompt string

// Render substitutes the category list, one "- label" per line, and the
// transaction description.
func (p Prompt) Render(text string, categories []string) string {
	lines := make([]string, len(categories))
	for i, c := range categories {
		lines[i] = "- " + c
	}
	r := strings.NewReplacer(
		"{categories}", strings.Join(lines, "\n"),
		"{text}", text,
	)
	return r.Replace(string(p))
}
