package review

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Template identifiers. The set is closed: updates naming anything else
// are rejected.
const (
	TemplateFileChange     = "analyze_file_change"
	TemplateFunctionChange = "analyze_function_change"
	TemplateReviewComment  = "analyze_review_comment"
	TemplateReview         = "analyze_pull_request_review"
	TemplateReviewThread   = "analyze_review_thread"
)

const defaultFileChangeTemplate = `Analyze the following file change in {filename}, based on the similar commits and the code changes:
Review should be formatted in markdown. Each comment can be cross referenced.
The high level review should include the following:
1. Briefly summarize the changes.
2. What are the potential impacts of these changes? What benefits do they bring?
3. Are there any alternative solutions?

For each function or class that has been changed:
- Are there any issues with the changes? Is there anything that could break?
- Are there any additional tests or documentation that should be written?
- Are there any potential performance issues?

File content:
{file_content}
Changes:
{file_diff}
Prior similar commits:
{similar_commit_texts}
`

const defaultFunctionChangeTemplate = `Analyze the following function change in {filename}, based on the similar commits and the code changes:
Original function:
{original_function_code}
Changes:
{function_diff}
Prior similar commits:
{similar_commit_texts}
`

const defaultReviewCommentTemplate = `Analyze the following pull request review comment and write output in markdown.
Don't forget to reply to the original comments.
Don't include the diff hunk.
Review Comment:
{comment_body}
With the diff hunk:
{diff_hunk}
`

const defaultReviewTemplate = `Analyze the following pull request review:
{review_body}
`

const defaultReviewThreadTemplate = `Analyze the following pull request review thread:
{thread_comments}
`

// defaultTemplates maps each identifier to its default text. The key set
// is the closed set of valid identifiers.
var defaultTemplates = map[string]string{
	TemplateFileChange:     defaultFileChangeTemplate,
	TemplateFunctionChange: defaultFunctionChangeTemplate,
	TemplateReviewComment:  defaultReviewCommentTemplate,
	TemplateReview:         defaultReviewTemplate,
	TemplateReviewThread:   defaultReviewThreadTemplate,
}

// ErrUnknownTemplate indicates an update or render named a template
// outside the closed set.
type ErrUnknownTemplate struct {
	Name string
}

func (e *ErrUnknownTemplate) Error() string {
	return fmt.Sprintf("unknown template: %q", e.Name)
}

// Templates is a registry of prompt templates. The identifier set is
// fixed; only the text behind an identifier can change, through Set,
// which validates the replacement. Safe for concurrent use.
type Templates struct {
	mu    sync.RWMutex
	texts map[string]string
}

// NewTemplates creates a registry populated with the default templates.
func NewTemplates() *Templates {
	texts := make(map[string]string, len(defaultTemplates))
	for name, text := range defaultTemplates {
		texts[name] = text
	}
	return &Templates{texts: texts}
}

// Names returns the valid template identifiers, sorted.
func (t *Templates) Names() []string {
	names := make([]string, 0, len(defaultTemplates))
	for name := range defaultTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set replaces the text of a known template. It rejects unknown
// identifiers and replacements that drop a placeholder the default
// text requires.
func (t *Templates) Set(name, text string) error {
	def, ok := defaultTemplates[name]
	if !ok {
		return &ErrUnknownTemplate{Name: name}
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("template %q: replacement text is empty", name)
	}
	for _, ph := range placeholders(def) {
		if !strings.Contains(text, ph) {
			return fmt.Errorf("template %q: replacement is missing placeholder %s", name, ph)
		}
	}

	t.mu.Lock()
	t.texts[name] = text
	t.mu.Unlock()
	return nil
}

// Render substitutes {placeholder} tokens in the named template.
func (t *Templates) Render(name string, vars map[string]string) (string, error) {
	t.mu.RLock()
	text, ok := t.texts[name]
	t.mu.RUnlock()
	if !ok {
		return "", &ErrUnknownTemplate{Name: name}
	}

	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text), nil
}

// placeholders extracts the {token} names used in a template text.
func placeholders(text string) []string {
	var found []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := strings.IndexByte(text[i:], '}')
		if end < 0 {
			break
		}
		found = append(found, text[i:i+end+1])
		i += end
	}
	return found
}
