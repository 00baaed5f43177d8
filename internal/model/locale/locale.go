package locale

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// QuestionCount is the number of questions every locale asks.
const QuestionCount = 5

// Answers is the named-field record the prompt template is rendered from.
type Answers struct {
	Title        string
	Tasks        string
	Location     string
	Hours        string
	Requirements string
}

// AnswersFrom maps the ordered wizard answers onto the named record.
func AnswersFrom(values []string) (Answers, error) {
	if len(values) != QuestionCount {
		return Answers{}, fmt.Errorf("expected %d answers, got %d", QuestionCount, len(values))
	}
	return Answers{
		Title:        values[0],
		Tasks:        values[1],
		Location:     values[2],
		Hours:        values[3],
		Requirements: values[4],
	}, nil
}

// Locale is one language variant of the wizard.
type Locale struct {
	Code      string   `yaml:"code" json:"code"`
	Name      string   `yaml:"name" json:"name"`
	Questions []string `yaml:"questions" json:"questions"`
	Prompt    string   `yaml:"prompt" json:"-"`
	Signature string   `yaml:"signature" json:"-"`

	tmpl *template.Template
}

type promptData struct {
	Answers
	Signature string
}

// compile parses the prompt template and checks the locale shape.
func (l *Locale) compile() error {
	l.Code = strings.ToLower(strings.TrimSpace(l.Code))
	if l.Code == "" {
		return fmt.Errorf("locale code is required")
	}
	if len(l.Questions) != QuestionCount {
		return fmt.Errorf("locale %s: expected %d questions, got %d", l.Code, QuestionCount, len(l.Questions))
	}
	for i, q := range l.Questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("locale %s: question %d is empty", l.Code, i+1)
		}
	}

	tmpl, err := template.New("prompt_" + l.Code).Parse(l.Prompt)
	if err != nil {
		return fmt.Errorf("locale %s: parse prompt: %w", l.Code, err)
	}
	l.tmpl = tmpl

	// Catch references to unknown fields at load time instead of on the last turn.
	if _, err := l.Render(Answers{}); err != nil {
		return err
	}
	return nil
}

// Question returns the question at index i.
func (l *Locale) Question(i int) (string, bool) {
	if i < 0 || i >= len(l.Questions) {
		return "", false
	}
	return l.Questions[i], true
}

// Render fills the prompt template with the collected answers.
func (l *Locale) Render(a Answers) (string, error) {
	if l.tmpl == nil {
		return "", fmt.Errorf("locale %s: prompt template not compiled", l.Code)
	}

	var buf bytes.Buffer
	if err := l.tmpl.Execute(&buf, promptData{Answers: a, Signature: l.Signature}); err != nil {
		return "", fmt.Errorf("locale %s: render prompt: %w", l.Code, err)
	}
	return buf.String(), nil
}
