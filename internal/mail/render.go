package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/JakeFAU/questify/internal/question"
)

var bodyTemplate = template.Must(template.New("question").Parse(
	`<h1>{{.Platform}} Question</h1>
<p><strong>{{.Title}}</strong></p>
<p>Difficulty: {{.Difficulty}}</p>
<p><a href="{{.URL}}" target="_blank">Solve this problem</a></p>
`))

// RenderQuestion renders the HTML body for q.
func RenderQuestion(q question.Question) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, q); err != nil {
		return "", fmt.Errorf("render question body: %w", err)
	}
	return buf.String(), nil
}

// BroadcastSubject is the subject line of the daily broadcast.
func BroadcastSubject(p question.Platform) string {
	return fmt.Sprintf("Your Daily %s Coding Challenge", p)
}

// WelcomeSubject is the subject line of the subscription welcome mail.
func WelcomeSubject(p question.Platform) string {
	return fmt.Sprintf("Welcome!  %s Question", p)
}
