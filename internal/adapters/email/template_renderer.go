package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"collabcalendar/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// templateFuncs are available to every template.
var templateFuncs = map[string]any{
	"date": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04 MST") },
}

// inviteTemplate is parsed once; the files are embedded, so a parse failure is a
// build defect and surfaces as a panic at init.
var inviteTemplate = mustParseEmailTemplate("invite")

// emailTemplate holds the three variants of one email: <name>_subject.txt,
// <name>.html and <name>.txt.
type emailTemplate struct {
	name    string
	subject *texttemplate.Template
	html    *template.Template
	text    *texttemplate.Template
}

func parseEmailTemplate(name string) (*emailTemplate, error) {
	read := func(file string) (string, error) {
		raw, err := templateFS.ReadFile("templates/" + file)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	subjectSrc, err := read(name + "_subject.txt")
	if err != nil {
		return nil, fmt.Errorf("load subject: %w", err)
	}
	htmlSrc, err := read(name + ".html")
	if err != nil {
		return nil, fmt.Errorf("load html: %w", err)
	}
	textSrc, err := read(name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("load text: %w", err)
	}

	t := &emailTemplate{name: name}
	if t.subject, err = texttemplate.New(name + "_subject").Funcs(templateFuncs).Parse(subjectSrc); err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	if t.html, err = template.New(name + ".html").Funcs(templateFuncs).Parse(htmlSrc); err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if t.text, err = texttemplate.New(name + ".txt").Funcs(templateFuncs).Parse(textSrc); err != nil {
		return nil, fmt.Errorf("parse text: %w", err)
	}
	return t, nil
}

func mustParseEmailTemplate(name string) *emailTemplate {
	t, err := parseEmailTemplate(name)
	if err != nil {
		panic(fmt.Sprintf("email template %q: %v", name, err))
	}
	return t
}

func (t *emailTemplate) execute(data any) (*domain.RenderedEmail, error) {
	var subject, html, text bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	return &domain.RenderedEmail{
		// Subjects are single-line headers.
		Subject: strings.Join(strings.Fields(subject.String()), " "),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

type templateRenderer struct {
	invite *emailTemplate
}

// NewTemplateRenderer returns an EmailTemplateRenderer backed by the embedded templates.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &templateRenderer{invite: inviteTemplate}
}

// RenderInvite renders the calendar invite. The recipient and both links are
// required; without them the email is useless to the invitee.
func (r *templateRenderer) RenderInvite(data *domain.InviteEmailData) (*domain.RenderedEmail, error) {
	if err := validateInviteData(data); err != nil {
		return nil, err
	}
	msg, err := r.invite.execute(data)
	if err != nil {
		return nil, fmt.Errorf("invite email: %w", err)
	}
	return msg, nil
}

func validateInviteData(data *domain.InviteEmailData) error {
	if data == nil {
		return errors.New("invite email: data is nil")
	}
	var missing []string
	if strings.TrimSpace(data.To) == "" {
		missing = append(missing, "recipient")
	}
	if data.AcceptURL == "" {
		missing = append(missing, "accept link")
	}
	if data.DeclineURL == "" {
		missing = append(missing, "decline link")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invite email: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
