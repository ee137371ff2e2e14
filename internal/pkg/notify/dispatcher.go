package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"text/template"

	"github.com/aktp/portal/internal/pkg/env"
	"github.com/aktp/portal/internal/pkg/mail"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templateFS embed.FS

const layout = "layouts/email"

var ErrUnknownTemplate = errors.New("unknown notification template")

// subjects lists every template the dispatcher can send.
var subjects = map[string]string{
	"welcome":            "Welcome to {{.Site.Name}}",
	"event_registration": "Registration confirmed: {{.Data.EventTitle}}",
}

// Site is exposed to every template as .Site.
type Site struct {
	Name         string
	BaseURL      string
	SupportEmail string
}

// SiteFromEnv reads SITE_NAME, PUBLIC_DOMAIN and SUPPORT_EMAIL.
func SiteFromEnv() Site {
	return Site{
		Name:         env.GetEnv("SITE_NAME", "Ketamine Therapy Providers Association"),
		BaseURL:      strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080"), "/"),
		SupportEmail: env.GetEnv("SUPPORT_EMAIL", "support@localhost"),
	}
}

// Dispatcher renders templated emails and hands them to a mailer.
type Dispatcher struct {
	engine   *html.Engine
	subjects map[string]*template.Template
	mailer   mail.Mailer
	site     Site
}

func NewDispatcher(mailer mail.Mailer, site Site) (*Dispatcher, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}

	parsed := make(map[string]*template.Template, len(subjects))
	for name, text := range subjects {
		t, err := template.New(name).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse subject for %s: %w", name, err)
		}
		parsed[name] = t
	}

	return &Dispatcher{engine: engine, subjects: parsed, mailer: mailer, site: site}, nil
}

// Render returns the subject and HTML body for a template.
func (d *Dispatcher) Render(name string, data any) (string, string, error) {
	subjectTpl, ok := d.subjects[name]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	binding := fiber.Map{"Site": d.site, "Data": data}

	var subject bytes.Buffer
	if err := subjectTpl.Execute(&subject, binding); err != nil {
		return "", "", fmt.Errorf("render subject %s: %w", name, err)
	}
	var body bytes.Buffer
	if err := d.engine.Render(&body, name, binding, layout); err != nil {
		return "", "", fmt.Errorf("render body %s: %w", name, err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

// Send renders the template and delivers it to one recipient.
func (d *Dispatcher) Send(ctx context.Context, name, to string, data any) error {
	subject, body, err := d.Render(name, data)
	if err != nil {
		return err
	}
	if err := d.mailer.Send(ctx, mail.Message{To: to, Subject: subject, HTML: body}); err != nil {
		return fmt.Errorf("send %s email: %w", name, err)
	}
	log.Infof("[Notify] Sent %s email to %s", name, to)
	return nil
}
