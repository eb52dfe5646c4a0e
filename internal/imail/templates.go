package imail

import (
	"fmt"
	"html/template"
	"strings"
)

// TemplateWelcome and friends are the built-in transactional templates
const (
	TemplateWelcome    = "welcome"
	TemplateApproved   = "approved"
	TemplateRejected   = "rejected"
	TemplateLoginAlert = "login_alert"
	TemplateContact    = "contact"
)

type builtinTemplate struct {
	subject string
	body    *template.Template
}

var builtinTemplates = map[string]builtinTemplate{
	TemplateWelcome: {
		subject: "Welcome to the Jasper client portal",
		body: template.Must(template.New(TemplateWelcome).Parse(`
<h2>Welcome{{if .name}}, {{.name}}{{end}}</h2>
<p>Your portal account has been created and is awaiting review. We will email
you as soon as an administrator has approved your access.</p>
<p>The Jasper Financial Modelling team</p>`)),
	},
	TemplateApproved: {
		subject: "Your portal access has been approved",
		body: template.Must(template.New(TemplateApproved).Parse(`
<h2>You're in{{if .name}}, {{.name}}{{end}}</h2>
<p>An administrator has approved your account. You can now sign in to the
client portal{{if .portal_url}} at <a href="{{.portal_url}}">{{.portal_url}}</a>{{end}}.</p>`)),
	},
	TemplateRejected: {
		subject: "Update on your portal access request",
		body: template.Must(template.New(TemplateRejected).Parse(`
<h2>Access request update</h2>
<p>We were unable to approve your portal access request at this time.
{{if .reason}}Reason given: {{.reason}}.{{end}}</p>
<p>If you believe this is a mistake, reply to this email.</p>`)),
	},
	TemplateLoginAlert: {
		subject: "New sign-in to your account",
		body: template.Must(template.New(TemplateLoginAlert).Parse(`
<h2>New sign-in</h2>
<p>Your account was used to sign in{{if .provider}} via {{.provider}}{{end}}{{if .time}} at {{.time}}{{end}}.</p>
<p>If this was not you, contact us immediately.</p>`)),
	},
	TemplateContact: {
		subject: "New contact form submission",
		body: template.Must(template.New(TemplateContact).Parse(`
<h2>Contact form submission</h2>
{{if .name}}<p><strong>Name:</strong> {{.name}}</p>{{end}}
{{if .email}}<p><strong>Email:</strong> {{.email}}</p>{{end}}
{{if .message}}<p>{{.message}}</p>{{end}}`)),
	},
}

// RenderTemplate renders a built-in template with the given data map. The
// returned subject is the template default; callers may override it.
func RenderTemplate(name string, data map[string]any) (subject, html string, err error) {
	tpl, ok := builtinTemplates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}

	var buf strings.Builder
	if err := tpl.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render template %q: %w", name, err)
	}

	return tpl.subject, strings.TrimSpace(buf.String()), nil
}

// TemplateExists reports whether name is a built-in template
func TemplateExists(name string) bool {
	_, ok := builtinTemplates[name]
	return ok
}
