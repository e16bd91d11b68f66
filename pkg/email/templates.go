package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names understood by Render.
const (
	TemplateConfirmEmail   = "confirm_email"
	TemplateResetPassword  = "reset_password"
	TemplateOtp            = "otp"
	TemplateTwoFactor      = "two_factor"
	TemplateElevatedAccess = "elevated_access"
)

// TemplateData feeds every email template.
type TemplateData struct {
	AppName     string
	DisplayName string
	Token       string
	Link        string
}

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:24px;font-family:Arial,Helvetica,sans-serif;background:#f5f5f5;">
<div style="max-width:480px;margin:0 auto;background:#ffffff;border-radius:8px;padding:32px;">
<h2 style="margin-top:0;">{{.AppName}}</h2>
<p>Hi {{.DisplayName}},</p>
{{template "content" .}}
</div>
</body>
</html>{{end}}`

var bodies = map[string]string{
	TemplateConfirmEmail: `{{define "content"}}<p>Use the code below to confirm your email address.</p>
<p style="font-size:24px;letter-spacing:4px;"><b>{{.Token}}</b></p>
<p>Or open <a href="{{.Link}}">this link</a>.</p>{{end}}`,
	TemplateResetPassword: `{{define "content"}}<p>We received a request to reset your password.</p>
<p style="font-size:24px;letter-spacing:4px;"><b>{{.Token}}</b></p>
<p>Or open <a href="{{.Link}}">this link</a> to choose a new password. If you did not ask for this you can ignore this email.</p>{{end}}`,
	TemplateOtp: `{{define "content"}}<p>Your one-time sign-in code:</p>
<p style="font-size:24px;letter-spacing:4px;"><b>{{.Token}}</b></p>
<p>Or sign in directly with <a href="{{.Link}}">this link</a>.</p>{{end}}`,
	TemplateTwoFactor: `{{define "content"}}<p>Your two factor authentication code:</p>
<p style="font-size:24px;letter-spacing:4px;"><b>{{.Token}}</b></p>{{end}}`,
	TemplateElevatedAccess: `{{define "content"}}<p>Use this code to confirm a sensitive account change:</p>
<p style="font-size:24px;letter-spacing:4px;"><b>{{.Token}}</b></p>{{end}}`,
}

var templates = func() map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		t := template.Must(template.New(name).Parse(layout))
		parsed[name] = template.Must(t.Parse(body))
	}
	return parsed
}()

// Render executes the named template.
func Render(name string, data TemplateData) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
