package api

import (
	"bytes"
	"html/template"
	"net/url"
)

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "verify"}}<p>Hello {{.Name}},</p>
<p>Please confirm your email address by opening the link below:</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>If you did not create an account you can ignore this message.</p>{{end}}

{{define "reset"}}<p>Hello {{.Name}},</p>
<p>A password reset was requested for your account. Open the link below to choose a new password:</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not request this you can ignore this message.</p>{{end}}

{{define "email_change"}}<p>Hello {{.Name}},</p>
<p>Open the link below to confirm this address as your new account email:</p>
<p><a href="{{.Link}}">Confirm new email</a></p>{{end}}
`))

type emailData struct {
	Name string
	Link string
}

func (h *Handler) link(path, tok string) string {
	return h.cfg.PublicBaseURL + path + "?" + url.Values{"token": {tok}}.Encode()
}

func renderEmail(name string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (h *Handler) composeVerification(to, username, tok string) (EmailMessage, error) {
	body, err := renderEmail("verify", emailData{Name: username, Link: h.link("/verify-email", tok)})
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{To: to, Subject: "Verify your email", HTML: body, Token: tok}, nil
}

func (h *Handler) composeReset(to, username, tok string) (EmailMessage, error) {
	body, err := renderEmail("reset", emailData{Name: username, Link: h.link("/reset-password", tok)})
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{To: to, Subject: "Reset your password", HTML: body, Token: tok}, nil
}

func (h *Handler) composeEmailChange(to, username, tok string) (EmailMessage, error) {
	body, err := renderEmail("email_change", emailData{Name: username, Link: h.link("/confirm-email-change", tok)})
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{To: to, Subject: "Confirm your new email", HTML: body, Token: tok}, nil
}
