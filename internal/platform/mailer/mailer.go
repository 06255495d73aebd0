package mailer

import "fmt"

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendPasswordReset(toEmail, toName, resetURL string) error
}

func resetBody(name, resetURL string) (subject, text, html string) {
	subject = "Reset your GatePass password"
	text = fmt.Sprintf("Hi %s,\n\nReset your password here: %s\nThe link expires in one hour.", name, resetURL)
	html = fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Reset your password</a>. The link expires in one hour.</p>`, name, resetURL)
	return
}
