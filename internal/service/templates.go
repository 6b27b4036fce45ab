package service

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"eventsite-api/internal/model"
)

// enquiryData 是邮件模板的数据。所有字段都来自用户输入，HTML 模板会自动转义。
type enquiryData struct {
	Name       string
	Email      string
	Company    string
	Phone      string
	Message    string
	ClientIP   string
	ReceivedAt string
}

const enquiryText = `New enquiry from {{.Name}}

Name: {{.Name}}
Email: {{.Email}}
{{if .Company}}Company: {{.Company}}
{{end}}{{if .Phone}}Phone: {{.Phone}}
{{end}}
Message:
{{.Message}}

Received: {{.ReceivedAt}} from {{.ClientIP}}
`

const enquiryHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<h2>New enquiry from {{.Name}}</h2>
<table cellpadding="4">
<tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
<tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
{{if .Company}}<tr><td><strong>Company</strong></td><td>{{.Company}}</td></tr>{{end}}
{{if .Phone}}<tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>{{end}}
</table>
<h3>Message</h3>
<p style="white-space: pre-wrap;">{{.Message}}</p>
<p style="color: #888; font-size: 12px;">Received {{.ReceivedAt}} from {{.ClientIP}}</p>
</body>
</html>
`

const autoreplyText = `Hi {{.Name}},

Thank you for contacting us. We have received your message and will get back to you within 24 hours.

For reference, here is what you sent:

{{.Message}}
`

const autoreplyHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<p>Hi {{.Name}},</p>
<p>Thank you for contacting us. We have received your message and will get back to you within 24 hours.</p>
<p>For reference, here is what you sent:</p>
<blockquote style="white-space: pre-wrap; border-left: 3px solid #ccc; padding-left: 12px;">{{.Message}}</blockquote>
</body>
</html>
`

var (
	enquiryTextTmpl   = texttemplate.Must(texttemplate.New("enquiry.txt").Parse(enquiryText))
	enquiryHTMLTmpl   = htmltemplate.Must(htmltemplate.New("enquiry.html").Parse(enquiryHTML))
	autoreplyTextTmpl = texttemplate.Must(texttemplate.New("autoreply.txt").Parse(autoreplyText))
	autoreplyHTMLTmpl = htmltemplate.Must(htmltemplate.New("autoreply.html").Parse(autoreplyHTML))
)

func newEnquiryData(sub model.ContactSubmission, meta model.RequestMeta, receivedAt time.Time) enquiryData {
	return enquiryData{
		Name:       sub.FullName(),
		Email:      sub.Email,
		Company:    sub.Company,
		Phone:      sub.Phone,
		Message:    sub.Message,
		ClientIP:   meta.ClientIP,
		ReceivedAt: receivedAt.UTC().Format(time.RFC1123),
	}
}

// renderEnquiry 渲染发给运营邮箱的通知邮件（纯文本 + HTML）。
func renderEnquiry(data enquiryData) (string, string, error) {
	return render(enquiryTextTmpl, enquiryHTMLTmpl, data)
}

// renderAutoreply 渲染发给提交者的自动回复。
func renderAutoreply(data enquiryData) (string, string, error) {
	return render(autoreplyTextTmpl, autoreplyHTMLTmpl, data)
}

func render(text *texttemplate.Template, html *htmltemplate.Template, data enquiryData) (string, string, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := text.Execute(&textBuf, data); err != nil {
		return "", "", err
	}
	if err := html.Execute(&htmlBuf, data); err != nil {
		return "", "", err
	}
	return textBuf.String(), htmlBuf.String(), nil
}

// headerSafe 去掉换行等控制字符，避免用户输入拼进邮件头。
func headerSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
