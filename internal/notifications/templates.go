package notifications

import (
	"bytes"
	"html/template"

	"barber-booking/internal/models"
)

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Shop}}</h2>
  {{template "content" .}}
  <p style="color: #888; font-size: 12px;">This message was sent automatically, please do not reply.</p>
</body>
</html>{{end}}`

const verificationTemplate = `{{define "content"}}
  <p>Hello {{.Name}},</p>
  <p>Your verification code is:</p>
  <p style="font-size: 28px; letter-spacing: 6px;"><strong>{{.Code}}</strong></p>
  <p>Enter it on the booking page to send your request to the shop. Booking reference: {{.Ref}}.</p>
  <p>If you did not request an appointment you can ignore this email.</p>
{{end}}`

const confirmationTemplate = `{{define "content"}}
  <p>Hello {{.Name}},</p>
  <p>Your appointment is confirmed:</p>
  <ul>
    <li>Service: {{.Service}}</li>
    <li>Date: {{.Date}}</li>
    <li>Time: {{.Time}}</li>
    <li>Duration: {{.Duration}} minutes</li>
    <li>Price: {{.Price}}</li>
    <li>Reference: {{.Ref}}</li>
  </ul>
  <p>See you soon.</p>
{{end}}`

const rejectionTemplate = `{{define "content"}}
  <p>Hello {{.Name}},</p>
  <p>Unfortunately we cannot take your appointment request for {{.Service}} on {{.Date}} at {{.Time}}.</p>
  {{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
  <p>You are welcome to pick another slot on our booking page.</p>
{{end}}`

const blockedTemplate = `{{define "content"}}
  <p>Hello {{.Name}},</p>
  <p>Online booking has been disabled for your account.</p>
  {{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
  <p>Please contact the shop directly if you think this is a mistake.</p>
{{end}}`

var (
	verificationTmpl = mustTemplate("verification", verificationTemplate)
	confirmationTmpl = mustTemplate("confirmation", confirmationTemplate)
	rejectionTmpl    = mustTemplate("rejection", rejectionTemplate)
	blockedTmpl      = mustTemplate("blocked", blockedTemplate)
)

func mustTemplate(name, content string) *template.Template {
	t := template.Must(template.New(name).Parse(layoutTemplate))
	return template.Must(t.Parse(content))
}

type emailData struct {
	Shop     string
	Name     string
	Code     string
	Ref      string
	Service  string
	Date     string
	Time     string
	Duration int
	Price    int
	Reason   string
}

func bookingData(shop string, b models.Booking) emailData {
	return emailData{
		Shop:     shop,
		Name:     b.Client.Name,
		Ref:      b.ID,
		Service:  b.ServiceName,
		Date:     b.Date,
		Time:     b.Time,
		Duration: b.Duration,
		Price:    b.Price,
	}
}

func render(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderVerification(shop string, to models.ClientSnapshot, code, ref string) (string, error) {
	return render(verificationTmpl, emailData{Shop: shop, Name: to.Name, Code: code, Ref: ref})
}

func renderConfirmation(shop string, b models.Booking) (string, error) {
	return render(confirmationTmpl, bookingData(shop, b))
}

func renderRejection(shop string, b models.Booking, reason string) (string, error) {
	data := bookingData(shop, b)
	data.Reason = reason
	return render(rejectionTmpl, data)
}

func renderBlockedNotice(shop string, to models.ClientSnapshot, reason string) (string, error) {
	return render(blockedTmpl, emailData{Shop: shop, Name: to.Name, Reason: reason})
}
