package workers

import (
	"bytes"
	"fmt"
	"html/template"

	"earn-service/models"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

// emailData is what every template renders from.
type emailData struct {
	Name         string
	ListingTitle string
	ListingURL   string
}

var emailTemplates = map[models.EmailKind]emailTemplate{
	models.EmailWinnersAnnounced: {
		subject: "Winners announced for %s",
		body: template.Must(template.New("announcement").Parse(
			`<p>Hi {{.Name}},</p>
<p>The winners of <a href="{{.ListingURL}}">{{.ListingTitle}}</a> have been announced. Thank you for taking part!</p>`)),
	},
	models.EmailPaidByPlatform: {
		subject: "You won %s 🎉",
		body: template.Must(template.New("fndnPaying").Parse(
			`<p>Congratulations {{.Name}}!</p>
<p>You are a winner of <a href="{{.ListingURL}}">{{.ListingTitle}}</a>. Your reward will be paid out by our team to your verified wallet.</p>`)),
	},
	models.EmailPaidBySponsor: {
		subject: "You won %s 🎉",
		body: template.Must(template.New("sponsorPaying").Parse(
			`<p>Congratulations {{.Name}}!</p>
<p>You are a winner of <a href="{{.ListingURL}}">{{.ListingTitle}}</a>. The sponsor will reach out to arrange your payment.</p>`)),
	},
}

func renderEmail(kind models.EmailKind, to string, data emailData) (Email, error) {
	tmpl, ok := emailTemplates[kind]
	if !ok {
		return Email{}, fmt.Errorf("no template for e-mail kind %q", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Email{
		To:      to,
		Subject: fmt.Sprintf(tmpl.subject, data.ListingTitle),
		HTML:    buf.String(),
	}, nil
}
