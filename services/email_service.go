// File: /services/email_service.go
package services

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"tripweaver-api/config"
)

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
	log    *zap.SugaredLogger
}

func NewEmailService(cfg *config.Config, log *zap.SugaredLogger) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &EmailService{
		config: cfg,
		dialer: dialer,
		log:    log,
	}
}

// SendWelcomeEmail greets a freshly registered user.
func (es *EmailService) SendWelcomeEmail(email, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to TripWeaver")

	textBody := fmt.Sprintf(`
Hello %s!

Welcome to TripWeaver. Create a trip, add your stops, and the itinerary
takes care of the dates and distances for you.

Happy travels!
The TripWeaver Team
`, name)

	htmlBody := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Hello %s!</h2>
    <p>Welcome to <strong>TripWeaver</strong>. Create a trip, add your stops,
    and the itinerary takes care of the dates and distances for you.</p>
    <p>Happy travels!<br><strong>The TripWeaver Team</strong></p>
</body>
</html>`, name)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	es.log.Infow("welcome email sent", "email", email)
	return nil
}

// SendTripInvitation mails a share link for a trip to a fellow traveller.
func (es *EmailService) SendTripInvitation(email, inviterName, tripTitle, tripURL string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("%s invited you to the trip \"%s\"", inviterName, tripTitle))

	textBody := fmt.Sprintf(`
Hello!

%s wants to plan the trip "%s" together with you on TripWeaver.

Open the itinerary here: %s

The TripWeaver Team
`, inviterName, tripTitle, tripURL)

	htmlBody := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Hello!</h2>
    <p><strong>%s</strong> wants to plan the trip <strong>%q</strong> together
    with you on TripWeaver.</p>
    <p><a href="%s">Open the itinerary</a></p>
    <p><strong>The TripWeaver Team</strong></p>
</body>
</html>`, inviterName, tripTitle, tripURL)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send trip invitation: %w", err)
	}

	es.log.Infow("trip invitation sent", "email", email, "trip", tripTitle)
	return nil
}
