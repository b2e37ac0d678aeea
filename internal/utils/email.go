package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"github.com/himanshidesai31/kickera/internal/models"
)

func SendConfirmationEmail(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@kickera.in"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande,
// réutilisé tel quel comme reçu archivé
func GenerateOrderConfirmationHTML(order *models.Order, storeName string) string {
	statusLine := "Votre paiement a bien été reçu."
	if order.PaymentStatus != models.PaymentPaid {
		statusLine = "Votre paiement n'a pas abouti. Aucun montant ne sera débité."
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande</h2>
		<p>Bonjour,</p>
		<p>%s</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">Commande</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
			</tr>
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">Référence passerelle</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
			</tr>
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">Montant</td>
				<td style="padding: 10px; border: 1px solid #ddd; font-weight: bold;">₹%.2f</td>
			</tr>
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">Statut du paiement</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
			</tr>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe %s</strong>
		</p>
	</div>
</body>
</html>`, statusLine, order.ID.String(), order.GatewayOrderID, order.Amount, order.PaymentStatus, storeName)
}
