package mailer

import "fmt"

// WelcomeSubject is the subject line of the account creation notification.
const WelcomeSubject = "Bienvenue sur Collège en ligne"

// WelcomeBody builds the plain-text body of the mail sent to a freshly
// registered user. baseURL is the public root of the application.
func WelcomeBody(firstName, lastName, baseURL string) string {
	return fmt.Sprintf(`Bonjour %s %s,

Votre compte Collège en ligne a bien été créé.

Vous pouvez dès maintenant vous connecter avec votre adresse e-mail et le
mot de passe choisi lors de votre inscription :

    %s/connexion

À bientôt,
L'équipe Collège en ligne
`, firstName, lastName, baseURL)
}
