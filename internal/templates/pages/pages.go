// Package pages holds the server-rendered views: landing, the two auth
// forms, the collegian's day listing, and the error page. Components are
// built by hand on templ's Component contract so handlers render them the
// same way whatever their origin.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// LessonRow is one entry of the day listing view.
type LessonRow struct {
	ID               int64
	Name             string
	StartTime        string
	RemainingSeconds int64
	Remaining        string
	Accessible       bool
}

func layout(title string, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s - Collège en ligne</title>
</head>
<body>
<header><h1><a href="/">Collège en ligne</a></h1></header>
<main>
`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}

func writeError(w io.Writer, errorMsg string) error {
	if errorMsg == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, `<p class="error" role="alert">%s</p>`+"\n", templ.EscapeString(errorMsg))
	return err
}

// Landing renders the public home page.
func Landing() templ.Component {
	return layout("Accueil", func(w io.Writer) error {
		_, err := io.WriteString(w, `<p>Bienvenue sur le collège en ligne.</p>
<nav>
<a href="/connexion">Se connecter</a>
<a href="/inscription">S'inscrire</a>
</nav>
`)
		return err
	})
}

// Login renders the login form. errorMsg, when non-empty, is shown above
// the form.
func Login(csrfToken, errorMsg string) templ.Component {
	return layout("Connexion", func(w io.Writer) error {
		if err := writeError(w, errorMsg); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<h2>Connexion</h2>
<form method="post" action="/check-login">
<input type="hidden" name="csrf-token" value="%s">
<label>Email <input type="email" name="email" required></label>
<label>Mot de passe <input type="password" name="password" required></label>
<button type="submit">Se connecter</button>
</form>
<p><a href="/inscription">Pas encore de compte ? S'inscrire</a></p>
`, templ.EscapeString(csrfToken))
		return err
	})
}

// Register renders the registration form. The class and language selects
// are filled by the /api/classes and /api/languages endpoints; the fixed
// role list is rendered inline.
func Register(csrfToken, errorMsg string) templ.Component {
	return layout("Inscription", func(w io.Writer) error {
		if err := writeError(w, errorMsg); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<h2>Inscription</h2>
<form method="post" action="/check-register">
<input type="hidden" name="csrf-token" value="%s">
<label>Prénom <input type="text" name="firstName" required></label>
<label>Nom <input type="text" name="lastName" required></label>
<label>Email <input type="email" name="email" required></label>
<label>Mot de passe <input type="password" name="password" required></label>
<label>Confirmation du mot de passe <input type="password" name="confirmPassword" required></label>
<label>Rôle
<select name="idRole" required>
<option value="">Sélectionner le rôle</option>
<option value="1">Principal</option>
<option value="2">Professeur</option>
<option value="3">Professeur référent</option>
<option value="4">Collégien</option>
</select>
</label>
<label>Classe
<select name="idClass" data-source="/api/classes">
<option value="">Sélectionner la classe</option>
</select>
</label>
<label>Langue
<select name="idLanguage" data-source="/api/languages">
<option value="">Sélectionner une langue</option>
</select>
</label>
<button type="submit">S'inscrire</button>
</form>
`, templ.EscapeString(csrfToken))
		return err
	})
}

// Lessons renders the collegian's day listing. Locked rows carry their
// remaining seconds in a data attribute; the inline script ticks them down
// once per second and swaps in the access link when the countdown reaches
// zero.
func Lessons(weekDay string, rows []LessonRow) templ.Component {
	return layout("Cours du jour", func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h2>Cours du %s</h2>`+"\n", templ.EscapeString(weekDay)); err != nil {
			return err
		}
		if len(rows) == 0 {
			_, err := io.WriteString(w, `<p>Aucun cours aujourd'hui.</p>`+"\n")
			return err
		}

		if _, err := io.WriteString(w, "<table>\n<thead><tr><th>Cours</th><th>Début</th><th>Accès</th></tr></thead>\n<tbody>\n"); err != nil {
			return err
		}
		for _, row := range rows {
			var cell string
			if row.Accessible {
				cell = fmt.Sprintf(`<a href="/api/courses?lesson_id=%d">Accéder</a>`, row.ID)
			} else {
				cell = fmt.Sprintf(`<span class="countdown" data-lesson="%d" data-remaining="%d">%s</span>`,
					row.ID, row.RemainingSeconds, templ.EscapeString(row.Remaining))
			}
			if _, err := fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
				templ.EscapeString(row.Name), templ.EscapeString(row.StartTime), cell); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</tbody>\n</table>\n"); err != nil {
			return err
		}
		return writeCountdownScript(w)
	})
}

// ErrorPage renders a user-facing error.
func ErrorPage(message string) templ.Component {
	if message == "" {
		message = "Une erreur est survenue."
	}
	return layout("Erreur", func(w io.Writer) error {
		if err := writeError(w, message); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<p><a href="/">Retour à l'accueil</a></p>`+"\n")
		return err
	})
}

func writeCountdownScript(w io.Writer) error {
	_, err := io.WriteString(w, `<script>
(function () {
  var pad = function (n) { return String(n).padStart(2, "0"); };
  var tick = function () {
    document.querySelectorAll(".countdown").forEach(function (el) {
      var left = parseInt(el.dataset.remaining, 10) - 1;
      if (left <= 0) {
        var a = document.createElement("a");
        a.href = "/api/courses?lesson_id=" + el.dataset.lesson;
        a.textContent = "Accéder";
        el.replaceWith(a);
        return;
      }
      el.dataset.remaining = left;
      el.textContent = pad(Math.floor(left / 3600)) + " : " + pad(Math.floor((left % 3600) / 60)) + " : " + pad(left % 60);
    });
  };
  setInterval(tick, 1000);
})();
</script>
`)
	return err
}
