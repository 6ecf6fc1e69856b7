package auth

import (
	"net/http"

	"github.com/angembang/college-en-ligne/internal/apperror"
)

// Workflow failure constructors. Every branch of the registration and login
// workflows fails with exactly one of these; the messages are the strings
// shown to the user, so they are French. Constructors rather than vars so
// each failure gets a fresh value (handlers may attach internals).

func errInvalidRequest() *apperror.AppError {
	return apperror.New(http.StatusMethodNotAllowed, "invalid_request",
		"Le formulaire n'est pas soumis par la méthode POST")
}

func errMissingRegisterFields() *apperror.AppError {
	return apperror.New(http.StatusBadRequest, "missing_fields",
		"Veuillez remplir tous les champs")
}

func errMissingLoginFields() *apperror.AppError {
	return apperror.New(http.StatusBadRequest, "missing_fields",
		"Veuillez renseigner tous les champs")
}

func errInvalidCSRF() *apperror.AppError {
	return apperror.New(http.StatusForbidden, "invalid_csrf",
		"Jeton CSRF invalide")
}

func errPasswordMismatch() *apperror.AppError {
	return apperror.New(http.StatusUnprocessableEntity, "password_mismatch",
		"Les mots de passe ne correspondent pas")
}

func errWeakPassword() *apperror.AppError {
	return apperror.New(http.StatusUnprocessableEntity, "weak_password",
		"Le mot de passe doit contenir au moins 8 caractères, un chiffre, "+
			"une lettre en majuscule, une lettre en minuscule et un caractère spécial.")
}

func errRoleNotSelected() *apperror.AppError {
	return apperror.New(http.StatusUnprocessableEntity, "role_not_selected",
		"Veuillez sélectionner le rôle")
}

func errRoleNotFound() *apperror.AppError {
	return apperror.New(http.StatusUnprocessableEntity, "role_not_found",
		"Le rôle non trouvé")
}

func errAccountExists() *apperror.AppError {
	return apperror.New(http.StatusConflict, "account_exists",
		"L'utilisateur existe déjà")
}

func errClassNotSelected() *apperror.AppError {
	return apperror.New(http.StatusUnprocessableEntity, "class_not_selected",
		"Veuillez sélectionner la classe")
}

func errClassNotFound() *apperror.AppError {
	return apperror.New(http.StatusUnprocessableEntity, "class_not_found",
		"la classe sélectionnée n'existe pas")
}

func errLanguageNotSelected() *apperror.AppError {
	return apperror.New(http.StatusUnprocessableEntity, "language_not_selected",
		"Veuillez sélectionner une langue")
}

func errLanguageNotFound() *apperror.AppError {
	return apperror.New(http.StatusUnprocessableEntity, "language_not_found",
		"Langue non trouvée")
}

func errAccountNotFound() *apperror.AppError {
	return apperror.New(http.StatusUnauthorized, "account_not_found",
		"Pas de compte avec cet email")
}

func errInvalidPassword() *apperror.AppError {
	return apperror.New(http.StatusUnauthorized, "invalid_password",
		"Mot de passe incorrect")
}

func errRoleNotHandled() *apperror.AppError {
	return apperror.New(http.StatusInternalServerError, "role_not_handled",
		"Rôle non trouvé")
}

func errNotificationFailed(internal error) *apperror.AppError {
	e := apperror.New(http.StatusBadGateway, "notification_failed",
		"échec de l'envoi du mail")
	e.Internal = internal
	return e
}
