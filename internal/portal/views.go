// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package portal

import (
	"html/template"
	"net/http"

	"github.com/sigepsi/portal/internal/auth"
	"github.com/sigepsi/portal/internal/platform/constants"
	"github.com/sigepsi/portal/internal/platform/ctxutil"
	requestutil "github.com/sigepsi/portal/internal/platform/request"
	"github.com/sigepsi/portal/internal/platform/respond"
	"github.com/sigepsi/portal/internal/platform/validate"
)

// Unstyled scaffolding pages. The evaluation front-end owns all real UI;
// these exist so the portal is navigable on its own.
const loginPage = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>SIGEPSI - Ingreso</title></head>
<body>
<h1>SIGEPSI</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/login">
  <label>Usuario <input type="text" name="username" autocomplete="username" required></label>
  <label>Contrase&ntilde;a <input type="password" name="password" autocomplete="current-password" required></label>
  <button type="submit">Ingresar</button>
</form>
</body>
</html>`

const landingPage = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>SIGEPSI - {{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>Sesi&oacute;n: {{.Username}}</p>
<ul>{{range .Roles}}<li>{{.}}</li>{{end}}</ul>
<nav><a href="/perfil">Perfil</a></nav>
<form method="post" action="/logout"><button type="submit">Salir</button></form>
</body>
</html>`

const perfilPage = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>SIGEPSI - Perfil</title></head>
<body>
<h1>Perfil</h1>
<p>Usuario: {{.Username}}</p>
{{if .Email}}<p>Correo: {{.Email}}</p>{{end}}
<ul>{{range .Roles}}<li>{{.}}</li>{{end}}</ul>
{{if .Profile}}<pre>{{.Profile}}</pre>{{end}}
{{if .Message}}<p role="status">{{.Message}}</p>{{end}}
<form method="post" action="/perfil/password">
  <label>Contrase&ntilde;a actual <input type="password" name="current_password" required></label>
  <label>Nueva contrase&ntilde;a <input type="password" name="new_password" required></label>
  <button type="submit">Cambiar</button>
</form>
</body>
</html>`

var (
	loginTemplate   = template.Must(template.New("login").Parse(loginPage))
	landingTemplate = template.Must(template.New("landing").Parse(landingPage))
	perfilTemplate  = template.Must(template.New("perfil").Parse(perfilPage))
)

// ViewHandler renders the portal's own pages and drives the session
// operations behind them.
type ViewHandler struct{}

// NewViewHandler creates the portal view handler.
func NewViewHandler() *ViewHandler {
	return &ViewHandler{}
}

// # Login

// getLogin handles GET /login. The guest gate keeps signed-in accounts away.
func (handler *ViewHandler) getLogin(writer http.ResponseWriter, request *http.Request) {
	handler.renderLogin(writer, "")
}

// postLogin handles POST /login.
func (handler *ViewHandler) postLogin(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		handler.renderLogin(writer, "Solicitud inválida")
		return
	}

	username := request.PostFormValue("username")
	password := request.PostFormValue("password")

	v := &validate.Validator{}
	v.Required("username", username)
	v.Required("password", password)
	if v.HasErrors() {
		handler.renderLogin(writer, "Usuario y contraseña son obligatorios")
		return
	}

	session := ctxutil.GetSession(request.Context())
	if _, err := session.Manager.Login(request.Context(), username, password); err != nil {
		ctxutil.GetLogger(request.Context()).Warn("login_rejected")
		handler.renderLogin(writer, "Credenciales inválidas o servicio no disponible")
		return
	}

	// Manager.Roles applies the observer fallback for accounts with no
	// provisioned roles, so the redirect never lands back on /login.
	http.Redirect(writer, request, auth.FallbackPath(session.Manager.Roles()), http.StatusSeeOther)
}

func (handler *ViewHandler) renderLogin(writer http.ResponseWriter, message string) {
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginTemplate.Execute(writer, map[string]string{"Error": message})
}

// # Landings

func (handler *ViewHandler) getHome(writer http.ResponseWriter, request *http.Request) {
	session := ctxutil.GetSession(request.Context())
	http.Redirect(writer, request, auth.FallbackPath(session.Manager.Roles()), http.StatusSeeOther)
}

func (handler *ViewHandler) getPsicologo(writer http.ResponseWriter, request *http.Request) {
	handler.renderLanding(writer, request, "Evaluaciones")
}

func (handler *ViewHandler) getAdmin(writer http.ResponseWriter, request *http.Request) {
	handler.renderLanding(writer, request, "Administración")
}

func (handler *ViewHandler) getReportes(writer http.ResponseWriter, request *http.Request) {
	handler.renderLanding(writer, request, "Reportes")
}

func (handler *ViewHandler) renderLanding(writer http.ResponseWriter, request *http.Request, title string) {
	user, err := requestutil.RequiredUser(request)
	if err != nil || user == nil {
		http.Redirect(writer, request, constants.PathLogin, http.StatusSeeOther)
		return
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = landingTemplate.Execute(writer, map[string]interface{}{
		"Title":    title,
		"Username": user.Username,
		"Roles":    user.Roles,
	})
}

// # Profile

// getPerfil handles GET /perfil, joining the identity snapshot with the
// backend's psychologist profile when one exists.
func (handler *ViewHandler) getPerfil(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		http.Redirect(writer, request, constants.PathLogin, http.StatusSeeOther)
		return
	}
	user := session.Manager.CurrentUser()
	if user == nil {
		http.Redirect(writer, request, constants.PathLogin, http.StatusSeeOther)
		return
	}

	// Best effort: the page renders without the joined profile.
	profile := ""
	if raw, err := session.Gateway.CurrentUserWithPsicologo(request.Context()); err == nil {
		profile = string(raw)
	}

	handler.renderPerfil(writer, user, profile, request.URL.Query().Get("msg"))
}

// postPerfilPassword handles POST /perfil/password.
func (handler *ViewHandler) postPerfilPassword(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		http.Redirect(writer, request, constants.PathLogin, http.StatusSeeOther)
		return
	}

	if err := request.ParseForm(); err != nil {
		http.Redirect(writer, request, constants.PathPerfil+"?msg=invalid", http.StatusSeeOther)
		return
	}

	currentPassword := request.PostFormValue("current_password")
	newPassword := request.PostFormValue("new_password")

	v := &validate.Validator{}
	v.Required("current_password", currentPassword)
	v.Required("new_password", newPassword)
	v.MinLen("new_password", newPassword, 8)
	if v.HasErrors() {
		http.Redirect(writer, request, constants.PathPerfil+"?msg=invalid", http.StatusSeeOther)
		return
	}

	if err := session.Manager.ChangeOwnPassword(request.Context(), currentPassword, newPassword); err != nil {
		http.Redirect(writer, request, constants.PathPerfil+"?msg=rejected", http.StatusSeeOther)
		return
	}
	http.Redirect(writer, request, constants.PathPerfil+"?msg=changed", http.StatusSeeOther)
}

func (handler *ViewHandler) renderPerfil(writer http.ResponseWriter, user *auth.User, profile, messageCode string) {
	messages := map[string]string{
		"changed":  "Contraseña actualizada",
		"rejected": "Contraseña actual incorrecta",
		"invalid":  "La nueva contraseña debe tener al menos 8 caracteres",
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = perfilTemplate.Execute(writer, map[string]interface{}{
		"Username": user.Username,
		"Email":    user.Email,
		"Roles":    user.Roles,
		"Profile":  profile,
		"Message":  messages[messageCode],
	})
}

// # Logout

// postLogout handles POST /logout. Always lands on the login page, whatever
// the backend said.
func (handler *ViewHandler) postLogout(writer http.ResponseWriter, request *http.Request) {
	session := ctxutil.GetSession(request.Context())
	if session != nil {
		session.Manager.Logout(request.Context())
	}
	http.Redirect(writer, request, constants.PathLogin, http.StatusSeeOther)
}

// jsonSession handles GET /api/session: the front-end scripts poll it for
// the current authentication state.
func (handler *ViewHandler) jsonSession(writer http.ResponseWriter, request *http.Request) {
	session := ctxutil.GetSession(request.Context())
	if session == nil || !session.Manager.IsAuthenticated() {
		respond.OK(writer, map[string]interface{}{"authenticated": false})
		return
	}

	respond.OK(writer, map[string]interface{}{
		"authenticated": true,
		"user":          session.Manager.CurrentUser(),
		"expires_at":    session.Manager.ExpiresAt().UnixMilli(),
	})
}
