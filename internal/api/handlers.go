package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/basic-chat/internal/server"
)

const maxUsernameBody = 1024

type loginPageData struct {
	Username string
	Message  string
}

type chatPageData struct {
	Username string
}

type CheckUsernameResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func (s *GoChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorw("json encode", "error", err)
	}
}

// renderPage buffers the page so a template failure can still produce the
// error page.
func (s *GoChatApp) renderPage(w http.ResponseWriter, statusCode int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.Render(&buf, name, data); err != nil {
		s.log.Errorw("render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	buf.WriteTo(w)
}

func (s *GoChatApp) renderError(w http.ResponseWriter, apiErr *ApiError) {
	if apiErr.Err != nil {
		s.log.Errorw("request failed", "status", apiErr.StatusCode, "error", apiErr.Err)
	}
	s.renderPage(w, apiErr.StatusCode, "error.html.tmpl", apiErr)
}

func (s *GoChatApp) loginPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "login.html.tmpl", loginPageData{})
}

func (s *GoChatApp) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
}

// enterChat checks the submitted username and renders the chat page. The
// name is only claimed once the page opens its websocket.
func (s *GoChatApp) enterChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, NewBadRequestError())
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	status, err := s.cs.CheckUsername(r.Context(), username)
	if err != nil {
		s.renderError(w, NewInternalServerError(err))
		return
	}

	if !status.Valid() {
		s.renderPage(w, http.StatusBadRequest, "login.html.tmpl", loginPageData{
			Username: username,
			Message:  status.Message(),
		})
		return
	}

	s.renderPage(w, http.StatusOK, "chat.html.tmpl", chatPageData{Username: username})
}

// checkUsername takes the candidate from the query string on GET and from
// the form field or the raw body on POST.
func (s *GoChatApp) checkUsername(w http.ResponseWriter, r *http.Request) {
	var username string
	switch r.Method {
	case http.MethodGet:
		username = r.URL.Query().Get("username")
	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxUsernameBody)
		if err := r.ParseForm(); err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if r.PostForm.Has("username") {
			username = r.PostForm.Get("username")
		} else {
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				errResp := NewBadRequestError()
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
			username = string(raw)
		}
	}

	status, err := s.cs.CheckUsername(r.Context(), username)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.log.Errorw("check username", "error", err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := CheckUsernameResponse{Valid: status.Valid()}
	if !resp.Valid {
		resp.Message = status.Message()
	}
	s.writeJson(w, http.StatusOK, resp)
}

func (s *GoChatApp) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		errResp := NewServiceUnavailableError(err)
		s.log.Warnw("health check failed", "error", err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *GoChatApp) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, NewNotFoundError())
}

func (s *GoChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("error upgrading connection", "error", err)
		return
	}

	client, err := server.NewClient(conn, s.cs, s.log)
	if err != nil {
		s.log.Errorw("failed to create client", "error", err)
		conn.Close()
		return
	}

	if err := s.cs.Register(client); err != nil {
		s.log.Warnw("rejecting connection", "error", err)
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}
