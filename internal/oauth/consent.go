// ABOUTME: Consent view rendering for the authorization endpoint
// ABOUTME: Scope descriptions are authored in markdown and rendered via goldmark

package oauth

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
)

// scopeDescriptions maps known scopes to markdown descriptions shown on the
// consent page. Unknown scopes fall back to the raw scope string.
var scopeDescriptions = map[string]string{
	"content:read":  "Read your posts and pages, including **drafts**.",
	"content:write": "Create, edit, and delete posts and pages on your behalf.",
	"media:write":   "Upload files to your media library.",
	"tools":         "Invoke gateway tools, limited to the scopes above.",
}

var consentTemplate = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Authorize {{.ClientName}}</title>
</head>
<body>
  <h1>Authorize access</h1>
  <p><strong>{{.ClientName}}</strong> is requesting access to your account.</p>
  {{if .Scopes}}
  <p>It will be able to:</p>
  <ul>
    {{range .Scopes}}<li>{{.}}</li>
    {{end}}
  </ul>
  {{else}}
  <p>No specific permissions were requested.</p>
  {{end}}
  <form method="post" action="/oauth/authorize">
    <input type="hidden" name="client_id" value="{{.ClientID}}">
    <input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
    <input type="hidden" name="response_type" value="code">
    <input type="hidden" name="code_challenge" value="{{.CodeChallenge}}">
    <input type="hidden" name="code_challenge_method" value="{{.ChallengeMethod}}">
    <input type="hidden" name="scope" value="{{.Scope}}">
    <input type="hidden" name="state" value="{{.State}}">
    <button type="submit" name="action" value="approve">Approve</button>
    <button type="submit" name="action" value="deny">Deny</button>
  </form>
</body>
</html>
`))

// consentView is the data passed to the consent template.
type consentView struct {
	ClientName      string
	ClientID        string
	RedirectURI     string
	CodeChallenge   string
	ChallengeMethod string
	Scope           string
	State           string
	Scopes          []template.HTML
}

// renderConsent renders the consent page naming the client and the
// permissions being requested.
func (s *Server) renderConsent(w http.ResponseWriter, req *authorizeRequest) {
	view := consentView{
		ClientName:      req.Client.Name,
		ClientID:        req.Client.ID,
		RedirectURI:     req.RedirectURI.String(),
		CodeChallenge:   req.CodeChallenge,
		ChallengeMethod: req.ChallengeMethod,
		Scope:           req.Scope,
		State:           req.State,
		Scopes:          renderScopes(req.Scope),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := consentTemplate.Execute(w, view); err != nil {
		s.logger.Warn("rendering consent page", "error", err)
	}
}

// renderScopes converts each requested scope's markdown description to HTML.
func renderScopes(scope string) []template.HTML {
	var rendered []template.HTML
	for _, name := range strings.Fields(scope) {
		desc, ok := scopeDescriptions[name]
		if !ok {
			desc = "`" + name + "`"
		}
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(desc), &buf); err != nil {
			rendered = append(rendered, template.HTML(template.HTMLEscapeString(name)))
			continue
		}
		rendered = append(rendered, template.HTML(buf.String()))
	}
	return rendered
}
