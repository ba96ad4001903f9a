package formatting

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const identityTemplate = `
{{- if eq .Status "authenticated" -}}
Logged in to {{ .Server }}
  Name:   {{ .User.FullName | default "-" }}
  Email:  {{ .User.Email }}
  Role:   {{ .User.Role | default "user" | title }}
  ID:     {{ .User.ID | toString | default "-" }}
{{- else -}}
Not logged in to {{ .Server }}
{{- with .Error }}
  Reason: {{ . }}
{{- end }}
{{- end }}
`

const statsTemplate = `
{{- with .Stats -}}
Data points:           {{ .TotalDataPoints }}
Active subscriptions:  {{ .ActiveSubscriptions }}
Data quality:          {{ printf "%.1f" .DataQuality }}%
Trend:                 {{ if ge .Trend 0.0 }}+{{ end }}{{ printf "%.1f" .Trend }}%
{{- end }}
`

const profileTemplate = `
Name:          {{ .Name | default "-" }}
Email:         {{ .Email }}
Organization:  {{ .Organization | default "-" }}
`

const notificationsTemplate = `
Notifications: {{ list (ternary "email" "" .Email) (ternary "webhook" "" .Webhook) (ternary "failure alerts" "" .FailureAlerts) | compact | join ", " | default "none" }}
`

var (
	identityTmpl      = mustTemplate("identity", identityTemplate)
	statsTmpl         = mustTemplate("stats", statsTemplate)
	profileTmpl       = mustTemplate("profile", profileTemplate)
	notificationsTmpl = mustTemplate("notifications", notificationsTemplate)
)

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(sprig.TxtFuncMap()).Parse(strings.TrimSpace(text)))
}
