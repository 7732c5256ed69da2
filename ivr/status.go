package ivr

import "html/template"

var statusPage = template.Must(template.New("status").Parse(`<html dir="rtl">
  <head>
    <title>עוזר קולי AI - {{.Organization}}</title>
    <style>
      body { font-family: Arial; max-width: 600px; margin: 50px auto; padding: 20px; }
      h1 { color: #333; }
      .status { background: #e8f5e9; padding: 15px; border-radius: 8px; }
      code { background: #f5f5f5; padding: 2px 6px; border-radius: 4px; }
    </style>
  </head>
  <body>
    <h1>🤖 עוזר קולי AI</h1>
    <div class="status">
      <p>✅ השרת פעיל</p>
      <p>🏢 ארגון: <strong>{{.Organization}}</strong></p>
      <p>📞 טלפון ימות: <code>{{.PlatformPhone}}</code></p>
      <p>🤖 מודל: <code>{{.Provider}}</code></p>
      <p>💬 שיחות פעילות: <strong>{{.Active}}</strong></p>
    </div>
  </body>
</html>
`))

type statusData struct {
	Organization  string
	PlatformPhone string
	Provider      string
	Active        int
}
