package templates

import (
	"fmt"
	"html"
	"strings"

	"github.com/forestapp/wildpark-api/models"
)

// RenderIncidentDigestEmail generates branded HTML for the daily poaching
// incident digest sent to park managers. Incident fields are HTML-escaped.
func RenderIncidentDigestEmail(dateLabel string, incidents []models.Incident) string {
	var rows strings.Builder
	for _, inc := range incidents {
		rows.WriteString(fmt.Sprintf(`
      <tr>
        <td style="padding: 8px 12px; border-bottom: 1px solid rgba(255,255,255,0.1);">%s</td>
        <td style="padding: 8px 12px; border-bottom: 1px solid rgba(255,255,255,0.1);">%s</td>
        <td style="padding: 8px 12px; border-bottom: 1px solid rgba(255,255,255,0.1);">%s</td>
        <td style="padding: 8px 12px; border-bottom: 1px solid rgba(255,255,255,0.1);">%s</td>
      </tr>`,
			html.EscapeString(inc.Details.Species),
			html.EscapeString(inc.Details.Location),
			html.EscapeString(inc.Details.Severity),
			html.EscapeString(inc.Details.ReporterName),
		))
	}

	summary := fmt.Sprintf("%d poaching incident(s) were reported on %s.", len(incidents), html.EscapeString(dateLabel))
	if len(incidents) == 0 {
		summary = fmt.Sprintf("No poaching incidents were reported on %s.", html.EscapeString(dateLabel))
	}

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Daily Incident Digest</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #0b0f0a; }
    .container { max-width: 600px; margin: 0 auto; background-color: #121f14; }
    .header { background: linear-gradient(135deg, #2d6a4f 0%%, #1b4332 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #e5e7eb; line-height: 1.6; font-size: 15px; }
    .content table { width: 100%%; border-collapse: collapse; margin-top: 20px; font-size: 14px; }
    .content th { text-align: left; padding: 8px 12px; color: #95d5b2; border-bottom: 2px solid #2d6a4f; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(255,255,255,0.1); }
    .footer a { color: #74c69d; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Daily Incident Digest</h1>
    </div>
    <div class="content">
      <p>%s</p>
      <table>
        <tr><th>Species</th><th>Location</th><th>Severity</th><th>Reported By</th></tr>%s
      </table>
    </div>
    <div class="footer">
      <p>&copy; WildPark | <a href="https://www.wildpark-app.com">wildpark-app.com</a></p>
      <p><a href="https://www.wildpark-app.com/contact-us">Contact Support</a></p>
    </div>
  </div>
</body>
</html>`, summary, rows.String())
}
