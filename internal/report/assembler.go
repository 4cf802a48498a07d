// Package report builds the subject line and HTML body of a daily report
// email.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"dailyreport/internal/models"
)

// Weekday names, Sunday-first to line up with time.Weekday.
var weekdaysCN = [...]string{"日", "一", "二", "三", "四", "五", "六"}

const bodyTemplate = `<!DOCTYPE html>
<html>
<body>
    <div style="font-family: Arial, sans-serif; margin-bottom: 20px;">
        Hi teacher,<br>
        <div style="font-family: '微软雅黑'; color: black; font-size: 14pt;">
        {{.Content}}
        </div>
        --<br>
        Best Regards,<br><br>
    </div>
    <div style="font-family: 'Segoe UI';">
        <span style="color: black; font-weight: bold; font-size: 13pt;">{{.Name}}</span>
        <span style="color: blue; font-weight: bold; font-size: 11pt;"> / Intern</span><br>
        <span style="color: black; font-size: 10pt;">T: 400 856 0080  |  M: {{.Phone}}</span><br>
        <span style="color: black; font-weight: bold; font-size: 11pt; background-color: lightblue;"> Digital Transformation &amp; AIGC (Generative AI) Solutions</span>
    </div>
</body>
</html>
`

// Assembler renders subjects and bodies from user settings.
type Assembler struct {
	tmpl *template.Template
}

func NewAssembler() *Assembler {
	return &Assembler{
		tmpl: template.Must(template.New("report").Parse(bodyTemplate)),
	}
}

// Subject renders "<name> <YYYY-MM-DD> 星期X 日报".
func (a *Assembler) Subject(userName string, date time.Time) string {
	if userName == "" {
		userName = "学习报告"
	}
	return fmt.Sprintf("%s %s 星期%s 日报",
		userName,
		date.Format("2006-01-02"),
		weekdaysCN[date.Weekday()],
	)
}

// Body renders the HTML email. Content is inserted verbatim: the transform
// stage already emits an HTML-fragment-safe string with <br> markup, so no
// additional escaping is applied.
func (a *Assembler) Body(content, signatureName, signaturePhone string) (string, error) {
	var buf bytes.Buffer
	err := a.tmpl.Execute(&buf, struct {
		Content template.HTML
		Name    string
		Phone   string
	}{
		Content: template.HTML(content),
		Name:    signatureName,
		Phone:   signaturePhone,
	})
	if err != nil {
		return "", fmt.Errorf("render report body: %w", err)
	}
	return buf.String(), nil
}

// BodyFor is a convenience wrapper pulling the signature from settings.
func (a *Assembler) BodyFor(content string, s *models.UserSettings) (string, error) {
	return a.Body(content, s.SignatureName, s.SignaturePhone)
}
