package notification

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/hitoshi/sportsreg/internal/model"
)

// joinConfirmationTemplate は参加確認メールのHTML本文テンプレート。
var joinConfirmationTemplate = template.Must(template.New("join_confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Welcome to {{.ProgramName}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #4f46e5; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0; font-size: 28px;">Welcome to {{.FromName}}!</h1>
    <p style="margin: 10px 0 0 0; font-size: 16px;">Your fitness journey starts here</p>
  </div>
  <div style="background: #f8fafc; padding: 30px; border-radius: 0 0 10px 10px;">
    <h2 style="color: #1e293b; margin-top: 0;">Dear {{.FirstName}} {{.LastName}},</h2>
    <p style="font-size: 16px;">
      Congratulations on successfully joining <strong>{{.ProgramName}}</strong>!
      We're thrilled to have you as part of our community.
    </p>
    <div style="background: white; padding: 25px; border-radius: 8px; margin: 25px 0;">
      <h3 style="color: #1e293b; margin-top: 0;">Program Details</h3>
      <p><strong>Name:</strong> {{.ProgramName}}</p>
      {{- if .Description}}
      <p><strong>Description:</strong> {{.Description}}</p>
      {{- end}}
      {{- if .Schedule}}
      <p><strong>Schedule:</strong> {{.Schedule}}</p>
      {{- end}}
      {{- if .Location}}
      <p><strong>Location:</strong> {{.Location}}</p>
      {{- end}}
    </div>
    <p style="font-size: 16px; text-align: center;">We look forward to spending wonderful time with you!</p>
    <p style="color: #64748b; font-size: 14px; text-align: center;">
      Best regards,<br><strong>{{.FromName}} Team</strong>
    </p>
  </div>
</body>
</html>`))

// joinConfirmationData はテンプレートへ渡す値。
type joinConfirmationData struct {
	FromName    string
	FirstName   string
	LastName    string
	ProgramName string
	Description string
	Schedule    string
	Location    string
}

// BuildJoinConfirmation は参加確認メールを組み立てる。
func BuildJoinConfirmation(user *model.User, program *model.Program, fromName string) (EmailRequest, error) {
	var body strings.Builder
	data := joinConfirmationData{
		FromName:    fromName,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		ProgramName: program.Name,
		Description: program.Description,
		Schedule:    program.Schedule,
		Location:    program.Location,
	}
	if err := joinConfirmationTemplate.Execute(&body, data); err != nil {
		return EmailRequest{}, fmt.Errorf("メール本文の生成に失敗しました: %w", err)
	}

	return EmailRequest{
		To:      user.Email,
		Subject: fmt.Sprintf("Welcome to %s - %s", program.Name, fromName),
		Message: body.String(),
	}, nil
}
