package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<p>Your {{.Purpose}} code is <strong>{{.Code}}</strong>.</p>
<p>The code expires in {{.Minutes}} minutes. If you did not request it, ignore this email.</p>`))

var rejectionTmpl = template.Must(template.New("rejection").Parse(`<p>Your {{.Kind}} {{.Serial}} was rejected.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`))

var verificationPurpose = map[string]string{
	"onboarding":     "sign-up",
	"reset-password": "password reset",
}

var requestKinds = map[string]string{
	"carpass":       "car pass request",
	"idrequest":     "ID badge request",
	"accessrequest": "visitor access request",
}

func VerificationMessage(to, kind, code string, ttl time.Duration) (Message, error) {
	purpose, ok := verificationPurpose[kind]
	if !ok {
		purpose = "verification"
	}

	var body bytes.Buffer
	err := verificationTmpl.Execute(&body, map[string]any{
		"Purpose": purpose,
		"Code":    code,
		"Minutes": int(ttl.Round(time.Minute) / time.Minute),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}

	return Message{
		Subject:     "Your " + purpose + " code",
		Body:        body.String(),
		ContentType: ContentTypeHTML,
		Recipients:  []string{to},
	}, nil
}

func RejectionMessage(to, requestType, serialNumber, reason string) (Message, error) {
	kind, ok := requestKinds[requestType]
	if !ok {
		kind = "request"
	}

	var body bytes.Buffer
	err := rejectionTmpl.Execute(&body, map[string]any{
		"Kind":   kind,
		"Serial": serialNumber,
		"Reason": reason,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render rejection email: %w", err)
	}

	return Message{
		Subject:     fmt.Sprintf("%s rejected", serialNumber),
		Body:        body.String(),
		ContentType: ContentTypeHTML,
		Recipients:  []string{to},
	}, nil
}
