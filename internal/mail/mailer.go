package mail

import "context"

// AccountCredentials is the template payload for the account-creation
// mail: the address the account was registered with and the generated
// one-time password.
type AccountCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Mailer interface {
	SendAccountCredentials(ctx context.Context, subject, content, to string, data AccountCredentials) error
}
