package auth

import (
	"context"
	"errors"
	"fmt"
	"github.com/MatthiasKunnen/lockscreen/pkg/secret"
	"github.com/msteinert/pam/v2"
	"io"
	"log/slog"
	"strings"
)

// DefaultPAMService is the PAM service used when none is configured.
// It matches /etc/pam.d/system-auth.
const DefaultPAMService = "system-auth"

// PAM verifies credentials by running a PAM authentication transaction.
// Each call to Verify starts and ends its own transaction, so a PAM value may be shared.
type PAM struct {
	service string
	logger  *slog.Logger
}

// NewPAM returns a Verifier for the given PAM service, e.g. "system-auth" or "login".
// logger may be nil.
func NewPAM(service string, logger *slog.Logger) *PAM {
	if service == "" {
		service = DefaultPAMService
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PAM{service: service, logger: logger.With("pam_service", service)}
}

// Verify runs pam_authenticate followed by pam_setcred(PAM_REFRESH_CRED).
// The context is only checked before the transaction starts; PAM itself cannot be interrupted,
// see WithTimeout.
func (p *PAM) Verify(ctx context.Context, username string, password *secret.Buffer) error {
	defer password.Close()

	if err := ctx.Err(); err != nil {
		return Unavailable("verification canceled", err)
	}

	conv := &conversation{username: username, password: password}
	tx, err := pam.StartFunc(p.service, username, conv.respond)
	if err != nil {
		return Unavailable(
			fmt.Sprintf("could not start PAM service %q", p.service),
			fmt.Errorf("failed to start PAM transaction: %w", err),
		)
	}
	defer func() {
		_ = tx.End()
	}()

	if err := tx.Authenticate(pam.DisallowNullAuthtok); err != nil {
		return classifyPAMError(err, conv.lastMessage())
	}

	refreshCredentials(tx, username, p.logger)

	return nil
}

type credentialSetter interface {
	SetCred(flags pam.Flags) error
}

// refreshCredentials renews credentials such as Kerberos tickets. A failure does not invalidate
// a successful authentication, it is only logged.
func refreshCredentials(tx credentialSetter, username string, logger *slog.Logger) {
	if err := tx.SetCred(pam.RefreshCred); err != nil {
		logger.Warn("Failed to refresh credentials", "user", username, "error", err)
	}
}

type conversation struct {
	username string
	password *secret.Buffer
	messages []string
}

func (c *conversation) respond(style pam.Style, msg string) (string, error) {
	switch style {
	case pam.PromptEchoOff:
		// PAM copies the response into C memory, a Go string is unavoidable here.
		return string(c.password.Bytes()), nil
	case pam.PromptEchoOn:
		return c.username, nil
	case pam.ErrorMsg:
		c.messages = append(c.messages, strings.TrimSpace(msg))
		return "", nil
	case pam.TextInfo:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported PAM message style %d", style)
	}
}

func (c *conversation) lastMessage() string {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i] != "" {
			return c.messages[i]
		}
	}
	return ""
}

func classifyPAMError(err error, moduleMessage string) *Error {
	reason := moduleMessage

	var pamErr pam.Error
	if !errors.As(err, &pamErr) {
		if reason == "" {
			reason = err.Error()
		}
		return Unavailable(reason, err)
	}

	if reason == "" {
		reason = pamErr.Error()
	}

	switch pamErr {
	case pam.ErrAuth,
		pam.ErrUserUnknown,
		pam.ErrMaxtries,
		pam.ErrCredInsufficient,
		pam.ErrAcctExpired,
		pam.ErrNewAuthtokReqd,
		pam.ErrPermDenied:
		return InvalidCredential(reason, err)
	default:
		return Unavailable(reason, err)
	}
}
