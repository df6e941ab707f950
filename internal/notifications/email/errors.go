// Package email renders and sends the pipeline's confirmation and rejection
// emails. Rendering is client-side (embedded html/template and text/template
// files); delivery goes through a Provider, in production AWS SES v2 behind a
// circuit breaker.
package email

import (
	"errors"

	"photoalbum/internal/types"
)

// ErrRecipientBlocked indicates the email provider has the recipient on a
// suppression list or has blocked delivery. Resending will not help.
var ErrRecipientBlocked = errors.New("recipient blocked by provider")

// IsBlocklistError checks both the sentinel ErrRecipientBlocked and the
// AppError code ErrCodeEmailBlocked returned by SESProvider.
func IsBlocklistError(err error) bool {
	if errors.Is(err, ErrRecipientBlocked) {
		return true
	}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Code == types.ErrCodeEmailBlocked
	}
	return false
}
