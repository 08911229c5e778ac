package notify

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// LogNotifier records that a verification message was due without sending
// anything. Its deliveryRef is the verification link itself, which is what a
// developer needs to finish the flow by hand.
type LogNotifier struct {
	logger logging.Logger
	appURL string
}

func NewLogNotifier(logger logging.Logger, appURL string) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify"), appURL: appURL}
}

func (n *LogNotifier) SendVerification(ctx context.Context, email, rawToken, accountID string) (string, error) {
	n.logger.Info(ctx, "verification message not sent (log sink)", "account_id", accountID)
	return VerificationLink(n.appURL, rawToken, accountID), nil
}
