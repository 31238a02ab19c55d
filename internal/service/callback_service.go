package service

import (
	"context"

	"pesabridge/internal/repository"
	"pesabridge/pkg/mpesa"

	"go.uber.org/zap"
)

// CallbackService parses Daraja payment notifications and dispatches the
// outcome. Processing is idempotent by (MerchantRequestID, CheckoutRequestID):
// the provider redelivers aggressively, so duplicates are dropped here.
// Errors never escape to the HTTP boundary; the webhook acks regardless.
type CallbackService struct {
	dedup repository.DedupStore
	log   *zap.SugaredLogger
}

func NewCallbackService(dedup repository.DedupStore, log *zap.SugaredLogger) *CallbackService {
	return &CallbackService{dedup: dedup, log: log}
}

// Process handles one raw callback body end to end.
func (s *CallbackService) Process(ctx context.Context, body []byte) {
	outcome, err := mpesa.ParseCallback(body)
	if err != nil {
		s.log.Warnw("callback parse failed", "error", err, "body", string(body))
		return
	}
	if outcome == nil {
		s.log.Infow("callback without stkCallback payload, ignoring")
		return
	}

	first, err := s.dedup.MarkProcessed(ctx, outcome.Key())
	if err != nil {
		// Dedup store trouble must not drop a real payment notification.
		s.log.Errorw("callback dedup check failed", "error", err, "key", outcome.Key())
	} else if !first {
		s.log.Infow("duplicate callback delivery, skipping", "key", outcome.Key())
		return
	}

	if outcome.Succeeded {
		// Hand-off point for a persistence collaborator; for now the outcome
		// is logged in full.
		s.log.Infow("payment completed",
			"merchant_request_id", outcome.MerchantRequestID,
			"checkout_request_id", outcome.CheckoutRequestID,
			"receipt", outcome.ReceiptNumber,
			"amount", outcome.Amount,
			"phone", mpesa.MaskPhone(outcome.PhoneNumber),
			"transaction_date", outcome.TransactionDate,
		)
		return
	}
	s.log.Infow("payment failed",
		"merchant_request_id", outcome.MerchantRequestID,
		"checkout_request_id", outcome.CheckoutRequestID,
		"result_code", outcome.ResultCode,
		"result_desc", outcome.ResultDesc,
	)
}
