// Package worker surfaces pending payment claims for operator review.
// On-chain lookups are not performed here; the worker keeps claims
// visible in the logs until staff verify or discard them.
package worker

import (
	"context"
	"time"

	paymentdomain "github.com/reclaimlabs/recoveryhub/internal/cryptopayment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config Config `optional:"true"`
}

type Worker struct {
	db  *gorm.DB
	log *zap.Logger
	cfg Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:  p.DB,
		log: p.Log.Named("cryptopayment.watch"),
		cfg: p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("payment watch run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	var rows []paymentdomain.Payment
	err := w.db.WithContext(ctx).
		Where("confirmation_status = ?", paymentdomain.ConfirmationPending).
		Order("created_at ASC").
		Limit(w.cfg.BatchSize).
		Find(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		w.log.Info("payment claim awaiting verification",
			zap.String("payment_id", row.ID.String()),
			zap.String("invoice_id", row.InvoiceID.String()),
			zap.String("tx_hash", row.TxHash),
			zap.Float64("amount", row.Amount),
			zap.String("currency", row.Currency),
			zap.Duration("age", time.Since(row.CreatedAt)),
		)
	}

	return nil
}
