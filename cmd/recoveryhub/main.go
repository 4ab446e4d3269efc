package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimlabs/recoveryhub/internal/attachment"
	attachmentcleaner "github.com/reclaimlabs/recoveryhub/internal/attachment/cleaner"
	"github.com/reclaimlabs/recoveryhub/internal/audit"
	"github.com/reclaimlabs/recoveryhub/internal/auth"
	"github.com/reclaimlabs/recoveryhub/internal/auth/session"
	"github.com/reclaimlabs/recoveryhub/internal/authorization"
	"github.com/reclaimlabs/recoveryhub/internal/cases"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	"github.com/reclaimlabs/recoveryhub/internal/cryptopayment"
	cryptoworker "github.com/reclaimlabs/recoveryhub/internal/cryptopayment/worker"
	"github.com/reclaimlabs/recoveryhub/internal/currency"
	"github.com/reclaimlabs/recoveryhub/internal/invoice"
	"github.com/reclaimlabs/recoveryhub/internal/migration"
	"github.com/reclaimlabs/recoveryhub/internal/observability"
	"github.com/reclaimlabs/recoveryhub/internal/paymentconfig"
	"github.com/reclaimlabs/recoveryhub/internal/providers"
	"github.com/reclaimlabs/recoveryhub/internal/ratelimit"
	"github.com/reclaimlabs/recoveryhub/internal/role"
	"github.com/reclaimlabs/recoveryhub/internal/server"
	"github.com/reclaimlabs/recoveryhub/internal/wallet"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,

		// Functional domains
		audit.Module,
		auth.Module,
		session.Module,
		role.Module,
		authorization.Module,
		cases.Module,
		currency.Module,
		invoice.Module,
		paymentconfig.Module,
		cryptopayment.Module,
		attachment.Module,
		wallet.Module,
		providers.Module,

		migration.Module,
		server.Module,

		fx.Invoke(runWorkers),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// runWorkers ties the background loops to the fx lifecycle so they
// stop with the HTTP server.
func runWorkers(lc fx.Lifecycle, worker *cryptoworker.Worker, cleaner *attachmentcleaner.Cleaner) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			go cleaner.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
