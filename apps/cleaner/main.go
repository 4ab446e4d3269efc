package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	attachmentcleaner "github.com/reclaimlabs/recoveryhub/internal/attachment/cleaner"
	"github.com/reclaimlabs/recoveryhub/internal/attachment/store"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	"github.com/reclaimlabs/recoveryhub/internal/observability"
	"github.com/reclaimlabs/recoveryhub/internal/ratelimit"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/fx"
)

// The cleaner can run as its own deployment. The redis lock keeps a
// replicated sweep from double-deleting.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,

		store.Module,
		fx.Provide(attachmentcleaner.New),

		fx.Invoke(runCleaner),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}

func runCleaner(lc fx.Lifecycle, cleaner *attachmentcleaner.Cleaner) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go cleaner.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
