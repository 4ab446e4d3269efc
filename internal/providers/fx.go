package providers

import (
	"github.com/reclaimlabs/recoveryhub/internal/providers/email"
	"github.com/reclaimlabs/recoveryhub/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	fx.Provide(pdf.New),
)
