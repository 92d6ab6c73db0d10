package payout

import (
	"github.com/smallbiznis/folio/internal/payout/repository"
	"github.com/smallbiznis/folio/internal/payout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewLogDisburser),
	fx.Provide(service.New),
)
