package report

import (
	"github.com/smallbiznis/folio/internal/report/repository"
	"github.com/smallbiznis/folio/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideViewCache),
	fx.Provide(service.New),
)
