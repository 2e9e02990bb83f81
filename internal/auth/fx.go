package auth

import (
	"github.com/smallbiznis/gstinvoice/internal/auth/google"
	"github.com/smallbiznis/gstinvoice/internal/auth/repository"
	"github.com/smallbiznis/gstinvoice/internal/auth/service"
	"github.com/smallbiznis/gstinvoice/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(google.Provide),
	fx.Provide(service.New),
	session.Module,
)
