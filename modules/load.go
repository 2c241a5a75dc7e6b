package modules

import (
	"github.com/iota-uz/estate-office/modules/person"
	"github.com/iota-uz/estate-office/pkg/application"
	"github.com/iota-uz/estate-office/pkg/configuration"
)

// BuiltInModules returns the modules every binary registers.
func BuiltInModules(conf *configuration.Configuration) []application.Module {
	return []application.Module{
		person.NewModule(&person.ModuleOptions{
			CacheTTL: conf.CacheTTL,
		}),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
