package person

import (
	"time"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/infrastructure/persistence"
	"github.com/iota-uz/estate-office/modules/person/presentation/controllers"
	"github.com/iota-uz/estate-office/modules/person/presentation/listviews"
	"github.com/iota-uz/estate-office/modules/person/services"
	"github.com/iota-uz/estate-office/pkg/application"
)

const defaultCacheTTL = 5 * time.Minute

type ModuleOptions struct {
	// CacheTTL bounds how long detail taxonomy reads stay cached.
	CacheTTL time.Duration
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	if err := app.Morph().Register("person", person.Person{}); err != nil {
		return err
	}
	personType := app.Morph().MustKeyOf(person.Person{})

	if err := app.ListViews().Registry().RegisterFS(listviews.FS, "."); err != nil {
		return err
	}

	ttl := m.options.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	personRepo := persistence.NewPersonRepository()
	roleRepo := persistence.NewRoleRepository()
	auditRepo := persistence.NewAuditRepository()
	notificationRepo := persistence.NewNotificationRepository()

	app.RegisterServices(
		services.NewPersonService(
			personType,
			services.Repositories{
				Persons:       personRepo,
				Graphs:        persistence.NewGraphRepository(personType, roleRepo, auditRepo),
				Audits:        auditRepo,
				Notifications: notificationRepo,
				Roles:         roleRepo,
			},
			app.ListViews(),
			persistence.NewPersonRelationLoader(personType, roleRepo),
			app.Queue(),
		),
		services.NewDetailCategoryService(
			personType,
			persistence.NewDetailCategoryRepository(),
			app.Cache(),
			ttl,
		),
	)

	app.Jobs().Handle(services.MergeJobKind, services.NewMergeJobHandler(
		personType,
		persistence.NewMergeRepository(personType, personRepo),
		auditRepo,
		app.EventPublisher(),
	))
	app.EventPublisher().Subscribe(services.NewMergeNotifier(personType, notificationRepo).OnMerged)

	app.RegisterControllers(
		controllers.NewPersonAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "person"
}
