package application

import (
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/estate-office/pkg/cache"
	"github.com/iota-uz/estate-office/pkg/eventbus"
	"github.com/iota-uz/estate-office/pkg/jobs"
	"github.com/iota-uz/estate-office/pkg/listview"
	"github.com/iota-uz/estate-office/pkg/morph"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Name() string
	Register(app Application) error
}

// Application is the registry modules wire themselves into.
type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Logger() *logrus.Logger
	Cache() cache.Cache
	Morph() *morph.Registry
	ListViews() *listview.Service
	Jobs() *jobs.Mux
	Queue() jobs.Queue

	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)

	RegisterServices(services ...any)
	Service(service any) any
	Services() map[reflect.Type]any
}
