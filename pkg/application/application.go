package application

import (
	"fmt"
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

type ApplicationOptions struct {
	Pool      *pgxpool.Pool
	EventBus  eventbus.EventBus
	Logger    *logrus.Logger
	Cache     cache.Cache
	ListViews listview.Options
	Queue     jobs.Queue
}

func New(opts *ApplicationOptions) Application {
	c := opts.Cache
	if c == nil {
		c = cache.Nop()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	bus := opts.EventBus
	if bus == nil {
		bus = eventbus.NewEventPublisher(logger)
	}
	return &application{
		pool:           opts.Pool,
		eventPublisher: bus,
		logger:         logger,
		cache:          c,
		morph:          morph.NewRegistry(),
		listViews:      listview.NewService(listview.NewRegistry(), opts.ListViews),
		jobs:           jobs.NewMux(),
		queue:          opts.Queue,
		controllerKeys: map[string]int{},
		services:       make(map[reflect.Type]any),
	}
}

// application with a dynamically extendable service registry
type application struct {
	pool           *pgxpool.Pool
	eventPublisher eventbus.EventBus
	logger         *logrus.Logger
	cache          cache.Cache
	morph          *morph.Registry
	listViews      *listview.Service
	jobs           *jobs.Mux
	queue          jobs.Queue

	controllers    []Controller
	controllerKeys map[string]int
	middleware     []mux.MiddlewareFunc
	services       map[reflect.Type]any
}

func (app *application) DB() *pgxpool.Pool                 { return app.pool }
func (app *application) EventPublisher() eventbus.EventBus { return app.eventPublisher }
func (app *application) Logger() *logrus.Logger            { return app.logger }
func (app *application) Cache() cache.Cache                { return app.cache }
func (app *application) Morph() *morph.Registry            { return app.morph }
func (app *application) ListViews() *listview.Service      { return app.listViews }
func (app *application) Jobs() *jobs.Mux                   { return app.jobs }
func (app *application) Queue() jobs.Queue                 { return app.queue }

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

// Controllers returns controllers in registration order.
func (app *application) Controllers() []Controller {
	return append([]Controller(nil), app.controllers...)
}

// RegisterControllers replaces a controller registered earlier under the same key.
func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		if i, ok := app.controllerKeys[c.Key()]; ok {
			app.controllers[i] = c
			continue
		}
		app.controllerKeys[c.Key()] = len(app.controllers)
		app.controllers = append(app.controllers, c)
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

// RegisterServices registers a new service in the application by its type
func (app *application) RegisterServices(services ...any) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by its type
func (app *application) Service(service any) any {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]any {
	return app.services
}
