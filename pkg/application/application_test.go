package application

import (
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type greeterService struct{ greeting string }

type stubController struct {
	key  string
	name string
}

func (c *stubController) Key() string            { return c.key }
func (c *stubController) Register(r *mux.Router) {}

func TestApplication_Services(t *testing.T) {
	app := New(&ApplicationOptions{})
	app.RegisterServices(&greeterService{greeting: "hi"})

	svc := app.Service(greeterService{}).(*greeterService)
	require.Equal(t, "hi", svc.greeting)
	require.Len(t, app.Services(), 1)

	require.Panics(t, func() { app.Service(stubController{}) })
}

func TestApplication_ControllersKeepOrderAndReplaceByKey(t *testing.T) {
	app := New(&ApplicationOptions{})
	app.RegisterControllers(
		&stubController{key: "/api/v1/persons", name: "first"},
		&stubController{key: "/debug/prometheus"},
	)
	app.RegisterControllers(&stubController{key: "/api/v1/persons", name: "second"})

	got := app.Controllers()
	require.Len(t, got, 2)
	require.Equal(t, "second", got[0].(*stubController).name)
	require.Equal(t, "/debug/prometheus", got[1].Key())
}

func TestApplication_Defaults(t *testing.T) {
	app := New(&ApplicationOptions{})
	require.NotNil(t, app.Cache())
	require.NotNil(t, app.EventPublisher())
	require.NotNil(t, app.Logger())
	require.NotNil(t, app.Morph())
	require.NotNil(t, app.ListViews())
	require.NotNil(t, app.Jobs())
	require.Nil(t, app.Queue())
}
