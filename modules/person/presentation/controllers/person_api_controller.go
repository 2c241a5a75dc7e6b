package controllers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/presentation/mappers"
	"github.com/iota-uz/estate-office/modules/person/presentation/viewmodels"
	"github.com/iota-uz/estate-office/modules/person/services"
	"github.com/iota-uz/estate-office/pkg/application"
	"github.com/iota-uz/estate-office/pkg/listview"
	"github.com/iota-uz/estate-office/pkg/middleware"
)

const (
	maxBodyBytes = 1 << 20
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type PersonAPIController struct {
	persons      *services.PersonService
	categories   *services.DetailCategoryService
	txMiddleware mux.MiddlewareFunc
	basePath     string
}

func NewPersonAPIController(app application.Application) application.Controller {
	return newPersonAPIController(
		app.Service(services.PersonService{}).(*services.PersonService),
		app.Service(services.DetailCategoryService{}).(*services.DetailCategoryService),
		middleware.WithTransaction(),
	)
}

func newPersonAPIController(
	persons *services.PersonService,
	categories *services.DetailCategoryService,
	txMiddleware mux.MiddlewareFunc,
) *PersonAPIController {
	return &PersonAPIController{
		persons:      persons,
		categories:   categories,
		txMiddleware: txMiddleware,
		basePath:     "/api/v1/persons",
	}
}

func (c *PersonAPIController) Key() string {
	return c.basePath
}

func (c *PersonAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Index).Methods(http.MethodGet)
	router.HandleFunc("/parameters", c.Parameters).Methods(http.MethodGet)
	router.HandleFunc("/export", c.Export).Methods(http.MethodGet)
	router.HandleFunc("/details/categories", c.DetailsCategories).Methods(http.MethodGet)
	router.HandleFunc("/details/categories/{category}/subcategories", c.DetailsSubcategories).Methods(http.MethodGet)
	router.HandleFunc("/{person:[0-9]+}", c.Show).Methods(http.MethodGet)
	router.HandleFunc("/{person:[0-9]+}/notifications", c.Notifications).Methods(http.MethodGet)
	router.HandleFunc("/{person:[0-9]+}/roles", c.Roles).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(c.txMiddleware)
	writeRouter.HandleFunc("", c.Store).Methods(http.MethodPost)
	writeRouter.HandleFunc("/{person:[0-9]+}", c.Update).Methods(http.MethodPut, http.MethodPatch)
	writeRouter.HandleFunc("/{left:[0-9]+}/merge/{right:[0-9]+}", c.Merge).Methods(http.MethodPost)
	writeRouter.HandleFunc("/{person:[0-9]+}/notifications/mark-all-as-read", c.MarkAllNotificationsRead).
		Methods(http.MethodPost)
}

func (c *PersonAPIController) Index(w http.ResponseWriter, r *http.Request) {
	res, err := c.persons.List(r.Context(), r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, listview.Response(res, "person"))
}

func (c *PersonAPIController) Parameters(w http.ResponseWriter, r *http.Request) {
	schema, err := c.persons.Parameters()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, schema)
}

func (c *PersonAPIController) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := c.persons.Export(r.Context(), r.URL.Query(), &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="persons.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (c *PersonAPIController) Store(w http.ResponseWriter, r *http.Request) {
	attrs, ok := c.parseAttributes(w, r)
	if !ok {
		return
	}
	created, err := c.persons.Create(r.Context(), attrs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mappers.PersonToViewModel(created))
}

func (c *PersonAPIController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r, "person")
	if !ok {
		return
	}
	attrs, ok := c.parseAttributes(w, r)
	if !ok {
		return
	}
	updated, err := c.persons.Update(r.Context(), id, attrs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mappers.PersonToViewModel(updated))
}

func (c *PersonAPIController) Merge(w http.ResponseWriter, r *http.Request) {
	left, ok := c.pathID(w, r, "left")
	if !ok {
		return
	}
	right, ok := c.pathID(w, r, "right")
	if !ok {
		return
	}
	attrs, ok := c.parseAttributes(w, r)
	if !ok {
		return
	}
	if _, err := c.persons.Merge(r.Context(), left, right, attrs); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, viewmodels.MergeAccepted{Status: "ok"})
}

func (c *PersonAPIController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r, "person")
	if !ok {
		return
	}
	graph, err := c.persons.Show(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, graph)
}

func (c *PersonAPIController) Notifications(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r, "person")
	if !ok {
		return
	}
	list, err := c.persons.Notifications(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// MarkAllNotificationsRead answers with the bare number of updated rows.
func (c *PersonAPIController) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r, "person")
	if !ok {
		return
	}
	n, err := c.persons.MarkAllNotificationsRead(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, n)
}

func (c *PersonAPIController) DetailsCategories(w http.ResponseWriter, r *http.Request) {
	list, err := c.categories.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (c *PersonAPIController) DetailsSubcategories(w http.ResponseWriter, r *http.Request) {
	list, err := c.categories.Subcategories(r.Context(), mux.Vars(r)["category"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (c *PersonAPIController) Roles(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r, "person")
	if !ok {
		return
	}
	roles, err := c.persons.Roles(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, roles)
}

// pathID reads a numeric route variable. Values that overflow int64 cannot
// name a stored person and answer 404.
func (c *PersonAPIController) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeServiceError(w, r, person.ErrNotFound)
		return 0, false
	}
	return id, true
}

func (c *PersonAPIController) parseAttributes(w http.ResponseWriter, r *http.Request) (person.Attributes, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_JSON", "invalid json")
		return person.Attributes{}, false
	}
	attrs, err := person.ParseAttributes(body)
	if err != nil {
		writeAttributesError(w, r, err)
		return person.Attributes{}, false
	}
	return attrs, true
}
