package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/systmms/fnconsole/internal/catalog"
	dserrors "github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/internal/highlight"
	"github.com/systmms/fnconsole/internal/mask"
	"github.com/systmms/fnconsole/internal/resources"
)

// envelope mirrors the record store's response shape.
type envelope struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data"`
	Messages []string `json:"messages,omitempty"`
}

type handlers struct {
	opts Options
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type docsIndex struct {
	Categories []string       `json:"categories"`
	Topics     []topicSummary `json:"topics"`
}

type topicSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (h *handlers) docsIndex(c echo.Context) error {
	idx := docsIndex{Categories: h.opts.Catalog.Categories()}
	for _, t := range h.opts.Catalog.Topics() {
		idx.Topics = append(idx.Topics, topicSummary{ID: t.ID, Title: t.Title})
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: idx})
}

func (h *handlers) docsCategory(c echo.Context) error {
	category := c.Param("category")
	for _, known := range h.opts.Catalog.Categories() {
		if known == category {
			return c.JSON(http.StatusOK, envelope{Success: true, Data: h.opts.Catalog.ByCategory(category)})
		}
	}
	return notFound(c, "Unknown category")
}

func (h *handlers) docsSearch(c echo.Context) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: h.opts.Catalog.Search(c.QueryParam("q"))})
}

func (h *handlers) docsTopic(c echo.Context) error {
	topic, err := h.opts.Catalog.Topic(c.Param("id"))
	if err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: topic})
}

// endpointView adds highlighted HTML for every example and response body.
type endpointView struct {
	catalog.Endpoint
	HighlightedExamples  map[string]string `json:"highlightedExamples,omitempty"`
	HighlightedResponses map[string]string `json:"highlightedResponses,omitempty"`
}

func (h *handlers) docsEndpoint(c echo.Context) error {
	ep, err := h.opts.Catalog.ByID(c.Param("id"))
	if err != nil {
		return notFound(c, err.Error())
	}

	view := endpointView{Endpoint: ep}
	if len(ep.Examples) > 0 {
		view.HighlightedExamples = make(map[string]string, len(ep.Examples))
		for lang, code := range ep.Examples {
			view.HighlightedExamples[lang] = highlight.Highlight(code, lang)
		}
	}
	if r := ep.Responses; r != nil {
		view.HighlightedResponses = map[string]string{}
		if r.Success != "" {
			view.HighlightedResponses["success"] = highlight.Highlight(r.Success, "json")
		}
		if r.Error != "" {
			view.HighlightedResponses["error"] = highlight.Highlight(r.Error, "json")
		}
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: view})
}

func (h *handlers) listFunctions(c echo.Context) error {
	if h.opts.Functions == nil {
		return unconfigured(c)
	}
	res := h.opts.Functions.List(c.Request().Context())
	return respond(c, res.OK(), res.Value, res.Messages())
}

func (h *handlers) getFunction(c echo.Context) error {
	if h.opts.Functions == nil {
		return unconfigured(c)
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, envelope{Messages: []string{"Invalid id"}})
	}
	res := h.opts.Functions.Get(c.Request().Context(), id)
	if !res.OK() {
		return failed(c, res.Err)
	}
	return respond(c, true, res.Value, nil)
}

func (h *handlers) listSecrets(c echo.Context) error {
	if h.opts.Secrets == nil {
		return unconfigured(c)
	}
	res := h.opts.Secrets.List(c.Request().Context())
	masked := make([]resources.Secret, len(res.Value))
	for i, s := range res.Value {
		masked[i] = maskSecret(s)
	}
	return respond(c, res.OK(), masked, res.Messages())
}

func (h *handlers) getSecret(c echo.Context) error {
	if h.opts.Secrets == nil {
		return unconfigured(c)
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, envelope{Messages: []string{"Invalid id"}})
	}
	res := h.opts.Secrets.Get(c.Request().Context(), id)
	if !res.OK() {
		return failed(c, res.Err)
	}
	return respond(c, true, maskSecret(res.Value), nil)
}

func maskSecret(s resources.Secret) resources.Secret {
	s.Value = mask.Value(s.Value)
	return s
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// respond answers 200 with data, or 502 with the failure messages; reads
// always carry a data field so clients can render an empty view.
func respond(c echo.Context, ok bool, data any, messages []string) error {
	if !ok {
		return c.JSON(http.StatusBadGateway, envelope{Data: data, Messages: messages})
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Messages: messages})
}

// failed answers a single-record read: 404 when the store has no such record,
// 502 otherwise.
func failed(c echo.Context, err error) error {
	if dserrors.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, envelope{Messages: dserrors.Messages(err)})
	}
	return respond(c, false, nil, dserrors.Messages(err))
}

func notFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, envelope{Messages: []string{msg}})
}

func unconfigured(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, envelope{Messages: []string{"Record store is not configured"}})
}
