// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package fichas

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/sigepsi/portal/internal/platform/request"
	"github.com/sigepsi/portal/internal/platform/respond"
	"github.com/sigepsi/portal/internal/platform/validate"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listFichas)
	router.Post("/", handler.createDraft)
	router.Get("/{id}", handler.getFicha)
	router.Put("/{id}/secciones/{seccion}", handler.saveSection)
	router.Post("/{id}/finalizar", handler.finalize)
}

func (handler *Handler) listFichas(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.List(request.Context(), session.Client, request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) getFicha(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Get(request.Context(), session.Client, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) createDraft(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload, err := io.ReadAll(request.Body)
	if err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	result, err := handler.service.CreateDraft(request.Context(), session.Client, payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) saveSection(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	section, err := strconv.Atoi(requestutil.Param(request, "seccion"))
	if err != nil {
		respond.Error(writer, request, validate.RequiredError("seccion", "Must be a section number"))
		return
	}

	payload, err := io.ReadAll(request.Body)
	if err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	result, err := handler.service.SaveSection(request.Context(), session.Client,
		requestutil.Param(request, "id"), section, payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) finalize(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Finalize(request.Context(), session.Client, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}
