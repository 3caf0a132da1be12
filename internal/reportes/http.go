// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package reportes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/sigepsi/portal/internal/platform/request"
	"github.com/sigepsi/portal/internal/platform/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/resumen", handler.getSummary)
	router.Get("/unidades/{unidad}", handler.getUnitBreakdown)
}

func (handler *Handler) getSummary(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Summary(request.Context(), session.Client, request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) getUnitBreakdown(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.UnitBreakdown(request.Context(), session.Client,
		requestutil.Param(request, "unidad"), request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}
