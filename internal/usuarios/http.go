// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package usuarios

import (
	"io"
	"net/http"

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
	router.Get("/", handler.listUsers)
	router.Post("/", handler.createUser)
	router.Get("/solicitudes-password", handler.listPasswordRequests)
	router.Post("/solicitudes-password/{id}/aprobar", handler.approvePasswordRequest)
	router.Post("/solicitudes-password/{id}/rechazar", handler.rejectPasswordRequest)
	router.Get("/{id}", handler.getUser)
	router.Put("/{id}", handler.updateUser)
	router.Post("/{id}/activar", handler.activateUser)
	router.Post("/{id}/desactivar", handler.deactivateUser)
}

func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
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

func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
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

func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
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

	result, err := handler.service.Create(request.Context(), session.Client, payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
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

	result, err := handler.service.Update(request.Context(), session.Client, requestutil.Param(request, "id"), payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) activateUser(writer http.ResponseWriter, request *http.Request) {
	handler.setActive(writer, request, true)
}

func (handler *Handler) deactivateUser(writer http.ResponseWriter, request *http.Request) {
	handler.setActive(writer, request, false)
}

func (handler *Handler) setActive(writer http.ResponseWriter, request *http.Request, active bool) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.SetActive(request.Context(), session.Client, requestutil.Param(request, "id"), active)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) listPasswordRequests(writer http.ResponseWriter, request *http.Request) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.ListPasswordRequests(request.Context(), session.Client)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}

func (handler *Handler) approvePasswordRequest(writer http.ResponseWriter, request *http.Request) {
	handler.resolvePasswordRequest(writer, request, true)
}

func (handler *Handler) rejectPasswordRequest(writer http.ResponseWriter, request *http.Request) {
	handler.resolvePasswordRequest(writer, request, false)
}

func (handler *Handler) resolvePasswordRequest(writer http.ResponseWriter, request *http.Request, approve bool) {
	session, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.ResolvePasswordRequest(request.Context(), session.Client,
		requestutil.Param(request, "id"), approve)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Raw(writer, result.Status, result.Body)
}
