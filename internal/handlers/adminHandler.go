package handlers

import (
	"errors"
	"net/http"

	"github.com/akolanti/vellum/internal/adapter"
	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/api"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/jobModel"
)

// ListModelsHandler godoc
// @Summary      List model configurations
// @Description  Api keys are redacted.
// @Tags         Admin
// @Produce      json
// @Success      200  {array}  api.ModelConfigResponse
// @Router       /api/v1/admin/models [get]
func ListModelsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToModelConfigResponses(instance().Registry.List()))
}

// CreateModelHandler godoc
// @Summary      Register a model configuration
// @Description  Setting is_active deactivates every other configuration.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body      api.ModelConfigRequest  true  "Model configuration"
// @Success      201      {object}  api.ModelConfigResponse
// @Failure      400      {object}  api.ErrorResponse  "Invalid body or duplicate id"
// @Router       /api/v1/admin/models [post]
func CreateModelHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	trace := traceOf(r.Context())
	var req api.ModelConfigRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, trace, err.Error())
		return
	}
	created, err := instance().Registry.Create(adapter.ToModelConfig(req))
	if err != nil {
		writeRegistryError(w, trace, err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, adapter.ToModelConfigResponse(created))
}

// UpdateModelHandler godoc
// @Summary      Replace a model configuration
// @Description  The path id wins over the body id. Sending the redacted key keeps the stored one.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Model id"
// @Param        request  body      api.ModelConfigRequest  true  "Model configuration"
// @Success      200      {object}  api.ModelConfigResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse  "Unknown id"
// @Router       /api/v1/admin/models/{id} [put]
func UpdateModelHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	trace := traceOf(r.Context())
	id := utils.GetChiURLParam(r, "id")

	var req api.ModelConfigRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, trace, err.Error())
		return
	}
	req.Id = id
	if err := validateStruct(req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, trace, err.Error())
		return
	}

	updated, err := instance().Registry.Update(id, adapter.ToModelConfig(req))
	if err != nil {
		writeRegistryError(w, trace, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToModelConfigResponse(updated))
}

func writeRegistryError(w http.ResponseWriter, trace string, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		WriteErrorResponse(w, http.StatusNotFound, trace, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists), errors.Is(err, errs.ErrInvalidInput):
		WriteErrorResponse(w, http.StatusBadRequest, trace, err.Error())
	default:
		logRH.Error("Registry write failed", "traceId", trace, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, trace, "registry unavailable")
	}
}

// PostAdminIngestHandler godoc
// @Summary      Ingest a bucket
// @Description  Queues a job that lists the bucket, extracts, chunks, embeds and indexes every document, then evaluates retrieval.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      api.IngestRequest    false  "Ingestion parameters, all optional"
// @Success      202      {object}  api.InitJobResponse  "Job queued"
// @Failure      400      {object}  api.ErrorResponse
// @Router       /api/v1/admin/ingest [post]
func PostAdminIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	trace := traceOf(r.Context())
	var req api.IngestRequest
	if err := decodeAndValidate(r, &req, true); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, trace, err.Error())
		return
	}
	params := adapter.ToIngestParams(req)
	if params.Bucket == "" {
		params.Bucket = instance().Bucket
	}

	queued, err := instance().Jobs.Submit(r.Context(), jobModel.JobTypeBucketIngest, params)
	if err != nil {
		logRH.Error("Could not queue ingestion", "traceId", trace, "error", err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, trace, "could not queue ingestion")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(queued.Id))
}
