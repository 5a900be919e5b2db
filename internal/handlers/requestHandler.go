package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/akolanti/vellum/internal/adapter"
	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/api"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/rag/ingest"
)

// GetHandler godoc
// @Summary  Welcome message
// @Tags     Service
// @Produce  json
// @Success  200  {object}  api.WelcomeResponse
// @Router   / [get]
func GetHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.WelcomeResponse{
		Message: fmt.Sprintf("Welcome to %s. Chat lives at %s/chat", config.ProjectName, config.APIV1Prefix),
	})
}

// HealthHandler godoc
// @Summary  Liveness probe
// @Tags     Service
// @Produce  json
// @Success  200  {object}  api.HealthResponse
// @Router   /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "healthy"})
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of an ingestion job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse    "Current job state"
// @Failure      404  {object}  api.ErrorResponse  "Job not found"
// @Router       /api/v1/status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := instance().Jobs.Status(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, traceOf(r.Context()), "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostIngestHandler handles the upload of a single document for ingestion.
// @Summary      Upload a document for ingestion
// @Description  Receives a file via multipart/form-data, saves it to a temporary directory, and queues an ingestion job.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  false  "Display name, defaults to the uploaded file name"
// @Param        document       formData  file    true   "PDF, DOCX, ODT, RTF, TXT or MD file"
// @Success      202  {object}  api.InitJobResponse  "Job queued"
// @Failure      400  {object}  api.ErrorResponse    "Missing file, unsupported type or file too large"
// @Failure      500  {object}  api.ErrorResponse    "Storage or write error"
// @Router       /api/v1/ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	h := instance()
	trace := traceOf(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, trace, "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, trace, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	docName := r.FormValue("document_name")
	if docName == "" {
		docName = filepath.Base(fileMetadata.Filename)
	}
	if !ingest.IsSupported(fileMetadata.Filename) {
		WriteErrorResponse(w, http.StatusBadRequest, trace, "Unsupported document type")
		return
	}

	targetDir, err := getTargetDirectory(h.UploadDir)
	if err != nil {
		logRH.Error("Couldn't get target directory", "traceId", trace, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, trace, "Storage error")
		return
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileMetadata.Filename))
	tempFilePath := filepath.Join(targetDir, filename)
	if err := saveUpload(tempFilePath, fileReader); err != nil {
		logRH.Error("Couldn't store upload", "traceId", trace, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, trace, "Write error")
		return
	}

	params := jobModel.IngestParams{FileName: docName, FilePath: tempFilePath}
	queued, err := h.Jobs.Submit(r.Context(), jobModel.JobTypeUploadIngest, params)
	if err != nil {
		_ = os.Remove(tempFilePath)
		logRH.Error("Could not queue upload", "traceId", trace, "error", err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, trace, "could not queue ingestion")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(queued.Id))
}

func saveUpload(path string, src io.Reader) error {
	destinationFileWriter, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(destinationFileWriter, src); err != nil {
		_ = destinationFileWriter.Close()
		_ = os.Remove(path)
		return err
	}
	return destinationFileWriter.Close()
}

// FileHandler godoc
// @Summary      Download a source document
// @Description  Streams a document from the configured bucket so citations can link to it.
// @Tags         Files
// @Produce      octet-stream
// @Param        filename  path      string  true  "Object key"
// @Success      200       {file}    file
// @Failure      404       {object}  api.ErrorResponse  "File not found"
// @Router       /api/v1/files/{filename} [get]
func FileHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	h := instance()
	trace := traceOf(r.Context())
	name := utils.GetChiURLParam(r, "filename")
	if h.Files == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, trace, "document storage not configured")
		return
	}

	body, info, err := h.Files.Open(r.Context(), h.Bucket, name)
	if errors.Is(err, errs.ErrNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, trace, "File not found")
		return
	}
	if err != nil {
		logRH.Error("Opening document failed", "traceId", trace, "file", name, "error", err)
		WriteErrorResponse(w, http.StatusBadGateway, trace, "document storage unavailable")
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filepath.Base(name)}))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logRH.Warn("Streaming document interrupted", "traceId", trace, "file", name, "error", err)
	}
}
