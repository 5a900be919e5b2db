package adapter

import (
	"fmt"

	"github.com/akolanti/vellum/internal/api"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("%s/status/%s", config.APIV1Prefix, id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	var result *api.IngestResult
	if job.Status == jobModel.JobStatusComplete || job.Status == jobModel.JobStatusError {
		result = &api.IngestResult{
			FilesFound:     job.Result.FilesFound,
			FilesProcessed: job.Result.FilesProcessed,
			FilesFailed:    job.Result.FilesFailed,
			Chunks:         job.Result.Chunks,
			Accuracy:       job.Result.Accuracy,
			FailedFiles:    job.Result.FailedFiles,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		Type:      string(job.JobType),
		Status:    string(job.Status),
		Step:      string(job.CurrentStep),
		Result:    result,
		Error:     errorPtr,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
	}
}

func ToIngestParams(req api.IngestRequest) jobModel.IngestParams {
	return jobModel.IngestParams{
		Bucket:       req.Bucket,
		Prefix:       req.Prefix,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
		MaxDocs:      req.MaxDocs,
		Cleanup:      req.Cleanup,
		EvalQuery:    req.EvalQuery,
		EvalTopK:     req.EvalTopK,
	}
}

func ErrorBody(code int, message string, traceId string) api.ErrorResponse {
	return api.ErrorResponse{
		Code:    code,
		Message: message,
		TraceId: traceId,
	}
}
