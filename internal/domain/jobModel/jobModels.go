package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	IngestInit       InternalStatus = "IngestInit"
	IngestReset      InternalStatus = "IngestReset"
	IngestListing    InternalStatus = "IngestListing"
	IngestProcessing InternalStatus = "IngestProcessing"
	IngestEvaluation InternalStatus = "IngestEvaluation"
	Error            InternalStatus = "Error"
	Complete         InternalStatus = "Complete"

	// JobTypeBucketIngest walks an object-storage prefix.
	JobTypeBucketIngest JobType = "BucketIngest"
	// JobTypeUploadIngest ingests one file uploaded through the API.
	JobTypeUploadIngest JobType = "UploadIngest"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	Params      IngestParams   `json:"params"`
	Result      IngestReport   `json:"result"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// IngestParams are the knobs of one ingestion run.
type IngestParams struct {
	Bucket       string `json:"bucket,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
	MaxDocs      int    `json:"max_docs,omitempty"`
	Cleanup      bool   `json:"cleanup,omitempty"`
	EvalQuery    string `json:"eval_query,omitempty"`
	EvalTopK     int    `json:"eval_top_k,omitempty"`

	//set for uploads only
	FileName string `json:"file_name,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

type IngestReport struct {
	FilesFound     int      `json:"files_found"`
	FilesProcessed int      `json:"files_processed"`
	FilesFailed    int      `json:"files_failed"`
	Chunks         int      `json:"chunks"`
	Accuracy       float64  `json:"accuracy"`
	FailedFiles    []string `json:"failed_files,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
