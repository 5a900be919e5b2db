package api

import "time"

// responses---------------------

type CitationResponse struct {
	Source string   `json:"source" example:"agentic_ai_survey.pdf"`
	Page   int      `json:"page" example:"3"`
	Text   string   `json:"text"`
	Score  *float64 `json:"score,omitempty" example:"0.82"`
}

type MessageResponse struct {
	Role      string             `json:"role" example:"assistant"`
	Content   string             `json:"content"`
	Citations []CitationResponse `json:"citations,omitempty"`
}

type ChatResponse struct {
	Response  string             `json:"response"`
	Citations []CitationResponse `json:"citations"`
	History   []MessageResponse  `json:"history"`
	SessionId string             `json:"session_id" example:"5b1d7c2e-9a77-4f0e-b7a8-3c5d1e2f4a6b"`
}

type ConversationSummaryResponse struct {
	Id    string `json:"id"`
	Title string `json:"title" example:"What is agentic AI and why doe..."`
	Date  string `json:"date" example:"Mar 01"`
}

type ModelConfigResponse struct {
	Id             string `json:"id" example:"mistral"`
	Name           string `json:"name" example:"Mistral 7B"`
	Provider       string `json:"provider" example:"ollama"`
	ApiKey         string `json:"api_key,omitempty" example:"****"`
	BaseURL        string `json:"base_url,omitempty"`
	DeploymentName string `json:"deployment_name,omitempty"`
	IsActive       bool   `json:"is_active"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type IngestResult struct {
	FilesFound     int      `json:"files_found"`
	FilesProcessed int      `json:"files_processed"`
	FilesFailed    int      `json:"files_failed"`
	Chunks         int      `json:"chunks"`
	Accuracy       float64  `json:"accuracy"`
	FailedFiles    []string `json:"failed_files,omitempty"`
}

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Type      string            `json:"type" example:"BucketIngest"`
	Status    string            `json:"status" example:"RUNNING"`
	Step      string            `json:"step" example:"IngestProcessing"`
	Result    *IngestResult     `json:"result,omitempty"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"500"`
	Message string `json:"message" example:"bucket not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"message is required"`
	TraceId string `json:"trace_id,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

type WelcomeResponse struct {
	Message string `json:"message"`
}

// requests---------------------

type ChatRequest struct {
	Message       string `json:"message" validate:"required"`
	ModelId       string `json:"model_id,omitempty"`
	SessionId     string `json:"session_id,omitempty"`
	UserId        string `json:"user_id,omitempty"`
	ContextWindow int    `json:"context_window,omitempty" validate:"omitempty,min=1,max=50"`
}

type ModelConfigRequest struct {
	Id             string `json:"id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Provider       string `json:"provider" validate:"required"`
	ApiKey         string `json:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty" validate:"omitempty,url"`
	DeploymentName string `json:"deployment_name,omitempty"`
	IsActive       bool   `json:"is_active"`
}

type IngestRequest struct {
	Bucket       string `json:"bucket,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty" validate:"omitempty,min=50"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty" validate:"omitempty,min=0"`
	MaxDocs      int    `json:"max_docs,omitempty"`
	Cleanup      bool   `json:"cleanup,omitempty"`
	EvalQuery    string `json:"eval_query,omitempty"`
	EvalTopK     int    `json:"eval_top_k,omitempty" validate:"omitempty,min=1"`
}
