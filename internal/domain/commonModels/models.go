package commonModels

import "time"

type Document struct {
	Id                  string    `json:"source_doc_id"`
	FileName            string    `json:"file_name"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
	ContentType         DocType   `json:"contentType"`
}

// DocChunk is one indexed passage. PageLabel is empty when the format has no pages.
type DocChunk struct {
	Doc            Document
	ChunkId        string `json:"chunk_id"`
	Chunk          string `json:"text"`
	PageLabel      string `json:"page_label"`
	ChunkPageOrder int    `json:"chunk_order"`
	EmbeddingModel string `json:"embedding_model"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
