package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/commonModels"
	"github.com/akolanti/vellum/internal/rag/vectorDB"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger = logger_i.NewLogger("Qdrant")
var quadrantInstance *qdrant.Client
var once sync.Once

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	VectorSize uint64
}

type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
	dimension  uint64
}

// GetQuadrantClient opens the process-wide client. The collection itself is
// created lazily by ingestion, so an empty deployment still starts.
func GetQuadrantClient(ctx context.Context, cfg Config) *ClientHolder {
	once.Do(func() {
		res, err := newClient(cfg)
		if err != nil {
			logger.Error("could not instantiate qdrant client", "error", err)
			return
		}
		quadrantInstance = res
		go closeQdrant(ctx, quadrantInstance)
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj:       quadrantInstance,
		collection: cfg.Collection,
		dimension:  cfg.VectorSize,
	}
}

func newClient(cfg Config) (*qdrant.Client, error) {
	if cfg.Host == "" {
		cfg.Host = config.QdrantHost
	}
	if cfg.Port == 0 {
		cfg.Port = config.QdrantGrpcPort
	}
	return qdrant.NewClient(&qdrant.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		APIKey:        cfg.APIKey,
		UseTLS:        cfg.UseTLS,
		PoolSize:      uint(config.QdrantPoolSize),
		KeepAliveTime: int(config.QdrantKeepAliveTimeout.Seconds()),
	})
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) Search(ctx context.Context, req vectorDB.SearchRequest) ([]vectorDB.Hit, error) {
	log := logger_i.FromContext(ctx, "Qdrant")

	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		log.Error("Error checking collection", "collection", db.collection, "error", err)
		return nil, err
	}
	if !exists {
		log.Warn("Collection does not exist yet", "collection", db.collection)
		return nil, vectorDB.ErrIndexUnavailable
	}

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          buildQuery(req),
		Limit:          qdrant.PtrOf(uint64(req.TopK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	hits := make([]vectorDB.Hit, 0, len(result))
	for _, point := range result {
		metadata := payloadToMap(point.Payload)
		text, _ := metadata[vectorDB.KeyText].(string)
		hits = append(hits, vectorDB.Hit{Text: text, Metadata: metadata, Score: point.Score})
	}
	log.Debug("Found matches", "count", len(hits))
	return hits, nil
}

// buildQuery maps the relevance coefficient onto qdrant's diversity knob,
// where higher means more diverse.
func buildQuery(req vectorDB.SearchRequest) *qdrant.Query {
	if req.Mode != vectorDB.ModeDiversity {
		return qdrant.NewQuery(req.Vector...)
	}
	relevance := req.Relevance
	if relevance < 0 {
		relevance = 0
	}
	if relevance > 1 {
		relevance = 1
	}
	return qdrant.NewQueryMMR(qdrant.NewVectorInput(req.Vector...), &qdrant.Mmr{
		Diversity:       qdrant.PtrOf(1 - relevance),
		CandidatesLimit: qdrant.PtrOf(uint32(req.TopK * config.MMRCandidateMultiplier)),
	})
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			out[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			out[k] = kind.BoolValue
		}
	}
	return out
}

func (db *ClientHolder) EnsureCollection(ctx context.Context) error {
	return createCollection(ctx, db.QObj, db.collection, db.dimension)
}

// Reset drops every chunk by recreating the collection.
func (db *ClientHolder) Reset(ctx context.Context) error {
	log := logger_i.FromContext(ctx, "Qdrant")
	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return err
	}
	if exists {
		log.Info("Deleting collection", "collection", db.collection)
		if err := db.QObj.DeleteCollection(ctx, db.collection); err != nil {
			return fmt.Errorf("delete collection %s: %w", db.collection, err)
		}
	}
	return createCollection(ctx, db.QObj, db.collection, db.dimension)
}

func (db *ClientHolder) Count(ctx context.Context) (uint64, error) {
	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: db.collection,
		Exact:          qdrant.PtrOf(true),
	})
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(vectorDB.ChunkPayload(chunk)),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
