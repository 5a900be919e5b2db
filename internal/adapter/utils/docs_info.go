// @title           Vellum API
// @version         1.0
// @description     Retrieval-augmented chat with document ingestion and model administration.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package utils

//run redis
//docker run -p 6379:6379 -d redis

//run qdrant
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//run minio for bucket ingestion
//docker run -p 9000:9000 -p 9001:9001 minio/minio server /data --console-address ":9001"

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
