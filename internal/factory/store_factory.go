package factory

import (
	"fmt"

	"github.com/rescam/phish-triage/internal/adapters/blobstore"
	"github.com/rescam/phish-triage/internal/adapters/docstore"
	"github.com/rescam/phish-triage/internal/config"
	"github.com/rescam/phish-triage/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates document and blob stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDocumentStore creates a document store based on the configuration
func (f *StoreFactory) CreateDocumentStore() (core.DocumentStore, error) {
	dsCfg := f.cfg.GetDocStore()

	switch dsCfg.Type {
	case "mongo":
		client, err := docstore.NewMongoClient(dsCfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return docstore.NewMongoStore(client.Database(dsCfg.MongoDatabase), f.logger), nil
	case "memory":
		return docstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported document store type: %s", dsCfg.Type)
	}
}

// CreateBlobStore creates a blob store based on the configuration
func (f *StoreFactory) CreateBlobStore() (core.BlobStore, error) {
	bsCfg := f.cfg.GetBlobStore()

	switch bsCfg.Type {
	case "redis":
		client, err := blobstore.NewRedisClient(bsCfg.RedisAddr, bsCfg.RedisPassword, bsCfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return blobstore.NewRedisStore(client), nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported blob store type: %s", bsCfg.Type)
	}
}
