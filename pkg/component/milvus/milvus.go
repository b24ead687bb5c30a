// Package milvus wraps the Milvus SDK client for knowledge base vector collections.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	milvusopts "github.com/kart-io/sentinel-kb/pkg/options/milvus"
)

const (
	// IDField is the primary key field name.
	IDField = "id"
	// VectorField is the float vector field name.
	VectorField = "embedding"
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}
	if err := utilerrors.NewAggregate(opts.Validate()); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// RawClient returns the underlying Milvus client.
func (c *Client) RawClient() *milvusclient.Client {
	return c.client
}

// CollectionSchema defines the schema for a vector collection.
// The primary key is supplied by the caller, vectors are compared by inner product.
type CollectionSchema struct {
	Name        string
	Description string
	Dimension   int
}

// HasCollection reports whether the collection exists.
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// CreateCollection creates a new collection with the given schema if it does not exist.
func (c *Client) CreateCollection(ctx context.Context, schema *CollectionSchema) error {
	exists, err := c.HasCollection(ctx, schema.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	collSchema := entity.NewSchema().
		WithName(schema.Name).
		WithDescription(schema.Description).
		WithAutoID(false)

	collSchema.WithField(
		entity.NewField().
			WithName(IDField).
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true).
			WithIsAutoID(false),
	)

	collSchema.WithField(
		entity.NewField().
			WithName(VectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(schema.Dimension)),
	)

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.Name, collSchema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// 向量已归一化，内积即余弦相似度
	idx := index.NewIvfFlatIndex(entity.IP, c.opts.NList)
	createIdxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(schema.Name, VectorField, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	return c.LoadCollection(ctx, schema.Name)
}

// LoadCollection loads the collection into memory.
func (c *Client) LoadCollection(ctx context.Context, name string) error {
	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// Insert inserts vectors under caller-assigned ids.
func (c *Client) Insert(ctx context.Context, collectionName string, ids []int64, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}

	columns := []column.Column{
		column.NewColumnInt64(IDField, ids),
		column.NewColumnFloatVector(VectorField, len(vectors[0]), vectors),
	}
	if _, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collectionName, columns...)); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}
	return nil
}

// Flush persists pending inserts and deletes.
func (c *Client) Flush(ctx context.Context, collectionName string) error {
	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(collectionName))
	if err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}
	return nil
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID    int64
	Score float32
}

// Search performs a vector similarity search for each query vector.
func (c *Client) Search(ctx context.Context, collectionName string, vectors [][]float32, topK int) ([][]SearchResult, error) {
	if err := c.LoadCollection(ctx, collectionName); err != nil {
		return nil, err
	}

	searchVectors := make([]entity.Vector, len(vectors))
	for i, v := range vectors {
		searchVectors[i] = entity.FloatVector(v)
	}

	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		collectionName,
		topK,
		searchVectors,
	).WithANNSField(VectorField).
		WithSearchParam("nprobe", strconv.Itoa(c.opts.NProbe)))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	out := make([][]SearchResult, len(results))
	for q, rs := range results {
		idCol, ok := rs.IDs.(*column.ColumnInt64)
		if !ok {
			return nil, fmt.Errorf("unexpected id column type %T", rs.IDs)
		}
		hits := make([]SearchResult, 0, rs.ResultCount)
		for i := 0; i < rs.ResultCount; i++ {
			hits = append(hits, SearchResult{ID: idCol.Data()[i], Score: rs.Scores[i]})
		}
		out[q] = hits
	}
	return out, nil
}

// QueryIDs returns every primary key stored in the collection.
func (c *Client) QueryIDs(ctx context.Context, collectionName string) ([]int64, error) {
	if err := c.LoadCollection(ctx, collectionName); err != nil {
		return nil, err
	}

	rs, err := c.client.Query(ctx, milvusclient.NewQueryOption(collectionName).
		WithFilter(IDField+" >= 0").
		WithOutputFields(IDField))
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}

	col, ok := rs.GetColumn(IDField).(*column.ColumnInt64)
	if !ok {
		return nil, nil
	}
	return col.Data(), nil
}

// DeleteByIDs deletes vectors by their IDs and returns the number of deleted rows.
func (c *Client) DeleteByIDs(ctx context.Context, collectionName string, ids []int64) (int64, error) {
	result, err := c.client.Delete(ctx, milvusclient.NewDeleteOption(collectionName).WithInt64IDs(IDField, ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete by ids: %w", err)
	}
	return result.DeleteCount, nil
}

// DropCollection drops a collection.
func (c *Client) DropCollection(ctx context.Context, collectionName string) error {
	if err := c.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(collectionName)); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// GetCollectionStats returns the number of entities in a collection.
func (c *Client) GetCollectionStats(ctx context.Context, collectionName string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collectionName))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}

	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}
