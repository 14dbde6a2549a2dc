/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"

	regerrors "github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient"
)

const (
	entityDocument = "Document"
	entitySection  = "Section"

	// batchWriteLimit is the DynamoDB cap on requests per BatchWriteItem call.
	batchWriteLimit     = 25
	maxUnprocessedTries = 3
)

// API is the subset of the DynamoDB client used by Client.
type API interface {
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error)
}

// Config holds the settings for a DynamoDB-backed index client.
type Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Table     string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
	Keys     KeyTemplates
}

// Client implements indexclient.Client on a single DynamoDB table. Each
// section is a partition holding a marker item plus one item per document.
type Client struct {
	api       API
	tableName string
	keys      KeyTemplates
	now       func() time.Time
}

var _ indexclient.Client = (*Client)(nil)

// item is the stored representation of a document or section marker.
type item struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Section    string `dynamodbav:"Section"`
	DocID      string `dynamodbav:"DocID,omitempty"`
	Source     string `dynamodbav:"Source,omitempty"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

// NewDynamoDBClient initializes a DynamoDB client from cfg.
func NewDynamoDBClient(ctx context.Context, cfg Config) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewClient constructs a Client backed by a new DynamoDB SDK client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Table == "" {
		return nil, regerrors.NewValidationError("table", "a DynamoDB table name is required")
	}

	api, err := NewDynamoDBClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return New(api, cfg.Table, cfg.Keys)
}

// New wraps an existing DynamoDB API. Zero-valued keys select DefaultKeyTemplates.
func New(api API, tableName string, keys KeyTemplates) (*Client, error) {
	if keys == (KeyTemplates{}) {
		keys = DefaultKeyTemplates
	}
	if err := keys.validate(); err != nil {
		return nil, regerrors.NewValidationError("keys", err.Error())
	}
	return &Client{
		api:       api,
		tableName: tableName,
		keys:      keys,
		now:       time.Now,
	}, nil
}

// OpenOrCreateIndex verifies the table and records the section marker.
func (d *Client) OpenOrCreateIndex(ctx context.Context, section string) (indexclient.Index, error) {
	_, err := d.api.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: &d.tableName})
	if err != nil {
		return indexclient.Index{}, fmt.Errorf("DescribeTable %s failed: %w", d.tableName, err)
	}

	pk, err := d.keys.partition(section)
	if err != nil {
		return indexclient.Index{}, err
	}
	marker := item{
		PK:         pk,
		SK:         metaSK,
		EntityType: entitySection,
		Section:    section,
		UpdatedAt:  d.timestamp(),
	}
	av, err := attributevalue.MarshalMap(marker)
	if err != nil {
		return indexclient.Index{}, fmt.Errorf("failed to marshal section marker: %w", err)
	}

	_, err = d.api.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &d.tableName,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return indexclient.Index{Name: section}, nil
		}
		return indexclient.Index{}, fmt.Errorf("PutItem section marker failed: %w", err)
	}
	return indexclient.Index{Name: section, Created: true}, nil
}

// AddDocument stores a new document; an existing id fails the condition.
func (d *Client) AddDocument(ctx context.Context, section, id string, doc json.RawMessage) error {
	err := d.putDocument(ctx, section, id, doc, "attribute_not_exists(PK)")
	var cfe *types.ConditionalCheckFailedException
	if errors.As(err, &cfe) {
		return regerrors.NewAlreadyExistsError("document", id)
	}
	return err
}

// UpdateDocument overwrites an existing document.
func (d *Client) UpdateDocument(ctx context.Context, section, id string, doc json.RawMessage) error {
	err := d.putDocument(ctx, section, id, doc, "attribute_exists(PK)")
	var cfe *types.ConditionalCheckFailedException
	if errors.As(err, &cfe) {
		return regerrors.NewNotFoundError("document", id)
	}
	return err
}

func (d *Client) putDocument(ctx context.Context, section, id string, doc json.RawMessage, condition string) error {
	if id == "" {
		return regerrors.NewValidationError("id", "must not be empty")
	}

	key, err := d.keys.document(section, id)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(item{
		EntityType: entityDocument,
		Section:    section,
		DocID:      id,
		Source:     string(doc),
		UpdatedAt:  d.timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	for k, v := range key {
		av[k] = v
	}

	_, err = d.api.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &d.tableName,
		Item:                av,
		ConditionExpression: &condition,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// RemoveDocuments deletes ids in batches. Absent ids are ignored.
func (d *Client) RemoveDocuments(ctx context.Context, section string, ids []string) error {
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		key, err := d.keys.document(section, id)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	return d.batchDelete(ctx, keys)
}

// GetDocument fetches a document. A miss on a section without a marker
// reports the index as missing.
func (d *Client) GetDocument(ctx context.Context, section, id string) (indexclient.Lookup, error) {
	key, err := d.keys.document(section, id)
	if err != nil {
		return indexclient.Lookup{}, err
	}

	out, err := d.api.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return indexclient.Lookup{}, fmt.Errorf("GetItem error: %w", err)
	}

	if out.Item == nil {
		exists, err := d.sectionExists(ctx, section)
		if err != nil {
			return indexclient.Lookup{}, err
		}
		if !exists {
			return indexclient.Lookup{}, regerrors.NewIndexNotFoundError(section)
		}
		return indexclient.NotFound(), nil
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return indexclient.Lookup{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return indexclient.Found(it.document()), nil
}

// ListDocuments returns up to limit documents of the section in sort key order.
func (d *Client) ListDocuments(ctx context.Context, section string, limit int) ([]indexclient.Document, error) {
	if limit <= 0 {
		limit = indexclient.DefaultListLimit
	}

	items, err := d.queryPartition(ctx, section, false)
	if err != nil {
		return nil, err
	}

	var docs []indexclient.Document
	sawMarker := false
	for _, raw := range items {
		var it item
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		if it.EntityType == entitySection {
			sawMarker = true
			continue
		}
		if len(docs) < limit {
			docs = append(docs, it.document())
		}
	}
	if !sawMarker && len(docs) == 0 {
		return nil, regerrors.NewIndexNotFoundError(section)
	}
	return docs, nil
}

// DeleteIndex removes every item of the section, marker included.
func (d *Client) DeleteIndex(ctx context.Context, section string) error {
	items, err := d.queryPartition(ctx, section, true)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return regerrors.NewIndexNotFoundError(section)
	}

	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, it := range items {
		keys = append(keys, map[string]types.AttributeValue{"PK": it["PK"], "SK": it["SK"]})
	}
	return d.batchDelete(ctx, keys)
}

func (d *Client) sectionExists(ctx context.Context, section string) (bool, error) {
	key, err := d.keys.marker(section)
	if err != nil {
		return false, err
	}
	out, err := d.api.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("GetItem section marker error: %w", err)
	}
	return out.Item != nil, nil
}

// queryPartition reads every item of the section's partition.
func (d *Client) queryPartition(ctx context.Context, section string, keysOnly bool) ([]map[string]types.AttributeValue, error) {
	pk, err := d.keys.partition(section)
	if err != nil {
		return nil, err
	}

	input := &sdk.QueryInput{
		TableName:              &d.tableName,
		KeyConditionExpression: aws.String("PK = :pkVal"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pkVal": &types.AttributeValueMemberS{Value: pk},
		},
		ConsistentRead: aws.Bool(true),
	}
	if keysOnly {
		input.ProjectionExpression = aws.String("PK, SK")
	}

	var items []map[string]types.AttributeValue
	paginator := sdk.NewQueryPaginator(d.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Query error: %w", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (d *Client) batchDelete(ctx context.Context, keys []map[string]types.AttributeValue) error {
	for start := 0; start < len(keys); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(keys))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		pending := map[string][]types.WriteRequest{d.tableName: requests}
		for attempt := 0; len(pending[d.tableName]) > 0; attempt++ {
			if attempt == maxUnprocessedTries {
				return fmt.Errorf("BatchWriteItem left %d unprocessed deletes", len(pending[d.tableName]))
			}
			out, err := d.api.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("BatchWriteItem failed: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

func (d *Client) timestamp() string {
	return strfmt.DateTime(d.now().UTC()).String()
}

func (it item) document() indexclient.Document {
	return indexclient.Document{
		ID:      it.DocID,
		Section: it.Section,
		Source:  json.RawMessage(it.Source),
	}
}
