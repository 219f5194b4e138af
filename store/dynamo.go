package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// keyAttr is the partition key attribute managed by the store.
const keyAttr = "id"

// NewKey returns a fresh opaque document key.
func NewKey() string {
	return uuid.NewString()
}

// Dynamo implements Store on DynamoDB, one table per kind.
type Dynamo struct {
	client *dynamodb.Client
	config Config
}

// NewDynamo creates a DynamoDB-backed store.
func NewDynamo(client *dynamodb.Client, config Config) *Dynamo {
	config.validate()
	return &Dynamo{
		client: client,
		config: config,
	}
}

func (d *Dynamo) table(kind string) (string, error) {
	t := d.config.tableFor(kind)
	if t == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t, nil
}

// Get retrieves a document by key, returning ErrNotFound if missing.
func (d *Dynamo) Get(ctx context.Context, kind, key string) (*Document, error) {
	table, err := d.table(kind)
	if err != nil {
		return nil, err
	}

	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       keyOf(key),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	return unmarshalDocument(kind, result.Item), nil
}

// GetMulti retrieves up to MaxBatchGet documents, preserving key order.
// Absent keys yield nil entries.
func (d *Dynamo) GetMulti(ctx context.Context, kind string, keys []string) ([]*Document, error) {
	if len(keys) > MaxBatchGet {
		return nil, fmt.Errorf("%w: %d keys, limit %d", ErrBatchTooLarge, len(keys), MaxBatchGet)
	}
	table, err := d.table(kind)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	request := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		request = append(request, keyOf(k))
	}

	found := make(map[string]*Document, len(keys))
	for len(request) > 0 {
		result, err := d.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				table: {Keys: request},
			},
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range result.Responses[table] {
			doc := unmarshalDocument(kind, raw)
			found[doc.Key] = doc
		}
		// The store may leave part of the batch unprocessed under load;
		// drain it before returning.
		request = result.UnprocessedKeys[table].Keys
	}

	docs := make([]*Document, len(keys))
	for i, k := range keys {
		docs[i] = found[k]
	}
	return docs, nil
}

// Put writes a single document.
func (d *Dynamo) Put(ctx context.Context, doc Document) error {
	table, err := d.table(doc.Kind)
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      marshalDocument(doc),
	})
	return err
}

// PutMulti writes up to MaxBatchPut documents of one kind as one batch.
func (d *Dynamo) PutMulti(ctx context.Context, docs []Document) error {
	if len(docs) > MaxBatchPut {
		return fmt.Errorf("%w: %d documents, limit %d", ErrBatchTooLarge, len(docs), MaxBatchPut)
	}
	if len(docs) == 0 {
		return nil
	}
	table, err := d.table(docs[0].Kind)
	if err != nil {
		return err
	}

	requests := make([]types.WriteRequest, 0, len(docs))
	for _, doc := range docs {
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: marshalDocument(doc)},
		})
	}
	return d.batchWrite(ctx, table, requests)
}

// DeleteMulti removes up to MaxBatchDelete keys as one batch.
func (d *Dynamo) DeleteMulti(ctx context.Context, kind string, keys []string) error {
	if len(keys) > MaxBatchDelete {
		return fmt.Errorf("%w: %d keys, limit %d", ErrBatchTooLarge, len(keys), MaxBatchDelete)
	}
	if len(keys) == 0 {
		return nil
	}
	table, err := d.table(kind)
	if err != nil {
		return err
	}

	requests := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: keyOf(k)},
		})
	}
	return d.batchWrite(ctx, table, requests)
}

// batchWrite submits one BatchWriteItem call, draining unprocessed items.
func (d *Dynamo) batchWrite(ctx context.Context, table string, requests []types.WriteRequest) error {
	for len(requests) > 0 {
		result, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table: requests},
		})
		if err != nil {
			return err
		}
		requests = result.UnprocessedItems[table]
	}
	return nil
}

// Query runs a single-equality-filter, single-sort-key query against the
// "<filter>-<order>-index" GSI of the kind's table.
func (d *Dynamo) Query(ctx context.Context, q Query) ([]Document, error) {
	table, err := d.table(q.Kind)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(table),
		IndexName:              aws.String(fmt.Sprintf("%s-%s-index", q.Eq.Field, q.OrderBy)),
		KeyConditionExpression: aws.String("#f = :v"),
		ExpressionAttributeNames: map[string]string{
			"#f": q.Eq.Field,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: q.Eq.Value},
		},
		ScanIndexForward: aws.Bool(!q.Descending),
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(int32(q.Limit))
	}

	var docs []Document
	paginator := dynamodb.NewQueryPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			docs = append(docs, *unmarshalDocument(q.Kind, raw))
			if q.Limit > 0 && len(docs) >= q.Limit {
				return docs, nil
			}
		}
	}
	return docs, nil
}

// Keys pages through the kind's key space via a projected Scan.
func (d *Dynamo) Keys(ctx context.Context, kind, cursor string, pageSize int) ([]string, string, error) {
	table, err := d.table(kind)
	if err != nil {
		return nil, "", err
	}

	input := &dynamodb.ScanInput{
		TableName:            aws.String(table),
		ProjectionExpression: aws.String(keyAttr),
	}
	if pageSize > 0 {
		input.Limit = aws.Int32(int32(pageSize))
	}
	if cursor != "" {
		input.ExclusiveStartKey = keyOf(cursor)
	}

	result, err := d.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}

	keys := make([]string, 0, len(result.Items))
	for _, raw := range result.Items {
		if v, ok := raw[keyAttr].(*types.AttributeValueMemberS); ok {
			keys = append(keys, v.Value)
		}
	}

	next := ""
	if v, ok := result.LastEvaluatedKey[keyAttr].(*types.AttributeValueMemberS); ok {
		next = v.Value
	}
	return keys, next, nil
}

// keyOf builds the primary key map for a document key.
func keyOf(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberS{Value: key},
	}
}

// marshalDocument flattens a document into a DynamoDB item.
func marshalDocument(doc Document) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue, len(doc.Attrs)+1)
	for k, v := range doc.Attrs {
		item[k] = v
	}
	item[keyAttr] = &types.AttributeValueMemberS{Value: doc.Key}
	return item
}

// unmarshalDocument converts a DynamoDB item back into a Document.
func unmarshalDocument(kind string, raw map[string]types.AttributeValue) *Document {
	doc := &Document{Kind: kind, Attrs: make(map[string]types.AttributeValue, len(raw))}
	for k, v := range raw {
		if k == keyAttr {
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				doc.Key = s.Value
			}
			continue
		}
		doc.Attrs[k] = v
	}
	return doc
}
