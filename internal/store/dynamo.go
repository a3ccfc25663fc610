package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/lprior-repo/orderflow/internal/engine"
)

// DynamoAPI is the slice of the DynamoDB client the stores need.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoProductStore backs the product catalog with a DynamoDB table keyed
// by PK.
type DynamoProductStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoProductStore(client DynamoAPI, table string) *DynamoProductStore {
	return &DynamoProductStore{client: client, table: table}
}

func (s *DynamoProductStore) Get(ctx context.Context, id string) (Product, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return Product{}, fmt.Errorf("getting product %s: %w", id, err)
	}
	if out.Item == nil {
		return Product{}, ErrNotFound
	}

	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return Product{}, fmt.Errorf("unmarshalling product %s: %w", id, err)
	}
	return p, nil
}

func (s *DynamoProductStore) Put(ctx context.Context, p Product) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshalling product %s: %w", p.ID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting product %s: %w", p.ID, err)
	}
	return nil
}

func (s *DynamoProductStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	return nil
}

func (s *DynamoProductStore) Scan(ctx context.Context) ([]Product, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}

	products := make([]Product, 0, len(out.Items))
	for _, item := range out.Items {
		var p Product
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, fmt.Errorf("unmarshalling product item: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// executionItem is the DynamoDB row shape for a snapshot. The execution
// itself is stored as a JSON document so the record survives engine type
// evolution without table migrations.
type executionItem struct {
	ExecutionID string `dynamodbav:"PK"`
	OrderID     string `dynamodbav:"orderId"`
	State       string `dynamodbav:"state"`
	Snapshot    string `dynamodbav:"snapshot"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
}

// DynamoExecutionStore persists execution snapshots for redrive.
type DynamoExecutionStore struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

func NewDynamoExecutionStore(client DynamoAPI, table string) *DynamoExecutionStore {
	return &DynamoExecutionStore{client: client, table: table, now: time.Now}
}

func (s *DynamoExecutionStore) Save(ctx context.Context, exec *engine.Execution) error {
	body, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("marshalling execution %s: %w", exec.ID, err)
	}
	item, err := attributevalue.MarshalMap(executionItem{
		ExecutionID: exec.ID,
		OrderID:     exec.Order.OrderID,
		State:       string(exec.State),
		Snapshot:    string(body),
		UpdatedAt:   s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshalling execution item %s: %w", exec.ID, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting execution %s: %w", exec.ID, err)
	}
	return nil
}

func (s *DynamoExecutionStore) Get(ctx context.Context, executionID string) (*engine.Execution, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: executionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting execution %s: %w", executionID, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var item executionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshalling execution item %s: %w", executionID, err)
	}

	var exec engine.Execution
	if err := json.Unmarshal([]byte(item.Snapshot), &exec); err != nil {
		return nil, fmt.Errorf("unmarshalling execution snapshot %s: %w", executionID, err)
	}
	return &exec, nil
}

// IsNotFound reports whether the error is the store's missing-record
// sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
