// Package dbtest provides an in-memory DynamoDB table for handler tests.
package dbtest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"photoalbum/internal/types"
)

// Table is an in-memory single-table fake keyed by one string partition key.
// It understands PutItem, DeleteItem and UpdateItem with plain
// "SET #a = :b, ..." expressions. Each call is recorded in Calls.
type Table struct {
	mu    sync.Mutex
	key   string
	items map[string]map[string]ddbtypes.AttributeValue

	// Calls lists operation names in call order.
	Calls []string

	// Errors injects a failure per operation name ("PutItem", ...).
	Errors map[string]error
}

// NewTable creates an empty table with the given partition key attribute.
func NewTable(partitionKey string) *Table {
	return &Table{
		key:    partitionKey,
		items:  make(map[string]map[string]ddbtypes.AttributeValue),
		Errors: make(map[string]error),
	}
}

// Item returns a copy of the stored item, or nil.
func (t *Table) Item(id string) map[string]ddbtypes.AttributeValue {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[id]
	if !ok {
		return nil
	}
	return copyItem(item)
}

// Len returns the number of stored items.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// Count returns how many times op was called.
func (t *Table) Count(op string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (t *Table) record(op string) error {
	t.Calls = append(t.Calls, op)
	return t.Errors[op]
}

func (t *Table) keyOf(key map[string]ddbtypes.AttributeValue) (string, error) {
	av, ok := key[t.key].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dbtest: key attribute %q missing or not a string", t.key)
	}
	return av.Value, nil
}

// PutItem implements db.DynamoDBAPI.
func (t *Table) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record("PutItem"); err != nil {
		return nil, err
	}
	id, err := t.keyOf(in.Item)
	if err != nil {
		return nil, err
	}
	t.items[id] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

var setClause = regexp.MustCompile(`^\s*(#\w+)\s*=\s*(:\w+)\s*$`)

// UpdateItem implements db.DynamoDBAPI.
func (t *Table) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record("UpdateItem"); err != nil {
		return nil, err
	}
	id, err := t.keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	if in.UpdateExpression == nil || !strings.HasPrefix(*in.UpdateExpression, "SET ") {
		return nil, fmt.Errorf("dbtest: unsupported update expression")
	}

	item, ok := t.items[id]
	if !ok {
		item = copyItem(in.Key)
	}
	for _, clause := range strings.Split(strings.TrimPrefix(*in.UpdateExpression, "SET "), ",") {
		m := setClause.FindStringSubmatch(clause)
		if m == nil {
			return nil, fmt.Errorf("dbtest: unsupported SET clause %q", clause)
		}
		name, ok := in.ExpressionAttributeNames[m[1]]
		if !ok {
			return nil, fmt.Errorf("dbtest: unbound attribute name %s", m[1])
		}
		value, ok := in.ExpressionAttributeValues[m[2]]
		if !ok {
			return nil, fmt.Errorf("dbtest: unbound attribute value %s", m[2])
		}
		item[name] = value
	}
	t.items[id] = item
	return &dynamodb.UpdateItemOutput{}, nil
}

// DeleteItem implements db.DynamoDBAPI.
func (t *Table) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record("DeleteItem"); err != nil {
		return nil, err
	}
	id, err := t.keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	delete(t.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

// Image decodes the stored image record. ok is false when no item exists.
func (t *Table) Image(id string) (rec types.ImageRecord, ok bool, err error) {
	item := t.Item(id)
	if item == nil {
		return types.ImageRecord{}, false, nil
	}
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return types.ImageRecord{}, false, fmt.Errorf("dbtest: decode %q: %w", id, err)
	}
	return rec, true, nil
}

func copyItem(in map[string]ddbtypes.AttributeValue) map[string]ddbtypes.AttributeValue {
	out := make(map[string]ddbtypes.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
