package dynamo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// fakeDynamo is an in-memory stand-in for the subset of DynamoDB the
// repositories use: key lookups, simple condition and filter expressions,
// and SET/ADD/REMOVE updates.
type fakeDynamo struct {
	mu     sync.Mutex
	keys   map[string][]string
	tables map[string]map[string]item

	// batchHook returns the requests to report as unprocessed.
	batchHook  func(call int, reqs []types.WriteRequest) []types.WriteRequest
	batchCalls int
	batchSizes []int
	err        error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		keys: map[string][]string{
			"sessions":   {"id"},
			"admins":     {"username"},
			"campaigns":  {"campaignId"},
			"recipients": {"campaignId", "phone"},
			"templates":  {"templateId"},
		},
		tables: make(map[string]map[string]item),
	}
}

func (f *fakeDynamo) keyOf(table string, it item) string {
	parts := make([]string, 0, 2)
	for _, k := range f.keys[table] {
		if s, ok := it[k].(*types.AttributeValueMemberS); ok {
			parts = append(parts, s.Value)
		}
	}
	return strings.Join(parts, "|")
}

func (f *fakeDynamo) table(name string) map[string]item {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[string]item)
		f.tables[name] = t
	}
	return t
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	it := f.table(*in.TableName)[f.keyOf(*in.TableName, in.Key)]
	return &dynamodb.GetItemOutput{Item: it}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t := f.table(*in.TableName)
	key := f.keyOf(*in.TableName, in.Item)
	if !evalCondition(aws.ToString(in.ConditionExpression), t[key], in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
		return nil, conditionFailed()
	}
	t[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t := f.table(*in.TableName)
	key := f.keyOf(*in.TableName, in.Key)
	if !evalCondition(aws.ToString(in.ConditionExpression), t[key], in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
		return nil, conditionFailed()
	}
	delete(t, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

var clauseRe = regexp.MustCompile(`\b(SET|REMOVE|ADD)\s+`)

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t := f.table(*in.TableName)
	key := f.keyOf(*in.TableName, in.Key)
	cur := t[key]
	if !evalCondition(aws.ToString(in.ConditionExpression), cur, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
		return nil, conditionFailed()
	}

	next := item{}
	for k, v := range in.Key {
		next[k] = v
	}
	for k, v := range cur {
		next[k] = v
	}

	expr := aws.ToString(in.UpdateExpression)
	locs := clauseRe.FindAllStringSubmatchIndex(expr, -1)
	for i, loc := range locs {
		action := expr[loc[2]:loc[3]]
		end := len(expr)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		for _, part := range strings.Split(strings.TrimSpace(expr[loc[1]:end]), ",") {
			part = strings.TrimSpace(part)
			switch action {
			case "SET":
				name, val, _ := strings.Cut(part, "=")
				next[resolveName(strings.TrimSpace(name), in.ExpressionAttributeNames)] = in.ExpressionAttributeValues[strings.TrimSpace(val)]
			case "REMOVE":
				delete(next, resolveName(part, in.ExpressionAttributeNames))
			case "ADD":
				fields := strings.Fields(part)
				name := resolveName(fields[0], in.ExpressionAttributeNames)
				add, _ := strconv.Atoi(in.ExpressionAttributeValues[fields[1]].(*types.AttributeValueMemberN).Value)
				have := 0
				if n, ok := next[name].(*types.AttributeValueMemberN); ok {
					have, _ = strconv.Atoi(n.Value)
				}
				next[name] = &types.AttributeValueMemberN{Value: strconv.Itoa(have + add)}
			}
		}
	}
	t[key] = next
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []item
	for _, it := range f.sorted(*in.TableName) {
		if !evalCondition(aws.ToString(in.KeyConditionExpression), it, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
			continue
		}
		if !evalCondition(aws.ToString(in.FilterExpression), it, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
			continue
		}
		out = append(out, it)
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []item
	for _, it := range f.sorted(*in.TableName) {
		if evalCondition(aws.ToString(in.FilterExpression), it, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
			out = append(out, it)
		}
	}
	return &dynamodb.ScanOutput{Items: out}, nil
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batchCalls++
	unprocessed := map[string][]types.WriteRequest{}
	for table, reqs := range in.RequestItems {
		if len(reqs) > MaxBatchItems {
			return nil, errors.New("ValidationException: too many items requested for the BatchWriteItem call")
		}
		f.batchSizes = append(f.batchSizes, len(reqs))
		var left []types.WriteRequest
		if f.batchHook != nil {
			left = f.batchHook(f.batchCalls, reqs)
		}
		skip := make(map[string]bool, len(left))
		for _, r := range left {
			skip[f.keyOf(table, r.PutRequest.Item)] = true
		}
		t := f.table(table)
		for _, r := range reqs {
			key := f.keyOf(table, r.PutRequest.Item)
			if !skip[key] {
				t[key] = r.PutRequest.Item
			}
		}
		if len(left) > 0 {
			unprocessed[table] = left
		}
	}
	return &dynamodb.BatchWriteItemOutput{UnprocessedItems: unprocessed}, nil
}

func (f *fakeDynamo) sorted(table string) []item {
	t := f.table(table)
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]item, len(keys))
	for i, k := range keys {
		out[i] = t[k]
	}
	return out
}

func (f *fakeDynamo) count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.table(table))
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		return names[name]
	}
	return name
}

var funcRe = regexp.MustCompile(`^(attribute_exists|attribute_not_exists)\((\w+)\)$`)

// evalCondition supports conjunctions of attribute_exists,
// attribute_not_exists and string equality.
func evalCondition(expr string, it item, names map[string]string, values map[string]types.AttributeValue) bool {
	if expr == "" {
		return true
	}
	for _, part := range strings.Split(expr, " AND ") {
		part = strings.TrimSpace(part)
		if m := funcRe.FindStringSubmatch(part); m != nil {
			_, exists := it[resolveName(m[2], names)]
			if (m[1] == "attribute_exists") != exists {
				return false
			}
			continue
		}
		name, val, ok := strings.Cut(part, "=")
		if !ok {
			panic(fmt.Sprintf("fakeDynamo: unsupported expression %q", part))
		}
		have, _ := it[resolveName(strings.TrimSpace(name), names)].(*types.AttributeValueMemberS)
		want, _ := values[strings.TrimSpace(val)].(*types.AttributeValueMemberS)
		if have == nil || want == nil || have.Value != want.Value {
			return false
		}
	}
	return true
}
