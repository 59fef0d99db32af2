// Package dynamo implements the record store on DynamoDB.
//
// The conditional best-score write uses a single UpdateItem with the
// condition "attribute_not_exists(udid) OR score < :score", so check and
// write are one atomic store call. createdAt is preserved across updates
// with if_not_exists.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/okian/scorekeep/internal/adapters/repository"
	"github.com/okian/scorekeep/internal/domain/types"
	"github.com/okian/scorekeep/pkg/metrics"
)

// Client is the subset of the DynamoDB API the store uses. Satisfied by
// *dynamodb.Client; tests substitute a fake.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store implements repository.Store on a DynamoDB table.
type Store struct {
	client Client
	table  string

	region    string
	endpoint  string
	accessKey string
	secretKey string
}

var _ repository.Store = (*Store)(nil)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Store) {
		if region != "" {
			s.region = region
		}
	}
}

// WithEndpoint overrides the DynamoDB endpoint, e.g. a local instance.
func WithEndpoint(endpoint string) Option {
	return func(s *Store) {
		s.endpoint = endpoint
	}
}

// WithStaticCredentials sets static credentials instead of the SDK's
// default chain.
func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(s *Store) {
		s.accessKey = accessKey
		s.secretKey = secretKey
	}
}

// WithClient injects a pre-built client. Used by tests.
func WithClient(c Client) Option {
	return func(s *Store) {
		s.client = c
	}
}

// New creates a Store for the given table, building a DynamoDB client from
// the environment unless one is injected.
func New(ctx context.Context, table string, opts ...Option) (*Store, error) {
	s := &Store{table: table}
	for _, opt := range opts {
		opt(s)
	}
	if s.client != nil {
		return s, nil
	}

	var cfgOpts []func(*awsconfig.LoadOptions) error
	if s.region != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithRegion(s.region))
	}
	if s.accessKey != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.accessKey, s.secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	s.client = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if s.endpoint != "" {
			o.BaseEndpoint = aws.String(s.endpoint)
		}
	})
	return s, nil
}

func (s *Store) key(key string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"udid": &ddbtypes.AttributeValueMemberS{Value: key},
	}
}

// Upsert performs the atomic conditional write. A rejected write surfaces
// as ConditionalCheckFailedException carrying the stored item, which is
// returned as UpsertResult.Existing.
func (s *Store) Upsert(ctx context.Context, rec types.Record) (repository.UpsertResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	update := expression.
		Set(expression.Name("rawUdid"), expression.Value(rec.DeviceID)).
		Set(expression.Name("userName"), expression.Value(rec.UserName)).
		Set(expression.Name("exerciseId"), expression.Value(rec.Exercise.String())).
		Set(expression.Name("score"), expression.Value(rec.Score)).
		Set(expression.Name("testsPassed"), expression.Value(rec.TestsPassed)).
		Set(expression.Name("totalTests"), expression.Value(rec.TotalTests)).
		Set(expression.Name("executionTimeMs"), expression.Value(rec.ExecutionTimeMs)).
		Set(expression.Name("gcAllocBytes"), expression.Value(rec.GCAllocBytes)).
		Set(expression.Name("updatedAt"), expression.Value(rec.UpdatedAt.Format(timeLayout))).
		Set(expression.Name("createdAt"),
			expression.IfNotExists(expression.Name("createdAt"), expression.Value(rec.CreatedAt.Format(timeLayout))))

	// Ties are rejected: the stored score must be strictly lower.
	cond := expression.AttributeNotExists(expression.Name("udid")).
		Or(expression.Name("score").LessThan(expression.Value(rec.Score)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return repository.UpsertResult{}, fmt.Errorf("build update expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(s.table),
		Key:                                 s.key(rec.Key()),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        ddbtypes.ReturnValueAllOld,
		ReturnValuesOnConditionCheckFailure: ddbtypes.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			existing, uerr := unmarshalRecord(ccf.Item)
			if uerr != nil {
				metrics.RecordStoreError()
				return repository.UpsertResult{}, fmt.Errorf("unmarshal rejected item: %w", uerr)
			}
			return repository.UpsertResult{Existing: existing}, nil
		}
		metrics.RecordStoreError()
		return repository.UpsertResult{}, fmt.Errorf("update item: %w", err)
	}
	return repository.UpsertResult{Updated: true, Created: len(out.Attributes) == 0}, nil
}

// Get performs a point lookup by composite key.
func (s *Store) Get(ctx context.Context, key string) (types.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(key),
	})
	if err != nil {
		metrics.RecordStoreError()
		return types.Record{}, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return types.Record{}, repository.ErrNotFound
	}
	return unmarshalRecord(out.Item)
}

// ScanAll returns every record in the table.
func (s *Store) ScanAll(ctx context.Context) ([]types.Record, error) {
	return s.scan(ctx, nil)
}

// ScanByDevice filters on the rawUdid attribute carried beside the
// composite key.
func (s *Store) ScanByDevice(ctx context.Context, deviceID string) ([]types.Record, error) {
	filter := expression.Name("rawUdid").Equal(expression.Value(deviceID))
	return s.scan(ctx, &filter)
}

// ScanByExercise filters on the exerciseId attribute.
func (s *Store) ScanByExercise(ctx context.Context, ex types.Exercise) ([]types.Record, error) {
	filter := expression.Name("exerciseId").Equal(expression.Value(ex.String()))
	return s.scan(ctx, &filter)
}

func (s *Store) scan(ctx context.Context, filter *expression.ConditionBuilder) ([]types.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if filter != nil {
		expr, err := expression.NewBuilder().WithFilter(*filter).Build()
		if err != nil {
			return nil, fmt.Errorf("build filter expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var records []types.Record
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("scan: %w", err)
		}
		var rows []row
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &rows); err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("unmarshal scan page: %w", err)
		}
		for _, r := range rows {
			rec, err := r.record()
			if err != nil {
				metrics.RecordStoreError()
				return nil, fmt.Errorf("decode row %q: %w", r.UDID, err)
			}
			records = append(records, rec)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return records, nil
}

// Count reports the table's item count. DynamoDB refreshes this figure
// periodically, so it is approximate.
func (s *Store) Count(ctx context.Context) int {
	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil || out.Table == nil || out.Table.ItemCount == nil {
		return 0
	}
	return int(*out.Table.ItemCount)
}

func unmarshalRecord(item map[string]ddbtypes.AttributeValue) (types.Record, error) {
	var r row
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return types.Record{}, err
	}
	return r.record()
}
