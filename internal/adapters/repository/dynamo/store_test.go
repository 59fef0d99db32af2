package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/okian/scorekeep/internal/adapters/repository"
	"github.com/okian/scorekeep/internal/domain/types"
)

// fakeClient scripts DynamoDB responses per call.
type fakeClient struct {
	updateOut *dynamodb.UpdateItemOutput
	updateErr error
	updateIn  *dynamodb.UpdateItemInput

	getOut *dynamodb.GetItemOutput
	getErr error

	scanPages []*dynamodb.ScanOutput
	scanCalls int
	scanErr   error

	describeOut *dynamodb.DescribeTableOutput
	describeErr error
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateIn = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateOut, nil
}

func (f *fakeClient) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeClient) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := f.scanPages[f.scanCalls]
	f.scanCalls++
	return out, nil
}

func (f *fakeClient) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.describeOut, nil
}

func newStore(t *testing.T, client Client) *Store {
	t.Helper()
	store, err := New(context.Background(), "TestScores", WithClient(client))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

func testRecord(score float64) types.Record {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return types.Record{
		DeviceID:  "device-1",
		Exercise:  types.ExerciseCPU,
		UserName:  "Alice",
		Score:     score,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func marshalRow(t *testing.T, r row) map[string]ddbtypes.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		t.Fatalf("failed to marshal row: %v", err)
	}
	return item
}

func storedRow(score float64) row {
	ts := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC).Format(timeLayout)
	return row{
		UDID:       "device-1#CPU",
		RawUDID:    "device-1",
		UserName:   "Alice",
		ExerciseID: "CPU",
		Score:      score,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

func TestStore_UpsertCreates(t *testing.T) {
	client := &fakeClient{updateOut: &dynamodb.UpdateItemOutput{}}
	store := newStore(t, client)

	res, err := store.Upsert(context.Background(), testRecord(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Updated || !res.Created {
		t.Errorf("expected created upsert, got %+v", res)
	}

	in := client.updateIn
	if in == nil {
		t.Fatal("expected UpdateItem to be called")
	}
	key, ok := in.Key["udid"].(*ddbtypes.AttributeValueMemberS)
	if !ok || key.Value != "device-1#CPU" {
		t.Errorf("expected composite key device-1#CPU, got %v", in.Key["udid"])
	}
	if in.ConditionExpression == nil {
		t.Error("expected a condition expression on the write")
	}
	if in.ReturnValues != ddbtypes.ReturnValueAllOld {
		t.Errorf("expected ReturnValues ALL_OLD, got %v", in.ReturnValues)
	}
}

func TestStore_UpsertUpdates(t *testing.T) {
	// Non-empty Attributes means an existing item was replaced.
	prev := storedRow(40)
	client := &fakeClient{updateOut: &dynamodb.UpdateItemOutput{
		Attributes: marshalRow(t, prev),
	}}
	store := newStore(t, client)

	res, err := store.Upsert(context.Background(), testRecord(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Updated || res.Created {
		t.Errorf("expected non-creating update, got %+v", res)
	}
}

func TestStore_UpsertRejected(t *testing.T) {
	existing := storedRow(90)
	client := &fakeClient{updateErr: &ddbtypes.ConditionalCheckFailedException{
		Item: marshalRow(t, existing),
	}}
	store := newStore(t, client)

	res, err := store.Upsert(context.Background(), testRecord(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Updated {
		t.Error("expected rejected upsert")
	}
	if res.Existing.Score != 90 {
		t.Errorf("expected existing score 90, got %f", res.Existing.Score)
	}
	if res.Existing.DeviceID != "device-1" {
		t.Errorf("expected existing device-1, got %q", res.Existing.DeviceID)
	}
}

func TestStore_UpsertError(t *testing.T) {
	client := &fakeClient{updateErr: errors.New("throttled")}
	store := newStore(t, client)

	if _, err := store.Upsert(context.Background(), testRecord(50)); err == nil {
		t.Error("expected error to surface")
	}
}

func TestStore_Get(t *testing.T) {
	client := &fakeClient{getOut: &dynamodb.GetItemOutput{
		Item: marshalRow(t, storedRow(75)),
	}}
	store := newStore(t, client)

	rec, err := store.Get(context.Background(), "device-1#CPU")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Score != 75 {
		t.Errorf("expected score 75, got %f", rec.Score)
	}
	if rec.Exercise != types.ExerciseCPU {
		t.Errorf("expected exercise CPU, got %s", rec.Exercise)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected createdAt to be decoded")
	}
}

func TestStore_GetMissing(t *testing.T) {
	client := &fakeClient{getOut: &dynamodb.GetItemOutput{}}
	store := newStore(t, client)

	if _, err := store.Get(context.Background(), "nope#CPU"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ScanPagination(t *testing.T) {
	page1 := storedRow(10)
	page2 := storedRow(20)
	page2.UDID = "device-2#CPU"
	page2.RawUDID = "device-2"

	client := &fakeClient{scanPages: []*dynamodb.ScanOutput{
		{
			Items: []map[string]ddbtypes.AttributeValue{marshalRow(t, page1)},
			LastEvaluatedKey: map[string]ddbtypes.AttributeValue{
				"udid": &ddbtypes.AttributeValueMemberS{Value: page1.UDID},
			},
		},
		{
			Items: []map[string]ddbtypes.AttributeValue{marshalRow(t, page2)},
		},
	}}
	store := newStore(t, client)

	records, err := store.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records across pages, got %d", len(records))
	}
	if client.scanCalls != 2 {
		t.Errorf("expected 2 scan calls, got %d", client.scanCalls)
	}
	if records[0].DeviceID != "device-1" || records[1].DeviceID != "device-2" {
		t.Errorf("unexpected page order: %q, %q", records[0].DeviceID, records[1].DeviceID)
	}
}

func TestStore_ScanMalformedRow(t *testing.T) {
	bad := storedRow(10)
	bad.CreatedAt = "not-a-timestamp"

	client := &fakeClient{scanPages: []*dynamodb.ScanOutput{
		{Items: []map[string]ddbtypes.AttributeValue{marshalRow(t, bad)}},
	}}
	store := newStore(t, client)

	if _, err := store.ScanAll(context.Background()); err == nil {
		t.Error("expected decode error for malformed timestamp")
	}
}

func TestStore_Count(t *testing.T) {
	n := int64(42)
	client := &fakeClient{describeOut: &dynamodb.DescribeTableOutput{
		Table: &ddbtypes.TableDescription{ItemCount: &n},
	}}
	store := newStore(t, client)

	if count := store.Count(context.Background()); count != 42 {
		t.Errorf("expected count 42, got %d", count)
	}
}

func TestStore_CountUnavailable(t *testing.T) {
	client := &fakeClient{describeErr: errors.New("access denied")}
	store := newStore(t, client)

	if count := store.Count(context.Background()); count != 0 {
		t.Errorf("expected count 0 on error, got %d", count)
	}
}
