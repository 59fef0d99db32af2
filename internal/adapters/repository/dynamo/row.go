package dynamo

import (
	"time"

	"github.com/okian/scorekeep/internal/domain/types"
)

// timeLayout is the wire format for timestamps stored in the table.
const timeLayout = time.RFC3339Nano

// row is the flat DynamoDB item for one (device, exercise) record.
// The partition key is the composite "{udid}#{exerciseId}" string; the raw
// device id is carried alongside it so device scans can filter without
// splitting the key.
type row struct {
	UDID            string  `dynamodbav:"udid"` // partition key, composite
	RawUDID         string  `dynamodbav:"rawUdid"`
	UserName        string  `dynamodbav:"userName"`
	ExerciseID      string  `dynamodbav:"exerciseId"`
	Score           float64 `dynamodbav:"score"`
	TestsPassed     int     `dynamodbav:"testsPassed"`
	TotalTests      int     `dynamodbav:"totalTests"`
	ExecutionTimeMs float64 `dynamodbav:"executionTimeMs"`
	GCAllocBytes    int64   `dynamodbav:"gcAllocBytes"`
	CreatedAt       string  `dynamodbav:"createdAt"`
	UpdatedAt       string  `dynamodbav:"updatedAt"`
}

func (r row) record() (types.Record, error) {
	createdAt, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return types.Record{}, err
	}
	updatedAt, err := time.Parse(timeLayout, r.UpdatedAt)
	if err != nil {
		return types.Record{}, err
	}
	return types.Record{
		DeviceID:        r.RawUDID,
		Exercise:        types.Exercise(r.ExerciseID),
		UserName:        r.UserName,
		Score:           r.Score,
		TestsPassed:     r.TestsPassed,
		TotalTests:      r.TotalTests,
		ExecutionTimeMs: r.ExecutionTimeMs,
		GCAllocBytes:    r.GCAllocBytes,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}
