package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/config"
	"avatar-video-api/domain"
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

type dynamoProgressItem struct {
	JobID            string `dynamodbav:"job_id"`
	Status           string `dynamodbav:"status"`
	Percent          int    `dynamodbav:"percent"`
	Stage            string `dynamodbav:"stage"`
	StageDetail      string `dynamodbav:"stage_detail,omitempty"`
	ScriptText       string `dynamodbav:"script_text,omitempty"`
	ExternalJobID    string `dynamodbav:"external_job_id,omitempty"`
	ExternalRenderID string `dynamodbav:"external_render_id,omitempty"`
	FinalArtifactURL string `dynamodbav:"final_artifact_url,omitempty"`
	ErrorMessage     string `dynamodbav:"error_message,omitempty"`
	CreatedAt        int64  `dynamodbav:"created_at"`
	UpdatedAt        int64  `dynamodbav:"updated_at"`
	TTL              int64  `dynamodbav:"ttl"`
}

type dynamoProgressStore struct {
	logger       outbound.LoggerPort
	dynamoSvc    dynamodbiface.DynamoDBAPI
	dynamoConfig *config.DynamoConfig
	now          func() time.Time
}

func NewDynamoProgressStore(logger outbound.LoggerPort, dynamoSvc dynamodbiface.DynamoDBAPI, dynamoConfig *config.DynamoConfig) outbound.ProgressStorePort {
	return &dynamoProgressStore{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
		now:          time.Now,
	}
}

func (c *dynamoProgressStore) Initialize(ctx context.Context, jobID string, seed domain.ProgressRecord) (domain.ProgressRecord, error) {
	seed.JobID = jobID
	err := c.put(ctx, seed, aws.String("attribute_not_exists(job_id)"))
	if err == nil {
		return seed, nil
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
		return c.Read(ctx, jobID)
	}
	return domain.ProgressRecord{}, err
}

// Merge is a read-modify-write. It relies on the pipeline being the only writer of a job.
func (c *dynamoProgressStore) Merge(ctx context.Context, jobID string, patch domain.ProgressPatch) (domain.ProgressRecord, error) {
	current, err := c.Read(ctx, jobID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.ProgressRecord{}, err
	}

	merged := current.Merge(jobID, patch, c.now())
	if err := c.put(ctx, merged, nil); err != nil {
		return domain.ProgressRecord{}, err
	}
	return merged, nil
}

func (c *dynamoProgressStore) Read(ctx context.Context, jobID string) (domain.ProgressRecord, error) {
	out, err := c.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.dynamoConfig.TableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			"job_id": {S: aws.String(jobID)},
		},
	})
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to read progress item", map[string]interface{}{
			"job_id": jobID,
		})
		return domain.ProgressRecord{}, err
	}
	if len(out.Item) == 0 {
		return domain.ProgressRecord{}, domain.ErrNotFound
	}

	var item dynamoProgressItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		c.logger.ErrorWithFields(err, "Failed to unmarshal progress item", map[string]interface{}{
			"job_id": jobID,
		})
		return domain.ProgressRecord{}, err
	}
	return item.toRecord(), nil
}

func (c *dynamoProgressStore) put(ctx context.Context, record domain.ProgressRecord, condition *string) error {
	item := newDynamoProgressItem(record, c.now().Add(time.Duration(c.dynamoConfig.TtlMinutes)*time.Minute))
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to marshal progress item", map[string]interface{}{
			"job_id": record.JobID,
		})
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:                av,
		TableName:           aws.String(c.dynamoConfig.TableName),
		ConditionExpression: condition,
	}

	_, err = c.dynamoSvc.PutItemWithContext(ctx, input)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to save progress item", map[string]interface{}{
			"job_id": record.JobID,
		})
	}
	return err
}

func newDynamoProgressItem(r domain.ProgressRecord, expiresAt time.Time) dynamoProgressItem {
	return dynamoProgressItem{
		JobID:            r.JobID,
		Status:           string(r.Status),
		Percent:          r.Percent,
		Stage:            string(r.Stage),
		StageDetail:      r.StageDetail,
		ScriptText:       r.ScriptText,
		ExternalJobID:    r.ExternalJobID,
		ExternalRenderID: r.ExternalRenderID,
		FinalArtifactURL: r.FinalArtifactURL,
		ErrorMessage:     r.ErrorMessage,
		CreatedAt:        r.CreatedAt.UnixMilli(),
		UpdatedAt:        r.UpdatedAt.UnixMilli(),
		TTL:              expiresAt.Unix(),
	}
}

func (i dynamoProgressItem) toRecord() domain.ProgressRecord {
	return domain.ProgressRecord{
		JobID:            i.JobID,
		Status:           domain.JobStatus(i.Status),
		Percent:          i.Percent,
		Stage:            domain.Stage(i.Stage),
		StageDetail:      i.StageDetail,
		ScriptText:       i.ScriptText,
		ExternalJobID:    i.ExternalJobID,
		ExternalRenderID: i.ExternalRenderID,
		FinalArtifactURL: i.FinalArtifactURL,
		ErrorMessage:     i.ErrorMessage,
		CreatedAt:        time.UnixMilli(i.CreatedAt).UTC(),
		UpdatedAt:        time.UnixMilli(i.UpdatedAt).UTC(),
	}
}
