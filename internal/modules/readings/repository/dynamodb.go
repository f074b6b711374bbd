package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

// DynamoDBAPI is the subset of *dynamodb.Client the repository uses.
type DynamoDBAPI interface {
	dynamodb.ScanAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type dynamoRepository struct {
	client DynamoDBAPI
	table  string
}

// NewDynamoDBRepository stores readings in table, whose hash key is the
// string attribute "datetime". PutItem already has replace semantics.
func NewDynamoDBRepository(client DynamoDBAPI, table string) ReadingRepository {
	return &dynamoRepository{client: client, table: table}
}

func (r *dynamoRepository) Write(ctx context.Context, rd types.Reading) error {
	item, err := attributevalue.MarshalMap(rd)
	if err != nil {
		return fmt.Errorf("marshal reading %q: %w", rd.Datetime, err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put reading %q: %w", rd.Datetime, err)
	}
	return nil
}

func (r *dynamoRepository) ScanAll(ctx context.Context) ([]types.Reading, error) {
	out := []types.Reading{}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		var batch []types.Reading
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal readings: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (r *dynamoRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.table),
	})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", r.table, err)
	}
	return nil
}
