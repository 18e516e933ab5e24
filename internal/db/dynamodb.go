package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wedhazo/nexussentinel/internal/clients"
	"github.com/wedhazo/nexussentinel/internal/models"
)

const SENTIMENT_RESULTS_TABLE_NAME = "SentimentResults"

var dbClient *dynamodb.Client

func InitDynamoDB() {
	dbClient = clients.GetDynamoDBClient()
}

// BatchInsertSentimentResults writes analyzed content in DynamoDB batch-write
// chunks, replaying unprocessed items with backoff.
func BatchInsertSentimentResults(ctx context.Context, results []models.AnalyzedContent) error {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	const maxBatchSize = 25
	for i := 0; i < len(results); i += maxBatchSize {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := i + maxBatchSize
		if end > len(results) {
			end = len(results)
		}

		writeRequests := make([]types.WriteRequest, 0, maxBatchSize)
		for _, result := range results[i:end] {
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{
					Item: ResultToDynamoDBItem(result),
				},
			})
		}

		out, err := dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				SENTIMENT_RESULTS_TABLE_NAME: writeRequests,
			},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to batch write sentiment results: %w", err)
		}

		retryCount := 0
		backoff := 500 * time.Millisecond
		for len(out.UnprocessedItems) > 0 && retryCount < 3 {
			time.Sleep(backoff)
			backoff *= 2

			slog.Warn("[DynamoDB] Retrying unprocessed sentiment items...",
				slog.Int("attempt", retryCount+1),
				slog.Int("remaining", len(out.UnprocessedItems[SENTIMENT_RESULTS_TABLE_NAME])))

			out, err = dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] Retry error %w", err)
			}

			retryCount++
		}

		if len(out.UnprocessedItems) > 0 {
			slog.Error("[DynamoDB] Some sentiment items failed after retries",
				slog.Int("remaining", len(out.UnprocessedItems[SENTIMENT_RESULTS_TABLE_NAME])))
		}
	}

	slog.Info("[DynamoDB] Successfully stored sentiment results",
		slog.Int("count", len(results)))
	return nil
}

// GetRecentResults scans the results table; used by operational tooling.
func GetRecentResults(ctx context.Context) ([]models.AnalyzedContent, error) {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	var results []models.AnalyzedContent
	input := &dynamodb.ScanInput{
		TableName: aws.String(SENTIMENT_RESULTS_TABLE_NAME),
	}

	paginator := dynamodb.NewScanPaginator(dbClient, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for sentiment results failed: %w", err)
		}
		var page []models.AnalyzedContent
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal result page", slog.String("error", err.Error()))
			return nil, err
		}
		results = append(results, page...)
	}

	slog.Info("[DynamoDB] Successfully retrieved sentiment results", slog.Int("count", len(results)))
	return results, nil
}

func ResultToDynamoDBItem(result models.AnalyzedContent) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue)

	item["content_id"] = &types.AttributeValueMemberS{Value: result.ContentID}
	item["source"] = &types.AttributeValueMemberS{Value: result.Source}
	item["sentiment_label"] = &types.AttributeValueMemberS{Value: string(result.SentimentLabel)}
	item["confidence"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%f", result.Confidence)}
	item["vader_score"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%f", result.VADERScore)}
	item["sentiment_source"] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		"initial": &types.AttributeValueMemberS{Value: result.SentimentSource.Initial},
		"final":   &types.AttributeValueMemberS{Value: result.SentimentSource.Final},
	}}
	item["created_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Unix())}
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Add(24*time.Hour).Unix())}

	if result.Topic != "" {
		item["topic"] = &types.AttributeValueMemberS{Value: result.Topic}
	}
	if result.Text != "" {
		item["text"] = &types.AttributeValueMemberS{Value: result.Text}
	}
	if result.Reasoning != "" {
		item["reasoning"] = &types.AttributeValueMemberS{Value: result.Reasoning}
	}

	if len(result.Entities) > 0 {
		entities := make([]types.AttributeValue, 0, len(result.Entities))
		for _, entity := range result.Entities {
			entities = append(entities, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"text":       &types.AttributeValueMemberS{Value: entity.Text},
				"type":       &types.AttributeValueMemberS{Value: string(entity.Type)},
				"confidence": &types.AttributeValueMemberN{Value: fmt.Sprintf("%f", entity.Confidence)},
			}})
		}
		item["entities"] = &types.AttributeValueMemberL{Value: entities}
	}

	metadata := make(map[string]types.AttributeValue)
	if result.Metadata.Author != "" {
		metadata["author"] = &types.AttributeValueMemberS{Value: result.Metadata.Author}
	}
	if result.Metadata.PostID != "" {
		metadata["post_id"] = &types.AttributeValueMemberS{Value: result.Metadata.PostID}
	}
	if result.Metadata.URL != "" {
		metadata["url"] = &types.AttributeValueMemberS{Value: result.Metadata.URL}
	}
	if result.Metadata.Subreddit != "" {
		metadata["subreddit"] = &types.AttributeValueMemberS{Value: result.Metadata.Subreddit}
	}
	if !result.Metadata.Timestamp.IsZero() {
		metadata["timestamp"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", result.Metadata.Timestamp.Unix())}
	}
	if len(metadata) > 0 {
		item["metadata"] = &types.AttributeValueMemberM{Value: metadata}
	}

	return item
}
