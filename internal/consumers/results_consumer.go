package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/wedhazo/nexussentinel/internal/clients/kafka_client"
	"github.com/wedhazo/nexussentinel/internal/db"
	"github.com/wedhazo/nexussentinel/internal/models"
	"github.com/wedhazo/nexussentinel/internal/utils"
)

var insertBuffer = utils.NewBatchBuffer[models.AnalyzedContent]()

func StartResultsConsumer(ctx context.Context, consumer *kafka.Consumer) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(ctx, consumer)

	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			storeResults(ctx, committer)
		default:
			msg, err := iterator.Next()
			if err != nil {
				utils.HandleConsumerError(err)
				continue
			}

			var results []models.AnalyzedContent
			if err := utils.DeserializeFromJSON(msg.Value, &results); err != nil {
				utils.HandleConsumerError(err)
				continue
			}

			for _, result := range results {
				utils.TrackMessage(result.ContentID, msg)
				insertBuffer.Add(result)
				if insertBuffer.Size() >= utils.DYNAMODB_BATCH_SIZE {
					storeResults(ctx, committer)
				}
			}
		}
	}
}

func storeResults(ctx context.Context, committer *kafka_client.KafkaCommitHandler) {
	batch := insertBuffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	var insertErr error
	for i := 0; i < 3; i++ {
		insertErr = db.BatchInsertSentimentResults(ctx, batch)
		if insertErr == nil {
			break
		}
		slog.Error("[ResultsConsumer] Failed to write results to DB",
			slog.String("error", insertErr.Error()),
			slog.Int("attempt", i+1))
	}

	for _, result := range batch {
		msg, found := utils.GetMessageForContent(result.ContentID)
		if found {
			if err := committer.Commit(msg); err != nil {
				slog.Warn("[ResultsConsumer] Failed to commit offset",
					slog.String("error", err.Error()))
			}
		}
	}
}
