package consumers

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/wedhazo/nexussentinel/internal/clients/kafka_client"
	"github.com/wedhazo/nexussentinel/internal/models"
	"github.com/wedhazo/nexussentinel/internal/sentiment"
	"github.com/wedhazo/nexussentinel/internal/utils"
)

// Posts whose lexical compound score lands inside this band are too ambiguous
// for VADER alone and escalate to the model cascade.
const vaderUncertaintyBand = 0.35

// sentimentEngine is the slice of the engine the pipeline needs; both
// *sentiment.Engine and *sentiment.CachedEngine satisfy it.
type sentimentEngine interface {
	Analyze(ctx context.Context, req models.SentimentRequest) (models.SentimentResult, error)
}

var (
	pipelineEngine sentimentEngine
	pipelineVader  *sentiment.VADERAnalyzer

	resultBuffer = utils.NewBatchBuffer[models.AnalyzedContent]()
)

// InitPipeline wires the engine and the lexical pre-screen into the consumers.
// Must be called before StartContentConsumer.
func InitPipeline(engine sentimentEngine, vader *sentiment.VADERAnalyzer) {
	pipelineEngine = engine
	pipelineVader = vader
}

// StartContentConsumer consumes raw content, pre-screens it with VADER and
// escalates ambiguous posts to the model cascade. The engine gate flips false
// when provider health checks fail; while down, everything rides on VADER.
func StartContentConsumer(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	if pipelineEngine == nil || pipelineVader == nil {
		slog.Error("[ContentConsumer] Pipeline not initialized, refusing to start")
		return
	}

	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(ctx, consumer)

	slog.Info("[ContentConsumer] Listening for messages...")

	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[ContentConsumer] Consumer shutting down...")
			return
		case <-ticker.C:
			publishResults(ctx, committer)
		default:
			msg, err := iterator.Next()
			if err != nil {
				utils.HandleConsumerError(err)
				continue
			}

			var content models.RawContent
			if err := utils.DeserializeFromJSON(msg.Value, &content); err != nil {
				utils.HandleConsumerError(err)
				continue
			}

			utils.TrackMessage(content.ContentID, msg)

			analyzed := analyzeContent(ctx, content, engineAvailable(health))
			resultBuffer.Add(analyzed)

			if resultBuffer.Size() >= utils.BATCH_SIZE {
				publishResults(ctx, committer)
			}
		}
	}
}

func engineAvailable(health []*atomic.Bool) bool {
	for _, h := range health {
		if h != nil && !h.Load() {
			return false
		}
	}
	return true
}

func analyzeContent(ctx context.Context, content models.RawContent, engineUp bool) models.AnalyzedContent {
	plainText := sentiment.ConvertMarkdownToText(content.Text)
	score, label := pipelineVader.Score(plainText)

	analyzed := models.AnalyzedContent{
		RawContent:     content,
		SentimentLabel: label,
		VADERScore:     score,
		Confidence:     math.Abs(score),
		SentimentSource: models.SentimentSource{
			Initial: "vader",
			Final:   "vader",
		},
		AnalyzedAt: time.Now().UTC(),
	}

	if math.Abs(score) >= vaderUncertaintyBand || !engineUp {
		if !engineUp {
			slog.Warn("[ContentConsumer] Engine unhealthy, keeping VADER verdict",
				slog.String("content_id", content.ContentID))
		}
		return analyzed
	}

	result, err := pipelineEngine.Analyze(ctx, models.SentimentRequest{
		Text:            plainText,
		Source:          content.Source,
		ExtractEntities: true,
	})
	if err != nil {
		slog.Error("[ContentConsumer] Cascade analysis failed, keeping VADER verdict",
			slog.String("content_id", content.ContentID),
			slog.String("error", err.Error()))
		return analyzed
	}

	analyzed.SentimentLabel = result.Sentiment
	analyzed.Confidence = result.Confidence
	analyzed.Reasoning = result.Reasoning
	analyzed.Entities = result.Entities
	analyzed.SentimentSource.Final = result.Source
	return analyzed
}

func publishResults(ctx context.Context, committer *kafka_client.KafkaCommitHandler) {
	batch := resultBuffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	var err error
	for i := 0; i < 3; i++ {
		err = kafka_client.PublishToKafka(ctx, kafka_client.KAFKA_TOPIC_SENTIMENT_RESULTS, batch[0].ContentID, batch)
		if err == nil {
			break
		}
		slog.Warn("[ContentConsumer] Batch publishing failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		slog.Error("[ContentConsumer] Dropping batch after publish retries",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()))
		return
	}

	for _, content := range batch {
		trackedMsg, found := utils.GetMessageForContent(content.ContentID)
		if found {
			if err := committer.Commit(trackedMsg); err != nil {
				slog.Warn("[ContentConsumer] Failed to commit offset",
					slog.String("error", err.Error()))
			}
		}
	}
}
