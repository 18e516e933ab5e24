package kafka_client

import "time"

const (
	KAFKA_TOPIC_RAW_CONTENT       = "raw-content"       // collected posts awaiting analysis
	KAFKA_TOPIC_SENTIMENT_RESULTS = "sentiment-results" // analyzed content awaiting storage
)

const (
	MAX_RETRIES = 5
	RETRY_DELAY = 2 * time.Second
)
