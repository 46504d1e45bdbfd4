package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nsqio/go-nsq"
)

// Producer is the slice of nsq.Producer the queue needs; tests fake it.
type Producer interface {
	Publish(topic string, body []byte) error
	Ping() error
}

// Queue wraps an NSQ producer with the depth introspection the status
// surface wants. NSQ has no in-band depth query, so Depth goes through
// nsqd's HTTP stats endpoint.
type Queue struct {
	producer Producer
	nsqdHTTP string
	client   *http.Client
}

func New(producer Producer, nsqdHTTP string) *Queue {
	return &Queue{
		producer: producer,
		nsqdHTTP: nsqdHTTP,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// NewFromProducer builds a Queue from a concrete nsq.Producer.
func NewFromProducer(producer *nsq.Producer, nsqdHTTP string) *Queue {
	return New(producer, nsqdHTTP)
}

func (q *Queue) Publish(topic string, body []byte) error {
	return q.producer.Publish(topic, body)
}

// Connected reports whether nsqd is reachable.
func (q *Queue) Connected() bool {
	return q.producer.Ping() == nil
}

type statsResponse struct {
	Topics []struct {
		TopicName string `json:"topic_name"`
		Depth     int    `json:"depth"`
		Channels  []struct {
			Depth int `json:"depth"`
		} `json:"channels"`
	} `json:"topics"`
}

// Depth reports how many messages are waiting on topic: messages still held
// by the topic plus messages queued on its channels.
func (q *Queue) Depth(ctx context.Context, topic string) (int, error) {
	url := fmt.Sprintf("http://%s/stats?format=json&topic=%s", q.nsqdHTTP, topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("querying nsqd stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("nsqd stats returned %d", resp.StatusCode)
	}

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return 0, fmt.Errorf("decoding nsqd stats: %w", err)
	}

	depth := 0
	for _, t := range stats.Topics {
		if t.TopicName != topic {
			continue
		}
		depth += t.Depth
		for _, ch := range t.Channels {
			depth += ch.Depth
		}
	}
	return depth, nil
}
