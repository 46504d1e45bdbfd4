package config

const (
	// TopicIngestTask is the NSQ topic carrying URLs queued for ingestion.
	TopicIngestTask = "ingest.task"

	// ChannelWorkers is the consumer channel shared by all ingestion workers.
	// A shared channel gives each message to exactly one worker instance.
	ChannelWorkers = "workers"
)
