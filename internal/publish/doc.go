// Package publish fans quote batches out to Redis and Kafka.
//
// RedisPublisher keeps the latest quote per symbol under <key_prefix><symbol>
// and publishes it on <channel_prefix><symbol>, both in one pipeline.
// KafkaPublisher writes one message per quote keyed by symbol, so a
// partitioned consumer sees each symbol in order.
//
// Both implement router.Sink.
package publish
