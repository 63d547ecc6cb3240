package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK          = "ok"
	resultError       = "error"
	resultUndecodable = "undecodable"
)

var (
	published = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ems_kafka_published_total",
		Help: "Messages written to Kafka by topic and result.",
	}, []string{"topic", "result"})
	handled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ems_kafka_handled_total",
		Help: "Fetched messages by topic and handler result.",
	}, []string{"topic", "result"})
	commitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ems_kafka_commit_failures_total",
		Help: "Offset commits that failed.",
	}, []string{"topic"})
	decodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ems_kafka_decode_failures_total",
		Help: "Payloads that could not be unmarshalled.",
	})
)
