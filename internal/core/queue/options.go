package queue

import "github.com/prometheus/client_golang/prometheus"

type Options struct {
	URL                string
	Exchange           string
	RoutingKey         string
	Queue              string
	DeadLetterExchange string
	Prefetch           int
}

var (
	published = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "queue_published_total", Help: "Events published by result"},
		[]string{"result"},
	)
	consumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "queue_consumed_total", Help: "Deliveries handled by outcome"},
		[]string{"outcome"},
	)
)

func init() { prometheus.MustRegister(published, consumed) }
