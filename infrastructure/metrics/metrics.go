package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsHandledCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commands_handled_total",
			Help: "Total number of handled bot commands",
		},
		[]string{"command"},
	)

	ActiveSessionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dialog_sessions_active",
			Help: "Number of dialogs currently waiting for the next message",
		},
	)

	RemindersSentCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of deadline reminders sent",
		},
	)
)

func Init() {
	prometheus.MustRegister(CommandsHandledCounter)
	prometheus.MustRegister(ActiveSessionsGauge)
	prometheus.MustRegister(RemindersSentCounter)
}

func StartMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics server running on %s", port)
		if err := http.ListenAndServe(port, nil); err != nil {
			log.Fatalf("failed to start metrics server: %v", err)
		}
	}()
}
