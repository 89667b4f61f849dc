// Package notify publishes budget alerts to other services.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Publisher sends the alerts of an owner somewhere.
type Publisher interface {
	Publish(ctx context.Context, ownerID string, alerts []analytics.Alert) error
}

// Default is the publisher used by the API handlers.
var Default Publisher = Nop{}

// Nop discards all alerts.
type Nop struct{}

func (Nop) Publish(context.Context, string, []analytics.Alert) error {
	return nil
}

var alertsPublished = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledgerlens_budget_alerts_total",
		Help: "Number of budget alerts raised, partitioned by severity.",
	},
	[]string{"severity"},
)

// Collector returns the alert metrics for registration.
func Collector() prometheus.Collector {
	return alertsPublished
}

// Message is the body of a published alert.
type Message struct {
	OwnerID   string          `json:"ownerId"`
	Alert     analytics.Alert `json:"alert"`
	Timestamp time.Time       `json:"timestamp"`
}

// RoutingKey returns the routing key for an alert.
func RoutingKey(alert analytics.Alert) string {
	return fmt.Sprintf("budget.alert.%s", alert.Severity)
}

func encode(ownerID string, alert analytics.Alert, now time.Time) ([]byte, error) {
	return json.Marshal(Message{
		OwnerID:   ownerID,
		Alert:     alert,
		Timestamp: now.In(time.UTC),
	})
}

// Send counts the alerts and publishes them with p. Publishing errors
// are logged and not returned, alerts are delivered on a best effort basis.
func Send(ctx context.Context, p Publisher, ownerID string, alerts []analytics.Alert) {
	for _, a := range alerts {
		alertsPublished.WithLabelValues(string(a.Severity)).Inc()
	}

	if p == nil || len(alerts) == 0 {
		return
	}

	if err := p.Publish(ctx, ownerID, alerts); err != nil {
		log.Error().Str("owner", ownerID).Int("alerts", len(alerts)).Err(err).Msg("publishing budget alerts failed")
	}
}
