// Package notify sends best-effort Discord webhook alerts when the
// reconciliation engine confirms a status change. It is not part of the
// confirmation state machine itself: a notification failure never
// affects billing or status mutation, which have already been committed
// to the Persistence Adapter by the time Notifier is called.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// EventType is the kind of status transition being reported.
type EventType string

const (
	EventConfirmedOffline EventType = "confirmed_offline"
	EventRecoveredOnline  EventType = "recovered_online"
)

type eventDisplay struct {
	Emoji string
	Title string
	Color int
}

var eventDisplayMap = map[EventType]eventDisplay{
	EventConfirmedOffline: {Emoji: "🔴", Title: "Miner Confirmed Offline", Color: 0xFF4444},
	EventRecoveredOnline:  {Emoji: "🟢", Title: "Miner Back Online", Color: 0x00FF88},
}

func getEventDisplay(t EventType) eventDisplay {
	if d, ok := eventDisplayMap[t]; ok {
		return d
	}
	return eventDisplay{Emoji: "⚠️", Title: string(t), Color: 0x00D4FF}
}

// Event describes one status transition worth notifying about.
type Event struct {
	Type       EventType
	Pool       string
	WorkerName string
	MinerID    string
	Timestamp  time.Time
}

// cooldownWindow prevents alert spam if a miner flaps across two
// consecutive ticks.
const cooldownWindow = 15 * time.Minute

// Notifier posts Discord webhook embeds for confirmed status changes.
type Notifier struct {
	webhookURL string
	client     *http.Client

	mu       sync.Mutex
	cooldown map[string]time.Time
}

// New builds a Notifier. An empty webhookURL makes Notify a structured
// log line instead of an HTTP call, the same fallback the teacher's
// alert engine uses when no webhook is configured.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		cooldown:   make(map[string]time.Time),
	}
}

// NotifyReconcileEvent adapts a reconciliation engine event (identified
// by a plain string type rather than notify.EventType, so the engine
// package doesn't need to import this one) into an Event and sends it.
func (n *Notifier) NotifyReconcileEvent(eventType, pool, workerName, minerID string, timestamp time.Time) {
	n.Notify(Event{
		Type:       EventType(eventType),
		Pool:       pool,
		WorkerName: workerName,
		MinerID:    minerID,
		Timestamp:  timestamp,
	})
}

// Notify sends ev, subject to a per-miner-per-type cooldown.
func (n *Notifier) Notify(ev Event) {
	key := fmt.Sprintf("%s:%s:%s", ev.Pool, ev.MinerID, ev.Type)

	n.mu.Lock()
	if last, ok := n.cooldown[key]; ok && ev.Timestamp.Sub(last) < cooldownWindow {
		n.mu.Unlock()
		return
	}
	n.cooldown[key] = ev.Timestamp
	n.mu.Unlock()

	if n.webhookURL == "" {
		log.Printf("notify [%s] %s/%s (%s)", ev.Type, ev.Pool, ev.WorkerName, ev.MinerID)
		return
	}

	body, err := buildDiscordPayload(ev)
	if err != nil {
		log.Printf("notify: failed to marshal payload: %v", err)
		return
	}

	go n.postWebhook(body)
}

func buildDiscordPayload(ev Event) ([]byte, error) {
	d := getEventDisplay(ev.Type)

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("%s %s", d.Emoji, d.Title),
				"description": fmt.Sprintf("%s on %s", ev.WorkerName, ev.Pool),
				"color":       d.Color,
				"fields": []map[string]interface{}{
					{"name": "Pool", "value": ev.Pool, "inline": true},
					{"name": "Worker", "value": ev.WorkerName, "inline": true},
					{"name": "Miner ID", "value": ev.MinerID, "inline": true},
				},
				"timestamp": ev.Timestamp.Format(time.RFC3339),
				"footer": map[string]string{
					"text": "uptime notifier",
				},
			},
		},
	}

	return json.Marshal(payload)
}

func (n *Notifier) postWebhook(body []byte) {
	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("notify: failed to send webhook: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("notify: webhook returned status %d", resp.StatusCode)
	}
}
