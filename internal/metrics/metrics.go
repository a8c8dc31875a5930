// Package metrics holds the prometheus collectors for messaging and
// collaboration activity. HTTP-level collectors live in the middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Messages appended to the log, by origin (user or system)",
		},
		[]string{"origin"},
	)

	MessagesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_read_total",
			Help: "Messages flipped from unread to read",
		},
	)

	CollaborationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collaborations_created_total",
			Help: "Collaboration requests created",
		},
	)

	CollaborationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaboration_transitions_total",
			Help: "Collaboration status transitions, by target status",
		},
		[]string{"status"},
	)

	CollaborationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collaboration_duplicate_requests_total",
			Help: "Requests rejected because an identical one is still pending",
		},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collaboration_notification_failures_total",
			Help: "Status transitions whose notification message could not be sent",
		},
	)

	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kv_persist_failures_total",
			Help: "Write-through failures after an in-memory mutation, by key",
		},
		[]string{"key"},
	)
)
