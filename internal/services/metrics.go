package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commitsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "branchit",
		Name:      "commits_created_total",
		Help:      "Commits recorded across all projects",
	})

	filesWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "branchit",
		Name:      "files_written_total",
		Help:      "File writes by operation",
	}, []string{"operation"}) // upload, update, delete

	projectsDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "branchit",
		Name:      "projects_deleted_total",
		Help:      "Projects removed, by trigger",
	}, []string{"trigger"}) // owner, account_removal

	friendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "branchit",
		Name:      "friend_requests_total",
		Help:      "Friend request transitions by result",
	}, []string{"result"}) // sent, accepted, declined

	feedEntries = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "branchit",
		Name:      "feed_entries",
		Help:      "Entries returned per feed request",
		Buckets:   []float64{0, 1, 5, 10, 20, 30, 50, 70},
	}, []string{"feed"})

	reconcileRemovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "branchit",
		Name:      "reconcile_removed_total",
		Help:      "Orphaned rows removed by reconciliation, by table",
	}, []string{"table"})
)
