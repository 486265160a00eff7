// Package monitor keeps in-process pipeline statistics: totals, latency,
// per-assignee loads, and bounded activity and error logs. The collector
// answers point-in-time snapshots for the system status endpoint.
package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/projectcompass/compass/internal/core/domain"
)

const (
	maxLogEntries    = 1000
	snapshotErrorCap = 5
)

type ActivityEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"type"`
	Details   map[string]string `json:"details,omitempty"`
}

type ErrorEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
}

type AssigneeLoad struct {
	Assignee string `json:"assignee"`
	Count    int    `json:"count"`
}

// Snapshot is a point-in-time copy of the collector state.
type Snapshot struct {
	Time           time.Time                   `json:"time"`
	UptimeSeconds  float64                     `json:"uptime_seconds"`
	Processed      int                         `json:"inquiries_processed"`
	ByCategory     map[domain.Category]int     `json:"inquiries_by_category"`
	ByPriority     map[domain.Priority]int     `json:"inquiries_by_priority"`
	ByStatus       map[domain.Status]int       `json:"inquiries_by_status"`
	ErrorCount     int                         `json:"error_count"`
	TotalLatency   time.Duration               `json:"total_latency"`
	AverageLatency time.Duration               `json:"average_latency"`
	AssigneeLoads  []AssigneeLoad              `json:"assignee_loads"`
	RecentErrors   []ErrorEntry                `json:"recent_errors"`
}

// Collector is safe for concurrent use.
type Collector struct {
	now func() time.Time

	mu            sync.Mutex
	startedAt     time.Time
	processed     int
	byCategory    map[domain.Category]int
	byPriority    map[domain.Priority]int
	byStatus      map[domain.Status]int
	errorCount    int
	totalLatency  time.Duration
	assigneeLoads map[string]int
	activityLog   []ActivityEntry
	errorLog      []ErrorEntry
}

func NewCollector(now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	return &Collector{
		now:           now,
		startedAt:     now(),
		byCategory:    make(map[domain.Category]int),
		byPriority:    make(map[domain.Priority]int),
		byStatus:      make(map[domain.Status]int),
		assigneeLoads: make(map[string]int),
	}
}

// RecordProcessed folds a finished inquiry into the running totals and
// appends an activity entry.
func (c *Collector) RecordProcessed(inq *domain.Inquiry, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.processed++
	if inq.Category != "" {
		c.byCategory[inq.Category]++
	}
	if inq.Priority != "" {
		c.byPriority[inq.Priority]++
	}
	if inq.Status != "" {
		c.byStatus[inq.Status]++
	}
	c.totalLatency += latency
	if inq.AssignedTo != "" {
		c.assigneeLoads[inq.AssignedTo]++
	}

	c.appendActivity(ActivityEntry{
		Timestamp: c.now(),
		Type:      "inquiry_processed",
		Details: map[string]string{
			"inquiry_id": inq.ID,
			"category":   string(inq.Category),
			"priority":   string(inq.Priority),
			"latency":    latency.String(),
		},
	})
}

// RecordError appends an error entry and bumps the error counter.
func (c *Collector) RecordError(errType, message string, context map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errorCount++
	c.errorLog = append(c.errorLog, ErrorEntry{
		Timestamp: c.now(),
		Type:      errType,
		Message:   message,
		Context:   context,
	})
	if len(c.errorLog) > maxLogEntries {
		c.errorLog = c.errorLog[len(c.errorLog)-maxLogEntries:]
	}
}

// RecordActivity appends a free-form activity entry.
func (c *Collector) RecordActivity(activityType string, details map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendActivity(ActivityEntry{Timestamp: c.now(), Type: activityType, Details: details})
}

func (c *Collector) appendActivity(entry ActivityEntry) {
	c.activityLog = append(c.activityLog, entry)
	if len(c.activityLog) > maxLogEntries {
		c.activityLog = c.activityLog[len(c.activityLog)-maxLogEntries:]
	}
}

// Snapshot copies the current state. Assignee loads come back sorted by
// count descending, errors limited to the five most recent.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	snap := Snapshot{
		Time:          now,
		UptimeSeconds: now.Sub(c.startedAt).Seconds(),
		Processed:     c.processed,
		ByCategory:    make(map[domain.Category]int, len(c.byCategory)),
		ByPriority:    make(map[domain.Priority]int, len(c.byPriority)),
		ByStatus:      make(map[domain.Status]int, len(c.byStatus)),
		ErrorCount:    c.errorCount,
		TotalLatency:  c.totalLatency,
	}
	for k, v := range c.byCategory {
		snap.ByCategory[k] = v
	}
	for k, v := range c.byPriority {
		snap.ByPriority[k] = v
	}
	for k, v := range c.byStatus {
		snap.ByStatus[k] = v
	}
	if c.processed > 0 {
		snap.AverageLatency = c.totalLatency / time.Duration(c.processed)
	}

	snap.AssigneeLoads = make([]AssigneeLoad, 0, len(c.assigneeLoads))
	for assignee, count := range c.assigneeLoads {
		snap.AssigneeLoads = append(snap.AssigneeLoads, AssigneeLoad{Assignee: assignee, Count: count})
	}
	sort.Slice(snap.AssigneeLoads, func(i, j int) bool {
		if snap.AssigneeLoads[i].Count != snap.AssigneeLoads[j].Count {
			return snap.AssigneeLoads[i].Count > snap.AssigneeLoads[j].Count
		}
		return snap.AssigneeLoads[i].Assignee < snap.AssigneeLoads[j].Assignee
	})

	start := len(c.errorLog) - snapshotErrorCap
	if start < 0 {
		start = 0
	}
	snap.RecentErrors = append([]ErrorEntry(nil), c.errorLog[start:]...)

	return snap
}

// Errors returns up to limit recent error entries, oldest first.
func (c *Collector) Errors(limit int) []ErrorEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := len(c.errorLog) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	return append([]ErrorEntry(nil), c.errorLog[start:]...)
}

// Activity returns up to limit recent activity entries, oldest first,
// optionally filtered by type.
func (c *Collector) Activity(limit int, activityType string) []ActivityEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.activityLog
	if activityType != "" {
		filtered := make([]ActivityEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.Type == activityType {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	start := len(entries) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	return append([]ActivityEntry(nil), entries[start:]...)
}
