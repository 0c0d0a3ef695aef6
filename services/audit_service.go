package services

import (
	"context"
	"encoding/json"
	"log"
	"reflect"
	"sync"
	"time"

	"hotel-booking/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditChannel is the Redis pub/sub channel audit events are published on.
const AuditChannel = "audit-events"

// Actor identifies who performed an operation. It is supplied by the
// upstream auth layer; the service does not authenticate it.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	IP   string `json:"ip,omitempty"`
}

// Label is what gets stamped into checkedInBy/cancelledBy style fields.
func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	if a.ID != "" {
		return a.ID
	}
	return "system"
}

type AuditEntry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   uint
	Before     interface{}
	After      interface{}
	Err        error
}

// AuditSink receives audit entries. Record must not block the caller.
type AuditSink interface {
	Record(entry AuditEntry)
}

// AuditService persists audit entries from a buffered queue on a single
// worker goroutine and optionally fans them out over Redis.
type AuditService struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Timeout time.Duration

	queue     chan models.AuditLog
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewAuditService(db *gorm.DB, rdb *redis.Client, bufferSize int, timeout time.Duration) *AuditService {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &AuditService{
		DB:      db,
		Redis:   rdb,
		Timeout: timeout,
		queue:   make(chan models.AuditLog, bufferSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Record enqueues entry. When the buffer is full the entry is dropped and logged.
func (s *AuditService) Record(entry AuditEntry) {
	row := buildAuditLog(entry)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		log.Printf("AuditService: closed, dropping %s %s#%d", row.Action, row.EntityType, row.EntityID)
		return
	}
	select {
	case s.queue <- row:
	default:
		log.Printf("⚠️  AuditService: buffer full, dropping %s %s#%d", row.Action, row.EntityType, row.EntityID)
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (s *AuditService) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	<-s.done
}

func (s *AuditService) run() {
	defer close(s.done)
	for row := range s.queue {
		s.write(row)
	}
}

func (s *AuditService) write(row models.AuditLog) {
	ctx, cancel := withTimeout(context.Background(), s.Timeout)
	defer cancel()

	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("AuditService: failed to persist %s %s#%d: %v", row.Action, row.EntityType, row.EntityID, err)
	}

	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(row)
	if err != nil {
		log.Printf("AuditService: marshal failed: %v", err)
		return
	}
	if err := s.Redis.Publish(ctx, AuditChannel, payload).Err(); err != nil {
		log.Printf("AuditService: publish to %s failed: %v", AuditChannel, err)
	}
}

func buildAuditLog(entry AuditEntry) models.AuditLog {
	before, after := diffFields(entry.Before, entry.After)

	row := models.AuditLog{
		CreatedAt:  time.Now().UTC(),
		ActorID:    entry.Actor.ID,
		ActorName:  entry.Actor.Name,
		ActorRole:  entry.Actor.Role,
		ClientIP:   entry.Actor.IP,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Status:     models.AuditSuccess,
	}
	if before != nil {
		row.Before = mustJSON(before)
	}
	if after != nil {
		row.After = mustJSON(after)
	}
	if entry.Err != nil {
		row.Status = models.AuditFailure
		row.ErrorMessage = entry.Err.Error()
	}
	return row
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func toFieldMap(v interface{}) map[string]interface{} {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// diffFields reduces two snapshots to the fields whose values differ.
// With only one side present, that side is returned whole.
func diffFields(before, after interface{}) (map[string]interface{}, map[string]interface{}) {
	b := toFieldMap(before)
	a := toFieldMap(after)
	if b == nil || a == nil {
		return b, a
	}

	changedBefore := map[string]interface{}{}
	changedAfter := map[string]interface{}{}
	for k, av := range a {
		if k == "updatedAt" || k == "UpdatedAt" {
			continue
		}
		bv, ok := b[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			changedAfter[k] = av
			if ok {
				changedBefore[k] = bv
			}
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok {
			changedBefore[k] = bv
		}
	}
	return changedBefore, changedAfter
}

type noopAudit struct{}

func (noopAudit) Record(AuditEntry) {}
