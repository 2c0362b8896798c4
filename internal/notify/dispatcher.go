// Package notify fans out email and in-app notifications. Dispatch is
// decoupled from the calling engine transaction through a bounded queue
// consumed by a worker goroutine: enqueueing never blocks and failures are
// logged, never propagated.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/senseyeio/duration"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/ppmc/flowbridge/pkg/storage"
)

// Store is the slice of the mirror the dispatcher writes in-app
// notifications through.
type Store interface {
	storage.NotificationStorageWriter
	GenerateKey() int64
}

type emailJob struct {
	to      string
	subject string
	body    string
}

type message struct {
	email *emailJob
	inApp *storage.Notification
}

type Metrics struct {
	Enqueued metric.Int64Counter
	Dropped  metric.Int64Counter
	Sent     metric.Int64Counter
	Failed   metric.Int64Counter
}

func newMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter("notify-dispatcher")
	m := &Metrics{}
	m.Enqueued, _ = meter.Int64Counter("notifications_enqueued", metric.WithDescription("Number of notifications enqueued"))
	m.Dropped, _ = meter.Int64Counter("notifications_dropped", metric.WithDescription("Number of notifications dropped because the queue was full"))
	m.Sent, _ = meter.Int64Counter("notifications_sent", metric.WithDescription("Number of notifications delivered"))
	m.Failed, _ = meter.Int64Counter("notifications_failed", metric.WithDescription("Number of notifications that failed to deliver"))
	return m
}

type Dispatcher struct {
	mailer  Mailer
	store   Store
	texts   Texts
	grace   duration.Duration
	ch      chan message
	logger  hclog.Logger
	metrics *Metrics

	ctx           context.Context
	ctxCancelFunc context.CancelFunc
	wg            sync.WaitGroup
}

// NewDispatcher creates a stopped dispatcher, call Start before enqueueing.
func NewDispatcher(mailer Mailer, store Store, texts Texts, grace duration.Duration, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		mailer:        mailer,
		store:         store,
		texts:         texts,
		grace:         grace,
		ch:            make(chan message, queueSize),
		logger:        hclog.Default().Named("notify-dispatcher"),
		metrics:       newMetrics(),
		ctx:           ctx,
		ctxCancelFunc: cancel,
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop drains nothing: queued messages not yet picked up are dropped, which
// is acceptable for best-effort notifications.
func (d *Dispatcher) Stop() {
	d.ctxCancelFunc()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-d.ch:
			d.deliver(msg)
		}
	}
}

func (d *Dispatcher) deliver(msg message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if msg.email != nil {
		if err := d.mailer.Send(ctx, msg.email.to, msg.email.subject, msg.email.body); err != nil {
			d.metrics.Failed.Add(ctx, 1)
			d.logger.Error("failed to send mail", "to", msg.email.to, "error", err)
			return
		}
		d.metrics.Sent.Add(ctx, 1)
		d.logger.Debug("sent mail", "to", msg.email.to, "subject", msg.email.subject)
	}
	if msg.inApp != nil {
		if err := d.store.SaveNotification(ctx, *msg.inApp); err != nil {
			d.metrics.Failed.Add(ctx, 1)
			d.logger.Error("failed to store in-app notification", "user", msg.inApp.UserID, "error", err)
			return
		}
		d.metrics.Sent.Add(ctx, 1)
		d.logger.Debug("created in-app notification", "user", msg.inApp.UserID, "title", msg.inApp.Title)
	}
}

func (d *Dispatcher) enqueue(msg message) {
	select {
	case d.ch <- msg:
		d.metrics.Enqueued.Add(d.ctx, 1)
	default:
		d.metrics.Dropped.Add(d.ctx, 1)
		d.logger.Warn("notification queue full, dropping message")
	}
}

// NewTaskEmail notifies an assignee about a freshly created task.
func (d *Dispatcher) NewTaskEmail(to string, taskName string, formName string, submitterName string) {
	d.enqueue(message{email: &emailJob{
		to:      to,
		subject: d.texts.NewTaskSubject,
		body:    fmt.Sprintf(d.texts.NewTaskBody, taskName, formName, submitterName),
	}})
}

// NewTaskInApp creates the in-app counterpart of NewTaskEmail.
func (d *Dispatcher) NewTaskInApp(userID string, taskName string, formName string, submitterName string, link string) {
	d.enqueue(message{inApp: &storage.Notification{
		Key:       d.store.GenerateKey(),
		UserID:    userID,
		Title:     d.texts.NewTaskSubject,
		Content:   fmt.Sprintf(d.texts.NewTaskBody, taskName, formName, submitterName),
		Type:      "new_task",
		Link:      link,
		CreatedAt: time.Now(),
	}})
}

// OverdueEmail notifies about a timed out task. When recipientName differs
// from originalAssigneeName the wording explains the reassignment.
func (d *Dispatcher) OverdueEmail(to string, recipientName string, taskName string, formName string, originalAssigneeName string) {
	var body string
	if recipientName != originalAssigneeName {
		body = fmt.Sprintf(d.texts.OverdueEscalatedBody, recipientName, d.grace.String(), originalAssigneeName, taskName, formName)
	} else {
		body = fmt.Sprintf(d.texts.OverdueBody, recipientName, d.grace.String(), taskName, formName)
	}
	d.enqueue(message{email: &emailJob{
		to:      to,
		subject: d.texts.OverdueSubject,
		body:    body,
	}})
}

// OverdueInApp creates an in-app reminder for a timed out task.
func (d *Dispatcher) OverdueInApp(userID string, formName string, submitterName string, link string) {
	d.enqueue(message{inApp: &storage.Notification{
		Key:       d.store.GenerateKey(),
		UserID:    userID,
		Title:     d.texts.OverdueInAppTitle,
		Content:   fmt.Sprintf(d.texts.OverdueInAppContent, formName, submitterName),
		Type:      "task_reminder",
		Link:      link,
		CreatedAt: time.Now(),
	}})
}

// QueueLen is used by the status endpoint.
func (d *Dispatcher) QueueLen() int {
	return len(d.ch)
}
