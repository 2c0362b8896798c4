package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/senseyeio/duration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmc/flowbridge/pkg/storage/inmemory"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// captureMailer records every send for assertions.
type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

var _ Mailer = &captureMailer{}

func (m *captureMailer) Send(ctx context.Context, to string, subject string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail{}, m.sent...)
}

func testGrace(t *testing.T) duration.Duration {
	t.Helper()
	grace, err := duration.ParseISO8601("PT24H")
	require.NoError(t, err)
	return grace
}

func startedDispatcher(t *testing.T, queueSize int) (*Dispatcher, *captureMailer, *inmemory.Storage) {
	t.Helper()
	mailer := &captureMailer{}
	store := inmemory.NewStorage()
	d := NewDispatcher(mailer, store, defaultTexts(), testGrace(t), queueSize)
	d.Start()
	t.Cleanup(d.Stop)
	return d, mailer, store
}

func TestDispatcherDeliversNewTaskEmail(t *testing.T) {
	d, mailer, _ := startedDispatcher(t, 8)

	d.NewTaskEmail("bob@corp.example", "Approve expense", "Expense report", "Cleo Leaf")

	assert.Eventually(t, func() bool { return len(mailer.all()) == 1 }, time.Second, 5*time.Millisecond)
	mail := mailer.all()[0]
	assert.Equal(t, "bob@corp.example", mail.To)
	assert.Equal(t, "[Workflow] You have a new pending task", mail.Subject)
	assert.Contains(t, mail.Body, "Approve expense")
	assert.Contains(t, mail.Body, "Expense report")
	assert.Contains(t, mail.Body, "Cleo Leaf")
}

func TestDispatcherStoresInAppNotification(t *testing.T) {
	d, _, store := startedDispatcher(t, 8)

	d.NewTaskInApp("emp-2", "Approve expense", "Expense report", "Cleo Leaf", "/tasks/t-1")

	assert.Eventually(t, func() bool {
		return len(store.NotificationsForUser("emp-2")) == 1
	}, time.Second, 5*time.Millisecond)
	notification := store.NotificationsForUser("emp-2")[0]
	assert.Equal(t, "new_task", notification.Type)
	assert.Equal(t, "/tasks/t-1", notification.Link)
	assert.False(t, notification.Read)
	assert.NotZero(t, notification.Key)
}

func TestOverdueEmailWording(t *testing.T) {
	d, mailer, _ := startedDispatcher(t, 8)

	// same recipient as original assignee: reminder wording
	d.OverdueEmail("bob@corp.example", "Bob Middle", "Approve expense", "Expense report", "Bob Middle")
	// escalated to a superior: reassignment wording
	d.OverdueEmail("ada@corp.example", "Ada Top", "Approve expense", "Expense report", "Bob Middle")

	assert.Eventually(t, func() bool { return len(mailer.all()) == 2 }, time.Second, 5*time.Millisecond)
	sent := mailer.all()
	assert.NotContains(t, sent[0].Body, "reassigned to you")
	assert.Contains(t, sent[0].Body, "PT24H")
	assert.Contains(t, sent[1].Body, "reassigned to you")
	assert.Contains(t, sent[1].Body, "Bob Middle")
}

func TestEnqueueNeverBlocksOnFullQueue(t *testing.T) {
	mailer := &captureMailer{}
	store := inmemory.NewStorage()
	// not started: nothing consumes the queue
	d := NewDispatcher(mailer, store, defaultTexts(), testGrace(t), 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.NewTaskEmail("bob@corp.example", "Approve expense", "Expense report", "Cleo Leaf")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
	assert.Equal(t, 1, d.QueueLen())
}

func TestStopTerminatesWorker(t *testing.T) {
	mailer := &captureMailer{}
	store := inmemory.NewStorage()
	d := NewDispatcher(mailer, store, defaultTexts(), testGrace(t), 8)
	d.Start()

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
