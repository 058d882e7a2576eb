package myqueue

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/MarcGrol/restaurantcart/lib/mylog"
)

// localTaskQueue delivers tasks in-process by calling the handler after the delay.
type localTaskQueue struct {
	sync.Mutex
	handler http.Handler
	logger  mylog.Logger
	seen    map[string]bool
	pending sync.WaitGroup
}

func NewLocal(handler http.Handler) *localTaskQueue {
	return &localTaskQueue{
		handler: handler,
		logger:  mylog.New("localqueue"),
		seen:    map[string]bool{},
	}
}

func (q *localTaskQueue) Enqueue(c context.Context, task Task) error {
	q.Lock()
	defer q.Unlock()

	if q.seen[task.UID] {
		q.logger.Log(c, task.UID, mylog.SeverityInfo, "Task with uid %s already exists -> ignore", task.UID)
		return nil
	}
	q.seen[task.UID] = true

	q.pending.Add(1)
	time.AfterFunc(task.Delay, func() {
		defer q.pending.Done()
		q.deliver(task)
	})

	return nil
}

// Wait blocks until all enqueued tasks have been delivered.
func (q *localTaskQueue) Wait() {
	q.pending.Wait()
}

func (q *localTaskQueue) deliver(task Task) {
	c := context.Background()

	method := task.Method
	if method == "" {
		method = http.MethodPut
	}

	request, err := http.NewRequestWithContext(c, method, task.WebhookURLPath, bytes.NewReader(task.Payload))
	if err != nil {
		q.logger.Log(c, task.UID, mylog.SeverityError, "Error creating request for task %s: %s", task.UID, err)
		return
	}

	response := &statusRecorder{header: http.Header{}, status: http.StatusOK}
	q.handler.ServeHTTP(response, request)

	severity := mylog.SeverityInfo
	if response.status >= http.StatusBadRequest {
		severity = mylog.SeverityError
	}
	q.logger.Log(c, task.UID, severity, "Delivered task %s to %s %s: %d", task.UID, method, task.WebhookURLPath, response.status)
}

type statusRecorder struct {
	header http.Header
	status int
}

func (r *statusRecorder) Header() http.Header {
	return r.header
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	return len(b), nil
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
}
