package myqueue

import (
	"context"
	"time"
)

// Task is a webhook call that must be delivered once after Delay has passed.
type Task struct {
	UID            string
	Method         string
	WebhookURLPath string
	Payload        []byte
	Delay          time.Duration
}

//go:generate mockgen -source=api.go -package myqueue -destination queuer_mock.go TaskQueuer
type TaskQueuer interface {
	Enqueue(c context.Context, task Task) error
}
