package cart

import (
	"context"
	"sync"

	"github.com/MarcGrol/restaurantcart/lib/mylog"
)

//go:generate mockgen -source=notifier.go -package cart -destination notifier_mock.go Notifier
type Notifier interface {
	Notify(c context.Context, notice Notice)
}

const maxPendingNotices = 20

// notificationBoard keeps the latest notices until the UI drains them.
type notificationBoard struct {
	sync.Mutex
	logger  mylog.Logger
	pending []Notice
}

func NewNotificationBoard(logger mylog.Logger) *notificationBoard {
	return &notificationBoard{
		logger:  logger,
		pending: []Notice{},
	}
}

func (b *notificationBoard) Notify(c context.Context, notice Notice) {
	b.logger.Log(c, CartSlotKey, mylog.SeverityInfo, "Notice (%s): %s", notice.Severity, notice.Message)

	b.Lock()
	defer b.Unlock()

	b.pending = append(b.pending, notice)
	if len(b.pending) > maxPendingNotices {
		b.pending = b.pending[len(b.pending)-maxPendingNotices:]
	}
}

func (b *notificationBoard) Drain() []Notice {
	b.Lock()
	defer b.Unlock()

	drained := b.pending
	b.pending = []Notice{}
	return drained
}
