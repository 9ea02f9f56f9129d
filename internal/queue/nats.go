package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NewNATS constructs a thin NATS-based request/reply server.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{log: log, nc: nc}
}

type natsQueue struct {
	log *slog.Logger
	nc  *nats.Conn
}

func (q *natsQueue) Serve(ctx context.Context, taskType TaskType, handler Handler) error {
	subject := taskType.Subject()
	group := "workers-" + string(taskType)
	sub, err := q.nc.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	q.log.Info("serving", "subject", subject, "group", group)
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) handleMessage(ctx context.Context, msg *nats.Msg, handler Handler) {
	reply := Process(ctx, msg.Data, handler)
	if reply.Error != "" {
		q.log.Warn("request failed", "subject", msg.Subject, "id", reply.ID, "err", reply.Error)
	}
	if msg.Reply == "" {
		q.log.Warn("request has no reply subject; dropping result", "subject", msg.Subject, "id", reply.ID)
		return
	}
	body, err := json.Marshal(reply)
	if err != nil {
		q.log.Error("failed to encode reply", "id", reply.ID, "err", err)
		return
	}
	if err := msg.Respond(body); err != nil {
		q.log.Error("failed to send reply", "id", reply.ID, "err", err)
	}
}

func (q *natsQueue) Close() error {
	return q.nc.Drain()
}
