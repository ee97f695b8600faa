package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zerbin/internal/model"
)

type recordingSaver struct {
	err   error
	saved []model.Notification
}

func (r *recordingSaver) SaveNotification(_ context.Context, n *model.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, *n)
	return nil
}

type fakeChannel struct {
	failWith  []error
	published []amqp.Publishing
	closed    int
}

func (f *fakeChannel) Publish(_, _ string, _, _ bool, msg amqp.Publishing) error {
	if len(f.failWith) > 0 {
		err := f.failWith[0]
		f.failWith = f.failWith[1:]
		return err
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed++
	return nil
}

type notifierFunc func(context.Context, model.StatusChange) error

func (f notifierFunc) NotifyStatusChange(ctx context.Context, c model.StatusChange) error {
	return f(ctx, c)
}

var sampleChange = model.StatusChange{
	OldStatus: model.StatusPending,
	NewStatus: model.StatusCollected,
	WasteType: "plastic",
	Location:  "4.6097,-74.0817",
	UserID:    3,
	ReportID:  12,
}

func TestStoreNotifier(t *testing.T) {
	saver := &recordingSaver{}
	n := NewStoreNotifier(saver)

	require.NoError(t, n.NotifyStatusChange(context.Background(), sampleChange))
	require.Len(t, saver.saved, 1)

	got := saver.saved[0]
	assert.Equal(t, int64(3), got.UserID)
	require.NotNil(t, got.ReportID)
	assert.Equal(t, int64(12), *got.ReportID)
	assert.Equal(t, model.NotificationStatusChange, got.Type)
	assert.Equal(t, "Report completed", got.Title)
	assert.Contains(t, got.Message, "#12")

	var extra model.StatusChange
	require.NoError(t, json.Unmarshal([]byte(got.ExtraData), &extra))
	assert.Equal(t, sampleChange, extra)
}

func TestStoreNotifierSkipsAnonymous(t *testing.T) {
	saver := &recordingSaver{}
	change := sampleChange
	change.UserID = 0

	require.NoError(t, NewStoreNotifier(saver).NotifyStatusChange(context.Background(), change))
	assert.Empty(t, saver.saved)
}

func TestMessage(t *testing.T) {
	for _, status := range model.AllStatuses {
		title, message := Message(7, status)
		assert.NotEmpty(t, title, status)
		assert.Contains(t, message, "#7", status)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	calls := 0
	ok := notifierFunc(func(context.Context, model.StatusChange) error { calls++; return nil })
	bad := notifierFunc(func(context.Context, model.StatusChange) error { calls++; return errors.New("broker down") })

	err := Multi{bad, nil, ok, LogNotifier{}}.NotifyStatusChange(context.Background(), sampleChange)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, 2, calls)

	assert.NoError(t, Multi{ok}.NotifyStatusChange(context.Background(), sampleChange))
}

func newTestAMQPNotifier(channels ...*fakeChannel) *AMQPNotifier {
	n := &AMQPNotifier{config: AMQPConfig{Exchange: "zerbin", RoutingKey: "report.status"}}
	n.dial = func() (*amqp.Connection, channel, error) {
		if len(channels) == 0 {
			return nil, nil, errors.New("no broker")
		}
		ch := channels[0]
		channels = channels[1:]
		return nil, ch, nil
	}
	return n
}

func TestAMQPNotifierPublishesJSON(t *testing.T) {
	ch := &fakeChannel{}
	n := newTestAMQPNotifier(ch)

	require.NoError(t, n.NotifyStatusChange(context.Background(), sampleChange))
	require.Len(t, ch.published, 1)

	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.NotEmpty(t, msg.MessageId)

	var body model.StatusChange
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, sampleChange, body)
}

func TestAMQPNotifierReconnectsOnClosedChannel(t *testing.T) {
	first := &fakeChannel{failWith: []error{amqp.ErrClosed}}
	second := &fakeChannel{}
	n := newTestAMQPNotifier(first, second)

	require.NoError(t, n.NotifyStatusChange(context.Background(), sampleChange))
	assert.Equal(t, 1, first.closed)
	assert.Len(t, second.published, 1)
}

func TestAMQPNotifierReportsPublishFailure(t *testing.T) {
	ch := &fakeChannel{failWith: []error{errors.New("NOT_FOUND - no exchange")}}
	n := newTestAMQPNotifier(ch)

	err := n.NotifyStatusChange(context.Background(), sampleChange)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish status change")
}
