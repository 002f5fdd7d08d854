package consumer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func exerciseRecord(offset int64, value string) kafka.Message {
	return kafka.Message{
		Topic:     "exercise_events",
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Key:       []byte("user-1"),
		Value:     []byte(value),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("exercise.recorded")},
			{Key: "aggregate_id", Value: []byte("exercise-1")},
		},
	}
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	payload := `{"exercise_id":"exercise-1","user_id":"user-1","duration":30}`
	reader := &stubReader{messages: []kafka.Message{exerciseRecord(10, payload)}}
	handler := &stubHandler{}

	before := testutil.ToFloat64(processedCounter.WithLabelValues("exercise_events", "exercise.recorded"))
	processor := NewProcessor(reader, handler, WithLogger(testLogger()))

	err := processor.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, "exercise.recorded", handler.last.EventType)
	require.Equal(t, "exercise-1", handler.last.AggregateID)
	require.Equal(t, "user-1", handler.last.Key)
	require.Equal(t, int64(10), handler.last.Offset)
	require.JSONEq(t, payload, string(handler.last.Payload))
	require.InDelta(t, before+1, testutil.ToFloat64(processedCounter.WithLabelValues("exercise_events", "exercise.recorded")), 0.0001)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{exerciseRecord(20, `{}`)}}
	handler := &stubHandler{err: errors.New("boom")}

	processor := NewProcessor(reader, handler, WithLogger(testLogger()))

	err := processor.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsUndecodableMessages(t *testing.T) {
	missingHeader := exerciseRecord(30, `{}`)
	missingHeader.Headers = nil

	reader := &stubReader{messages: []kafka.Message{
		missingHeader,
		exerciseRecord(31, `not json`),
	}}
	handler := &stubHandler{}

	before := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("exercise_events"))
	processor := NewProcessor(reader, handler, WithLogger(testLogger()))

	err := processor.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 2, reader.commitCalls)
	require.InDelta(t, before+2, testutil.ToFloat64(decodeErrorCounter.WithLabelValues("exercise_events")), 0.0001)
}

func TestProcessorRetriesTransientFetchErrors(t *testing.T) {
	reader := &stubReader{
		fetchErrs: []error{errors.New("leader not available")},
		messages:  []kafka.Message{exerciseRecord(40, `{}`)},
	}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, WithLogger(testLogger())).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, handler.calls)
}

func TestProcessorStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &stubReader{messages: []kafka.Message{exerciseRecord(50, `{}`)}}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, WithLogger(testLogger())).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, handler.calls)
}

type stubReader struct {
	fetchErrs   []error
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}
