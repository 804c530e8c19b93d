package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kcas/spotprice/internal/datastore"
	"kcas/spotprice/internal/sensor"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(w)

	updated := time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)
	snap := sensor.Snapshot{
		ID:           "spotprice_kwh_se3_sek_3_1_025",
		Area:         "SE3",
		CurrentPrice: datastore.Some(1.5),
		Today:        []datastore.Price{datastore.Some(1.5), datastore.Absent},
		UpdatedAt:    updated,
	}
	require.NoError(t, p.Publish(context.Background(), snap))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte(snap.ID), msg.Key)
	assert.Equal(t, updated, msg.Time)

	var decoded sensor.Snapshot
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, snap.CurrentPrice, decoded.CurrentPrice)
	assert.Equal(t, snap.Today, decoded.Today)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherWriteError(t *testing.T) {
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: errors.New("leader not available")})
	err := p.Publish(context.Background(), sensor.Snapshot{})
	assert.ErrorContains(t, err, "leader not available")
}
