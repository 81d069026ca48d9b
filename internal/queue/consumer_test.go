package queue

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	err := WriteLine(&buf, BookingEvent{
		Type:       TicketPurchased,
		TicketIDs:  []uint64{4, 5},
		UserID:     2,
		MovieID:    3,
		ShowtimeID: 7,
		RoomID:     1,
		Seats:      []string{"P01", "P02"},
		Amount:     25000,
		OccurredAt: time.Date(2026, 10, 20, 14, 1, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t,
		"[2026-10-20T14:01:00Z] ticket.purchased | user_id=2 | movie_id=3 | showtime_id=7 | room_id=1 | tickets=[4,5] | amount=25000 | seats=[P01,P02]\n",
		buf.String())
}

func TestConsumer_HandleAppends(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "logs", "booking.log")
	c := NewConsumer("amqp://unused", path, logger)

	for _, ev := range []BookingEvent{
		{Type: ReservationCreated, ReservationID: 9, Code: "RSV-ABCD1234", Seats: []string{"S01"}},
		{Type: ReservationExpired, ReservationID: 9, Seats: []string{"S01"}},
	} {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, c.Handle(body))
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "reservation.created")
	assert.Contains(t, lines[0], "code=RSV-ABCD1234")
	assert.Contains(t, lines[1], "reservation.expired")
}

func TestConsumer_HandleRejectsGarbage(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := NewConsumer("amqp://unused", filepath.Join(t.TempDir(), "booking.log"), logger)
	assert.Error(t, c.Handle([]byte("{not json")))
}

func TestWriteLine_Order(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, BookingEvent{
		Type:       OrderPlaced,
		OrderID:    9,
		UserID:     2,
		Amount:     21000,
		OccurredAt: time.Date(2026, 10, 20, 14, 1, 0, 0, time.UTC),
	}))
	assert.Equal(t,
		"[2026-10-20T14:01:00Z] order.placed | user_id=2 | movie_id=0 | showtime_id=0 | room_id=0 | order_id=9 | amount=21000 | seats=[]\n",
		buf.String())
}
