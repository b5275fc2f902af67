package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusIsTerminal(t *testing.T) {
	assert.False(t, BookingStatusRequested.IsTerminal())
	assert.False(t, BookingStatusAccepted.IsTerminal())
	assert.True(t, BookingStatusCompleted.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
}

func TestIsValidTimeSlot(t *testing.T) {
	for _, slot := range TimeSlots {
		assert.True(t, IsValidTimeSlot(slot))
	}
	assert.False(t, IsValidTimeSlot(""))
	assert.False(t, IsValidTimeSlot("Midnight (1 AM – 3 AM)"))
	assert.False(t, IsValidTimeSlot("morning (8 am – 12 pm)"))
}

func TestSlotList(t *testing.T) {
	b := Booking{TimeSlots: TimeSlots[0] + "|" + TimeSlots[1]}
	assert.Equal(t, []string{TimeSlots[0], TimeSlots[1]}, b.SlotList())

	single := Booking{TimeSlots: TimeSlots[0]}
	assert.Equal(t, []string{TimeSlots[0]}, single.SlotList())

	empty := Booking{}
	assert.Nil(t, empty.SlotList())
}

func TestCancellableUntil(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	b := Booking{CreatedAt: created}
	assert.Equal(t, created.Add(CancelWindow), b.CancellableUntil())
}

func TestTariffTotal(t *testing.T) {
	assert.Equal(t, 199.0, TariffTotal(199, nil))

	lines := []Tariff{
		{Label: "Pipe replacement", Amount: 150},
		{Label: "Sealant", Amount: 50.5},
	}
	assert.Equal(t, 399.5, TariffTotal(199, lines))
}

func TestNormalizePhotoRef(t *testing.T) {
	url, err := NormalizePhotoRef(json.RawMessage(`"https://cdn.example.com/a.jpg"`))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.jpg", url)

	url, err = NormalizePhotoRef(json.RawMessage(`{"url":"https://cdn.example.com/b.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/b.jpg", url)

	url, err = NormalizePhotoRef(json.RawMessage(`{"image":"https://cdn.example.com/c.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/c.jpg", url)

	// url wins over the legacy field when both appear
	url, err = NormalizePhotoRef(json.RawMessage(`{"url":"https://a","image":"https://b"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://a", url)

	_, err = NormalizePhotoRef(json.RawMessage(`""`))
	assert.Error(t, err)

	_, err = NormalizePhotoRef(json.RawMessage(`{}`))
	assert.Error(t, err)

	_, err = NormalizePhotoRef(json.RawMessage(`42`))
	assert.Error(t, err)
}
