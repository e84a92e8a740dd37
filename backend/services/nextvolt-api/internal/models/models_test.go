package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStationHoldRelease(t *testing.T) {
	st := Station{ID: 1, IsActive: true, Available: true}

	st.Hold(10)
	assert.Equal(t, 1, st.ReservedCount)
	assert.False(t, st.Available)
	assert.Equal(t, 10, st.QueueTime)

	st.Hold(5)
	assert.Equal(t, 2, st.ReservedCount)
	assert.Equal(t, 10, st.QueueTime, "queue time never shrinks while held")

	st.Hold(45)
	assert.Equal(t, 45, st.QueueTime)

	st.Release()
	st.Release()
	assert.Equal(t, 1, st.ReservedCount)
	assert.False(t, st.Available)
	assert.Equal(t, 45, st.QueueTime)

	st.Release()
	assert.Equal(t, 0, st.ReservedCount)
	assert.True(t, st.Available)
	assert.Equal(t, 0, st.QueueTime)

	st.Release()
	assert.Equal(t, 0, st.ReservedCount, "count never goes negative")
	assert.True(t, st.Available)
}

func TestStationPriceAndConnectors(t *testing.T) {
	price := 12.5
	zero := 0.0
	st := Station{
		PricePerKWh: &price,
		Connections: []Connector{{TypeName: "CCS (Type 2)"}, {TypeName: "Type 2 (Socket Only)"}},
	}

	assert.Equal(t, 12.5, st.Price(8))
	assert.Equal(t, 8.0, Station{}.Price(8))
	assert.Equal(t, 8.0, Station{PricePerKWh: &zero}.Price(8))

	assert.True(t, st.HasConnector("CCS (Type 2)"))
	assert.False(t, st.HasConnector("ccs (type 2)"))
	assert.False(t, st.HasConnector(""))
}

func TestStationCloneIsDeep(t *testing.T) {
	price := 9.0
	st := Station{PricePerKWh: &price, Connections: []Connector{{TypeName: "CHAdeMO"}}}

	cp := st.Clone()
	*cp.PricePerKWh = 1
	cp.Connections[0].TypeName = "changed"

	assert.Equal(t, 9.0, *st.PricePerKWh)
	assert.Equal(t, "CHAdeMO", st.Connections[0].TypeName)
}

func TestStationNormalize(t *testing.T) {
	st := Station{ReservedCount: -3, Available: false, QueueTime: 7}
	st.Normalize()
	assert.Equal(t, 0, st.ReservedCount)
	assert.True(t, st.Available)
	assert.Equal(t, 7, st.QueueTime)
	assert.NotNil(t, st.Connections)
}

func TestUserFavorites(t *testing.T) {
	u := User{}
	assert.True(t, u.AddFavorite(3))
	assert.False(t, u.AddFavorite(3))
	assert.True(t, u.AddFavorite(4))
	assert.Equal(t, []int64{3, 4}, u.Favorites)

	assert.True(t, u.RemoveFavorite(3))
	assert.False(t, u.RemoveFavorite(3))
	assert.Equal(t, []int64{4}, u.Favorites)
}

func TestUserReservations(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	u := User{Reservations: []Reservation{
		{ID: "a", StationID: 1, ExpiresAt: now},
		{ID: "b", StationID: 2, ExpiresAt: now.Add(time.Minute)},
		{ID: "c", StationID: 3, ExpiresAt: now.Add(time.Hour)},
	}}
	snapshot := u.Clone()

	res, ok := u.RemoveReservation("b")
	require.True(t, ok)
	assert.Equal(t, int64(2), res.StationID)
	assert.Len(t, u.Reservations, 2)
	assert.Equal(t, "c", u.Reservations[1].ID)
	assert.Len(t, snapshot.Reservations, 3, "clone is unaffected")

	_, ok = u.RemoveReservation("missing")
	assert.False(t, ok)

	_, ok = u.FindReservation("a")
	assert.True(t, ok)

	assert.True(t, u.Reservations[0].Expired(now))
	assert.False(t, u.Reservations[1].Expired(now))
}
