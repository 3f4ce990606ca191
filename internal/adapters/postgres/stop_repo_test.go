package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/reachmap/internal/core/domain"
)

func TestStopRepo_Stops(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"stop_id", "name", "lat", "lon"}).
		AddRow("ABA", "Abando", 43.2610, -2.9270).
		AddRow("MOY", "Moyua", 43.2630, -2.9350)
	mock.ExpectQuery("SELECT s.stop_id, s.name").
		WithArgs("metro_bilbao").
		WillReturnRows(rows)

	stops, err := NewStopRepo(mock, "metro_bilbao").Stops(context.Background())
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, domain.Stop{StopID: "ABA", Name: "Abando", Location: domain.GeoPoint{Lat: 43.2610, Lon: -2.9270}}, stops[0])
	assert.Equal(t, "Moyua", stops[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStopRepo_Stops_AllAgencies(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM stops s").
		WithArgs("").
		WillReturnRows(pgxmock.NewRows([]string{"stop_id", "name", "lat", "lon"}))

	stops, err := NewStopRepo(mock, "").Stops(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stops)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStopRepo_Stops_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("relation \"stops\" does not exist")
	mock.ExpectQuery("FROM stops s").WithArgs("").WillReturnError(boom)

	_, err = NewStopRepo(mock, "").Stops(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "query stops")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStopRepo_Stops_RowError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("connection reset")
	rows := pgxmock.NewRows([]string{"stop_id", "name", "lat", "lon"}).
		AddRow("ABA", "Abando", 43.2610, -2.9270).
		RowError(0, boom)
	mock.ExpectQuery("FROM stops s").WithArgs("").WillReturnRows(rows)

	_, err = NewStopRepo(mock, "").Stops(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
