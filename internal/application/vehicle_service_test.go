package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vehicleDomain "github.com/easyride/service-booking/internal/domain/vehicle"
	"github.com/easyride/service-booking/internal/platform/domain"
)

func TestCreateVehicle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v, err := f.vehicles.CreateVehicle(ctx, CreateVehicleRequest{Name: "Vitz", LicensePlate: "cab-2020", PricePerDayCents: 3500})
	require.NoError(t, err)
	assert.True(t, v.Availability)
	assert.Equal(t, string(vehicleDomain.StatusAvailable), v.Status)
	assert.Equal(t, "CAB-2020", v.LicensePlate)
	assert.Equal(t, domain.CurrencyUSD, v.Currency)

	_, err = f.vehicles.CreateVehicle(ctx, CreateVehicleRequest{Name: "Vitz", LicensePlate: "CAB-2020", PricePerDayCents: 3500})
	assert.Error(t, err)

	_, err = f.vehicles.CreateVehicle(ctx, CreateVehicleRequest{Name: "Free", LicensePlate: "CAB-0", PricePerDayCents: 0})
	assert.Error(t, err)
}

func TestUpdateVehiclePrice_KeepsExistingBookingPrice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vehicleID := f.addVehicle(t, "CAV-1", 5000)
	bk := f.book(t, uuid.New(), vehicleID, 2)

	v, err := f.vehicles.UpdateVehiclePrice(ctx, vehicleID, UpdatePriceRequest{PricePerDayCents: 7000})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), v.PricePerDayCents)
	assert.Equal(t, int64(7000), f.vehicle(vehicleID).PricePerDayCents())
	// Price changes do not touch availability.
	assert.False(t, v.Availability)

	got, err := f.bookings.GetBooking(ctx, bk.ID, uuid.Nil, true)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got.TotalPriceCents)

	_, err = f.vehicles.UpdateVehiclePrice(ctx, uuid.New(), UpdatePriceRequest{PricePerDayCents: 7000})
	assert.True(t, errors.Is(err, vehicleDomain.ErrVehicleNotFound))
}

func TestListVehicles_AvailableOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	booked := f.addVehicle(t, "CAV-2", 5000)
	f.addVehicle(t, "CAV-3", 5000)
	f.book(t, uuid.New(), booked, 1)

	all, err := f.vehicles.ListVehicles(ctx, VehicleFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	available, err := f.vehicles.ListVehicles(ctx, VehicleFilter{AvailableOnly: true}, 1, 10)
	require.NoError(t, err)
	require.Len(t, available.Items, 1)
	assert.NotEqual(t, booked, available.Items[0].ID)
}

func TestUpdateVehicle_DescriptiveFieldsOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vehicleID := f.addVehicle(t, "CAV-4", 5000)
	f.addVehicle(t, "CAV-5", 5000)
	f.book(t, uuid.New(), vehicleID, 1)

	name, plate, year := "Aqua Hybrid", "cav-44", 2022
	v, err := f.vehicles.UpdateVehicle(ctx, vehicleID, UpdateVehicleRequest{Name: &name, LicensePlate: &plate, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, "Aqua Hybrid", v.Name)
	assert.Equal(t, "CAV-44", v.LicensePlate)
	assert.Equal(t, 2022, v.Year)

	stored := f.vehicle(vehicleID)
	assert.Equal(t, "CAV-44", stored.LicensePlate())
	assert.False(t, stored.IsAvailable())
	assert.Equal(t, int64(5000), stored.PricePerDayCents())

	taken := "CAV-5"
	_, err = f.vehicles.UpdateVehicle(ctx, vehicleID, UpdateVehicleRequest{LicensePlate: &taken})
	assert.Error(t, err)

	blank := " "
	_, err = f.vehicles.UpdateVehicle(ctx, vehicleID, UpdateVehicleRequest{Name: &blank})
	assert.Error(t, err)

	_, err = f.vehicles.UpdateVehicle(ctx, uuid.New(), UpdateVehicleRequest{Name: &name})
	assert.True(t, errors.Is(err, vehicleDomain.ErrVehicleNotFound))
}

func TestDeleteVehicle_RejectsWhileHeld(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vehicleID := f.addVehicle(t, "CAV-6", 5000)
	bk := f.book(t, uuid.New(), vehicleID, 1)

	err := f.vehicles.DeleteVehicle(ctx, vehicleID)
	assert.True(t, errors.Is(err, vehicleDomain.ErrVehicleUnavailable))

	_, err = f.bookings.CompleteBooking(ctx, bk.ID)
	require.NoError(t, err)
	require.NoError(t, f.vehicles.DeleteVehicle(ctx, vehicleID))

	_, err = f.vehicles.GetVehicle(ctx, vehicleID)
	assert.True(t, errors.Is(err, vehicleDomain.ErrVehicleNotFound))

	// Rental history survives the catalogue entry.
	got, err := f.bookings.GetBooking(ctx, bk.ID, uuid.Nil, true)
	require.NoError(t, err)
	assert.Equal(t, vehicleID, got.VehicleID)

	err = f.vehicles.DeleteVehicle(ctx, vehicleID)
	assert.True(t, errors.Is(err, vehicleDomain.ErrVehicleNotFound))
}

func TestListVehicles_Search(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	aqua, err := f.vehicles.CreateVehicle(ctx, CreateVehicleRequest{Name: "Aqua", Brand: "Toyota", VehicleType: "Car", LicensePlate: "CAS-1", PricePerDayCents: 4000})
	require.NoError(t, err)
	_, err = f.vehicles.CreateVehicle(ctx, CreateVehicleRequest{Name: "Vezel", Brand: "Honda", VehicleType: "SUV", LicensePlate: "CAS-2", PricePerDayCents: 6000})
	require.NoError(t, err)
	_, err = f.vehicles.CreateVehicle(ctx, CreateVehicleRequest{Name: "Premio", Brand: "Toyota", VehicleType: "Car", LicensePlate: "CAS-3", PricePerDayCents: 5000})
	require.NoError(t, err)

	byBrand, err := f.vehicles.ListVehicles(ctx, VehicleFilter{Brand: "toyota"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byBrand.Total)

	byName, err := f.vehicles.ListVehicles(ctx, VehicleFilter{Name: "QU", VehicleType: "car"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, byName.Items, 1)
	assert.Equal(t, aqua.ID, byName.Items[0].ID)

	none, err := f.vehicles.ListVehicles(ctx, VehicleFilter{Brand: "Toyota", VehicleType: "suv"}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, none.Total)
}
