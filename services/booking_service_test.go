package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"service-platform-server/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.PasswordReset{},
		&models.Service{},
		&models.Worker{},
		&models.WorkerService{},
		&models.Booking{},
		&models.Tariff{},
		&models.Receipt{},
		&models.BookingPhoto{},
		&models.WorkerEarning{},
		&models.UserReview{},
		&models.WorkerApplication{},
		&models.Stage1Review{},
		&models.Stage2Review{},
		&models.Stage3Review{},
		&models.VerificationLog{},
	))
	return db
}

func createCustomer(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	lat, lng := 12.9716, 77.5946
	user := &models.User{
		FullName:     "Test Customer",
		Email:        email,
		PhoneNumber:  "9999999999",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
		Address:      "Somewhere",
		Lat:          &lat,
		Lng:          &lng,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createWorker(t *testing.T, db *gorm.DB, email string, basePrice float64) (*models.User, *models.Worker) {
	t.Helper()
	user := &models.User{
		FullName:     "Test Worker",
		Email:        email,
		PhoneNumber:  "8888888888",
		PasswordHash: "x",
		Role:         models.RoleWorker,
	}
	require.NoError(t, db.Create(user).Error)

	service := &models.Service{ServiceType: "Plumbing-" + email, BasePrice: basePrice}
	require.NoError(t, db.Create(service).Error)

	worker := &models.Worker{UserID: user.ID, IsAvailable: true, AllowsCOD: true}
	require.NoError(t, db.Create(worker).Error)

	ws := &models.WorkerService{WorkerID: worker.ID, ServiceID: service.ID, Charge: basePrice}
	require.NoError(t, db.Create(ws).Error)

	return user, worker
}

func newBookingRequest(workerID uint) *models.BookingCreateRequest {
	return &models.BookingCreateRequest{
		WorkerID:    workerID,
		TimeSlots:   []string{models.TimeSlots[0]},
		Description: "Kitchen tap is leaking",
	}
}

func TestCreateBookingValidatesSlots(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	_, worker := createWorker(t, db, "w1@test.com", 199)

	cases := [][]string{
		{},
		{"Midnight (1 AM – 3 AM)"},
		{models.TimeSlots[0], models.TimeSlots[0]},
		{models.TimeSlots[0], models.TimeSlots[1], models.TimeSlots[2]},
	}
	for _, slots := range cases {
		req := newBookingRequest(worker.ID)
		req.TimeSlots = slots
		_, err := bs.Create(customer.ID, req, nil)
		assert.ErrorIs(t, err, ErrInvalidTimeSlots)
	}

	req := newBookingRequest(worker.ID)
	req.TimeSlots = []string{models.TimeSlots[0], models.TimeSlots[2]}
	booking, err := bs.Create(customer.ID, req, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{models.TimeSlots[0], models.TimeSlots[2]}, booking.SlotList())
}

func TestCreateBookingStartsAtBasePrice(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	_, worker := createWorker(t, db, "w1@test.com", 249)

	booking, err := bs.Create(customer.ID, newBookingRequest(worker.ID), nil)
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusRequested, booking.Status)
	assert.Equal(t, 249.0, booking.Total)
	assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)
	assert.Equal(t, 1, booking.TariffRevision)
}

func TestAcceptCouplesAvailability(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 199)

	booking, err := bs.Create(customer.ID, newBookingRequest(worker.ID), nil)
	require.NoError(t, err)

	accepted, err := bs.Accept(workerUser.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusAccepted, accepted.Status)

	var reloaded models.Worker
	require.NoError(t, db.First(&reloaded, worker.ID).Error)
	assert.False(t, reloaded.IsAvailable)
	require.NotNil(t, reloaded.CurrentBookingID)
	assert.Equal(t, booking.ID, *reloaded.CurrentBookingID)

	// A second request cannot be accepted while the first is active
	second, err := bs.Create(customer.ID, newBookingRequest(worker.ID), nil)
	require.NoError(t, err)
	_, err = bs.Accept(workerUser.ID, second.ID)
	assert.ErrorIs(t, err, ErrWorkerBusy)
}

func TestAcceptRequiresRequestedStatus(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 199)

	booking, err := bs.Create(customer.ID, newBookingRequest(worker.ID), nil)
	require.NoError(t, err)

	_, err = bs.Cancel(customer.ID, booking.ID)
	require.NoError(t, err)

	_, err = bs.Accept(workerUser.ID, booking.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAcceptUnavailableWorker(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 199)

	booking, err := bs.Create(customer.ID, newBookingRequest(worker.ID), nil)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Worker{}).Where("id = ?", worker.ID).Update("is_available", false).Error)

	_, err = bs.Accept(workerUser.ID, booking.ID)
	assert.ErrorIs(t, err, ErrWorkerUnavailable)
}

func TestCancelWindow(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	other := createCustomer(t, db, "c2@test.com")
	_, worker := createWorker(t, db, "w1@test.com", 199)

	booking, err := bs.Create(customer.ID, newBookingRequest(worker.ID), nil)
	require.NoError(t, err)

	_, err = bs.Cancel(other.ID, booking.ID)
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	cancelled, err := bs.Cancel(customer.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	// A booking older than the window can no longer be cancelled
	late, err := bs.Create(customer.ID, newBookingRequest(worker.ID), nil)
	require.NoError(t, err)
	stale := time.Now().Add(-models.CancelWindow - time.Minute)
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", late.ID).Update("created_at", stale).Error)

	_, err = bs.Cancel(customer.ID, late.ID)
	assert.ErrorIs(t, err, ErrCancelWindowExpired)
}

func acceptBooking(t *testing.T, bs *BookingService, customerID, workerUserID, workerID uint) *models.Booking {
	t.Helper()
	booking, err := bs.Create(customerID, newBookingRequest(workerID), nil)
	require.NoError(t, err)
	accepted, err := bs.Accept(workerUserID, booking.ID)
	require.NoError(t, err)
	return accepted
}

func TestTariffReconcileAndTotal(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	updated, err := bs.UpdateTariff(workerUser.ID, booking.ID, []models.TariffLineInput{
		{Label: "Pipe replacement", Amount: 150},
		{Label: "Sealant", Amount: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 300.0, updated.Total) // base 100 + 150 + 50

	var lines []models.Tariff
	require.NoError(t, db.Where("booking_id = ?", booking.ID).Order("id").Find(&lines).Error)
	require.Len(t, lines, 2)

	// Update one line, drop the other, add a new one
	updated, err = bs.UpdateTariff(workerUser.ID, booking.ID, []models.TariffLineInput{
		{ID: lines[0].ID, Label: "Pipe replacement", Amount: 200},
		{Label: "Valve", Amount: 75},
	})
	require.NoError(t, err)
	assert.Equal(t, 375.0, updated.Total)

	require.NoError(t, db.Where("booking_id = ?", booking.ID).Find(&lines).Error)
	assert.Len(t, lines, 2)

	// An empty list clears the ledger back to the base price
	updated, err = bs.UpdateTariff(workerUser.ID, booking.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, updated.Total)
}

func TestReceiptFreezeAndInvalidate(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	_, err := bs.UpdateTariff(workerUser.ID, booking.ID, []models.TariffLineInput{{Label: "Labour", Amount: 100}})
	require.NoError(t, err)

	sent, err := bs.SendReceipt(workerUser.ID, booking.ID)
	require.NoError(t, err)
	assert.True(t, sent.ReceiptSent)

	// Re-sending is a no-op
	_, err = bs.SendReceipt(workerUser.ID, booking.ID)
	require.NoError(t, err)

	var receipts []models.Receipt
	require.NoError(t, db.Where("booking_id = ?", booking.ID).Find(&receipts).Error)
	require.Len(t, receipts, 1)
	assert.Equal(t, 1, receipts[0].Revision)
	assert.Equal(t, 200.0, receipts[0].Total)

	// Editing the ledger invalidates the receipt and bumps the revision
	edited, err := bs.UpdateTariff(workerUser.ID, booking.ID, []models.TariffLineInput{{Label: "Labour", Amount: 150}})
	require.NoError(t, err)
	assert.False(t, edited.ReceiptSent)
	assert.Equal(t, 2, edited.TariffRevision)

	resent, err := bs.SendReceipt(workerUser.ID, booking.ID)
	require.NoError(t, err)
	assert.True(t, resent.ReceiptSent)

	require.NoError(t, db.Where("booking_id = ?", booking.ID).Order("revision").Find(&receipts).Error)
	require.Len(t, receipts, 2)
	assert.Equal(t, 2, receipts[1].Revision)
	assert.Equal(t, 250.0, receipts[1].Total)
}

func TestCODFlow(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	_, err := bs.ChooseCOD(customer.ID, booking.ID)
	require.NoError(t, err)

	// Cash cannot be confirmed before the receipt goes out
	_, err = bs.ConfirmCOD(workerUser.ID, booking.ID)
	assert.ErrorIs(t, err, ErrReceiptNotSent)

	_, err = bs.SendReceipt(workerUser.ID, booking.ID)
	require.NoError(t, err)

	paid, err := bs.ConfirmCOD(workerUser.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)

	_, err = bs.ConfirmCOD(workerUser.ID, booking.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestChooseCODRequiresWorkerOptIn(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)
	require.NoError(t, db.Model(&models.Worker{}).Where("id = ?", worker.ID).Update("allows_cod", false).Error)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	_, err := bs.ChooseCOD(customer.ID, booking.ID)
	assert.ErrorIs(t, err, ErrCODNotAllowed)
}

func TestMarkPaidRequiresReceipt(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	_, err := bs.MarkPaid(booking.ID)
	assert.ErrorIs(t, err, ErrReceiptNotSent)

	_, err = bs.SendReceipt(workerUser.ID, booking.ID)
	require.NoError(t, err)

	paid, err := bs.MarkPaid(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)

	_, err = bs.MarkPaid(booking.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestCompleteRequiresPayment(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	_, err := bs.Complete(workerUser.ID, booking.ID)
	assert.ErrorIs(t, err, ErrPaymentPending)
}

func TestCompleteAppendsEarningOnceAndFreesWorker(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)
	_, err := bs.UpdateTariff(workerUser.ID, booking.ID, []models.TariffLineInput{{Label: "Labour", Amount: 400}})
	require.NoError(t, err)
	_, err = bs.SendReceipt(workerUser.ID, booking.ID)
	require.NoError(t, err)
	_, err = bs.MarkPaid(booking.ID)
	require.NoError(t, err)

	done, err := bs.Complete(workerUser.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	var reloaded models.Worker
	require.NoError(t, db.First(&reloaded, worker.ID).Error)
	assert.True(t, reloaded.IsAvailable)
	assert.Nil(t, reloaded.CurrentBookingID)

	var count int64
	require.NoError(t, db.Model(&models.WorkerEarning{}).Where("booking_id = ?", booking.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Completion is terminal
	_, err = bs.Complete(workerUser.ID, booking.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	summary, err := bs.Earnings(workerUser.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, summary.Total)
	assert.Equal(t, int64(1), summary.JobsDone)
}

func TestRateGating(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	_, err := bs.Rate(customer.ID, booking.ID, 5, "great")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = bs.SendReceipt(workerUser.ID, booking.ID)
	require.NoError(t, err)
	_, err = bs.MarkPaid(booking.ID)
	require.NoError(t, err)
	_, err = bs.Complete(workerUser.ID, booking.ID)
	require.NoError(t, err)

	rated, err := bs.Rate(customer.ID, booking.ID, 4, "solid work")
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)

	_, err = bs.Rate(customer.ID, booking.ID, 5, "changed my mind")
	assert.ErrorIs(t, err, ErrAlreadyRated)

	var reloaded models.Worker
	require.NoError(t, db.First(&reloaded, worker.ID).Error)
	assert.Equal(t, 4.0, reloaded.AverageRating)
	assert.Equal(t, 1, reloaded.TotalReviews)
}

func TestRatePaidBeforeCompletion(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	booking := acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	_, err := bs.SendReceipt(workerUser.ID, booking.ID)
	require.NoError(t, err)
	_, err = bs.MarkPaid(booking.ID)
	require.NoError(t, err)

	// Payment settled; the job itself is still in progress
	rated, err := bs.Rate(customer.ID, booking.ID, 5, "paid upfront, fast work")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusAccepted, rated.Status)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)

	_, err = bs.Complete(workerUser.ID, booking.ID)
	require.NoError(t, err)

	var reloaded models.Worker
	require.NoError(t, db.First(&reloaded, worker.ID).Error)
	assert.Equal(t, 5.0, reloaded.AverageRating)
	assert.Equal(t, 1, reloaded.TotalReviews)
}

func TestSetAvailabilityBlockedDuringJob(t *testing.T) {
	db := newTestDB(t)
	bs := NewBookingService(db)
	customer := createCustomer(t, db, "c1@test.com")
	workerUser, worker := createWorker(t, db, "w1@test.com", 100)

	acceptBooking(t, bs, customer.ID, workerUser.ID, worker.ID)

	_, err := bs.SetAvailability(workerUser.ID, true)
	assert.ErrorIs(t, err, ErrActiveJobInProgress)
}
