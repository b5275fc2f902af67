package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"service-platform-server/models"
)

// Booking lifecycle errors. Handlers map these onto HTTP statuses.
var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrWorkerNotFound      = errors.New("worker not found")
	ErrNotBookingOwner     = errors.New("booking does not belong to this user")
	ErrNotBookingWorker    = errors.New("booking is not assigned to this worker")
	ErrInvalidTransition   = errors.New("operation not allowed in current booking status")
	ErrWorkerBusy          = errors.New("worker already has an active job")
	ErrWorkerUnavailable   = errors.New("worker is not available")
	ErrCancelWindowExpired = errors.New("cancellation period expired")
	ErrInvalidTimeSlots    = errors.New("invalid time slot selection")
	ErrTooManyPhotos       = errors.New("too many photos attached")
	ErrReceiptAfterPayment = errors.New("receipt cannot be changed after payment")
	ErrReceiptNotSent      = errors.New("receipt has not been sent yet")
	ErrPaymentPending      = errors.New("booking has not been paid")
	ErrAlreadyPaid         = errors.New("booking is already paid")
	ErrNotCOD              = errors.New("booking is not a cash on delivery payment")
	ErrCODNotAllowed       = errors.New("worker does not accept cash on delivery")
	ErrAlreadyRated        = errors.New("booking has already been rated")
	ErrActiveJobInProgress = errors.New("availability cannot change while a job is active")
)

// BookingService implements the booking lifecycle state machine. All status
// and payment transitions go through here so the ordering rules live in one
// place.
type BookingService struct {
	db *gorm.DB
}

// NewBookingService creates a booking service on the given database handle
func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{db: db}
}

// lockForUpdate applies a row lock where the dialect supports it
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// validateSlots checks a slot selection: 1 or 2 distinct choices from the
// fixed set
func validateSlots(slots []string) error {
	if len(slots) < 1 || len(slots) > 2 {
		return ErrInvalidTimeSlots
	}
	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		if !models.IsValidTimeSlot(s) || seen[s] {
			return ErrInvalidTimeSlots
		}
		seen[s] = true
	}
	return nil
}

// Create opens a new booking in requested status. The total starts at the
// service base price; tariff lines are added by the worker after acceptance.
func (bs *BookingService) Create(userID uint, req *models.BookingCreateRequest, photoURLs []string) (*models.Booking, error) {
	if err := validateSlots(req.TimeSlots); err != nil {
		return nil, err
	}
	if len(photoURLs) > models.MaxBookingPhotos {
		return nil, ErrTooManyPhotos
	}

	var worker models.Worker
	if err := bs.db.Preload("Services.Service").First(&worker, req.WorkerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, err
	}

	if len(worker.Services) == 0 {
		return nil, fmt.Errorf("worker has no services configured")
	}
	primary := worker.Services[0]

	booking := &models.Booking{
		UserID:        userID,
		WorkerID:      worker.ID,
		ServiceID:     primary.ServiceID,
		Status:        models.BookingStatusRequested,
		TimeSlots:     joinSlots(req.TimeSlots),
		Description:   req.Description,
		EquipmentNote: req.EquipmentNote,
		Total:         primary.Service.BasePrice,
	}

	err := bs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		for _, url := range photoURLs {
			photo := models.BookingPhoto{BookingID: booking.ID, URL: url}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %d created for user %d with worker %d", booking.ID, userID, worker.ID)
	return booking, nil
}

func joinSlots(slots []string) string {
	out := ""
	for i, s := range slots {
		if i > 0 {
			out += "|"
		}
		out += s
	}
	return out
}

// Cancel cancels a requested booking. Only the owner may cancel, and only
// within the cancel window measured from creation.
func (bs *BookingService) Cancel(userID, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := bs.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status != models.BookingStatusRequested {
		return nil, ErrInvalidTransition
	}
	if time.Now().After(booking.CancellableUntil()) {
		return nil, ErrCancelWindowExpired
	}

	booking.Status = models.BookingStatusCancelled
	if err := bs.db.Save(&booking).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %d cancelled by user %d", booking.ID, userID)
	return &booking, nil
}

// Accept assigns a requested booking to the worker. The worker row is locked
// so acceptance, the availability flip and the active-job pointer move as one
// unit; a worker can never hold two active jobs.
func (bs *BookingService) Accept(workerUserID, bookingID uint) (*models.Booking, error) {
	var booking models.Booking

	err := bs.db.Transaction(func(tx *gorm.DB) error {
		var worker models.Worker
		if err := lockForUpdate(tx).
			Where("user_id = ?", workerUserID).First(&worker).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkerNotFound
			}
			return err
		}

		if err := tx.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if booking.WorkerID != worker.ID {
			return ErrNotBookingWorker
		}
		if booking.Status != models.BookingStatusRequested {
			return ErrInvalidTransition
		}
		if worker.HasActiveBooking() {
			return ErrWorkerBusy
		}
		if !worker.IsAvailable {
			return ErrWorkerUnavailable
		}

		booking.Status = models.BookingStatusAccepted
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		worker.IsAvailable = false
		worker.CurrentBookingID = &booking.ID
		return tx.Save(&worker).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %d accepted by worker user %d", booking.ID, workerUserID)
	return &booking, nil
}

// UpdateTariff reconciles the booking's tariff ledger against the submitted
// line list: lines with a known id are updated, lines without are created,
// and stored lines missing from the list are deleted. Editing after a receipt
// was sent invalidates it and bumps the revision.
func (bs *BookingService) UpdateTariff(workerUserID, bookingID uint, lines []models.TariffLineInput) (*models.Booking, error) {
	var booking models.Booking

	err := bs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Service").First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		worker, err := bs.workerForUser(tx, workerUserID)
		if err != nil {
			return err
		}
		if booking.WorkerID != worker.ID {
			return ErrNotBookingWorker
		}
		if booking.Status != models.BookingStatusAccepted {
			return ErrInvalidTransition
		}
		if booking.PaymentStatus == models.PaymentStatusPaid {
			return ErrReceiptAfterPayment
		}

		for _, line := range lines {
			if line.Amount < 0 {
				return fmt.Errorf("tariff amount cannot be negative")
			}
		}

		var existing []models.Tariff
		if err := tx.Where("booking_id = ?", booking.ID).Find(&existing).Error; err != nil {
			return err
		}

		keep := make(map[uint]bool, len(lines))
		for _, line := range lines {
			if line.ID != 0 {
				keep[line.ID] = true
				if err := tx.Model(&models.Tariff{}).
					Where("id = ? AND booking_id = ?", line.ID, booking.ID).
					Updates(map[string]interface{}{
						"label":       line.Label,
						"amount":      line.Amount,
						"explanation": line.Explanation,
					}).Error; err != nil {
					return err
				}
			} else {
				created := models.Tariff{
					BookingID:   booking.ID,
					Label:       line.Label,
					Amount:      line.Amount,
					Explanation: line.Explanation,
				}
				if err := tx.Create(&created).Error; err != nil {
					return err
				}
			}
		}

		for _, old := range existing {
			if !keep[old.ID] {
				if err := tx.Delete(&models.Tariff{}, old.ID).Error; err != nil {
					return err
				}
			}
		}

		var current []models.Tariff
		if err := tx.Where("booking_id = ?", booking.ID).Find(&current).Error; err != nil {
			return err
		}
		booking.Total = models.TariffTotal(booking.Service.BasePrice, current)

		if booking.ReceiptSent {
			booking.ReceiptSent = false
			booking.TariffRevision++
		}

		return tx.Save(&booking).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Tariff updated for booking %d, total now %.2f (revision %d)", booking.ID, booking.Total, booking.TariffRevision)
	return &booking, nil
}

// SendReceipt freezes the current tariff ledger into a receipt and marks the
// booking as sent. Re-sending an unchanged receipt is a no-op; sending after
// payment is refused.
func (bs *BookingService) SendReceipt(workerUserID, bookingID uint) (*models.Booking, error) {
	var booking models.Booking

	err := bs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		worker, err := bs.workerForUser(tx, workerUserID)
		if err != nil {
			return err
		}
		if booking.WorkerID != worker.ID {
			return ErrNotBookingWorker
		}
		if booking.Status != models.BookingStatusAccepted {
			return ErrInvalidTransition
		}
		if booking.PaymentStatus == models.PaymentStatusPaid {
			return ErrReceiptAfterPayment
		}
		if booking.ReceiptSent {
			return nil // idempotent
		}

		receipt := models.Receipt{
			BookingID: booking.ID,
			Revision:  booking.TariffRevision,
			Total:     booking.Total,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}

		booking.ReceiptSent = true
		return tx.Save(&booking).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Receipt sent for booking %d (revision %d, total %.2f)", booking.ID, booking.TariffRevision, booking.Total)
	return &booking, nil
}

// ChooseCOD switches the booking to cash on delivery. Only the customer may
// choose it, only before payment, and only when the worker accepts COD.
func (bs *BookingService) ChooseCOD(userID, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := bs.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status != models.BookingStatusAccepted {
		return nil, ErrInvalidTransition
	}
	if booking.PaymentStatus == models.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}

	var worker models.Worker
	if err := bs.db.First(&worker, booking.WorkerID).Error; err != nil {
		return nil, err
	}
	if !worker.AllowsCOD {
		return nil, ErrCODNotAllowed
	}

	booking.PaymentMethod = models.PaymentMethodCOD
	if err := bs.db.Save(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// ConfirmCOD lets the worker confirm cash receipt, marking the booking paid
func (bs *BookingService) ConfirmCOD(workerUserID, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := bs.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	worker, err := bs.workerForUser(bs.db, workerUserID)
	if err != nil {
		return nil, err
	}
	if booking.WorkerID != worker.ID {
		return nil, ErrNotBookingWorker
	}
	if booking.Status != models.BookingStatusAccepted {
		return nil, ErrInvalidTransition
	}
	if booking.PaymentMethod != models.PaymentMethodCOD {
		return nil, ErrNotCOD
	}
	if booking.PaymentStatus == models.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}
	if !booking.ReceiptSent {
		return nil, ErrReceiptNotSent
	}

	booking.PaymentStatus = models.PaymentStatusPaid
	if err := bs.db.Save(&booking).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ COD payment confirmed for booking %d", booking.ID)
	return &booking, nil
}

// MarkPaid records a verified online payment against the booking
func (bs *BookingService) MarkPaid(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := bs.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status != models.BookingStatusAccepted {
		return nil, ErrInvalidTransition
	}
	if !booking.ReceiptSent {
		return nil, ErrReceiptNotSent
	}
	if booking.PaymentStatus == models.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}

	booking.PaymentStatus = models.PaymentStatusPaid
	if err := bs.db.Save(&booking).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Online payment captured for booking %d", booking.ID)
	return &booking, nil
}

// Complete closes out a paid booking: the status becomes completed, the
// earning row is appended exactly once, and the worker goes back into
// rotation
func (bs *BookingService) Complete(workerUserID, bookingID uint) (*models.Booking, error) {
	var booking models.Booking

	err := bs.db.Transaction(func(tx *gorm.DB) error {
		var worker models.Worker
		if err := lockForUpdate(tx).
			Where("user_id = ?", workerUserID).First(&worker).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkerNotFound
			}
			return err
		}

		if err := tx.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if booking.WorkerID != worker.ID {
			return ErrNotBookingWorker
		}
		if booking.Status != models.BookingStatusAccepted {
			return ErrInvalidTransition
		}
		if booking.PaymentStatus != models.PaymentStatusPaid {
			return ErrPaymentPending
		}

		now := time.Now()
		booking.Status = models.BookingStatusCompleted
		booking.CompletedAt = &now
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		// Append the earning exactly once even if completion is retried
		var count int64
		if err := tx.Model(&models.WorkerEarning{}).
			Where("booking_id = ?", booking.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			earning := models.WorkerEarning{
				WorkerID:  worker.ID,
				BookingID: booking.ID,
				Amount:    booking.Total,
			}
			if err := tx.Create(&earning).Error; err != nil {
				return err
			}
		}

		worker.IsAvailable = true
		worker.CurrentBookingID = nil
		return tx.Save(&worker).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %d completed, worker user %d back in rotation", booking.ID, workerUserID)
	return &booking, nil
}

// Rate records the customer's rating for a paid, completed booking, at most
// once, and folds it into the worker's aggregate
func (bs *BookingService) Rate(userID, bookingID uint, rating int, comment string) (*models.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	var booking models.Booking

	err := bs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if booking.UserID != userID {
			return ErrNotBookingOwner
		}
		// Ratable once the money has settled, even before the job is
		// marked complete
		if booking.PaymentStatus != models.PaymentStatusPaid && booking.Status != models.BookingStatusCompleted {
			return ErrInvalidTransition
		}
		if booking.Rating != nil {
			return ErrAlreadyRated
		}

		review := models.UserReview{
			UserID:    userID,
			WorkerID:  booking.WorkerID,
			BookingID: booking.ID,
			Rating:    rating,
			Comment:   comment,
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		booking.Rating = &rating
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		var worker models.Worker
		if err := tx.First(&worker, booking.WorkerID).Error; err != nil {
			return err
		}
		total := worker.AverageRating*float64(worker.TotalReviews) + float64(rating)
		worker.TotalReviews++
		worker.AverageRating = total / float64(worker.TotalReviews)
		return tx.Save(&worker).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %d rated %d by user %d", booking.ID, rating, userID)
	return &booking, nil
}

// SetAvailability toggles the worker's availability. Refused while a job is
// active; completion is the only thing that frees a busy worker.
func (bs *BookingService) SetAvailability(workerUserID uint, available bool) (*models.Worker, error) {
	worker, err := bs.workerForUser(bs.db, workerUserID)
	if err != nil {
		return nil, err
	}

	if worker.HasActiveBooking() {
		return nil, ErrActiveJobInProgress
	}

	worker.IsAvailable = available
	if err := bs.db.Save(worker).Error; err != nil {
		return nil, err
	}
	return worker, nil
}

// Earnings folds the worker's earning rows into the dashboard summary
func (bs *BookingService) Earnings(workerUserID uint) (*models.EarningsSummary, error) {
	worker, err := bs.workerForUser(bs.db, workerUserID)
	if err != nil {
		return nil, err
	}

	var earnings []models.WorkerEarning
	if err := bs.db.Where("worker_id = ?", worker.ID).Find(&earnings).Error; err != nil {
		return nil, err
	}

	summary := &models.EarningsSummary{}
	monthStart := time.Now().AddDate(0, 0, -30)
	for _, e := range earnings {
		summary.Total += e.Amount
		summary.JobsDone++
		if e.CreatedAt.After(monthStart) {
			summary.ThisMonth += e.Amount
		}
	}
	return summary, nil
}

// workerForUser resolves the worker profile behind an authenticated user
func (bs *BookingService) workerForUser(tx *gorm.DB, userID uint) (*models.Worker, error) {
	var worker models.Worker
	if err := tx.Where("user_id = ?", userID).First(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, err
	}
	return &worker, nil
}
