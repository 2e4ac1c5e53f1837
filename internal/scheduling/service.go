// Package scheduling implements the appointment domain: finding upcoming
// appointments, proposing open slots, and booking or cancelling with
// collision safety.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthup/dental-assistant/internal/ids"
	"github.com/healthup/dental-assistant/pkg/logging"
)

// Service is the scheduling engine. All queries are tenant-scoped and all
// temporal comparisons use the combined date+time instant.
type Service struct {
	repo   *Repository
	locker Locker
	policy SlotPolicy
	logger *logging.Logger
}

// NewService wires the engine. A nil locker degrades to the unique index
// alone.
func NewService(repo *Repository, locker Locker, policy SlotPolicy, logger *logging.Logger) *Service {
	if repo == nil {
		panic("scheduling: repository required")
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	if !policy.valid() {
		policy = DefaultSlotPolicy()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, locker: locker, policy: policy, logger: logger}
}

// NextAppointment returns the patient's earliest appointment at or after
// now, or ErrNotFound. A same-day appointment whose time already passed is
// not upcoming.
func (s *Service) NextAppointment(ctx context.Context, officeID, patientID string, now time.Time) (*Appointment, error) {
	return s.repo.NextForPatient(ctx, officeID, patientID, now)
}

// UpcomingOfficeAppointments lists up to limit appointments at or after now,
// earliest first.
func (s *Service) UpcomingOfficeAppointments(ctx context.Context, officeID string, now time.Time, limit int) ([]Appointment, error) {
	return s.repo.UpcomingForOffice(ctx, officeID, now, limit)
}

// DoctorAppointments lists a doctor's upcoming appointments with patient
// names.
func (s *Service) DoctorAppointments(ctx context.Context, doctorID string, now time.Time) ([]DoctorAppointment, error) {
	return s.repo.UpcomingForDoctor(ctx, doctorID, now)
}

// ProposeSlots generates up to count bookable instants in
// [now, now+horizonDays] disjoint from every already-booked slot in the
// office. Returns fewer when the horizon is exhausted; never pads.
func (s *Service) ProposeSlots(ctx context.Context, officeID string, now time.Time, horizonDays, count int) ([]time.Time, error) {
	if horizonDays <= 0 {
		horizonDays = 14
	}
	if count <= 0 {
		count = 10
	}

	// The booked set needs every appointment in the horizon, not the
	// default page of ten.
	existing, err := s.repo.UpcomingForOffice(ctx, officeID, now, count*horizonDays*24)
	if err != nil {
		return nil, fmt.Errorf("scheduling: propose slots: %w", err)
	}
	booked := make(map[int64]struct{}, len(existing))
	for _, a := range existing {
		booked[SlotUnix(a.StartsAt)] = struct{}{}
	}

	return s.policy.GenerateSlots(now, horizonDays, count, booked), nil
}

// Book creates an appointment at the chosen instant. Collisions surface as
// ErrSlotTaken, either from the slot lock's in-section re-check or from the
// storage unique index when two workers race past the lock.
func (s *Service) Book(ctx context.Context, officeID, patientID, doctorID string, at time.Time, now time.Time) (*Appointment, error) {
	appointment := &Appointment{
		ID:        ids.New(),
		OfficeID:  officeID,
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  SlotKey(at),
		CreatedAt: now,
	}

	err := s.locker.WithSlotLock(ctx, officeID, doctorID, at, func(lockCtx context.Context) error {
		return s.repo.Insert(lockCtx, appointment)
	})
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: slot is being booked", ErrSlotTaken)
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appointment.ID,
		"office_id", officeID,
		"doctor_id", doctorID,
		"starts_at", appointment.StartsAt,
	)
	return appointment, nil
}

// Cancel hard-deletes an appointment and reports whether it existed.
func (s *Service) Cancel(ctx context.Context, officeID, appointmentID string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, officeID, appointmentID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("appointment cancelled", "appointment_id", appointmentID, "office_id", officeID)
	}
	return deleted, nil
}

// Reschedule is cancel-then-book; there is no atomic move. A failure after
// the cancel leaves the patient unbooked, which the agent reports so the
// patient can book again.
func (s *Service) Reschedule(ctx context.Context, existing *Appointment, at time.Time, now time.Time) (*Appointment, error) {
	deleted, err := s.Cancel(ctx, existing.OfficeID, existing.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrNotFound
	}
	return s.Book(ctx, existing.OfficeID, existing.PatientID, existing.DoctorID, at, now)
}
