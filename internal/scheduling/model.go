package scheduling

import (
	"errors"
	"time"
)

var (
	// ErrNotFound reports an absent appointment.
	ErrNotFound = errors.New("scheduling: appointment not found")
	// ErrSlotTaken reports a booking collision: the (office, doctor, instant)
	// slot already holds an appointment. Callers re-propose slots.
	ErrSlotTaken = errors.New("scheduling: slot already booked")
)

// Appointment is one booked slot. StartsAt is the combined date+time
// instant; all temporal comparisons use it, never the date alone.
type Appointment struct {
	ID        string
	OfficeID  string
	PatientID string
	DoctorID  string
	StartsAt  time.Time
	CreatedAt time.Time
}

// DoctorAppointment is an appointment joined with the patient display name,
// the shape the doctor agent lists.
type DoctorAppointment struct {
	Appointment
	PatientName string
}

// SlotKey truncates an instant to the minute, the granularity at which two
// bookings collide.
func SlotKey(at time.Time) time.Time {
	return at.Truncate(time.Minute)
}

// SlotUnix is SlotKey as a location-independent value. time.Time map keys
// compare wall clock and location, so a UTC instant from storage would
// never equal the same instant generated in the office zone.
func SlotUnix(at time.Time) int64 {
	return SlotKey(at).Unix()
}
