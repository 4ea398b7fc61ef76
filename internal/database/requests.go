package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
)

// InsertBookingRequest stores a new booking request.
func (db *DB) InsertBookingRequest(ctx context.Context, r models.BookingRequest) error {
	query := `INSERT INTO booking_requests (
		id, customer_id, property_id, check_in, check_out, guests,
		status, special_requests, source, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		r.ID,
		r.CustomerID,
		r.PropertyID,
		r.CheckIn.String(),
		r.CheckOut.String(),
		r.Guests,
		r.Status,
		r.SpecialRequests,
		r.Source,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking request: %w", err)
	}

	return nil
}

// GetBookingRequest returns the booking request with the given id.
func (db *DB) GetBookingRequest(ctx context.Context, id string) (*models.BookingRequest, error) {
	query := `SELECT id, customer_id, property_id, check_in, check_out, guests,
		status, special_requests, source, created_at, updated_at
		FROM booking_requests WHERE id = ?`

	var r models.BookingRequest
	var checkIn, checkOut, createdAt, updatedAt string
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&r.ID,
		&r.CustomerID,
		&r.PropertyID,
		&checkIn,
		&checkOut,
		&r.Guests,
		&r.Status,
		&r.SpecialRequests,
		&r.Source,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offer.NotFound("booking request", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking request: %w", err)
	}

	if r.CheckIn, err = models.ParseDate(checkIn); err != nil {
		return nil, err
	}
	if r.CheckOut, err = models.ParseDate(checkOut); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &r, nil
}

// UpdateBookingRequestStatus sets the status of a booking request.
func (db *DB) UpdateBookingRequestStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE booking_requests SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking request status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return offer.NotFound("booking request", id)
	}

	return nil
}

// CountOffers returns how many offers exist for a booking request.
func (db *DB) CountOffers(ctx context.Context, requestID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM offers WHERE request_id = ?`, requestID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}

	return count, nil
}
