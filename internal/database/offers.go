package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
)

const offerColumns = `id, offer_number, request_id, breakdown, total_price, version,
	expires_at, status, notes, created_at, sent_at, viewed_at, responded_at, updated_at`

// InsertOffer stores a new offer. A clash on the offer number or on
// (request_id, version) is reported as offer.ErrDuplicateOfferNumber or
// offer.ErrDuplicateVersion.
func (db *DB) InsertOffer(ctx context.Context, o models.Offer) error {
	breakdown, err := json.Marshal(o.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}

	query := `INSERT INTO offers (` + offerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.conn.ExecContext(ctx, query,
		o.ID,
		o.OfferNumber,
		o.RequestID,
		string(breakdown),
		o.TotalPrice,
		o.Version,
		formatTime(o.ExpiresAt),
		o.Status,
		o.Notes,
		formatTime(o.CreatedAt),
		formatNullTime(o.SentAt),
		formatNullTime(o.ViewedAt),
		formatNullTime(o.RespondedAt),
		formatTime(o.UpdatedAt),
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "offers.offer_number"):
		return fmt.Errorf("insert offer %s: %w", o.OfferNumber, offer.ErrDuplicateOfferNumber)
	case isUniqueViolation(err, "offers.request_id"):
		return fmt.Errorf("insert offer version %d: %w", o.Version, offer.ErrDuplicateVersion)
	default:
		return fmt.Errorf("failed to insert offer: %w", err)
	}
}

// GetOffer returns the offer with the given id.
func (db *DB) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = ?`, id)

	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offer.NotFound("offer", id)
	}
	if err != nil {
		return nil, err
	}

	return o, nil
}

// ListOffersByRequest returns every offer of a booking request, newest version first.
func (db *DB) ListOffersByRequest(ctx context.Context, requestID string) ([]models.Offer, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE request_id = ? ORDER BY version DESC`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	return collectOffers(rows)
}

// ListExpirableOffers returns offers in draft, sent or viewed whose expiry is before now.
func (db *DB) ListExpirableOffers(ctx context.Context, now time.Time, limit int) ([]models.Offer, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM offers
		WHERE status IN (?, ?, ?) AND expires_at < ?
		ORDER BY expires_at ASC
		LIMIT ?`,
		models.OfferStatusDraft, models.OfferStatusSent, models.OfferStatusViewed,
		formatTime(now), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expirable offers: %w", err)
	}
	defer rows.Close()

	return collectOffers(rows)
}

// UpdateOfferStatus moves an offer from one status to another. The update only
// applies while the stored status still equals from; otherwise it returns
// offer.ErrStatusChanged and leaves the row untouched.
func (db *DB) UpdateOfferStatus(ctx context.Context, id string, from, to models.OfferStatus, change models.StatusChange) (*models.Offer, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE offers SET
			status = ?,
			updated_at = ?,
			sent_at = COALESCE(?, sent_at),
			viewed_at = COALESCE(?, viewed_at),
			responded_at = COALESCE(?, responded_at)
		WHERE id = ? AND status = ?`,
		to,
		formatTime(change.At),
		formatNullTime(change.SentAt),
		formatNullTime(change.ViewedAt),
		formatNullTime(change.RespondedAt),
		id,
		from,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update offer status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if n == 0 {
		if _, err := db.GetOffer(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("update offer %s to %s: %w", id, to, offer.ErrStatusChanged)
	}

	return db.GetOffer(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (*models.Offer, error) {
	var o models.Offer
	var breakdown, expiresAt, createdAt, updatedAt string
	var sentAt, viewedAt, respondedAt sql.NullString

	err := row.Scan(
		&o.ID,
		&o.OfferNumber,
		&o.RequestID,
		&breakdown,
		&o.TotalPrice,
		&o.Version,
		&expiresAt,
		&o.Status,
		&o.Notes,
		&createdAt,
		&sentAt,
		&viewedAt,
		&respondedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan offer: %w", err)
	}

	if err := json.Unmarshal([]byte(breakdown), &o.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode breakdown: %w", err)
	}
	if o.Breakdown.AdditionalFees == nil {
		o.Breakdown.AdditionalFees = []models.Fee{}
	}

	if o.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if o.SentAt, err = parseNullTime(sentAt); err != nil {
		return nil, err
	}
	if o.ViewedAt, err = parseNullTime(viewedAt); err != nil {
		return nil, err
	}
	if o.RespondedAt, err = parseNullTime(respondedAt); err != nil {
		return nil, err
	}

	return &o, nil
}

func collectOffers(rows *sql.Rows) ([]models.Offer, error) {
	offers := []models.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}
