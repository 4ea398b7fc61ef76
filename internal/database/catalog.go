package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"booking-offer-api/internal/models"
	"booking-offer-api/internal/offer"
)

// InsertProperty stores a new property.
func (db *DB) InsertProperty(ctx context.Context, p models.Property) error {
	query := `INSERT INTO properties (
		id, name, slug, property_type, address, city, rooms, bathrooms,
		capacity, amenities, distance_to_venue_km, cleaning_fee, active, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Slug,
		p.PropertyType,
		p.Address,
		p.City,
		p.Rooms,
		p.Bathrooms,
		p.Capacity,
		serializeStrings(p.Amenities),
		p.DistanceToVenueKm,
		p.CleaningFee,
		p.Active,
		formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}

	return nil
}

// GetProperty returns the property with the given id.
func (db *DB) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	query := `SELECT id, name, slug, property_type, address, city, rooms, bathrooms,
		capacity, amenities, distance_to_venue_km, cleaning_fee, active, created_at
		FROM properties WHERE id = ?`

	var p models.Property
	var amenities, createdAt string
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.PropertyType,
		&p.Address,
		&p.City,
		&p.Rooms,
		&p.Bathrooms,
		&p.Capacity,
		&amenities,
		&p.DistanceToVenueKm,
		&p.CleaningFee,
		&p.Active,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offer.NotFound("property", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	p.Amenities = deserializeStrings(amenities)
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &p, nil
}

// FindOrCreateCustomer returns the customer with c.Email, inserting c when none exists.
// Emails are matched case-insensitively.
func (db *DB) FindOrCreateCustomer(ctx context.Context, c models.Customer) (*models.Customer, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	query := `INSERT INTO customers (id, name, email, phone, company, country, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`

	if _, err := db.conn.ExecContext(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.Company, c.Country, formatTime(c.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("failed to insert customer: %w", err)
	}

	return db.getCustomerBy(ctx, "email", c.Email)
}

// GetCustomer returns the customer with the given id.
func (db *DB) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	return db.getCustomerBy(ctx, "id", id)
}

func (db *DB) getCustomerBy(ctx context.Context, column, value string) (*models.Customer, error) {
	query := `SELECT id, name, email, phone, company, country, created_at
		FROM customers WHERE ` + column + ` = ?`

	var c models.Customer
	var createdAt string
	err := db.conn.QueryRowContext(ctx, query, value).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Country, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offer.NotFound("customer", value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &c, nil
}
