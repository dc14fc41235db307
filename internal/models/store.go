package models

import "time"

const (
	StoreStatusOpen   = "open"
	StoreStatusClosed = "closed"
)

// Store is a merchant location. Stores are never deleted; closing one flips
// Status to closed.
type Store struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"not null;index" json:"storeName"`
	Location  string    `json:"location"`
	City      string    `gorm:"index" json:"city"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Status    string    `gorm:"not null;default:'open';index" json:"storeStatus"`
	LogoURL   string    `json:"storeLogo,omitempty"`
	OwnerID   string    `gorm:"type:uuid;index" json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Store) IsOpen() bool {
	return s.Status == StoreStatusOpen
}

// ValidCoordinates reports whether lat/lng are within decimal degree bounds.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
