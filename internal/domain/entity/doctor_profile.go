package entity

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus tracks admin review of a doctor account
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// DoctorProfile represents doctor-specific profile data.
// The doctor is addressed by its user id everywhere in the API.
type DoctorProfile struct {
	UserID             uuid.UUID          `gorm:"type:uuid;primaryKey" json:"user_id"`
	LicenseNumber      string             `gorm:"type:varchar(50);uniqueIndex;not null" json:"license_number"`
	Specialization     string             `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Experience         int                `gorm:"not null;default:0" json:"experience"`
	Address            string             `gorm:"type:text" json:"address,omitempty"`
	Biography          string             `gorm:"type:text" json:"biography,omitempty"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"verification_status"`
	AvailableSlots     Availability       `gorm:"type:jsonb;not null;default:'[]'" json:"available_slots"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

func (d *DoctorProfile) IsVerified() bool {
	return d.VerificationStatus == VerificationApproved
}
