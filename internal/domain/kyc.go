/**
 * @description
 * This file defines the KYC domain model. One KYC record exists per
 * (owner, kyc schema) pair; submissions start in KycPending and are advanced
 * by an out-of-band review process.
 */

package domain

import "time"

// KycSchema names the KYC payload shape a submission conforms to.
type KycSchema string

const (
	KycSchemaPersonalDataAndDocuments KycSchema = "PersonalDataAndDocuments"
)

// KycStatus is the review state of a KYC record.
type KycStatus string

const (
	KycStatusPending  KycStatus = "KycPending"
	KycStatusApproved KycStatus = "KycApproved"
	KycStatusDenied   KycStatus = "KycDenied"
	KycStatusExpired  KycStatus = "KycExpired"
)

// KycRecord maps to the `kyc_records` table.
type KycRecord struct {
	ID                     string    `json:"id"`
	Owner                  string    `json:"-"`
	KycSchemaName          KycSchema `json:"kycSchema"`
	FirstName              string    `json:"firstName"`
	MiddleName             string    `json:"middleName,omitempty"`
	LastName               string    `json:"lastName"`
	DateOfBirth            string    `json:"dateOfBirth"`
	Address                string    `json:"address"`
	PhoneNumber            string    `json:"phoneNumber"`
	SelfieDocument         string    `json:"selfieDocument"`
	IdentificationDocument string    `json:"identificationDocument"`
	Status                 KycStatus `json:"kycStatus"`
	CreatedAt              time.Time `json:"-"`
}

// KycSubmission is the DTO for a PersonalDataAndDocuments submission body.
type KycSubmission struct {
	FirstName              string            `json:"firstName"`
	MiddleName             string            `json:"middleName,omitempty"`
	LastName               string            `json:"lastName"`
	DateOfBirth            KycDateOfBirth    `json:"dateOfBirth"`
	Address                KycAddress        `json:"address"`
	PhoneNumber            string            `json:"phoneNumber"`
	SelfieDocument         string            `json:"selfieDocument"`
	IdentificationDocument string            `json:"identificationDocument"`
}

// KycDateOfBirth is the structured date-of-birth field of a KYC submission.
type KycDateOfBirth struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year"`
}

// String renders the date as YYYY-MM-DD for storage.
func (d KycDateOfBirth) String() string {
	return d.Year + "-" + d.Month + "-" + d.Day
}

// KycAddress is the structured address field of a KYC submission.
type KycAddress struct {
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	IsoCountry string `json:"isoCountryCode"`
}

// String renders a single-line address for storage.
func (a KycAddress) String() string {
	line := a.Address1
	if a.Address2 != "" {
		line += ", " + a.Address2
	}
	line += ", " + a.City
	if a.Region != "" {
		line += ", " + a.Region
	}
	if a.PostalCode != "" {
		line += " " + a.PostalCode
	}
	return line + ", " + a.IsoCountry
}
