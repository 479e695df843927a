/**
 * @description
 * This file defines the fiat account domain model and the schema-tagged payload
 * variants used when registering an account. The schema discriminator is decided
 * once, at decode time, producing a typed variant; downstream code switches on
 * the concrete type instead of re-inspecting strings.
 */

package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FiatAccountType categorizes a registered fiat account.
type FiatAccountType string

const (
	FiatAccountTypeBankAccount FiatAccountType = "BankAccount"
	FiatAccountTypeMobileMoney FiatAccountType = "MobileMoney"
	FiatAccountTypeDuniaWallet FiatAccountType = "DuniaWallet"
)

// FiatAccountSchema names the wire schema the account was registered with.
// Quote fee tables are keyed by this value.
type FiatAccountSchema string

const (
	FiatAccountSchemaAccountNumber FiatAccountSchema = "AccountNumber"
	FiatAccountSchemaMobileMoney   FiatAccountSchema = "MobileMoney"
	FiatAccountSchemaDuniaWallet   FiatAccountSchema = "DuniaWallet"
)

// FiatAccount is a registered fiat account. Maps to the `fiat_accounts` table.
type FiatAccount struct {
	ID                string            `json:"fiatAccountId"`
	Owner             string            `json:"-"`
	AccountName       string            `json:"accountName"`
	InstitutionName   string            `json:"institutionName"`
	FiatAccountType   FiatAccountType   `json:"fiatAccountType"`
	FiatAccountSchema FiatAccountSchema `json:"fiatAccountSchema"`
	AccountNumber     string            `json:"accountNumber,omitempty"`
	Mobile            string            `json:"mobile,omitempty"`
	Operator          string            `json:"operator,omitempty"`
	Country           string            `json:"country,omitempty"`
	CreatedAt         time.Time         `json:"-"`
}

// FiatAccountData is the schema-specific payload of an account registration.
// Exactly one concrete variant exists per FiatAccountSchema value.
type FiatAccountData interface {
	Schema() FiatAccountSchema
	// Apply copies the variant's fields onto the account being built.
	Apply(account *FiatAccount)
}

type fiatAccountDataCommon struct {
	AccountName     string          `json:"accountName"`
	InstitutionName string          `json:"institutionName"`
	FiatAccountType FiatAccountType `json:"fiatAccountType"`
}

// AccountNumberData is the payload for bank account registrations.
type AccountNumberData struct {
	fiatAccountDataCommon
	AccountNumber string `json:"accountNumber"`
	Country       string `json:"country"`
}

func (AccountNumberData) Schema() FiatAccountSchema { return FiatAccountSchemaAccountNumber }

func (d AccountNumberData) Apply(account *FiatAccount) {
	account.AccountNumber = d.AccountNumber
	account.Country = d.Country
}

// DuniaWalletData is the payload for Dunia wallet registrations.
type DuniaWalletData struct {
	fiatAccountDataCommon
	Mobile string `json:"mobile"`
}

func (DuniaWalletData) Schema() FiatAccountSchema { return FiatAccountSchemaDuniaWallet }

func (d DuniaWalletData) Apply(account *FiatAccount) {
	account.Mobile = d.Mobile
}

// MobileMoneyData is the payload for mobile money registrations.
type MobileMoneyData struct {
	fiatAccountDataCommon
	Mobile   string `json:"mobile"`
	Operator string `json:"operator"`
	Country  string `json:"country"`
}

func (MobileMoneyData) Schema() FiatAccountSchema { return FiatAccountSchemaMobileMoney }

func (d MobileMoneyData) Apply(account *FiatAccount) {
	account.Mobile = d.Mobile
	account.Operator = d.Operator
	account.Country = d.Country
}

// DecodeFiatAccountData resolves the schema discriminator to its typed variant.
// An unknown schema name is a validation error, not a fallthrough.
func DecodeFiatAccountData(schema FiatAccountSchema, raw json.RawMessage) (FiatAccountData, error) {
	switch schema {
	case FiatAccountSchemaAccountNumber:
		var data AccountNumberData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", schema, err)
		}
		return data, nil
	case FiatAccountSchemaDuniaWallet:
		var data DuniaWalletData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", schema, err)
		}
		return data, nil
	case FiatAccountSchemaMobileMoney:
		var data MobileMoneyData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", schema, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported fiat account schema %q", schema)
	}
}

// Common returns the schema-independent fields of a registration payload.
func (c fiatAccountDataCommon) Common() (accountName, institutionName string, accountType FiatAccountType) {
	return c.AccountName, c.InstitutionName, c.FiatAccountType
}

// NewFiatAccount builds an account entity from a decoded registration payload.
// The id is assigned by the caller (handlers generate a fresh UUID).
func NewFiatAccount(id, owner string, data FiatAccountData) *FiatAccount {
	account := &FiatAccount{
		ID:                id,
		Owner:             owner,
		FiatAccountSchema: data.Schema(),
	}
	if common, ok := data.(interface {
		Common() (string, string, FiatAccountType)
	}); ok {
		account.AccountName, account.InstitutionName, account.FiatAccountType = common.Common()
	}
	data.Apply(account)
	return account
}
