package model

import "time"

// AccountType classifies the statement account the way OFX does.
type AccountType string

const (
	AccountTypeChecking   AccountType = "CHECKING"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeMoneyMrkt  AccountType = "MONEYMRKT"
	AccountTypeCreditLine AccountType = "CREDITLINE"
	AccountTypeCD         AccountType = "CD"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeMoneyMrkt, AccountTypeCreditLine, AccountTypeCD:
		return true
	}
	return false
}

// Statement is a parsed bank statement ready for export.
type Statement struct {
	Currency     string
	BankID       string
	AccountID    string
	AccountType  AccountType
	Transactions []Transaction
}

// StartDate returns the earliest posting date, or the zero time for an empty statement.
func (s *Statement) StartDate() time.Time {
	var start time.Time
	for _, t := range s.Transactions {
		if start.IsZero() || t.Date.Before(start) {
			start = t.Date
		}
	}
	return start
}

// EndDate returns the latest posting date, or the zero time for an empty statement.
func (s *Statement) EndDate() time.Time {
	var end time.Time
	for _, t := range s.Transactions {
		if t.Date.After(end) {
			end = t.Date
		}
	}
	return end
}
