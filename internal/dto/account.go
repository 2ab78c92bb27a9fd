package dto

import "github.com/SscSPs/fleet_finance_engine/internal/core/domain"

// AccountResponse defines the data returned for a chart of accounts entry.
type AccountResponse struct {
	AccountID   string             `json:"accountID"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	AccountType domain.AccountType `json:"accountType"`
	IsActive    bool               `json:"isActive"`
}

// SeedChartResponse lists the accounts a seeding run created.
type SeedChartResponse struct {
	Created []AccountResponse `json:"created"`
}

// MissingAccountsResponse lists the required codes without an active account.
type MissingAccountsResponse struct {
	MissingCodes []string `json:"missingCodes"`
	Ready        bool     `json:"ready"`
}

// ToAccountResponses converts a slice of domain.Account to []AccountResponse.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		responses[i] = AccountResponse{
			AccountID:   acc.AccountID,
			Code:        acc.Code,
			Name:        acc.Name,
			AccountType: acc.AccountType,
			IsActive:    acc.IsActive,
		}
	}
	return responses
}
