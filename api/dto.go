/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/clubtab/clubtab/ledger"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventDTO represents one ledger event in API responses.
type EventDTO struct {
	ID          string `json:"id"`
	Account     string `json:"account"`
	Action      string `json:"action"`
	Credit      string `json:"credit"`
	Beverage    string `json:"beverage,omitempty"`
	Payment     string `json:"payment,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Timestamp   string `json:"timestamp"`
	User        string `json:"user,omitempty"`
}

func toEventDTO(ev ledger.Event) EventDTO {
	return EventDTO{
		ID:          ev.ID,
		Account:     ev.Account,
		Action:      string(ev.Action),
		Credit:      ev.Credit.String(),
		Beverage:    ev.Beverage,
		Payment:     ev.Payment,
		Description: ev.Description,
		Date:        ev.Date.String(),
		Timestamp:   ledger.Timestamp(ev.Log.Timestamp),
		User:        ev.Log.User,
	}
}

func toEventDTOs(events []ledger.Event) []EventDTO {
	dtos := make([]EventDTO, 0, len(events))
	for _, ev := range events {
		dtos = append(dtos, toEventDTO(ev))
	}
	return dtos
}

// PurchaseRequest books a beverage purchase for the acting member, or for
// the named account when an admin acts on someone's behalf.
type PurchaseRequest struct {
	Account     string `json:"account,omitempty"`
	Mode        string `json:"mode"`
	Beverage    string `json:"beverage"`
	Amount      string `json:"amount,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// PaymentRequest books a repayment, expenditure or cash deposit.
type PaymentRequest struct {
	Account     string `json:"account,omitempty"`
	Mode        string `json:"mode"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// TransferRequest books a signed manual correction. Admin only.
type TransferRequest struct {
	Account     string `json:"account"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// PurchaseResponse carries the booked event and the confirmation line.
type PurchaseResponse struct {
	Event   EventDTO `json:"event"`
	Message string   `json:"message"`
}

// =============================================================================
// MEMBERS
// =============================================================================

// MemberDTO represents a member in API responses. Credentials never leave
// the server; the one-time code is included only in responses to the flows
// that issue it.
type MemberDTO struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Swish     string `json:"swish,omitempty"`
	SwishLazy bool   `json:"swish_lazy,omitempty"`
	Address   string `json:"address,omitempty"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	LastLogin string `json:"last_login,omitempty"`
	Code      string `json:"code,omitempty"`
	Balance   string `json:"balance,omitempty"`
}

func toMemberDTO(m ledger.Member) MemberDTO {
	dto := MemberDTO{
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Swish:     m.Swish,
		SwishLazy: m.SwishLazy,
		Address:   m.Address,
		Role:      string(m.Role),
		Status:    string(m.Status),
	}
	if m.LastLogin != nil {
		dto.LastLogin = ledger.Timestamp(*m.LastLogin)
	}
	return dto
}

// RegisterRequest creates a member account.
type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Swish     string `json:"swish,omitempty"`
	SwishLazy bool   `json:"swish_lazy,omitempty"`
	Address   string `json:"address,omitempty"`
}

// SettingsRequest edits a member account.
type SettingsRequest struct {
	FirstName   string  `json:"first_name,omitempty"`
	LastName    string  `json:"last_name,omitempty"`
	Swish       string  `json:"swish,omitempty"`
	SwishLazy   bool    `json:"swish_lazy,omitempty"`
	Address     string  `json:"address,omitempty"`
	Role        *string `json:"role,omitempty"`
	IssueAPIKey bool    `json:"issue_api_key,omitempty"`
}

// PasswordRequest sets a password with the one-time code.
type PasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// LoginRequest verifies credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetRequest clears the password and issues a fresh one-time code.
type ResetRequest struct {
	Email string `json:"email"`
}

// =============================================================================
// BALANCES, ACTIVITY, SNAPSHOTS
// =============================================================================

// BalanceDTO is one account's derived balance.
type BalanceDTO struct {
	Account  string `json:"account"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// ActivityDTO annotates an account with its most recent credit-affecting
// event timestamp.
type ActivityDTO struct {
	Account string `json:"account"`
	Latest  string `json:"latest"`
}

// SnapshotDTO represents a daily snapshot in API responses.
type SnapshotDTO struct {
	Date           string         `json:"date"`
	ClubBalance    string         `json:"club_balance"`
	MembersBalance string         `json:"members_balance"`
	Surplus        string         `json:"surplus"`
	MemberCounts   map[string]int `json:"member_counts"`
}

func toSnapshotDTO(s ledger.Snapshot) SnapshotDTO {
	counts := make(map[string]int, len(s.MemberCounts))
	for status, n := range s.MemberCounts {
		counts[string(status)] = n
	}
	return SnapshotDTO{
		Date:           s.Date.String(),
		ClubBalance:    s.ClubBalance.String(),
		MembersBalance: s.MembersBalance.String(),
		Surplus:        s.Surplus().String(),
		MemberCounts:   counts,
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
