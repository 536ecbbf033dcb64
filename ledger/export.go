/*
export.go - Tabular CSV dumps of ledger, snapshot and member data

PURPOSE:
  The core exposes already-sorted, date-filtered listings suitable for
  direct tabular export. The writers here render them as CSV; the HTTP
  layer only sets headers and streams the bytes.
*/
package ledger

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

// WriteLedgerCSV writes events as CSV rows in the canonical column order:
// id, member, action, beverage, description, credit, date, acting-user,
// timestamp.
func WriteLedgerCSV(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"ID", "Member", "Action", "Beverage", "Description",
		"Credit", "Date", "User", "Timestamp",
	}); err != nil {
		return err
	}
	for _, ev := range events {
		row := []string{
			ev.ID,
			ev.Account,
			string(ev.Action),
			ev.Beverage,
			ev.Description,
			ev.Credit.String(),
			ev.Date.String(),
			ev.Log.User,
			Timestamp(ev.Log.Timestamp),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSnapshotsCSV writes snapshots as CSV: date, club and members
// balances, surplus, then one count column per member status.
func WriteSnapshotsCSV(w io.Writer, snapshots []Snapshot) error {
	cw := csv.NewWriter(w)
	header := []string{"Date", "Club", "Members", "Surplus"}
	for _, status := range Statuses {
		header = append(header, string(status))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range snapshots {
		row := []string{
			s.Date.String(),
			s.ClubBalance.String(),
			s.MembersBalance.String(),
			s.Surplus().String(),
		}
		for _, status := range Statuses {
			row = append(row, strconv.Itoa(s.MemberCounts[status]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MemberRow pairs a member with their computed balance for export.
type MemberRow struct {
	Member  Member
	Balance decimal.Decimal
}

// WriteMembersCSV writes member rows as CSV.
func WriteMembersCSV(w io.Writer, rows []MemberRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"Member", "First name", "Last name", "Balance", "Role", "Status",
		"Last login", "Swish", "Swish lazy", "Address",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		lastLogin := ""
		if r.Member.LastLogin != nil {
			lastLogin = Timestamp(*r.Member.LastLogin)
		}
		lazy := ""
		if r.Member.SwishLazy {
			lazy = "true"
		}
		row := []string{
			r.Member.Email,
			r.Member.FirstName,
			r.Member.LastName,
			r.Balance.String(),
			string(r.Member.Role),
			string(r.Member.Status),
			lastLogin,
			r.Member.Swish,
			lazy,
			r.Member.Address,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
