/*
handlers.go - HTTP API handlers for the club tab system

PURPOSE:
  Exposes the accounting core and the member lifecycle via REST. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Events:
    POST   /api/purchase                Book a beverage purchase
    POST   /api/payment                 Book a repayment / expenditure / cash
    POST   /api/transfer                Book a manual correction (admin)
    GET    /api/events/{id}             Get one event
    DELETE /api/events/{id}             Delete an event (admin correction)
    GET    /api/ledger                  Events in a date range
    GET    /api/ledger.csv              Same, as CSV
    GET    /api/payments                Payment events in a date range

  Members:
    POST   /api/register                Register (public)
    GET    /api/members                 List members with balances (admin)
    GET    /api/members.csv             Same, as CSV (admin)
    GET    /api/members/pending         Pending registrations (admin)
    GET    /api/members/{email}         Get one member
    PUT    /api/members/{email}         Edit settings (self or admin)
    POST   /api/members/{email}/enable  Enable (admin)
    POST   /api/members/{email}/disable Disable (admin)
    DELETE /api/members/{email}         Delete (admin, zero events only)
    POST   /api/password                Set password with one-time code
    POST   /api/password/reset          Reset password, issue new code
    POST   /api/login                   Verify credentials

  Balances:
    GET    /api/balance                 Acting member's balance + today's count
    GET    /api/balance/{account}       One account's balance
    GET    /api/balances                All account balances
    GET    /api/activity                Recently active accounts
    GET    /api/snapshots               Snapshots in a date range
    GET    /api/snapshots.csv           Same, as CSV

IDENTITY:
  The acting member comes from the X-Actor header (email), resolved against
  the member store. Session management is out of scope; a reverse proxy or
  the web frontend is expected to supply the header after login.

SNAPSHOT PIPELINE:
  Every authenticated request passes the snapshot-ensure step before its
  handler runs, so the first request after midnight UTC freezes yesterday.

ERROR HANDLING:
  Errors are returned as JSON with the status derived in one place:
  - 400: Validation errors, invalid input
  - 401: Missing/unknown actor, bad credentials
  - 403: Permission denied, disabled accounts
  - 404: Resource not found
  - 409: Conflict (revision mismatch, duplicates)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clubtab/clubtab/club"
	"github.com/clubtab/clubtab/config"
	"github.com/clubtab/clubtab/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     ledger.Store
	Factory   *ledger.Factory
	Ledger    *ledger.Ledger
	Balances  *ledger.Balances
	Snapshots *ledger.Snapshotter
	Members   *club.Service
	Settings  config.Settings
}

// NewHandler wires the domain services on top of the given store.
func NewHandler(store ledger.Store, settings config.Settings) *Handler {
	members := club.NewService(store, club.Config{
		AutoEnablePattern: settings.AutoEnablePattern,
		MinPasswordLength: settings.MinPasswordLength,
	})
	return &Handler{
		Store:     store,
		Factory:   ledger.NewFactory(settings.Catalogs),
		Ledger:    ledger.NewLedger(store),
		Balances:  ledger.NewBalances(store),
		Snapshots: ledger.NewSnapshotter(store),
		Members:   members,
		Settings:  settings,
	}
}

type contextKey string

const actorKey contextKey = "actor"

// actor returns the authenticated member stored by requireActor.
func actor(r *http.Request) ledger.Member {
	m, _ := r.Context().Value(actorKey).(ledger.Member)
	return m
}

func (h *Handler) origin(r *http.Request) ledger.Origin {
	return ledger.Origin{User: actor(r).Email, Remote: r.RemoteAddr}
}

// =============================================================================
// EVENT ENDPOINTS
// =============================================================================

// Purchase books a beverage purchase.
// POST /api/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	me := actor(r)
	account, err := h.resolveAccount(me, req.Account)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	ev, message, err := h.Factory.Purchase(ledger.PurchaseInput{
		Account:     account,
		Mode:        req.Mode,
		Beverage:    req.Beverage,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		Origin:      h.origin(r),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Ledger.Record(r.Context(), ev); err != nil {
		h.writeDomainError(w, err)
		return
	}
	eventsRecorded.WithLabelValues(string(ledger.ActionPurchase)).Inc()
	writeJSON(w, http.StatusCreated, PurchaseResponse{
		Event:   toEventDTO(ev),
		Message: message,
	})
}

// Payment books a repayment, or - for the reserved modes - a club
// expenditure or cash deposit (admin only).
// POST /api/payment
func (h *Handler) Payment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	me := actor(r)
	if req.Mode == ledger.PaymentExpenditure || req.Mode == ledger.PaymentCash {
		if me.Role != ledger.RoleAdmin {
			h.writeDomainError(w, ledger.ErrPermissionDenied)
			return
		}
	}
	account, err := h.resolveAccount(me, req.Account)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	ev, err := h.Factory.Payment(ledger.PaymentInput{
		Account:     account,
		Mode:        req.Mode,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		Origin:      h.origin(r),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Ledger.Record(r.Context(), ev); err != nil {
		h.writeDomainError(w, err)
		return
	}
	eventsRecorded.WithLabelValues(string(ledger.ActionPayment)).Inc()
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// Transfer books a signed manual correction. Admin only.
// POST /api/transfer
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	if actor(r).Role != ledger.RoleAdmin {
		h.writeDomainError(w, ledger.ErrPermissionDenied)
		return
	}
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	ev, err := h.Factory.Transfer(ledger.TransferInput{
		Account:     req.Account,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		Origin:      h.origin(r),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Ledger.Record(r.Context(), ev); err != nil {
		h.writeDomainError(w, err)
		return
	}
	eventsRecorded.WithLabelValues(string(ledger.ActionTransfer)).Inc()
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// GetEvent returns one event by id. The event's account owner or an admin.
// GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	me := actor(r)
	if me.Role != ledger.RoleAdmin && ev.Account != me.Email {
		h.writeDomainError(w, ledger.ErrPermissionDenied)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(ev))
}

// DeleteEvent removes an event as an explicit correction. Admin only.
// DELETE /api/events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LedgerRange returns events with business date in [from, to]. Non-admins
// see only their own history.
// GET /api/ledger?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) LedgerRange(w http.ResponseWriter, r *http.Request) {
	events, err := h.ledgerEvents(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// LedgerCSV streams the same range as CSV.
// GET /api/ledger.csv?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) LedgerCSV(w http.ResponseWriter, r *http.Request) {
	events, err := h.ledgerEvents(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	if err := ledger.WriteLedgerCSV(w, events); err != nil {
		slog.Error("csv export failed", "error", err)
	}
}

func (h *Handler) ledgerEvents(r *http.Request) ([]ledger.Event, error) {
	from, to, err := rangeParams(r, h.Settings.LedgerDays)
	if err != nil {
		return nil, err
	}
	me := actor(r)
	if me.Role != ledger.RoleAdmin {
		return h.Ledger.History(r.Context(), me.Email, 0)
	}
	return h.Ledger.Range(r.Context(), from, to)
}

// Payments returns payment events in [from, to]. Admin only.
// GET /api/payments?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	if actor(r).Role != ledger.RoleAdmin {
		h.writeDomainError(w, ledger.ErrPermissionDenied)
		return
	}
	from, to, err := rangeParams(r, h.Settings.LedgerDays)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	events, err := h.Ledger.Payments(r.Context(), from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// resolveAccount decides which account an event lands on: the actor's own,
// or - admins only - any named account.
func (h *Handler) resolveAccount(me ledger.Member, requested string) (string, error) {
	if requested == "" || requested == me.Email {
		return me.Email, nil
	}
	if me.Role != ledger.RoleAdmin {
		return "", ledger.ErrPermissionDenied
	}
	return requested, nil
}

// =============================================================================
// MEMBER ENDPOINTS
// =============================================================================

// Register creates a member account. Public.
// POST /api/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	m, err := h.Members.Register(r.Context(), club.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Swish:     req.Swish,
		SwishLazy: req.SwishLazy,
		Address:   req.Address,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dto := toMemberDTO(m)
	dto.Code = m.Code // one-time code goes out exactly once, here
	writeJSON(w, http.StatusCreated, dto)
}

// ListMembers returns all members with their balances. Admin only.
// GET /api/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.memberRows(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]MemberDTO, 0, len(rows))
	for _, row := range rows {
		dto := toMemberDTO(row.Member)
		dto.Balance = row.Balance.String()
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MembersCSV streams the member list as CSV. Admin only.
// GET /api/members.csv
func (h *Handler) MembersCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.memberRows(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)
	if err := ledger.WriteMembersCSV(w, rows); err != nil {
		slog.Error("csv export failed", "error", err)
	}
}

func (h *Handler) memberRows(r *http.Request) ([]ledger.MemberRow, error) {
	if actor(r).Role != ledger.RoleAdmin {
		return nil, ledger.ErrPermissionDenied
	}
	members, err := h.Store.ListMembers(r.Context())
	if err != nil {
		return nil, err
	}
	balances, err := h.Store.CreditByAccount(r.Context())
	if err != nil {
		return nil, err
	}
	rows := make([]ledger.MemberRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, ledger.MemberRow{Member: m, Balance: balances[m.Email]})
	}
	return rows, nil
}

// PendingMembers returns registrations awaiting review. Admin only.
// GET /api/members/pending
func (h *Handler) PendingMembers(w http.ResponseWriter, r *http.Request) {
	if actor(r).Role != ledger.RoleAdmin {
		h.writeDomainError(w, ledger.ErrPermissionDenied)
		return
	}
	members, err := h.Store.ListMembersByStatus(r.Context(), ledger.StatusPending)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		dtos = append(dtos, toMemberDTO(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMember returns one member. Self or admin.
// GET /api/members/{email}
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	me := actor(r)
	if me.Role != ledger.RoleAdmin && me.Email != email {
		h.writeDomainError(w, ledger.ErrPermissionDenied)
		return
	}
	m, err := h.Members.Lookup(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	balance, err := h.Balances.BalanceOf(r.Context(), m.Email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dto := toMemberDTO(m)
	dto.Balance = balance.String()
	writeJSON(w, http.StatusOK, dto)
}

// UpdateMember edits a member's settings. Self or admin.
// PUT /api/members/{email}
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	in := club.SettingsInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Swish:       req.Swish,
		SwishLazy:   req.SwishLazy,
		Address:     req.Address,
		IssueAPIKey: req.IssueAPIKey,
	}
	if req.Role != nil {
		role := ledger.Role(*req.Role)
		in.Role = &role
	}
	m, err := h.Members.UpdateSettings(r.Context(), actor(r), chi.URLParam(r, "email"), in)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(m))
}

// EnableMember enables an account and issues a one-time code. Admin only.
// POST /api/members/{email}/enable
func (h *Handler) EnableMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.Members.Enable(r.Context(), actor(r), chi.URLParam(r, "email"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dto := toMemberDTO(m)
	dto.Code = m.Code
	writeJSON(w, http.StatusOK, dto)
}

// DisableMember disables an account and clears its credentials. Admin only.
// POST /api/members/{email}/disable
func (h *Handler) DisableMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.Members.Disable(r.Context(), actor(r), chi.URLParam(r, "email"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(m))
}

// DeleteMember removes an account with zero events. Admin only.
// DELETE /api/members/{email}
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.Members.Delete(r.Context(), actor(r), chi.URLParam(r, "email")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPassword sets a password with the one-time code. Public.
// POST /api/password
func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	m, err := h.Members.SetPassword(r.Context(), req.Email, req.Code, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(m))
}

// ResetPassword clears the password and issues a fresh code. Public; the
// code reaches the member out of band.
// POST /api/password/reset
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if _, err := h.Members.ResetPassword(r.Context(), req.Email); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Login verifies credentials. Public.
// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	m, err := h.Members.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(m))
}

// =============================================================================
// BALANCE AND SNAPSHOT ENDPOINTS
// =============================================================================

// MyBalance returns the acting member's balance and today's beverage count.
// GET /api/balance
func (h *Handler) MyBalance(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	balance, err := h.Balances.BalanceOf(r.Context(), me.Email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	count, err := h.Balances.PurchaseCountOf(r.Context(), me.Email, ledger.Date{})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account":         me.Email,
		"balance":         balance.String(),
		"currency":        h.Settings.Currency,
		"beverages_today": count,
	})
}

// AccountBalance returns one account's balance. Self or admin; "[club]"
// and the global total are admin only.
// GET /api/balance/{account}
func (h *Handler) AccountBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	me := actor(r)
	if me.Role != ledger.RoleAdmin && account != me.Email {
		h.writeDomainError(w, ledger.ErrPermissionDenied)
		return
	}
	balance, err := h.Balances.BalanceOf(r.Context(), account)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		Account:  account,
		Balance:  balance.String(),
		Currency: h.Settings.Currency,
	})
}

// AllBalances returns every account's balance plus the global total.
// Admin only.
// GET /api/balances
func (h *Handler) AllBalances(w http.ResponseWriter, r *http.Request) {
	if actor(r).Role != ledger.RoleAdmin {
		h.writeDomainError(w, ledger.ErrPermissionDenied)
		return
	}
	byAccount, err := h.Store.CreditByAccount(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	total, err := h.Store.CreditTotal(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]BalanceDTO, 0, len(byAccount))
	for account, balance := range byAccount {
		dtos = append(dtos, BalanceDTO{
			Account:  account,
			Balance:  balance.String(),
			Currency: h.Settings.Currency,
		})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Account < dtos[j].Account })
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": dtos,
		"total":    total.String(),
	})
}

// Activity returns accounts active in the trailing window.
// GET /api/activity?days=7
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	days := h.Settings.ActivityDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid days parameter", err)
			return
		}
		days = n
	}
	rows, err := h.Balances.RecentActivity(r.Context(), days)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]ActivityDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ActivityDTO{
			Account: row.Account,
			Latest:  ledger.Timestamp(row.Latest),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SnapshotRange returns daily snapshots in [from, to].
// GET /api/snapshots?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) SnapshotRange(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.snapshotList(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]SnapshotDTO, 0, len(snaps))
	for _, s := range snaps {
		dtos = append(dtos, toSnapshotDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SnapshotCSV streams the same range as CSV.
// GET /api/snapshots.csv?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) SnapshotCSV(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.snapshotList(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="snapshots.csv"`)
	if err := ledger.WriteSnapshotsCSV(w, snaps); err != nil {
		slog.Error("csv export failed", "error", err)
	}
}

func (h *Handler) snapshotList(r *http.Request) ([]ledger.Snapshot, error) {
	from, to, err := rangeParams(r, h.Settings.SnapshotDays)
	if err != nil {
		return nil, err
	}
	return h.Snapshots.Snapshots(r.Context(), from, to)
}

// Healthz reports liveness.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error onto an HTTP status in one place.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case ledger.IsNotFound(err):
		status = http.StatusNotFound
	case ledger.IsConflict(err):
		status = http.StatusConflict
	case ledger.IsPermissionDenied(err):
		status = http.StatusForbidden
	case ledger.IsClientError(err):
		status = http.StatusBadRequest
	case errors.Is(err, club.ErrMemberExists) || errors.Is(err, club.ErrSwishInUse):
		status = http.StatusConflict
	case errors.Is(err, club.ErrBadCredentials) || errors.Is(err, club.ErrInvalidCode):
		status = http.StatusUnauthorized
	case errors.Is(err, club.ErrDisabled) || errors.Is(err, club.ErrNotEnabled):
		status = http.StatusForbidden
	case errors.Is(err, club.ErrInvalidEmail) || errors.Is(err, club.ErrWeakPassword):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		writeError(w, status, "internal error", nil)
		return
	}
	writeError(w, status, err.Error(), nil)
}

// parseDateParam parses an optional YYYY-MM-DD value; empty means "today".
func parseDateParam(s string) (ledger.Date, error) {
	if s == "" {
		return ledger.Date{}, nil
	}
	return ledger.ParseDate(s)
}

// rangeParams reads from/to query parameters. Missing values default to the
// trailing window of defaultDays ending today.
func rangeParams(r *http.Request, defaultDays int) (ledger.Date, ledger.Date, error) {
	q := r.URL.Query()
	to := ledger.Today()
	from := to.AddDays(-defaultDays)

	if v := q.Get("from"); v != "" {
		d, err := ledger.ParseDate(v)
		if err != nil {
			return ledger.Date{}, ledger.Date{}, err
		}
		from = d
	}
	if v := q.Get("to"); v != "" {
		d, err := ledger.ParseDate(v)
		if err != nil {
			return ledger.Date{}, ledger.Date{}, err
		}
		to = d
	}
	return from, to, nil
}
