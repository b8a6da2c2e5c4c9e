// Package handler serves the bookkeeping side of the API: the daybook, the
// bank ledger, stock purchases and the dashboard.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/zaryan/api/internal/middleware"
	"github.com/zaryan/api/internal/service"
	"github.com/zaryan/api/internal/validate"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Notifier is told about every committed write. Satisfied by *notify.Notifier.
type Notifier interface {
	Changed(ctx context.Context, userID uuid.UUID, eventType string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) Changed(context.Context, uuid.UUID, string, any) {}

func orNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeInternalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, service.Reason(err).Error())
	case service.IsBusinessRule(err):
		writeError(w, http.StatusBadRequest, service.Reason(err).Error())
	default:
		writeInternalError(w, op, err)
	}
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "validation failed",
				"details": verrs,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func userIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil || claims.UserID == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func parseIDParam(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(r *http.Request) (int32, int32) {
	limit := 50
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		offset = v
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return int32(limit), int32(offset)
}

// parseDateParam reads an optional YYYY-MM-DD query parameter. An absent
// parameter yields an invalid Date, which the queries treat as no filter.
func parseDateParam(r *http.Request, name string) (pgtype.Date, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return pgtype.Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

// parseDateRange reads ?from= and ?to=, writing a 400 on a malformed value.
func parseDateRange(w http.ResponseWriter, r *http.Request) (from, to pgtype.Date, ok bool) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
		return from, to, false
	}
	to, err = parseDateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
		return from, to, false
	}
	return from, to, true
}

// entryDate resolves an optional YYYY-MM-DD body field, defaulting to today.
// The value has already passed the datetime validator.
func entryDate(s string, now time.Time) time.Time {
	if s == "" {
		return now
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return now
	}
	return t
}

func queryText(r *http.Request, name string) pgtype.Text {
	s := r.URL.Query().Get(name)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func numericToString(n pgtype.Numeric) string {
	return numericToDecimal(n).StringFixed(2)
}

func parseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func textOrNil(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func uuidOrNil(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func dateString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}
