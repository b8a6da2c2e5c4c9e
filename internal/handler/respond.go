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

type validationErrorResponse struct {
	Error   string                `json:"error"`
	Details []validate.FieldError `json:"details"`
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 itself and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, validationErrorResponse{Error: "validation failed", Details: verrs})
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service sentinels to 404/400 and logs everything
// else as a 500.
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

func writeInternalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == "23505"
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == "23503"
}

// userIDFrom returns the authenticated actor. Routes using it sit behind
// middleware.Authenticate, so a missing identity is answered with 401.
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

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// parseMoney parses an amount that already passed the money validator. An
// empty string is zero.
func parseMoney(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
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

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
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

func timeOrNil(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	return &ts.Time
}
