package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"seotools/db"
)

// Admin login limits: failed attempts per client before it is locked out
// for the rest of the window.
const (
	DefaultLoginAttempts = 5
	DefaultLoginWindow   = 15 * time.Minute
)

// AdminRealm is sent in the WWW-Authenticate challenge.
const AdminRealm = "seotools admin"

// requireAdmin protects next with HTTP basic auth against the configured
// bcrypt hash. The username is not checked.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, s.config.TrustProxy)

		if blocked, remaining := s.loginLimiter.Blocked(ip); blocked {
			w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Seconds())+1))
			writeMessage(w, http.StatusTooManyRequests, "Too many failed login attempts, please try again later")
			return
		}

		_, password, ok := r.BasicAuth()
		if !ok || VerifyPassword(password, s.config.AdminPasswordHash) != nil {
			if ok {
				s.loginLimiter.Hit(ip)
				s.logger.Warn("admin login failed", zap.String("ip", ip))
			}
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q, charset=\"UTF-8\"", AdminRealm))
			writeMessage(w, http.StatusUnauthorized, MessageUnauthorized)
			return
		}

		s.loginLimiter.Reset(ip)
		next(w, r)
	}
}

type usageReport struct {
	Since         *time.Time       `json:"since"`
	TotalRequests int64            `json:"totalRequests"`
	Tools         []db.ToolSummary `json:"tools"`
}

// handleAdminUsage reports per-tool usage since the optional RFC3339
// "since" query parameter.
func (s *Server) handleAdminUsage(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	report := usageReport{}
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, NewValidationError("since must be an RFC3339 timestamp"))
			return
		}
		since = t
		report.Since = &since
	}

	tools, err := s.usage.Summary(r.Context(), since)
	if err != nil {
		s.logger.Error("usage summary failed", zap.Error(err))
		writeError(w, &InternalError{Message: "Error loading usage report", Err: err})
		return
	}
	report.fill(tools)
	writeSuccess(w, report)
}

func (u *usageReport) fill(tools []db.ToolSummary) {
	if tools == nil {
		tools = []db.ToolSummary{}
	}
	u.Tools = tools
	u.TotalRequests = 0
	for _, t := range tools {
		u.TotalRequests += t.Requests
	}
}

// handleUsageStream upgrades to a websocket that first receives the
// all-time report and then one frame per recorded tool request.
func (s *Server) handleUsageStream(w http.ResponseWriter, r *http.Request) {
	var initial *StreamMessage
	tools, err := s.usage.Summary(r.Context(), time.Time{})
	if err != nil {
		s.logger.Warn("usage summary for stream failed", zap.Error(err))
	} else {
		var report usageReport
		report.fill(tools)
		initial = &StreamMessage{Type: StreamMessageInitial, Timestamp: time.Now(), Data: report}
	}
	s.stream.Serve(w, r, initial)
}
