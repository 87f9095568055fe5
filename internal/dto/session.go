package dto

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/ag-office-console/internal/models"
)

// Device kinds derived from the reported device info.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// SessionView is a session descriptor shaped for display. Revocable is false
// for the caller's own session: that one ends through sign-out only.
type SessionView struct {
	ID         string     `json:"id"`
	DeviceInfo string     `json:"device_info"`
	DeviceKind string     `json:"device_kind"`
	IPAddress  string     `json:"ip_address"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	IsCurrent  bool       `json:"is_current"`
	Revocable  bool       `json:"revocable"`
}

// SessionListResponse is the console's session listing payload.
type SessionListResponse struct {
	Sessions []SessionView `json:"sessions"`
	Total    int           `json:"total"`
}

// ShapeSessions converts descriptors for display, current session first and
// the rest by most recent use.
func ShapeSessions(in []models.SessionDescriptor) []SessionView {
	out := make([]SessionView, 0, len(in))
	for _, s := range in {
		out = append(out, SessionView{
			ID:         s.ID,
			DeviceInfo: deref(s.DeviceInfo),
			DeviceKind: deviceKind(deref(s.DeviceInfo)),
			IPAddress:  deref(s.IPAddress),
			CreatedAt:  s.CreatedAt,
			LastUsedAt: s.LastUsedAt,
			IsCurrent:  s.IsCurrent,
			Revocable:  !s.IsCurrent,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsCurrent != out[j].IsCurrent {
			return out[i].IsCurrent
		}
		return lastActivity(out[i]).After(lastActivity(out[j]))
	})
	return out
}

// RevocableSessions returns the descriptors that may be offered a revoke
// action, which excludes the current session.
func RevocableSessions(in []models.SessionDescriptor) []models.SessionDescriptor {
	out := make([]models.SessionDescriptor, 0, len(in))
	for _, s := range in {
		if s.IsCurrent {
			continue
		}
		out = append(out, s)
	}
	return out
}

func lastActivity(v SessionView) time.Time {
	if v.LastUsedAt != nil {
		return *v.LastUsedAt
	}
	return v.CreatedAt
}

func deviceKind(info string) string {
	info = strings.ToLower(info)
	for _, hint := range []string{"mobile", "android", "ios", "iphone"} {
		if strings.Contains(info, hint) {
			return DeviceMobile
		}
	}
	return DeviceDesktop
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
