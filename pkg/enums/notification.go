package enums

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType is the severity/style of a transient notification.
type NotificationType string

const (
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeError   NotificationType = "error"
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeWarning NotificationType = "warning"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeSuccess,
	NotificationTypeError,
	NotificationTypeInfo,
	NotificationTypeWarning,
}

var defaultNotificationDurations = map[NotificationType]time.Duration{
	NotificationTypeSuccess: 4000 * time.Millisecond,
	NotificationTypeError:   6000 * time.Millisecond,
	NotificationTypeInfo:    4000 * time.Millisecond,
	NotificationTypeWarning: 5000 * time.Millisecond,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// DefaultDuration is the display time used by the typed convenience helpers.
func (n NotificationType) DefaultDuration() time.Duration {
	return defaultNotificationDurations[n]
}

// NotificationTypes lists every known type in declaration order.
func NotificationTypes() []NotificationType {
	out := make([]NotificationType, len(validNotificationTypes))
	copy(out, validNotificationTypes)
	return out
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validNotificationTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
