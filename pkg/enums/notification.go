package enums

// NotificationType maps to the notification_type_enum enum in Postgres.
type NotificationType string

const (
	NotificationTypeBadgeEarned       NotificationType = "badge_earned"
	NotificationTypeMilestoneAchieved NotificationType = "milestone_achieved"
	NotificationTypeSessionScheduled  NotificationType = "session_scheduled"
	NotificationTypeMentorshipUpdate  NotificationType = "mentorship_update"
	NotificationTypeCommunityActivity NotificationType = "community_activity"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeBadgeEarned,
	NotificationTypeMilestoneAchieved,
	NotificationTypeSessionScheduled,
	NotificationTypeMentorshipUpdate,
	NotificationTypeCommunityActivity,
}

func (t NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
