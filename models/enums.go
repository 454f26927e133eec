package models

type ItemStatus string

const (
	ItemStatusPending ItemStatus = "pending"
	ItemStatusMatched ItemStatus = "matched"
	ItemStatusClosed  ItemStatus = "closed"
)

// MatchStatus transitions monotonically: matched -> verified | admin_review |
// rejected, and admin_review -> verified | rejected. Never backward.
type MatchStatus string

const (
	MatchStatusMatched     MatchStatus = "matched"
	MatchStatusVerified    MatchStatus = "verified"
	MatchStatusAdminReview MatchStatus = "admin_review"
	MatchStatusRejected    MatchStatus = "rejected"
)

type CaseStatus string

const (
	CaseStatusPending  CaseStatus = "pending"
	CaseStatusResolved CaseStatus = "resolved"
)

type NotificationType string

const (
	NotificationTypeMatchFound        NotificationType = "match_found"
	NotificationTypeOwnershipVerified NotificationType = "ownership_verified"
	NotificationTypeAdminResolved     NotificationType = "admin_resolved"
)

// MaxVerificationAttempts bounds answer attempts before escalation.
const MaxVerificationAttempts = 3
