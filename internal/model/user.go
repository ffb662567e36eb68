package model

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// User is the users/{uid} document
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"fullName,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	MiddleName   string `json:"middleName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	TimeOfBirth  string `json:"timeOfBirth,omitempty"` // HH:MM
	Timezone     string `json:"timezone,omitempty"`    // +HH:MM
	PlaceOfBirth string `json:"placeOfBirth,omitempty"`

	// Wallet and activity
	Ethers          int        `json:"ethers"`
	TotalSpent      int        `json:"totalSpent"`
	UnlockedReports []string   `json:"unlockedReports"`
	DaysActive      int        `json:"daysActive"`
	Streak          int        `json:"streak"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	LastStreakDate  *time.Time `json:"lastStreakDate,omitempty"`
	RecentActivity  []string   `json:"recentActivity"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// DisplayName returns the first name, then the full name, then "User"
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.FullName != "" {
		return u.FullName
	}
	return "User"
}

// Names returns first, middle and last name, deriving them from FullName
// when the profile fields are empty
func (u *User) Names() (first, middle, last string) {
	first, middle, last = u.FirstName, u.MiddleName, u.LastName
	if first != "" {
		return first, middle, last
	}
	parts := strings.Fields(u.FullName)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	default:
		return parts[0], strings.Join(parts[1:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// Credentials is the credentials/{email} document. It is kept apart from the
// profile so the password hash never reaches a profile read.
type Credentials struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokenClaims represents extracted JWT claims
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

// MaxRecentActivity caps the recentActivity list of a user
const MaxRecentActivity = 10

// StreakMilestone is the streak interval that records an activity entry
const StreakMilestone = 10

// RecordLogin applies a login at now to the activity counters. The first
// login of a UTC day counts towards daysActive; the streak grows when the
// previous streak day was yesterday and restarts otherwise. It reports
// whether anything changed.
func (u *User) RecordLogin(now time.Time) bool {
	today := truncateDay(now)
	if u.LastLogin != nil && truncateDay(*u.LastLogin).Equal(today) {
		return false
	}

	u.DaysActive++
	streakUpdated := false
	switch {
	case u.LastStreakDate == nil:
		u.Streak = 1
		streakUpdated = true
	default:
		gap := today.Sub(truncateDay(*u.LastStreakDate))
		if gap == 24*time.Hour {
			u.Streak++
			streakUpdated = true
		} else if gap > 24*time.Hour {
			u.Streak = 1
			streakUpdated = true
		}
	}

	if streakUpdated && u.Streak%StreakMilestone == 0 {
		entry := fmt.Sprintf("🎉 %d day streak achieved!", u.Streak)
		u.RecentActivity = append([]string{entry}, u.RecentActivity...)
		if len(u.RecentActivity) > MaxRecentActivity {
			u.RecentActivity = u.RecentActivity[:MaxRecentActivity]
		}
	}

	u.LastLogin = &today
	u.LastStreakDate = &today
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UserStats is the dashboard summary of a user
type UserStats struct {
	Ethers          int      `json:"ethers"`
	TotalSpent      int      `json:"totalSpent"`
	Medal           Medal    `json:"medal"`
	DaysActive      int      `json:"daysActive"`
	Streak          int      `json:"streak"`
	RecentActivity  []string `json:"recentActivity"`
	UnlockedReports []string `json:"unlockedReports"`
}

// Stats returns the dashboard summary
func (u *User) Stats() UserStats {
	return UserStats{
		Ethers:          u.Ethers,
		TotalSpent:      u.TotalSpent,
		Medal:           MedalFor(u.TotalSpent),
		DaysActive:      u.DaysActive,
		Streak:          u.Streak,
		RecentActivity:  nonNil(u.RecentActivity),
		UnlockedReports: nonNil(u.UnlockedReports),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// RegisterRequest creates an email/password account
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// LoginRequest signs in with email and password
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshRequest) Validate() []FieldError {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return []FieldError{{Field: "refresh_token", Message: "refresh_token is required"}}
	}
	return nil
}

// SignupRequest records the profile of a Firebase authenticated user
type SignupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	timezonePattern = regexp.MustCompile(`^[+-]([01]\d|2[0-3]):[0-5]\d$`)
)

// IsDate reports whether s is a valid YYYY-MM-DD calendar date
func IsDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// UpdateProfileRequest updates birth data and names. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	FullName     *string `json:"fullName,omitempty"`
	FirstName    *string `json:"firstName,omitempty"`
	MiddleName   *string `json:"middleName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"`
	TimeOfBirth  *string `json:"timeOfBirth,omitempty"`
	Timezone     *string `json:"timezone,omitempty"`
	PlaceOfBirth *string `json:"placeOfBirth,omitempty"`
}

// Validate checks the UpdateProfileRequest
func (r *UpdateProfileRequest) Validate() []FieldError {
	var errors []FieldError

	for field, v := range map[string]*string{
		"fullName": r.FullName, "firstName": r.FirstName,
		"middleName": r.MiddleName, "lastName": r.LastName,
	} {
		if v != nil && len(*v) > 100 {
			errors = append(errors, FieldError{Field: field, Message: field + " must be 100 characters or less"})
		}
	}
	if r.DateOfBirth != nil && *r.DateOfBirth != "" && !IsDate(*r.DateOfBirth) {
		errors = append(errors, FieldError{Field: "dateOfBirth", Message: "dateOfBirth must be YYYY-MM-DD"})
	}
	if r.TimeOfBirth != nil && *r.TimeOfBirth != "" && !clockPattern.MatchString(*r.TimeOfBirth) {
		errors = append(errors, FieldError{Field: "timeOfBirth", Message: "timeOfBirth must be HH:MM"})
	}
	if r.Timezone != nil && *r.Timezone != "" && !timezonePattern.MatchString(*r.Timezone) {
		errors = append(errors, FieldError{Field: "timezone", Message: "timezone must be +HH:MM or -HH:MM"})
	}
	if r.PlaceOfBirth != nil && len(*r.PlaceOfBirth) > 200 {
		errors = append(errors, FieldError{Field: "placeOfBirth", Message: "placeOfBirth must be 200 characters or less"})
	}
	slices.SortStableFunc(errors, func(a, b FieldError) int { return strings.Compare(a.Field, b.Field) })
	return errors
}
