// Package model defines the domain documents and request types of the
// Eternal AI API.
//
// Every stored document has a struct here whose json tags match the field
// names kept in the document store: users, onboarding answers, karmic,
// aura, vibrational, face/palm, wellness, soul and numerology reports, the
// karmic chat and the wallet view of a user.
//
// # Requests
//
// Request types validate themselves and return field errors:
//
//	req := &model.KarmicReportRequest{LifeArea: "career"}
//	if errs := req.Validate(); len(errs) > 0 {
//	    return model.NewValidationError(errs)
//	}
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go. Codes are
// grouped by range: 1xxx authentication, 2xxx authorization, 3xxx
// resources, 4xxx validation, limits and balance, 5xxx internal and
// upstream failures.
package model
