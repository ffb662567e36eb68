// Package helpers provides test utility functions for the Eternal AI API.
//
// # JWT Helpers
//
// Sign access tokens the server accepts:
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	token := jwtHelper.GenerateToken(user)
//
// # Request Helpers
//
//	rec := helpers.NewRequest(t, http.MethodPost, "/v1/wallet/ethers").
//	    WithAuth(jwtHelper, user).
//	    WithBody(map[string]int{"amount": 10}).
//	    Do(router)
//
// # Assertion Helpers
//
//	helpers.AssertProblemDetails(t, rec, http.StatusPaymentRequired, model.ErrCodeInsufficientEthers)
//	helpers.AssertValidationError(t, rec, "amount")
//	helpers.DecodeData(t, rec, &wallet)
package helpers
