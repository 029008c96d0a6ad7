// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
)

// Claim is one (type, value) pair for an access token. Repeating a type
// produces a JSON array in the order given.
type Claim struct {
	Type  string
	Value string
}

// alwaysArray lists claim types serialized as arrays even with zero or one
// value, so consumers can rely on the shape.
var alwaysArray = map[string]bool{
	constants.ClaimScopes: true,
}

// StringList accepts a claim encoded either as a string or as an array.
type StringList []string

// UnmarshalJSON implements [json.Unmarshaler].
func (list *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if json.Unmarshal(data, &single) == nil {
		*list = StringList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("sec: claim is neither a string nor a string array: %w", err)
	}
	*list = many
	return nil
}

// AuthClaims is the verified payload of an access token. Scopes are read
// straight from the token so authorization needs no database round trip.
type AuthClaims struct {
	jwt.RegisteredClaims

	Username  string     `json:"username"`
	FirstName string     `json:"firstName"`
	Scopes    StringList `json:"scopes"`
}

// UserID returns the account id from the subject claim.
func (claims *AuthClaims) UserID() string {
	return claims.Subject
}

// foldClaims turns the ordered claim list into JWT payload values.
func foldClaims(claims []Claim) map[string]any {
	byType := make(map[string][]string, len(claims))
	for _, claim := range claims {
		byType[claim.Type] = append(byType[claim.Type], claim.Value)
	}

	payload := make(map[string]any, len(byType)+len(alwaysArray))
	for claimType := range alwaysArray {
		payload[claimType] = []string{}
	}
	for claimType, values := range byType {
		if len(values) == 1 && !alwaysArray[claimType] {
			payload[claimType] = values[0]
		} else {
			payload[claimType] = values
		}
	}
	return payload
}
