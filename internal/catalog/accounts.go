package catalog

import (
	"github.com/google/uuid"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
)

// AccountFields are the parameters createAccount and updateAccount require.
var AccountFields = []string{
	"name", "email", "password", "title", "birth_date", "birth_month", "birth_year",
	"firstname", "lastname", "company", "address1", "address2", "country",
	"zipcode", "state", "city", "mobile_number",
}

const johnDoeEmail = "johndoe@example.com"

// Account is the full field set of a shop user.
type Account map[string]string

// Email returns the account's email field.
func (a Account) Email() string { return a["email"] }

// Password returns the account's password field.
func (a Account) Password() string { return a["password"] }

// Missing returns the required fields that are empty.
func (a Account) Missing() []string {
	var missing []string
	for _, field := range AccountFields {
		if a[field] == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// With returns a copy of the account with overrides applied.
func (a Account) With(overrides map[string]string) Account {
	out := make(Account, len(a)+len(overrides))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// JohnDoe is the account registered by the create case.
func JohnDoe() Account {
	return Account{
		"name":          "John Doe",
		"email":         johnDoeEmail,
		"password":      "password123",
		"title":         "Mr",
		"birth_date":    "10",
		"birth_month":   "5",
		"birth_year":    "1990",
		"firstname":     "John",
		"lastname":      "Doe",
		"company":       "ACME Corp",
		"address1":      "123 Main St",
		"address2":      "Apt. 5",
		"country":       "US",
		"zipcode":       "12345",
		"state":         "California",
		"city":          "Los Angeles",
		"mobile_number": "1234567890",
	}
}

// JohnDoeUpdated is JohnDoe with the fields the update case changes.
func JohnDoeUpdated() Account {
	return JohnDoe().With(map[string]string{
		"name":    "John Doe (Updated)",
		"company": "ACME Corp (Updated)",
	})
}

// NewAccount returns a JohnDoe-shaped account registered under email.
func NewAccount(email string) Account {
	return JohnDoe().With(map[string]string{
		"name":     "Shopcheck User",
		"email":    email,
		"password": "shopcheck123",
	})
}

// UniqueEmail returns an address no earlier run can have registered.
func UniqueEmail() string {
	return "shopcheck-" + uuid.NewString() + "@example.com"
}

// AccountLifecycle creates acc, reads it back, updates it, deletes it and
// confirms it is gone. Parameters are form-encoded, which is what the shop
// actually reads, and the logical status is checked through the body's
// responseCode because the shop answers HTTP 200 either way.
func AccountLifecycle(acc Account) harness.Scenario {
	email := acc.Email()
	updated := acc.With(map[string]string{"company": "Shopcheck (Updated)"})

	return harness.Scenario{
		Name: "account lifecycle",
		Steps: []harness.TestCase{
			{
				Name:   "create account",
				Method: "POST",
				Path:   "/createAccount",
				Body:   harness.FormBody(acc),
				Expect: harness.Expect(200, harness.FieldEquals("responseCode", 201)),
			},
			{
				Name:   "get account detail",
				Path:   "/getUserDetailByEmail",
				Query:  map[string]string{"email": email},
				Expect: harness.Expect(200, harness.FieldEquals("responseCode", 200), harness.FieldEquals("user.email", email)),
			},
			{
				Name:   "update account",
				Method: "PUT",
				Path:   "/updateAccount",
				Body:   harness.FormBody(updated),
				Expect: harness.Expect(200, harness.FieldEquals("responseCode", 200)),
			},
			{
				Name:   "delete account",
				Method: "DELETE",
				Path:   "/deleteAccount",
				Body:   harness.FormBody(map[string]string{"email": email, "password": acc.Password()}),
				Expect: harness.Expect(200, harness.FieldEquals("responseCode", 200)),
			},
			{
				Name:   "account is gone",
				Path:   "/getUserDetailByEmail",
				Query:  map[string]string{"email": email},
				Expect: harness.Expect(200, harness.FieldEquals("responseCode", 404)),
			},
		},
	}
}

func jsonFields(acc Account) map[string]interface{} {
	out := make(map[string]interface{}, len(acc))
	for k, v := range acc {
		out[k] = v
	}
	return out
}

func invalid(msg string, tc harness.TestCase) *errors.CheckError {
	return errors.New(errors.ErrorTypeValidation, msg).WithContext("case", tc.Name)
}

func withCase(err error, tc harness.TestCase) error {
	if ce, ok := err.(*errors.CheckError); ok {
		return ce.WithContext("case", tc.Name)
	}
	return err
}
