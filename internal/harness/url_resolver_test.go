package harness

import (
	"testing"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		path     string
		query    map[string]string
		expected string
		errType  errors.ErrorType
	}{
		{
			name:     "relative path joined onto base path",
			baseURL:  "https://automationexercise.com/api",
			path:     "productsList",
			expected: "https://automationexercise.com/api/productsList",
		},
		{
			name:     "leading slash keeps base path",
			baseURL:  "https://automationexercise.com/api/",
			path:     "/searchProduct",
			expected: "https://automationexercise.com/api/searchProduct",
		},
		{
			name:     "base without path",
			baseURL:  "https://automationexercise.com",
			path:     "/api/verifyLogin",
			expected: "https://automationexercise.com/api/verifyLogin",
		},
		{
			name:     "query in path is preserved",
			baseURL:  "https://automationexercise.com/api",
			path:     "/getUserDetailByEmail?email=registered_user@example.com",
			expected: "https://automationexercise.com/api/getUserDetailByEmail?email=registered_user@example.com",
		},
		{
			name:     "query map is merged and encoded",
			baseURL:  "https://automationexercise.com/api",
			path:     "/getUserDetailByEmail",
			query:    map[string]string{"email": "a@b.com"},
			expected: "https://automationexercise.com/api/getUserDetailByEmail?email=a%40b.com",
		},
		{
			name:     "email in path segment",
			baseURL:  "https://automationexercise.com",
			path:     "/api/updateAccount/johndoe@example.com",
			expected: "https://automationexercise.com/api/updateAccount/johndoe@example.com",
		},
		{
			name:     "absolute path ignores base",
			baseURL:  "https://automationexercise.com/api",
			path:     "http://localhost:8080/brandsList",
			expected: "http://localhost:8080/brandsList",
		},
		{
			name:     "lambda base",
			baseURL:  "lambda://shop-api",
			path:     "/api/brandsList",
			expected: "lambda://shop-api/api/brandsList",
		},
		{
			name:    "relative path without base",
			path:    "/productsList",
			errType: errors.ErrorTypeConfig,
		},
		{
			name:    "relative base",
			baseURL: "automationexercise.com/api",
			path:    "/productsList",
			errType: errors.ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.baseURL, tt.path, tt.query)
			if tt.errType != "" {
				if err == nil {
					t.Fatalf("ResolveURL() expected %s error, got %q", tt.errType, got)
				}
				if !errors.IsType(err, tt.errType) {
					t.Errorf("ResolveURL() error type = %s, want %s", errors.GetType(err), tt.errType)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveURL() unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ResolveURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}
