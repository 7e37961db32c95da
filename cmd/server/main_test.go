package main

import "testing"

func TestIsWeakSecret(t *testing.T) {
	cases := map[string]bool{
		"short":                   true,
		"change-me-in-production": true,
		"Your-Secret-Key-0123456789abcdefghijklmnop": true,
		"k3Jd9vQ2mX7pL0sT4wY8zB1nC6rF5hG2aE9uI3oR":   false,
	}
	for secret, want := range cases {
		if got := isWeakSecret(secret); got != want {
			t.Fatalf("isWeakSecret(%q) want %v got %v", secret, want, got)
		}
	}
}
