package models

import (
	"regexp"
	"strings"
)

var (
	phonePattern    = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	referralPattern = regexp.MustCompile(`^[A-Z0-9-]{6}$`)
	otpPattern      = regexp.MustCompile(`^[0-9]{6}$`)
)

// ReferralCodeLength is the fixed length of a referral code.
const ReferralCodeLength = 6

// NormalizePhone strips separators and an Indian country or trunk prefix,
// leaving the ten-digit subscriber number.
func NormalizePhone(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	s := string(digits)
	switch {
	case len(s) == 12 && strings.HasPrefix(s, "91"):
		s = s[2:]
	case len(s) == 11 && strings.HasPrefix(s, "0"):
		s = s[1:]
	}
	return s
}

// ValidPhone reports whether phone is a normalized Indian mobile number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// NormalizeReferralCode trims and uppercases a referral code.
func NormalizeReferralCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidReferralCode reports whether code matches the fixed pattern.
func ValidReferralCode(code string) bool {
	return referralPattern.MatchString(code)
}

// ValidOTP reports whether code looks like a six-digit one-time code.
func ValidOTP(code string) bool {
	return otpPattern.MatchString(code)
}

// MaskPhone hides all but the last four digits for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
