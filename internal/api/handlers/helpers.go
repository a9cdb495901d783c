package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// normalizePhone normalizes phone number to international format (no leading '+')
// Returns digits like: 256700123456
func normalizePhone(phone string) string {
	// Remove all non-digit characters
	digits := ""
	for _, char := range phone {
		if char >= '0' && char <= '9' {
			digits += string(char)
		}
	}

	// Handle Uganda phone numbers (expecting 9 local digits)
	if len(digits) == 9 && (digits[0] == '7' || digits[0] == '3') {
		return "256" + digits
	} else if len(digits) == 10 && digits[0] == '0' {
		return "256" + digits[1:]
	} else if len(digits) == 12 && digits[:3] == "256" {
		return digits
	}

	return ""
}

// bearerToken extracts the token from an "Authorization: Bearer" header
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
