package middleware

import (
	"log"
	"net/http"
	"strings"

	"sleepreport/adapters/stats/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DayKey is the context key holding the validated ?day= value ("" for latest)
const DayKey = "day"

// RequestIDHeader carries the per-request id
const RequestIDHeader = "X-Request-ID"

// ValidateDay rejects malformed ?day= values before any data is fetched
func ValidateDay() gin.HandlerFunc {
	return func(c *gin.Context) {
		day := strings.TrimSpace(c.Query("day"))
		if day != "" {
			if _, err := session.ParseDay(day); err != nil {
				log.Printf("[ValidateDay] rejecting day %q", day)
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "PARSE_ERROR"})
				return
			}
		}
		c.Set(DayKey, day)
		c.Next()
	}
}

// RequestID tags each request with a time-ordered id, reusing the caller's if present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			if v7, err := uuid.NewV7(); err == nil {
				id = v7.String()
			} else {
				id = uuid.NewString()
			}
		}
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
