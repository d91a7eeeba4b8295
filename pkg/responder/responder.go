// Package responder produces replies to chat messages. The caller treats a
// Responder as an opaque collaborator: either the rule-based static table or
// an external completion API.
package responder

import (
	"math/rand"
	"strings"
)

// Responder generates a reply for a user message.
type Responder interface {
	Respond(message string) (string, error)
}

var staticReplies = map[string][]string{
	"analytics": {
		"Based on Q3 data, I'm seeing a 15% increase in user engagement with our mobile platform. The peak usage occurs between 7-9 PM daily.",
		"Sales analysis shows a 23% growth in the European market, particularly in Germany and France. This correlates with our recent marketing campaign.",
		"Customer retention rates have improved by 8% following the implementation of the premium loyalty program. The ROI looks promising at 145%.",
	},
	"insights": {
		"The data suggests users who engage with our tutorial content are 3x more likely to convert to paid plans within 30 days.",
		"There's a strong correlation between social media mentions and a 12% boost in website traffic. Instagram drives the highest quality leads.",
		"Our analysis indicates that customers using feature X have a 45% lower churn rate compared to those who don't.",
	},
	"reports": {
		"I can generate a comprehensive Q3 performance report showing revenue growth, user acquisition costs, and customer satisfaction metrics.",
		"The financial dashboard indicates a healthy 18% profit margin with operational costs decreasing by 7% quarter-over-quarter.",
		"Would you like me to prepare a competitor analysis report focusing on market share and feature comparisons?",
	},
	"general": {
		"I can help you analyze business metrics, generate reports, and provide data-driven insights. What specific area would you like to explore?",
		"Based on available data, I notice several optimization opportunities in your customer journey. Would you like me to elaborate?",
		"I'm ready to assist with data analysis, trend identification, and strategic recommendations for your business.",
	},
}

const greeting = "Hello! I'm your Enterprise AI Analyst. I can help you with business analytics, data insights, and performance reports. What would you like to know?"

// Static is a rule-based responder keyed on keyword matching. It never
// returns an error.
type Static struct{}

// NewStatic creates the rule-based responder.
func NewStatic() *Static {
	return &Static{}
}

// Respond picks a reply bucket from keywords in the message and returns a
// random entry from it.
func (s *Static) Respond(message string) (string, error) {
	lower := strings.ToLower(message)

	switch {
	case containsAny(lower, "analytics", "data", "metric"):
		return pick(staticReplies["analytics"]), nil
	case containsAny(lower, "insight", "trend", "pattern"):
		return pick(staticReplies["insights"]), nil
	case containsAny(lower, "report", "dashboard", "summary"):
		return pick(staticReplies["reports"]), nil
	case containsAny(lower, "hello", "hi", "hey"):
		return greeting, nil
	default:
		return pick(staticReplies["general"]), nil
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func pick(replies []string) string {
	return replies[rand.Intn(len(replies))]
}
