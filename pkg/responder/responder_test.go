package responder_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"analyst/pkg/responder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_KeywordBuckets(t *testing.T) {
	r := responder.NewStatic()

	cases := []struct {
		message  string
		fragment string
	}{
		{"show me the analytics for last month", ""},
		{"any new insights on churn trends?", ""},
		{"generate the quarterly report", "report"},
		{"hello there", "Enterprise AI Analyst"},
		{"what is the meaning of life", ""},
	}

	for _, tc := range cases {
		reply, err := r.Respond(tc.message)
		assert.NoError(t, err)
		assert.NotEmpty(t, reply, "message %q must produce a reply", tc.message)
		if tc.fragment != "" {
			assert.Contains(t, reply, tc.fragment)
		}
	}
}

func TestStatic_GreetingIsDeterministic(t *testing.T) {
	r := responder.NewStatic()
	first, _ := r.Respond("hi")
	second, _ := r.Respond("hey you")
	assert.Equal(t, first, second, "greetings bypass the random buckets")
}

func TestOpenAI_Respond(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/chat/completions", req.URL.Path)
		assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		assert.Equal(t, "gpt-4o-mini", payload["model"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  the answer  "}},
			},
		})
	}))
	defer srv.Close()

	r := responder.NewOpenAI("test-key")
	r.BaseURL = srv.URL

	reply, err := r.Respond("question")
	assert.NoError(t, err)
	assert.Equal(t, "the answer", reply)
}

func TestOpenAI_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := responder.NewOpenAI("test-key")
	r.BaseURL = srv.URL

	_, err := r.Respond("question")
	assert.Error(t, err)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	r := responder.NewOpenAI("test-key")
	r.BaseURL = srv.URL

	_, err := r.Respond("question")
	assert.Error(t, err)
}
