package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestIDEchoesOrMints(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	cases := map[string]struct {
		inbound string
		echoed  bool
	}{
		"well formed": {inbound: "req-abc_123", echoed: true},
		"missing":     {inbound: ""},
		"too long":    {inbound: strings.Repeat("a", maxRequestIDBytes+1)},
		"control":     {inbound: "bad\x01id"},
		"space":       {inbound: "two words"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.inbound != "" {
				req.Header.Set(requestIDHeader, tc.inbound)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(requestIDHeader)
			require.Equal(t, got, seen)
			if tc.echoed {
				require.Equal(t, tc.inbound, got)
				return
			}
			_, err := uuid.Parse(got)
			require.NoError(t, err)
		})
	}
}
