package marketauth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDFromHeaders(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", want: "4bf92f3577b34da6a3ce929d0e0e4736", ok: true},
		{header: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00", want: "4bf92f3577b34da6a3ce929d0e0e4736", ok: true},
		{header: ""},
		{header: "00-00000000000000000000000000000000-00f067aa0ba902b7-01"},
		{header: "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01"},
		{header: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-09"},
		{header: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01-extra"},
		{header: "ff-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
		{header: "00-not-hex-01"},
		{header: "00-4bf92f3577b34da6a3ce929d0e0e47-00f067aa0ba902b7-01"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set(HeaderTraceParent, tt.header)
			}
			got, ok := traceIDFromHeaders(h)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
