package scanning

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTool(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		err     error
		wantErr bool
	}{
		{"current release", "Nmap version 7.94 ( https://nmap.org )", nil, false},
		{"minimum release", "Nmap version 7.0 ( https://nmap.org )", nil, false},
		{"too old", "Nmap version 6.49 ( https://nmap.org )", nil, true},
		{"binary missing", "", stderrors.New("executable file not found"), true},
		{"garbage output", "nmap: command mangled", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tt.output), tt.err
			}
			err := checkTool(context.Background(), run)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
