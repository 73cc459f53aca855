package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", input: "15s", want: 15 * time.Second},
		{name: "minutes", input: "10m", want: 10 * time.Minute},
		{name: "compound", input: "1h30m", want: 90 * time.Minute},
		{name: "bare number", input: "15", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := yaml.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Std())
		})
	}
}

func TestDurationJSONRoundTrip(t *testing.T) {
	encoded, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(encoded))

	var decoded Duration
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, 90*time.Second, decoded.Std())
}
