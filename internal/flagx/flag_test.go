package flagx

import (
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "flag with separate value, others dropped",
			args:         []string{"-d", "postgres://db/kachery", "-a", ":8080"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d", "postgres://db/kachery"},
		},
		{
			name:         "equals form kept whole",
			args:         []string{"-config=gateway.json", "-a", ":8080"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=gateway.json"},
		},
		{
			name:         "order preserved across mixed forms",
			args:         []string{"-config=first.json", "-c", "second.json", "-x", "1"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=first.json", "-c", "second.json"},
		},
		{
			name:         "unknown flags and positionals ignored",
			args:         []string{"-x", "1", "-y=2", "store", "data.bin"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{},
		},
		{
			name:         "trailing flag without value kept as-is",
			args:         []string{"-z"},
			allowedFlags: []string{"-z"},
			want:         []string{"-z"},
		},
		{
			name:         "following flag is not mistaken for a value",
			args:         []string{"-z", "-notvalue"},
			allowedFlags: []string{"-z"},
			want:         []string{"-z"},
		},
		{
			name:         "multiple allowed flags kept",
			args:         []string{"-a", ":9090", "-m", "github|root,github|ops", "-other", "x"},
			allowedFlags: []string{"-a", "-m"},
			want:         []string{"-a", ":9090", "-m", "github|root,github|ops"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{},
		},
		{
			name:         "repeated flag preserved in order",
			args:         []string{"-z", "scratch", "-z", "lab"},
			allowedFlags: []string{"-z"},
			want:         []string{"-z", "scratch", "-z", "lab"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"gateway", "-c", "/etc/gateway/short.json"}
		assert.Equal(t, "/etc/gateway/short.json", JsonConfigFlags())
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"gateway", "-config", "/etc/gateway/long.json"}
		assert.Equal(t, "/etc/gateway/long.json", JsonConfigFlags())
	})

	t.Run("other flags are ignored", func(t *testing.T) {
		os.Args = []string{"gateway", "-a", ":8080", "-d", "dsn"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("last occurrence wins", func(t *testing.T) {
		os.Args = []string{"gateway", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", JsonConfigFlags())
	})
}
