package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	URL      string        `env:"SAMPLE_URL,required"`
	Timeout  time.Duration `env:"SAMPLE_TIMEOUT" envDefault:"5s"`
	TopK     int           `env:"SAMPLE_TOP_K"`
	Enabled  bool          `env:"SAMPLE_ENABLED"`
	Disabled bool          `env:"SAMPLE_DISABLED"`
	Label    string        `env:"SAMPLE_LABEL"`
	Token    string        `env:"SAMPLE_TOKEN" secret:"true"`
	Owner    int64         `env:"SAMPLE_OWNER"`
	Untagged string
	hidden   string `env:"SAMPLE_HIDDEN"`
}

func TestMarshal(t *testing.T) {
	s := &sample{
		URL:      "http://localhost:8000",
		Timeout:  300 * time.Millisecond,
		TopK:     10,
		Enabled:  true,
		Label:    "my store #1",
		Token:    "123456:ABCDEF",
		Owner:    42,
		Untagged: "x",
		hidden:   "y",
	}

	out, err := Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `SAMPLE_URL=http://localhost:8000
SAMPLE_TIMEOUT=300ms
SAMPLE_TOP_K=10
SAMPLE_ENABLED=true
SAMPLE_LABEL="my store #1"
SAMPLE_TOKEN=12*********EF
SAMPLE_OWNER=42
`, out)
}

func TestMarshal_EmptyAndInvalid(t *testing.T) {
	out, err := Marshal(&sample{})
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = Marshal(sample{})
	assert.Error(t, err)

	_, err = Marshal((*sample)(nil))
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "ab**ef", mask("abcdef"))
}
