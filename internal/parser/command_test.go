package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEnvelope(t *testing.T) {
	cmd := mustParse(t, "kai add wine €60 paid by Avi custom Dan:30, Sara:20, Avi:10")

	data, err := Marshal(cmd)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"add"`)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, cmd, back)
}

func TestUnmarshalRejectsUnknownKind(t *testing.T) {
	_, err := Unmarshal([]byte(`{"kind":"drop","command":{}}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}
