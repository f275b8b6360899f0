package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/pkg/domain"
	audit "namereg/pkg/platform/audit"
)

func TestPublishLogsEachEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	account := domain.MustParseAccount("0x00000000000000000000000000000000000000a1")
	events := []audit.Event{
		{ID: uuid.New(), Action: string(audit.EventClaimRecorded), Account: account},
		{ID: uuid.New(), Action: string(audit.EventStakeReleased), Name: "testname", Account: account, Amount: 460},
	}
	require.NoError(t, sink.Publish(context.Background(), events))

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "claim_recorded", first["event"])
	assert.NotContains(t, first, "name")
	assert.Equal(t, "stake_released", second["event"])
	assert.Equal(t, "testname", second["name"])
	assert.Equal(t, float64(460), second["amount"])
}
