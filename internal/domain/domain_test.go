package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestNotice_FieldCoversSchema(t *testing.T) {
	var n Notice
	for _, name := range NoticeFields {
		field := n.Field(name)
		require.NotNil(t, field, name)
		*field = ptr(name)
	}
	assert.Nil(t, n.Field("inventaire"))

	assert.Equal(t, "reference", *n.Reference)
	assert.Equal(t, "date_creation", *n.DateCreation)
	assert.Equal(t, "description", *n.Description)
}

func TestNotice_Values(t *testing.T) {
	n := Notice{Reference: ptr("000PE000001"), Ville: ptr("Paris")}

	values := n.Values()
	require.Len(t, values, len(NoticeFields))
	assert.Equal(t, "000PE000001", values[0])
	assert.Nil(t, values[1])
	assert.Equal(t, "Paris", values[7])
}

func TestFileState_Terminal(t *testing.T) {
	terminal := []FileState{StateParseFailed, StateCommitFailed, StateArchiveFailed, StateDone}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []FileState{StateDetected, StateParsing, StateInserting, StateArchiving} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestIngestOutcome(t *testing.T) {
	o := &IngestOutcome{
		State:    StateDone,
		Failures: []RecordFailure{{Index: 3, Error: "x"}, {Index: 7, Error: "y"}},
	}
	assert.True(t, o.Succeeded())
	assert.Equal(t, []int{3, 7}, o.FailedIndices())

	o.Fail(StateArchiveFailed, errors.New("file exists"))
	assert.False(t, o.Succeeded())
	assert.True(t, o.ArchiveFailed())
	assert.Equal(t, "file exists", o.Reason)
}
