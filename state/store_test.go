package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertof/go-stylus-bridge/state"
)

type recorder struct {
	changes []state.Change
}

func (r *recorder) Publish(c state.Change) {
	r.changes = append(r.changes, c)
}

func (r *recorder) properties() []state.Property {
	var out []state.Property
	for _, c := range r.changes {
		out = append(out, c.Property)
	}
	return out
}

func TestStore_InitialSnapshot(t *testing.T) {
	s := state.NewStore(state.Immediate{}, nil)

	assert.Equal(t, state.Snapshot{Message: state.InitialMessage}, s.Snapshot())
	assert.False(t, s.CopyToClipboard())
}

func TestStore_EachMutationNamesItsProperty(t *testing.T) {
	rec := &recorder{}
	s := state.NewStore(state.Immediate{}, rec)

	s.SetDevices([]string{"aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02"})
	s.SetSelectedDevice("aa:bb:cc:dd:ee:01")
	s.SetMessage("Stylus scanned value 1")
	s.SetRawData("1, 0, 0, 0")
	s.SetCopyToClipboard(true)

	assert.Equal(t, []state.Property{
		state.PropertyDevices,
		state.PropertySelectedDevice,
		state.PropertyMessage,
		state.PropertyRawData,
		state.PropertyCopyToClipboard,
	}, rec.properties())

	assert.Equal(t, state.Snapshot{
		Devices:         []string{"aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02"},
		SelectedDevice:  "aa:bb:cc:dd:ee:01",
		Message:         "Stylus scanned value 1",
		RawData:         "1, 0, 0, 0",
		CopyToClipboard: true,
	}, s.Snapshot())

	assert.Equal(t, "Stylus scanned value 1", rec.changes[2].Value)
	assert.Equal(t, true, rec.changes[4].Value)
	assert.False(t, rec.changes[0].At.IsZero())
}

func TestStore_UnchangedValuesAreNotPublished(t *testing.T) {
	rec := &recorder{}
	s := state.NewStore(state.Immediate{}, rec)

	s.SetMessage(state.InitialMessage)
	s.SetCopyToClipboard(false)
	s.SetDevices(nil)
	assert.Empty(t, rec.changes)

	s.SetRawData("1, 2, 3")
	s.SetRawData("1, 2, 3")
	assert.Len(t, rec.changes, 1)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := state.NewStore(state.Immediate{}, nil)
	devices := []string{"aa:bb:cc:dd:ee:01"}

	s.SetDevices(devices)
	devices[0] = "mutated"

	snap := s.Snapshot()
	require.Equal(t, []string{"aa:bb:cc:dd:ee:01"}, snap.Devices)

	snap.Devices[0] = "mutated"
	assert.Equal(t, []string{"aa:bb:cc:dd:ee:01"}, s.Snapshot().Devices)
}

func TestPublishers_FanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	ch := state.NewChanPublisher(1)
	s := state.NewStore(state.Immediate{}, state.Publishers{a, b, ch})

	s.SetMessage("hello")
	s.SetMessage("dropped on the full channel")

	assert.Len(t, a.changes, 2)
	assert.Len(t, b.changes, 2)

	require.Len(t, ch.C, 1)
	c := <-ch.C
	assert.Equal(t, state.PropertyMessage, c.Property)
	assert.Equal(t, "hello", c.Value)
	assert.Equal(t, "Message=hello", c.String())
}
