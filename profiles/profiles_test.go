package profiles_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/compository/app/conductor"
	"github.com/compository/app/holo"
	"github.com/compository/app/profiles"
)

type fakeProfiles struct {
	mine *profiles.AgentProfile
}

func (it *fakeProfiles) CallZome(ctx context.Context, call conductor.ZomeCall, out interface{}) error {
	var value interface{}
	switch call.FnName {
	case "get_my_profile":
		value = it.mine
	case "create_profile":
		profile := profiles.Profile{}
		if err := msgpack.Unmarshal(call.Payload, &profile); err != nil {
			return err
		}
		it.mine = &profiles.AgentProfile{AgentPubKey: call.Provenance, Profile: profile}
		value = it.mine
	}
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(raw, out)
}

func testService(fake *fakeProfiles) *profiles.Service {
	cell := holo.NewCellId(holo.Compute(holo.KindDna, []byte("dna")), holo.Compute(holo.KindAgent, []byte("agent")))
	return profiles.NewService(fake, cell)
}

func TestMissingProfileIsNil(t *testing.T) {
	mine, err := testService(&fakeProfiles{}).GetMyProfile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, mine)
}

func TestCreateThenGetProfile(t *testing.T) {
	fake := &fakeProfiles{}
	service := testService(fake)

	created, err := service.CreateProfile(context.Background(), "  alice  ")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Profile.Nickname)

	mine, err := service.GetMyProfile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.Equal(t, "alice", mine.Profile.Nickname)
}

func TestShortNicknameIsRejected(t *testing.T) {
	_, err := testService(&fakeProfiles{}).CreateProfile(context.Background(), "ab")
	assert.ErrorIs(t, err, profiles.ErrNicknameTooShort)
}
