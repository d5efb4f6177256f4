// Package profiles talks to the profiles zome of a generated DNA.
package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/compository/app/conductor"
	"github.com/compository/app/holo"
)

const (
	ZomeName          = "profiles"
	minNicknameLength = 3
)

var ErrNicknameTooShort = errors.New("nickname must be at least 3 characters")

type ZomeCaller interface {
	CallZome(ctx context.Context, call conductor.ZomeCall, out interface{}) error
}

type Profile struct {
	Nickname string            `msgpack:"nickname"`
	Fields   map[string]string `msgpack:"fields"`
}

type AgentProfile struct {
	AgentPubKey holo.Hash `msgpack:"agent_pub_key"`
	Profile     Profile   `msgpack:"profile"`
}

type Service struct {
	caller ZomeCaller
	cell   holo.CellId
}

func NewService(caller ZomeCaller, cell holo.CellId) *Service {
	return &Service{caller: caller, cell: cell}
}

// GetMyProfile returns nil when the agent has not created a profile yet.
func (it *Service) GetMyProfile(ctx context.Context) (*AgentProfile, error) {
	call, err := conductor.NewZomeCall(it.cell, ZomeName, "get_my_profile", nil)
	if err != nil {
		return nil, err
	}
	var result *AgentProfile
	if err := it.caller.CallZome(ctx, call, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (it *Service) CreateProfile(ctx context.Context, nickname string) (*AgentProfile, error) {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) < minNicknameLength {
		return nil, ErrNicknameTooShort
	}
	profile := Profile{Nickname: nickname, Fields: map[string]string{}}
	call, err := conductor.NewZomeCall(it.cell, ZomeName, "create_profile", &profile)
	if err != nil {
		return nil, err
	}
	result := &AgentProfile{}
	if err := it.caller.CallZome(ctx, call, result); err != nil {
		return nil, err
	}
	return result, nil
}
