package domain

import "errors"

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidTeam    = errors.New("invalid_team")
	ErrInvalidRole    = errors.New("invalid_role")
	ErrTeamNotFound   = errors.New("team_not_found")
	ErrMemberNotFound = errors.New("member_not_found")
	ErrAlreadyMember  = errors.New("already_member")
	ErrLastOwner      = errors.New("last_owner")
)
