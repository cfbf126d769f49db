// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package chat

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/syncora/syncora/internal/access"
	"github.com/syncora/syncora/internal/feed"
)

// EventSink receives change notifications after successful writes.
// feed.Service satisfies it.
type EventSink interface {
	Publish(ctx context.Context, event feed.Event) error
}

// Transformer runs AI-assisted text transforms against the external
// generative-text backend. ai.Client satisfies it. The only policy this
// package owes the backend is the USE_AI_FEATURES gate; request and
// response shapes are the transformer's business.
type Transformer interface {
	Transform(ctx context.Context, task, content string) (string, error)
	TransformConversation(ctx context.Context, action, conversationID string, messages []string) (string, error)
}

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Groups        GroupRepository
	Roles         RoleRepository
	Channels      ChannelRepository
	Members       MemberRepository
	Messages      MessageRepository
	Conversations ConversationRepository
	Authorizer    *access.Authorizer
	Feed          EventSink
	Transformer   Transformer
	Blobs         BlobStore
	Logger        *slog.Logger
}

// Service is the single mutation surface for the collaboration domain.
// Every operation resolves the caller's membership and role snapshot, asks
// the authorizer, and only then touches a repository. Authorization state is
// never cached: each call re-derives from current rows.
type Service struct {
	groups        GroupRepository
	roles         RoleRepository
	channels      ChannelRepository
	members       MemberRepository
	messages      MessageRepository
	conversations ConversationRepository
	authorizer    *access.Authorizer
	feed          EventSink
	transformer   Transformer
	blobs         BlobStore
	logger        *slog.Logger
}

// NewService creates a Service with the given configuration.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authorizer := cfg.Authorizer
	if authorizer == nil {
		authorizer = access.NewAuthorizer(logger)
	}
	return &Service{
		groups:        cfg.Groups,
		roles:         cfg.Roles,
		channels:      cfg.Channels,
		members:       cfg.Members,
		messages:      cfg.Messages,
		conversations: cfg.Conversations,
		authorizer:    authorizer,
		feed:          cfg.Feed,
		transformer:   cfg.Transformer,
		blobs:         cfg.Blobs,
		logger:        logger,
	}
}

// snapshot bundles the inputs of one authorization decision: the group, the
// caller's membership, and their resolved roles.
type snapshot struct {
	group  *access.Group
	member *access.Member
	roles  []access.Role
}

// snapshot loads the caller's current authorization inputs for a group.
// Returns ErrNotFound when the group does not exist or the user is not a
// member of it.
func (s *Service) snapshot(ctx context.Context, groupID, userID ulid.ULID) (*snapshot, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, oops.Wrapf(err, "get group %s", groupID)
	}
	member, err := s.members.GetByUser(ctx, groupID, userID)
	if err != nil {
		return nil, oops.Wrapf(err, "get membership of %s in %s", userID, groupID)
	}
	groupRoles, err := s.roles.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, oops.Wrapf(err, "list roles of %s", groupID)
	}
	return &snapshot{
		group:  group,
		member: member,
		roles:  s.authorizer.ResolveRoles(member, groupRoles),
	}, nil
}

// publish emits a feed event. A feed failure after a committed write is
// logged, not returned: subscribers recover via replay, and the mutation
// already happened.
func (s *Service) publish(ctx context.Context, event feed.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish feed event",
			"stream", event.Stream,
			"event_type", event.Type,
			"error", err)
	}
}

// CreateGroup creates a workspace owned by ownerID, seeds the standard role
// ladder, opens a general channel, and enrolls the owner as first member.
func (s *Service) CreateGroup(ctx context.Context, ownerID ulid.ULID, name string) (*access.Group, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	group := &access.Group{
		ID:      ulid.Make(),
		OwnerID: ownerID,
		Name:    name,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, oops.Wrapf(err, "create group %s", group.ID)
	}

	var defaultRoleIDs []ulid.ULID
	for _, seed := range access.DefaultRoleLadder() {
		role := &access.Role{
			ID:          ulid.Make(),
			GroupID:     group.ID,
			Name:        seed.Name,
			Color:       seed.Color,
			Position:    seed.Position,
			Permissions: seed.Permissions,
			IsDefault:   seed.IsDefault,
		}
		if err := s.roles.Create(ctx, role); err != nil {
			return nil, oops.Wrapf(err, "seed role %q in group %s", seed.Name, group.ID)
		}
		if role.IsDefault {
			defaultRoleIDs = append(defaultRoleIDs, role.ID)
		}
	}

	general := &access.Channel{
		ID:      ulid.Make(),
		GroupID: group.ID,
		Name:    "general",
		Type:    access.ChannelText,
	}
	if err := s.channels.Create(ctx, general); err != nil {
		return nil, oops.Wrapf(err, "create general channel in group %s", group.ID)
	}

	owner := &access.Member{
		ID:      ulid.Make(),
		GroupID: group.ID,
		UserID:  ownerID,
		RoleIDs: defaultRoleIDs,
	}
	if err := s.members.Create(ctx, owner); err != nil {
		return nil, oops.Wrapf(err, "enroll owner in group %s", group.ID)
	}

	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(group.ID),
		Type:    feed.EventMemberJoined,
		ActorID: ownerID.String(),
	})
	return group, nil
}

// DeleteGroup removes a group and everything it owns. Requires MANAGE_GROUP.
func (s *Service) DeleteGroup(ctx context.Context, callerID, groupID ulid.ULID) error {
	snap, err := s.snapshot(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, access.PermManageGroup); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, groupID); err != nil {
		return oops.Wrapf(err, "delete group %s", groupID)
	}
	return nil
}

// JoinGroup enrolls a user with the group's default roles.
func (s *Service) JoinGroup(ctx context.Context, userID, groupID ulid.ULID) (*access.Member, error) {
	if _, err := s.groups.Get(ctx, groupID); err != nil {
		return nil, oops.Wrapf(err, "get group %s", groupID)
	}
	groupRoles, err := s.roles.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, oops.Wrapf(err, "list roles of %s", groupID)
	}
	var defaultRoleIDs []ulid.ULID
	for _, r := range groupRoles {
		if r.IsDefault {
			defaultRoleIDs = append(defaultRoleIDs, r.ID)
		}
	}

	member := &access.Member{
		ID:      ulid.Make(),
		GroupID: groupID,
		UserID:  userID,
		RoleIDs: defaultRoleIDs,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, oops.Wrapf(err, "enroll user %s in group %s", userID, groupID)
	}

	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(groupID),
		Type:    feed.EventMemberJoined,
		ActorID: userID.String(),
	})
	return member, nil
}

// KickMember removes another member from the group. Requires KICK_MEMBERS.
// The owner cannot be kicked.
func (s *Service) KickMember(ctx context.Context, callerID, groupID, memberID ulid.ULID) error {
	snap, err := s.snapshot(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, access.PermKickMembers); err != nil {
		return err
	}

	target, err := s.members.Get(ctx, memberID)
	if err != nil {
		return oops.Wrapf(err, "get member %s", memberID)
	}
	if target.GroupID != groupID {
		return oops.In("chat").Code("MEMBER_NOT_FOUND").With("member_id", memberID.String()).Wrap(access.ErrNotFound)
	}
	if access.IsOwner(target.UserID, snap.group) {
		return oops.In("chat").Code("CANNOT_KICK_OWNER").
			With("member_id", memberID.String()).
			Wrap(access.ErrConstraintViolation)
	}

	if err := s.members.Delete(ctx, memberID); err != nil {
		return oops.Wrapf(err, "kick member %s", memberID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(groupID),
		Type:    feed.EventMemberLeft,
		ActorID: callerID.String(),
	})
	return nil
}

// LeaveGroup removes the caller's own membership. The owner cannot leave
// their own group; they delete it instead.
func (s *Service) LeaveGroup(ctx context.Context, callerID, groupID ulid.ULID) error {
	snap, err := s.snapshot(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if access.IsOwner(callerID, snap.group) {
		return oops.In("chat").Code("OWNER_CANNOT_LEAVE").Wrap(access.ErrConstraintViolation)
	}
	if err := s.members.Delete(ctx, snap.member.ID); err != nil {
		return oops.Wrapf(err, "leave group %s", groupID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(groupID),
		Type:    feed.EventMemberLeft,
		ActorID: callerID.String(),
	})
	return nil
}

// CreateRole adds a role to the group. Requires MANAGE_ROLES.
func (s *Service) CreateRole(ctx context.Context, callerID, groupID ulid.ULID, name, color string, position int, perms access.PermissionSet) (*access.Role, error) {
	snap, err := s.snapshot(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, access.PermManageRoles); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateColor(color); err != nil {
		return nil, err
	}

	role := &access.Role{
		ID:          ulid.Make(),
		GroupID:     groupID,
		Name:        name,
		Color:       color,
		Position:    position,
		Permissions: perms,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, oops.Wrapf(err, "create role in group %s", groupID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(groupID),
		Type:    feed.EventRolesChanged,
		ActorID: callerID.String(),
	})
	return role, nil
}

// UpdateRole edits a role's attributes and permissions. Requires MANAGE_ROLES.
func (s *Service) UpdateRole(ctx context.Context, callerID ulid.ULID, role *access.Role) error {
	snap, err := s.snapshot(ctx, role.GroupID, callerID)
	if err != nil {
		return err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, access.PermManageRoles); err != nil {
		return err
	}
	if err := ValidateName(role.Name); err != nil {
		return err
	}
	if err := ValidateColor(role.Color); err != nil {
		return err
	}
	if err := s.roles.Update(ctx, role); err != nil {
		return oops.Wrapf(err, "update role %s", role.ID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(role.GroupID),
		Type:    feed.EventRolesChanged,
		ActorID: callerID.String(),
	})
	return nil
}

// DeleteRole removes a role. Requires MANAGE_ROLES. Default roles are
// protected: the attempt fails with a constraint violation before any store
// mutation. Deleting a role clears it from members and channel allow-lists.
func (s *Service) DeleteRole(ctx context.Context, callerID, groupID, roleID ulid.ULID) error {
	snap, err := s.snapshot(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, access.PermManageRoles); err != nil {
		return err
	}

	role, err := s.roles.Get(ctx, roleID)
	if err != nil {
		return oops.Wrapf(err, "get role %s", roleID)
	}
	if role.GroupID != groupID {
		return oops.In("chat").Code("ROLE_NOT_FOUND").With("role_id", roleID.String()).Wrap(access.ErrNotFound)
	}
	if role.IsDefault {
		return oops.In("chat").Code("DEFAULT_ROLE_PROTECTED").
			With("role_id", roleID.String()).
			Wrap(access.ErrConstraintViolation)
	}

	if err := s.roles.Delete(ctx, roleID); err != nil {
		return oops.Wrapf(err, "delete role %s", roleID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(groupID),
		Type:    feed.EventRolesChanged,
		ActorID: callerID.String(),
	})
	return nil
}

// AssignRole grants a role to a member. Requires MANAGE_ROLES. The role must
// belong to the member's group.
func (s *Service) AssignRole(ctx context.Context, callerID, groupID, memberID, roleID ulid.ULID) error {
	snap, err := s.snapshot(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, access.PermManageRoles); err != nil {
		return err
	}

	role, err := s.roles.Get(ctx, roleID)
	if err != nil {
		return oops.Wrapf(err, "get role %s", roleID)
	}
	if role.GroupID != groupID {
		return oops.In("chat").Code("CROSS_GROUP_ROLE").
			With("role_id", roleID.String()).
			With("group_id", groupID.String()).
			Wrap(access.ErrConstraintViolation)
	}

	target, err := s.members.Get(ctx, memberID)
	if err != nil {
		return oops.Wrapf(err, "get member %s", memberID)
	}
	if target.GroupID != groupID {
		return oops.In("chat").Code("MEMBER_NOT_FOUND").With("member_id", memberID.String()).Wrap(access.ErrNotFound)
	}
	if target.HasRole(roleID) {
		return nil
	}

	if err := s.members.SetRoles(ctx, memberID, append(target.RoleIDs, roleID)); err != nil {
		return oops.Wrapf(err, "assign role %s to member %s", roleID, memberID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(groupID),
		Type:    feed.EventRolesChanged,
		ActorID: callerID.String(),
	})
	return nil
}

// RevokeRole removes a role from a member. Requires MANAGE_ROLES.
func (s *Service) RevokeRole(ctx context.Context, callerID, groupID, memberID, roleID ulid.ULID) error {
	snap, err := s.snapshot(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, access.PermManageRoles); err != nil {
		return err
	}

	target, err := s.members.Get(ctx, memberID)
	if err != nil {
		return oops.Wrapf(err, "get member %s", memberID)
	}
	if target.GroupID != groupID {
		return oops.In("chat").Code("MEMBER_NOT_FOUND").With("member_id", memberID.String()).Wrap(access.ErrNotFound)
	}

	kept := make([]ulid.ULID, 0, len(target.RoleIDs))
	for _, id := range target.RoleIDs {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(target.RoleIDs) {
		return nil
	}

	if err := s.members.SetRoles(ctx, memberID, kept); err != nil {
		return oops.Wrapf(err, "revoke role %s from member %s", roleID, memberID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(groupID),
		Type:    feed.EventRolesChanged,
		ActorID: callerID.String(),
	})
	return nil
}

// EffectivePermissions returns a user's effective permission set in a group.
// The owner gets every permission regardless of roles.
func (s *Service) EffectivePermissions(ctx context.Context, groupID, userID ulid.ULID) (access.PermissionSet, error) {
	snap, err := s.snapshot(ctx, groupID, userID)
	if err != nil {
		return access.NoPermissions, err
	}
	if access.IsOwner(userID, snap.group) {
		return access.AllPermissions, nil
	}
	return access.EffectivePermissions(snap.roles), nil
}

// DisplayRole returns the role that colors a user's name in a group, or nil
// when the user holds no resolvable roles.
func (s *Service) DisplayRole(ctx context.Context, groupID, userID ulid.ULID) (*access.Role, error) {
	snap, err := s.snapshot(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	return access.DisplayRole(snap.roles), nil
}
