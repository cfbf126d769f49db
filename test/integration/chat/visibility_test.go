// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

//go:build integration

package chat_test

import (
	"errors"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/syncora/syncora/internal/access"
	"github.com/syncora/syncora/internal/chat"
	chatpg "github.com/syncora/syncora/internal/chat/postgres"
)

var _ = Describe("Channel visibility", func() {
	var (
		ownerID  ulid.ULID
		userID   ulid.ULID
		group    *access.Group
		member   *access.Member
		modRole  access.Role
		everyone access.Role
	)

	BeforeEach(func() {
		ownerID = createTestUserID()
		userID = createTestUserID()

		var err error
		group, err = env.svc.CreateGroup(env.ctx, ownerID, "Visibility Workspace")
		Expect(err).NotTo(HaveOccurred())

		member, err = env.svc.JoinGroup(env.ctx, userID, group.ID)
		Expect(err).NotTo(HaveOccurred())

		roles, err := chatpg.NewRoleRepository(env.pool).ListByGroup(env.ctx, group.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(roles).To(HaveLen(3))
		for _, r := range roles {
			switch r.Name {
			case "Moderator":
				modRole = r
			case "Everyone":
				everyone = r
			}
		}
		Expect(modRole.ID.IsZero()).To(BeFalse())
		Expect(everyone.IsDefault).To(BeTrue())
	})

	It("hides restricted channels from members without an allowed role", func() {
		restricted, err := env.svc.CreateChannel(env.ctx, ownerID, group.ID,
			"mod-only", "Moderation notes", access.ChannelText, []ulid.ULID{modRole.ID})
		Expect(err).NotTo(HaveOccurred())

		visible, err := env.svc.ListVisibleChannels(env.ctx, group.ID, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(visible).To(HaveLen(1))
		Expect(visible[0].Name).To(Equal("general"))

		_, err = env.svc.GetChannel(env.ctx, userID, restricted.ID)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, access.ErrPermissionDenied)).To(BeTrue())

		_, err = env.svc.SendMessage(env.ctx, userID, restricted.ID, "hello?")
		Expect(errors.Is(err, access.ErrPermissionDenied)).To(BeTrue())
	})

	It("reveals a restricted channel once the role is granted", func() {
		restricted, err := env.svc.CreateChannel(env.ctx, ownerID, group.ID,
			"mod-only", "", access.ChannelText, []ulid.ULID{modRole.ID})
		Expect(err).NotTo(HaveOccurred())

		Expect(env.svc.AssignRole(env.ctx, ownerID, group.ID, member.ID, modRole.ID)).To(Succeed())

		visible, err := env.svc.ListVisibleChannels(env.ctx, group.ID, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(visible).To(HaveLen(2))

		msg, err := env.svc.SendMessage(env.ctx, userID, restricted.ID, "now I can speak")
		Expect(err).NotTo(HaveOccurred())

		msgs, err := env.svc.ListMessages(env.ctx, userID, restricted.ID, chat.ListOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].ID).To(Equal(msg.ID))
	})

	It("hides the channel again after the role is revoked", func() {
		restricted, err := env.svc.CreateChannel(env.ctx, ownerID, group.ID,
			"mod-only", "", access.ChannelText, []ulid.ULID{modRole.ID})
		Expect(err).NotTo(HaveOccurred())

		Expect(env.svc.AssignRole(env.ctx, ownerID, group.ID, member.ID, modRole.ID)).To(Succeed())
		Expect(env.svc.RevokeRole(env.ctx, ownerID, group.ID, member.ID, modRole.ID)).To(Succeed())

		_, err = env.svc.GetChannel(env.ctx, userID, restricted.ID)
		Expect(errors.Is(err, access.ErrPermissionDenied)).To(BeTrue())
	})

	It("lets the owner view every channel without any role", func() {
		_, err := env.svc.CreateChannel(env.ctx, ownerID, group.ID,
			"mod-only", "", access.ChannelText, []ulid.ULID{modRole.ID})
		Expect(err).NotTo(HaveOccurred())

		visible, err := env.svc.ListVisibleChannels(env.ctx, group.ID, ownerID)
		Expect(err).NotTo(HaveOccurred())
		Expect(visible).To(HaveLen(2))

		perms, err := env.svc.EffectivePermissions(env.ctx, group.ID, ownerID)
		Expect(err).NotTo(HaveOccurred())
		Expect(perms).To(Equal(access.AllPermissions))
	})

	It("reopens a channel whose last allowed role is deleted", func() {
		team, err := env.svc.CreateRole(env.ctx, ownerID, group.ID,
			"Team", "#00ff00", 10, access.NoPermissions)
		Expect(err).NotTo(HaveOccurred())

		restricted, err := env.svc.CreateChannel(env.ctx, ownerID, group.ID,
			"team-only", "", access.ChannelText, []ulid.ULID{team.ID})
		Expect(err).NotTo(HaveOccurred())

		_, err = env.svc.GetChannel(env.ctx, userID, restricted.ID)
		Expect(errors.Is(err, access.ErrPermissionDenied)).To(BeTrue())

		Expect(env.svc.DeleteRole(env.ctx, ownerID, group.ID, team.ID)).To(Succeed())

		// The allow-list entry went with the role, so the channel is open.
		ch, err := env.svc.GetChannel(env.ctx, userID, restricted.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ch.Open()).To(BeTrue())
	})

	It("refuses to delete the default role", func() {
		err := env.svc.DeleteRole(env.ctx, ownerID, group.ID, everyone.ID)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, access.ErrConstraintViolation)).To(BeTrue())
	})

	It("denies management operations to plain members", func() {
		_, err := env.svc.CreateChannel(env.ctx, userID, group.ID,
			"rogue", "", access.ChannelText, nil)
		Expect(errors.Is(err, access.ErrPermissionDenied)).To(BeTrue())

		_, err = env.svc.CreateRole(env.ctx, userID, group.ID,
			"Rogue", "#123456", 5, access.NoPermissions)
		Expect(errors.Is(err, access.ErrPermissionDenied)).To(BeTrue())
	})
})
